package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"quizbank/internal/question"
)

// File is the on-disk layout of a question bank export.
type File struct {
	Questions []question.RawQuestionRecord `json:"questions" yaml:"questions"`
}

// LoadFile reads a YAML or JSON bank file. The extension picks the format.
func LoadFile(path string) ([]question.RawQuestionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) ([]question.RawQuestionRecord, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if err == io.EOF {
			return []question.RawQuestionRecord{}, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return normalizeFile(f), nil
}

func ParseJSON(data []byte) ([]question.RawQuestionRecord, error) {
	if err := validateJSONFile(data); err != nil {
		return nil, err
	}
	var f File
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return normalizeFile(f), nil
}

// normalizeFile replaces missing child lists with empty ones so file records
// look like grouped database rows.
func normalizeFile(f File) []question.RawQuestionRecord {
	out := make([]question.RawQuestionRecord, 0, len(f.Questions))
	for _, rec := range f.Questions {
		if rec.Options == nil {
			rec.Options = []question.OptionRecord{}
		}
		if rec.Pairs == nil {
			rec.Pairs = []question.MatchPairRecord{}
		}
		out = append(out, rec)
	}
	return out
}

// WriteYAML encodes records in the bank file layout.
func WriteYAML(w io.Writer, records []question.RawQuestionRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Questions: records}); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

package bank

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
questions:
  - id: 10
    type: True/False
    text: The sun is a star
    topic: Science
    options:
      - text: "True"
        is_correct: true
      - text: "False"
  - id: 11
    type: match
    text: Match symbols
    topic: Science
    subtopic: Chemistry
    explanation: Symbols come from Latin names.
    options:
      - text: See pairs
    pairs:
      - left: Fe
        right: Iron
      - left: Au
        right: Gold
`

func TestParseYAML(t *testing.T) {
	got, err := ParseYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].KindLabel != "True/False" || !got[0].Options[0].IsCorrect || got[0].Options[1].IsCorrect {
		t.Fatalf("unexpected first record %+v", got[0])
	}
	if got[0].Pairs == nil {
		t.Fatalf("expected empty pair list, got nil")
	}
	if got[1].Subtopic != "Chemistry" || len(got[1].Pairs) != 2 || got[1].Pairs[1].Right != "Gold" {
		t.Fatalf("unexpected second record %+v", got[1])
	}
}

func TestParseYAMLRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "unknown field", in: "questions:\n  - id: 1\n    kind: mcq\n"},
		{name: "multiple documents", in: "questions: []\n---\nquestions: []\n"},
		{name: "bad syntax", in: "questions: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tc.in)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadFileJSONAndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "bank.json")
	body := `{"questions":[{"id":5,"type":"MCQ","text":"Q","topic":"T","options":[{"text":"a","is_correct":true},{"text":"b","is_correct":false}],"pairs":[]}]}`
	if err := os.WriteFile(jsonPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if len(got) != 1 || got[0].ID != 5 || len(got[0].Options) != 2 {
		t.Fatalf("unexpected records %+v", got)
	}

	var buf bytes.Buffer
	if err := WriteYAML(&buf, got); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	back, err := ParseYAML(buf.Bytes())
	if err != nil {
		t.Fatalf("parse written yaml: %v", err)
	}
	if len(back) != 1 || back[0].Prompt != "Q" || !back[0].Options[0].IsCorrect {
		t.Fatalf("expected written yaml to load back, got %+v", back)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseJSONSchema(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "valid", in: `{"questions":[{"id":1,"type":"MCQ","text":"Q","topic":"T","subtopic":null,"options":[{"text":"a","is_correct":true}]}]}`},
		{name: "empty bank", in: `{"questions":[]}`},
		{name: "missing questions", in: `{}`, wantErr: true},
		{name: "wrong correctness type", in: `{"questions":[{"options":[{"text":"a","is_correct":"yes"}]}]}`, wantErr: true},
		{name: "negative id", in: `{"questions":[{"id":-1}]}`, wantErr: true},
		{name: "unknown option field", in: `{"questions":[{"options":[{"text":"a","weight":2}]}]}`, wantErr: true},
		{name: "pair without right", in: `{"questions":[{"pairs":[{"left":"a"}]}]}`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tc.in))
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
		})
	}

	if _, err := ParseJSON([]byte(`{"questions":`)); err == nil {
		t.Fatalf("expected error for truncated document")
	}
}

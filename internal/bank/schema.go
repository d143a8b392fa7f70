package bank

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// fileSchema describes the JSON bank layout. Field presence is left to the
// validator so incomplete records are reported as issues rather than
// rejected here.
const fileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["questions"],
  "additionalProperties": false,
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "id": {"type": "integer", "minimum": 0},
          "type": {"type": "string"},
          "text": {"type": "string"},
          "topic": {"type": "string"},
          "subtopic": {"type": ["string", "null"]},
          "explanation": {"type": ["string", "null"]},
          "options": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["text"],
              "properties": {
                "text": {"type": "string"},
                "is_correct": {"type": "boolean"}
              }
            }
          },
          "pairs": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["left", "right"],
              "properties": {
                "left": {"type": "string"},
                "right": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var fileSchemaLoader = gojsonschema.NewStringLoader(fileSchema)

// validateJSONFile checks a JSON bank document against fileSchema.
func validateJSONFile(data []byte) error {
	res, err := gojsonschema.Validate(fileSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: bank file does not match schema: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

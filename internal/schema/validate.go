package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResumeSchema is the JSON Schema document for a full resume record.
// Unknown extra fields are tolerated; model providers occasionally attach
// metadata keys and rejecting them would make extraction needlessly brittle.
const ResumeSchema = `{
  "type": "object",
  "required": ["name", "email", "phone"],
  "properties": {
    "name": {"type": "string"},
    "email": {"type": "string"},
    "phone": {"type": "string"},
    "experience": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "company", "dates", "description"],
        "properties": {
          "title": {"type": "string"},
          "company": {"type": "string"},
          "dates": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["degree", "school", "dates"],
        "properties": {
          "degree": {"type": "string"},
          "school": {"type": "string"},
          "dates": {"type": "string"}
        }
      }
    },
    "skills": {
      "type": "array",
      "items": {"type": "string"}
    },
    "projects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "description"],
        "properties": {
          "name": {"type": "string"},
          "description": {"type": "string"},
          "link": {"type": "string"}
        }
      }
    }
  }
}`

// ExperienceEntrySchema is the JSON Schema document for a single work
// experience entry.
const ExperienceEntrySchema = `{
  "type": "object",
  "required": ["title", "company", "dates", "description"],
  "properties": {
    "title": {"type": "string"},
    "company": {"type": "string"},
    "dates": {"type": "string"},
    "description": {"type": "string"}
  }
}`

// SectionTextSchema is the JSON Schema document for the output of a
// free-text section rewrite.
const SectionTextSchema = `{
  "type": "object",
  "required": ["enhanced_text"],
  "properties": {
    "enhanced_text": {"type": "string"}
  }
}`

// ValidationError represents a schema validation failure with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateDocument validates raw JSON content against a JSON Schema
// document. It is pure: the same input always yields the same result and
// nothing is mutated. Returns nil on success, a *ValidationError when the
// content does not match, or a plain error when the content or schema is
// not parseable JSON at all.
func ValidateDocument(schemaContent string, raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// Validate checks raw JSON against ResumeSchema and decodes it into a
// normalized Resume. It never returns a partially constructed record: on
// any failure the resume is nil. Used identically for model output and for
// the store's read path.
func Validate(raw []byte) (*Resume, error) {
	if err := ValidateDocument(ResumeSchema, raw); err != nil {
		return nil, err
	}

	var resume Resume
	if err := json.Unmarshal(raw, &resume); err != nil {
		return nil, fmt.Errorf("failed to decode resume: %w", err)
	}
	resume.Normalize()
	return &resume, nil
}

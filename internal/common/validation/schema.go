package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// PrincipalSchema describes the identity stored under a session key. The
// backend's user ids are numeric, so id may be an integer.
const PrincipalSchema = `{
	"type": "object",
	"required": ["id", "role"],
	"properties": {
		"id":   {"type": ["string", "integer"], "minLength": 1},
		"role": {"type": "string", "minLength": 1}
	}
}`

// SummaryInputSchema describes the variables of a dashboard summary job.
const SummaryInputSchema = `{
	"type": "object",
	"required": ["userId", "role"],
	"properties": {
		"userId":       {"type": ["string", "integer"], "minLength": 1},
		"role":         {"type": "string", "minLength": 1},
		"searchQuery":  {"type": "string"},
		"statusFilter": {"type": "string"}
	}
}`

const rootField = "(root)"

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema, safe for concurrent use.
type Schema struct {
	compiled *gojsonschema.Schema
}

func Compile(schemaJSON string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// MustCompile panics on an invalid schema; used for package-level schemas.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateBytes validates a raw JSON document. Malformed JSON is reported as
// a single INVALID_JSON error rather than a Go error.
func (s *Schema) ValidateBytes(document []byte) *ValidationResult {
	return s.validate(gojsonschema.NewBytesLoader(document))
}

// ValidateInput validates an already decoded document such as job variables.
func (s *Schema) ValidateInput(input map[string]interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(input))
}

func (s *Schema) validate(loader gojsonschema.JSONLoader) *ValidationResult {
	result, err := s.compiled.Validate(loader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   rootField,
				Message: err.Error(),
				Code:    "INVALID_JSON",
			}},
		}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errs,
	}
}

// fieldOf names the offending property; required errors are reported on the
// parent object with the missing name in the details.
func fieldOf(desc gojsonschema.ResultError) string {
	field := desc.Field()
	prop, ok := desc.Details()["property"].(string)
	if !ok || prop == "" || strings.HasSuffix(field, prop) {
		return field
	}
	if field == rootField {
		return prop
	}
	return field + "." + prop
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

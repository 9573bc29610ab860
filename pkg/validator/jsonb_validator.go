package validator

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rpattn/canvasdb/internal/domain"

	"github.com/xeipuuv/gojsonschema"
)

// JSONBValidator validates record payloads against the fields of their table.
// The table definition is turned into a JSON Schema; keys without a field
// definition are allowed.
type JSONBValidator struct{}

// NewJSONBValidator creates a new JSONB validator
func NewJSONBValidator() *JSONBValidator {
	return &JSONBValidator{}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// Err folds an invalid result into an error wrapping domain.ErrInvalidInput.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

// SchemaFor builds the JSON Schema describing records of table.
func SchemaFor(table domain.Table) map[string]any {
	properties := make(map[string]any, len(table.Fields))
	required := []string{}
	for _, field := range table.Fields {
		properties[field.Name] = fieldSchema(field)
		if field.Required {
			required = append(required, field.Name)
		}
	}
	schema := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}
	return schema
}

func fieldSchema(field domain.Field) map[string]any {
	var types []string
	switch field.Type {
	case domain.FieldTypeNumber:
		types = []string{"number"}
	case domain.FieldTypeRelation:
		types = []string{"number", "string"}
	default:
		types = []string{"string"}
	}
	if !field.Required {
		types = append(types, "null")
	}

	schema := map[string]any{"type": types}
	if field.Type == domain.FieldTypeSelect {
		if choices := field.Choices(); len(choices) > 0 {
			enum := make([]any, 0, len(choices)+1)
			for _, c := range choices {
				enum = append(enum, c)
			}
			if !field.Required {
				enum = append(enum, nil)
			}
			schema["enum"] = enum
		}
	}
	return schema
}

// ApplyDefaults returns a copy of data in which absent optional fields that
// declare a default value are filled in. Number defaults are parsed; a
// default that does not parse as a number is skipped.
func ApplyDefaults(table domain.Table, data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+len(table.Fields))
	for k, v := range data {
		out[k] = v
	}
	for _, field := range table.Fields {
		if field.DefaultValue == nil {
			continue
		}
		if _, present := out[field.Name]; present {
			continue
		}
		raw := *field.DefaultValue
		if field.Type == domain.FieldTypeNumber {
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				continue
			}
			out[field.Name] = f
			continue
		}
		out[field.Name] = raw
	}
	return out
}

// ValidateRecord validates data against the fields of table.
func (jv *JSONBValidator) ValidateRecord(table domain.Table, data map[string]any) ValidationResult {
	result := ValidationResult{IsValid: true, Errors: []ValidationError{}}
	if data == nil {
		data = map[string]any{}
	}

	res, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(SchemaFor(table)),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   "(root)",
			Message: fmt.Sprintf("schema evaluation failed: %v", err),
		})
		return result
	}
	if res.Valid() {
		return result
	}

	result.IsValid = false
	for _, e := range res.Errors() {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldOf(e),
			Message: e.Description(),
			Value:   e.Value(),
		})
	}
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Field < result.Errors[j].Field
	})
	return result
}

// Validate applies defaults and validates in one step, returning the data to
// store or an error wrapping domain.ErrInvalidInput.
func (jv *JSONBValidator) Validate(table domain.Table, data map[string]any) (map[string]any, error) {
	filled := ApplyDefaults(table, data)
	if err := jv.ValidateRecord(table, filled).Err(); err != nil {
		return nil, err
	}
	return filled, nil
}

// fieldOf reports the record key a schema error is about. Missing required
// properties are reported on the root with the property in the details.
func fieldOf(e gojsonschema.ResultError) string {
	if prop, ok := e.Details()["property"].(string); ok && prop != "" {
		return prop
	}
	field := e.Field()
	if field == "" {
		return "(root)"
	}
	return field
}

// IsInvalid reports whether err came from record validation.
func IsInvalid(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}

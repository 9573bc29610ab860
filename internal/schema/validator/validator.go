package validator

import (
	"fmt"
	"strings"

	"github.com/rpattn/canvasdb/internal/domain"
)

// ValidateFields checks a set of field definitions for a table: every field
// must be valid on its own and names must be unique within the set.
func ValidateFields(fields []domain.Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if err := ValidateField(field); err != nil {
			return err
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("%w: field %s is defined more than once", domain.ErrInvalidInput, field.Name)
		}
		seen[field.Name] = struct{}{}
	}
	return nil
}

// ValidateField checks a single field definition.
func ValidateField(field domain.Field) error {
	name := strings.TrimSpace(field.Name)
	if name == "" {
		return fmt.Errorf("%w: field name is required", domain.ErrInvalidInput)
	}
	if name != field.Name || strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("%w: field name %q must not contain whitespace", domain.ErrInvalidInput, field.Name)
	}
	if strings.Contains(name, "`") {
		return fmt.Errorf("%w: field name %q must not contain a backtick", domain.ErrInvalidInput, field.Name)
	}
	if name == "id" {
		return fmt.Errorf("%w: field name id is reserved for the record id", domain.ErrInvalidInput)
	}
	if !field.Type.Valid() {
		return fmt.Errorf("%w: field %s has unsupported type %q", domain.ErrInvalidInput, field.Name, field.Type)
	}

	switch field.Type {
	case domain.FieldTypeRelation:
		if _, ok := field.RelationTable(); !ok {
			return fmt.Errorf("%w: relation field %s must set options.relation_table", domain.ErrInvalidInput, field.Name)
		}
	case domain.FieldTypeSelect:
		choices := field.Choices()
		if len(choices) == 0 {
			return fmt.Errorf("%w: select field %s must list options.choices", domain.ErrInvalidInput, field.Name)
		}
		if field.DefaultValue != nil && !contains(choices, *field.DefaultValue) {
			return fmt.Errorf("%w: default %q of field %s is not one of its choices", domain.ErrInvalidInput, *field.DefaultValue, field.Name)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// FieldType represents the type of a column in a user-defined table
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRelation FieldType = "relation"
)

// Valid reports whether the field type is one of the supported kinds.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeSelect, FieldTypeRelation:
		return true
	}
	return false
}

// Field describes one typed column of a table
type Field struct {
	ID           int64          `json:"id"`
	TableID      int64          `json:"table_id"`
	Name         string         `json:"name"`
	DisplayName  string         `json:"display_name"`
	Type         FieldType      `json:"field_type"`
	Options      map[string]any `json:"options,omitempty"`
	Required     bool           `json:"required"`
	DefaultValue *string        `json:"default_value,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RelationTable returns the table a relation field points at.
func (f Field) RelationTable() (string, bool) {
	if f.Type != FieldTypeRelation || f.Options == nil {
		return "", false
	}
	name, _ := f.Options["relation_table"].(string)
	name = strings.TrimSpace(name)
	return name, name != ""
}

// Choices returns the allowed values of a select field.
func (f Field) Choices() []string {
	if f.Type != FieldTypeSelect || f.Options == nil {
		return nil
	}
	switch raw := f.Options["choices"].(type) {
	case []string:
		return append([]string(nil), raw...)
	case []any:
		choices := make([]string, 0, len(raw))
		for _, item := range raw {
			choices = append(choices, fmt.Sprintf("%v", item))
		}
		return choices
	default:
		return nil
	}
}

// Table is a user-defined schema holding JSON records
type Table struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Description string     `json:"description,omitempty"`
	Fields      []Field    `json:"fields"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// NewTable creates a new table definition with copied fields
func NewTable(name, displayName, description string, fields []Field) Table {
	return Table{
		Name:        name,
		DisplayName: displayName,
		Description: description,
		Fields:      copyFields(fields),
		CreatedAt:   time.Now(),
	}
}

// FieldByName looks up a field definition by its name.
func (t Table) FieldByName(name string) (Field, bool) {
	for _, field := range t.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// WithField returns a new table with an added/updated field
func (t Table) WithField(field Field) Table {
	newFields := copyFields(t.Fields)

	found := false
	for i, existing := range newFields {
		if existing.Name == field.Name {
			newFields[i] = field
			found = true
			break
		}
	}
	if !found {
		newFields = append(newFields, field)
	}

	now := time.Now()
	t.Fields = newFields
	t.UpdatedAt = &now
	return t
}

// WithoutField returns a new table without the named field
func (t Table) WithoutField(name string) Table {
	newFields := make([]Field, 0, len(t.Fields))
	for _, field := range t.Fields {
		if field.Name != name {
			newFields = append(newFields, field)
		}
	}
	now := time.Now()
	t.Fields = newFields
	t.UpdatedAt = &now
	return t
}

func copyFields(fields []Field) []Field {
	if fields == nil {
		return []Field{}
	}
	out := make([]Field, len(fields))
	for i, field := range fields {
		field.Options = copyData(field.Options)
		out[i] = field
	}
	return out
}

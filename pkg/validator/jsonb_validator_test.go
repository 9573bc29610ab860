package validator

import (
	"errors"
	"testing"

	"github.com/rpattn/canvasdb/internal/domain"
)

func ordersTable() domain.Table {
	pending := "pending"
	qty := "1"
	return domain.Table{
		ID:   4,
		Name: "orders",
		Fields: []domain.Field{
			{Name: "variant_id", Type: domain.FieldTypeNumber, Required: true},
			{Name: "qty", Type: domain.FieldTypeNumber, DefaultValue: &qty},
			{Name: "status", Type: domain.FieldTypeSelect, DefaultValue: &pending, Options: map[string]any{
				"choices": []any{"pending", "in_progress", "completed"},
			}},
			{Name: "customer", Type: domain.FieldTypeText},
			{Name: "product", Type: domain.FieldTypeRelation, Options: map[string]any{"relation_table": "products"}},
		},
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	jv := NewJSONBValidator()
	result := jv.ValidateRecord(ordersTable(), map[string]any{
		"variant_id": float64(3),
		"status":     "completed",
		"customer":   nil,
		"product":    float64(1),
		"extra_note": "kept",
	})
	if !result.IsValid {
		t.Fatalf("expected valid record, got %+v", result.Errors)
	}
}

func TestValidateRecord_Failures(t *testing.T) {
	jv := NewJSONBValidator()
	cases := []struct {
		name  string
		data  map[string]any
		field string
	}{
		{"missing required", map[string]any{"qty": float64(1)}, "variant_id"},
		{"wrong type", map[string]any{"variant_id": "three"}, "variant_id"},
		{"choice outside enum", map[string]any{"variant_id": float64(1), "status": "lost"}, "status"},
		{"text given number", map[string]any{"variant_id": float64(1), "customer": float64(9)}, "customer"},
	}

	for _, tc := range cases {
		result := jv.ValidateRecord(ordersTable(), tc.data)
		if result.IsValid {
			t.Fatalf("%s: expected validation failure", tc.name)
		}
		found := false
		for _, e := range result.Errors {
			if e.Field == tc.field {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: expected an error on %s, got %+v", tc.name, tc.field, result.Errors)
		}
		if !errors.Is(result.Err(), domain.ErrInvalidInput) {
			t.Fatalf("%s: expected Err to wrap ErrInvalidInput", tc.name)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	data := ApplyDefaults(ordersTable(), map[string]any{"variant_id": float64(2), "status": "completed"})

	if data["qty"] != float64(1) {
		t.Fatalf("expected numeric default 1, got %v", data["qty"])
	}
	if data["status"] != "completed" {
		t.Fatalf("expected explicit value to win over default, got %v", data["status"])
	}
	if _, ok := data["customer"]; ok {
		t.Fatalf("expected no value for field without default")
	}
}

func TestValidate_FillsDefaultsBeforeChecking(t *testing.T) {
	jv := NewJSONBValidator()

	data, err := jv.Validate(ordersTable(), map[string]any{"variant_id": float64(8)})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if data["status"] != "pending" || data["qty"] != float64(1) {
		t.Fatalf("expected defaults applied, got %v", data)
	}

	if _, err := jv.Validate(ordersTable(), map[string]any{}); !IsInvalid(err) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

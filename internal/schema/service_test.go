package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/repository"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(repository.NewMemoryStore(), nil)
}

func TestService_CreateTableAndRecords(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	zero := "0"

	table, err := svc.CreateTable(ctx, TableInput{
		Name: "inventory",
		Fields: []domain.Field{
			{Name: "variant_id", Type: domain.FieldTypeNumber, Required: true},
			{Name: "available", Type: domain.FieldTypeNumber, DefaultValue: &zero},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable returned error: %v", err)
	}
	if table.DisplayName != "inventory" {
		t.Fatalf("expected display name to default to name, got %q", table.DisplayName)
	}

	rec, err := svc.CreateRecord(ctx, "inventory", map[string]any{"variant_id": float64(1)})
	if err != nil {
		t.Fatalf("CreateRecord returned error: %v", err)
	}
	if rec.Data["available"] != float64(0) {
		t.Fatalf("expected default to be applied, got %v", rec.Data)
	}

	if _, err := svc.CreateRecord(ctx, "inventory", map[string]any{"available": float64(1)}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing required field, got %v", err)
	}
	if _, err := svc.CreateRecord(ctx, "nope", map[string]any{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown table, got %v", err)
	}

	updated, err := svc.UpdateRecord(ctx, "inventory", rec.ID, map[string]any{"variant_id": float64(1), "available": float64(5)})
	if err != nil {
		t.Fatalf("UpdateRecord returned error: %v", err)
	}
	if updated.Data["available"] != float64(5) {
		t.Fatalf("unexpected updated data %v", updated.Data)
	}

	records, err := svc.ListRecords(ctx, "inventory")
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one record, got %d (%v)", len(records), err)
	}

	if err := svc.DeleteRecord(ctx, "inventory", rec.ID); err != nil {
		t.Fatalf("DeleteRecord returned error: %v", err)
	}
}

func TestService_RecordMustBelongToTable(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.CreateTable(ctx, TableInput{Name: "a"}); err != nil {
		t.Fatalf("CreateTable returned error: %v", err)
	}
	if _, err := svc.CreateTable(ctx, TableInput{Name: "b"}); err != nil {
		t.Fatalf("CreateTable returned error: %v", err)
	}
	rec, err := svc.CreateRecord(ctx, "a", map[string]any{"x": "y"})
	if err != nil {
		t.Fatalf("CreateRecord returned error: %v", err)
	}

	if err := svc.DeleteRecord(ctx, "b", rec.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for record of another table, got %v", err)
	}
}

func TestService_Fields(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.CreateTable(ctx, TableInput{Name: "products"}); err != nil {
		t.Fatalf("CreateTable returned error: %v", err)
	}
	if _, err := svc.CreateTable(ctx, TableInput{Name: "variants"}); err != nil {
		t.Fatalf("CreateTable returned error: %v", err)
	}

	field, err := svc.AddField(ctx, "variants", domain.Field{
		Name:    "product",
		Type:    domain.FieldTypeRelation,
		Options: map[string]any{"relation_table": "products"},
	})
	if err != nil {
		t.Fatalf("AddField returned error: %v", err)
	}

	_, err = svc.AddField(ctx, "variants", domain.Field{
		Name:    "supplier",
		Type:    domain.FieldTypeRelation,
		Options: map[string]any{"relation_table": "suppliers"},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown relation table, got %v", err)
	}

	if _, err := svc.AddField(ctx, "variants", domain.Field{Name: "product", Type: domain.FieldTypeText}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate field, got %v", err)
	}

	label := "Parent product"
	updated, err := svc.UpdateField(ctx, field.ID, FieldPatch{DisplayName: &label})
	if err != nil {
		t.Fatalf("UpdateField returned error: %v", err)
	}
	if updated.DisplayName != label || updated.Type != domain.FieldTypeRelation {
		t.Fatalf("unexpected updated field %+v", updated)
	}

	if err := svc.DeleteField(ctx, field.ID); err != nil {
		t.Fatalf("DeleteField returned error: %v", err)
	}
	table, err := svc.GetTable(ctx, "variants")
	if err != nil {
		t.Fatalf("GetTable returned error: %v", err)
	}
	if len(table.Fields) != 0 {
		t.Fatalf("expected no fields left, got %+v", table.Fields)
	}
}

func TestService_DeleteTable(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.CreateTable(ctx, TableInput{Name: "tmp"}); err != nil {
		t.Fatalf("CreateTable returned error: %v", err)
	}
	if err := svc.DeleteTable(ctx, "tmp"); err != nil {
		t.Fatalf("DeleteTable returned error: %v", err)
	}
	if _, err := svc.GetTable(ctx, "tmp"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := svc.CreateTable(ctx, TableInput{Name: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}

// Package schema manages user-defined tables, their typed fields and the
// JSON records stored in them.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/repository"
	"github.com/rpattn/canvasdb/internal/schema/validator"
	recordvalidator "github.com/rpattn/canvasdb/pkg/validator"
)

// Service implements the table, field and record operations.
type Service struct {
	tables    repository.TableRepository
	fields    repository.FieldRepository
	records   repository.RecordRepository
	validator *recordvalidator.JSONBValidator
	logger    *slog.Logger
}

// NewService creates a schema service over store.
func NewService(store *repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		tables:    store.Tables,
		fields:    store.Fields,
		records:   store.Records,
		validator: recordvalidator.NewJSONBValidator(),
		logger:    logger,
	}
}

// TableInput is the payload for creating a table.
type TableInput struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Description string         `json:"description"`
	Fields      []domain.Field `json:"fields"`
}

// FieldPatch carries a partial field update; nil members are left unchanged.
type FieldPatch struct {
	Name         *string           `json:"name,omitempty"`
	DisplayName  *string           `json:"display_name,omitempty"`
	Type         *domain.FieldType `json:"field_type,omitempty"`
	Options      *map[string]any   `json:"options,omitempty"`
	Required     *bool             `json:"required,omitempty"`
	DefaultValue *string           `json:"default_value,omitempty"`
}

// CreateTable validates and stores a new table with its fields.
func (s *Service) CreateTable(ctx context.Context, input TableInput) (domain.Table, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Table{}, fmt.Errorf("%w: table name is required", domain.ErrInvalidInput)
	}
	fields := make([]domain.Field, len(input.Fields))
	for i, f := range input.Fields {
		fields[i] = normalizeField(f)
	}
	if err := validator.ValidateFields(fields); err != nil {
		return domain.Table{}, err
	}
	for _, f := range fields {
		if err := s.checkRelation(ctx, name, f); err != nil {
			return domain.Table{}, err
		}
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = name
	}
	table, err := s.tables.Create(ctx, domain.NewTable(name, displayName, input.Description, fields))
	if err != nil {
		return domain.Table{}, err
	}
	s.logger.Info("table created", "table", table.Name, "fields", len(table.Fields))
	return table, nil
}

// ListTables returns every table with its fields.
func (s *Service) ListTables(ctx context.Context) ([]domain.Table, error) {
	return s.tables.List(ctx)
}

// GetTable returns the table called name.
func (s *Service) GetTable(ctx context.Context, name string) (domain.Table, error) {
	return s.tables.GetByName(ctx, name)
}

// DeleteTable removes a table together with its fields and records.
func (s *Service) DeleteTable(ctx context.Context, name string) error {
	table, err := s.tables.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.tables.Delete(ctx, table.ID); err != nil {
		return err
	}
	s.logger.Info("table deleted", "table", name)
	return nil
}

// AddField adds a field to an existing table.
func (s *Service) AddField(ctx context.Context, tableName string, field domain.Field) (domain.Field, error) {
	table, err := s.tables.GetByName(ctx, tableName)
	if err != nil {
		return domain.Field{}, err
	}
	field = normalizeField(field)
	if err := validator.ValidateField(field); err != nil {
		return domain.Field{}, err
	}
	if _, exists := table.FieldByName(field.Name); exists {
		return domain.Field{}, fmt.Errorf("field %s: %w", field.Name, domain.ErrConflict)
	}
	if err := s.checkRelation(ctx, table.Name, field); err != nil {
		return domain.Field{}, err
	}
	field.TableID = table.ID
	return s.fields.Create(ctx, field)
}

// UpdateField applies patch to the field with the given id.
func (s *Service) UpdateField(ctx context.Context, id int64, patch FieldPatch) (domain.Field, error) {
	field, err := s.fields.GetByID(ctx, id)
	if err != nil {
		return domain.Field{}, err
	}
	if patch.Name != nil {
		field.Name = *patch.Name
	}
	if patch.DisplayName != nil {
		field.DisplayName = *patch.DisplayName
	}
	if patch.Type != nil {
		field.Type = *patch.Type
	}
	if patch.Options != nil {
		field.Options = *patch.Options
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.DefaultValue != nil {
		field.DefaultValue = patch.DefaultValue
	}
	field = normalizeField(field)
	if err := validator.ValidateField(field); err != nil {
		return domain.Field{}, err
	}
	table, err := s.tables.GetByID(ctx, field.TableID)
	if err != nil {
		return domain.Field{}, err
	}
	if err := s.checkRelation(ctx, table.Name, field); err != nil {
		return domain.Field{}, err
	}
	return s.fields.Update(ctx, field)
}

// DeleteField removes a field definition. Stored record data is untouched.
func (s *Service) DeleteField(ctx context.Context, id int64) error {
	return s.fields.Delete(ctx, id)
}

// ListRecords returns the records of the named table.
func (s *Service) ListRecords(ctx context.Context, tableName string) ([]domain.Record, error) {
	table, err := s.tables.GetByName(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return s.records.ListByTable(ctx, table.ID)
}

// CreateRecord validates data against the table fields and stores it.
func (s *Service) CreateRecord(ctx context.Context, tableName string, data map[string]any) (domain.Record, error) {
	table, err := s.tables.GetByName(ctx, tableName)
	if err != nil {
		return domain.Record{}, err
	}
	filled, err := s.validator.Validate(table, data)
	if err != nil {
		return domain.Record{}, err
	}
	return s.records.Create(ctx, domain.NewRecord(table.ID, filled))
}

// CreateRecords stores already validated rows in one batch.
func (s *Service) CreateRecords(ctx context.Context, table domain.Table, rows []map[string]any) ([]domain.Record, error) {
	records := make([]domain.Record, len(rows))
	for i, data := range rows {
		records[i] = domain.NewRecord(table.ID, data)
	}
	return s.records.CreateBatch(ctx, records)
}

// ValidateRecord fills defaults and checks data against table.
func (s *Service) ValidateRecord(table domain.Table, data map[string]any) (map[string]any, error) {
	return s.validator.Validate(table, data)
}

// UpdateRecord replaces the data of a record of the named table.
func (s *Service) UpdateRecord(ctx context.Context, tableName string, id int64, data map[string]any) (domain.Record, error) {
	table, rec, err := s.recordOf(ctx, tableName, id)
	if err != nil {
		return domain.Record{}, err
	}
	filled, err := s.validator.Validate(table, data)
	if err != nil {
		return domain.Record{}, err
	}
	return s.records.Update(ctx, rec.WithData(filled))
}

// DeleteRecord removes a record of the named table.
func (s *Service) DeleteRecord(ctx context.Context, tableName string, id int64) error {
	_, rec, err := s.recordOf(ctx, tableName, id)
	if err != nil {
		return err
	}
	return s.records.Delete(ctx, rec.ID)
}

// recordOf loads a record and checks it belongs to the named table.
func (s *Service) recordOf(ctx context.Context, tableName string, id int64) (domain.Table, domain.Record, error) {
	table, err := s.tables.GetByName(ctx, tableName)
	if err != nil {
		return domain.Table{}, domain.Record{}, err
	}
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return domain.Table{}, domain.Record{}, err
	}
	if rec.TableID != table.ID {
		return domain.Table{}, domain.Record{}, fmt.Errorf("record %d in table %s: %w", id, tableName, domain.ErrNotFound)
	}
	return table, rec, nil
}

func (s *Service) checkRelation(ctx context.Context, owner string, field domain.Field) error {
	target, ok := field.RelationTable()
	if !ok || target == owner {
		return nil
	}
	if _, err := s.tables.GetByName(ctx, target); err != nil {
		return fmt.Errorf("%w: relation field %s points at unknown table %s", domain.ErrInvalidInput, field.Name, target)
	}
	return nil
}

func normalizeField(f domain.Field) domain.Field {
	f.Name = strings.TrimSpace(f.Name)
	f.DisplayName = strings.TrimSpace(f.DisplayName)
	if f.DisplayName == "" {
		f.DisplayName = f.Name
	}
	if f.Type == "" {
		f.Type = domain.FieldTypeText
	}
	return f
}

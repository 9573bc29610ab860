package repository

import (
	"context"

	"github.com/rpattn/canvasdb/internal/db"
	"github.com/rpattn/canvasdb/internal/domain"
)

// fieldRepository implements FieldRepository interface
type fieldRepository struct {
	queries *db.Queries
}

// NewFieldRepository creates a new field repository
func NewFieldRepository(queries *db.Queries) FieldRepository {
	return &fieldRepository{queries: queries}
}

func (r *fieldRepository) Create(ctx context.Context, field domain.Field) (domain.Field, error) {
	params, err := createFieldParams(field)
	if err != nil {
		return domain.Field{}, err
	}
	row, err := r.queries.CreateField(ctx, params)
	if err != nil {
		return domain.Field{}, mapError(err, "create field %s", field.Name)
	}
	if err := r.queries.TouchTable(ctx, field.TableID); err != nil {
		return domain.Field{}, mapError(err, "touch table %d", field.TableID)
	}
	return fieldFromRow(row)
}

func (r *fieldRepository) GetByID(ctx context.Context, id int64) (domain.Field, error) {
	row, err := r.queries.GetField(ctx, id)
	if err != nil {
		return domain.Field{}, mapError(err, "get field %d", id)
	}
	return fieldFromRow(row)
}

func (r *fieldRepository) Update(ctx context.Context, field domain.Field) (domain.Field, error) {
	options, err := encodeOptions(field.Options)
	if err != nil {
		return domain.Field{}, err
	}
	row, err := r.queries.UpdateField(ctx, db.UpdateFieldParams{
		ID:           field.ID,
		Name:         field.Name,
		DisplayName:  field.DisplayName,
		FieldType:    string(field.Type),
		Options:      options,
		Required:     field.Required,
		DefaultValue: optionalTextPtr(field.DefaultValue),
	})
	if err != nil {
		return domain.Field{}, mapError(err, "update field %d", field.ID)
	}
	if err := r.queries.TouchTable(ctx, row.TableID); err != nil {
		return domain.Field{}, mapError(err, "touch table %d", row.TableID)
	}
	return fieldFromRow(row)
}

func (r *fieldRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteField(ctx, id)
	return affected(n, err, "delete field %d", id)
}

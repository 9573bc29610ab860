package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpattn/canvasdb/internal/db"
	"github.com/rpattn/canvasdb/internal/domain"

	"github.com/jackc/pgx/v5"
)

// tableRepository implements TableRepository interface
type tableRepository struct {
	conn    *db.Connection
	queries *db.Queries
}

// NewTableRepository creates a new table repository
func NewTableRepository(conn *db.Connection, queries *db.Queries) TableRepository {
	return &tableRepository{conn: conn, queries: queries}
}

// Create inserts the table and its fields in one transaction
func (r *tableRepository) Create(ctx context.Context, table domain.Table) (domain.Table, error) {
	var created domain.Table
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		q := r.queries.WithTx(tx)
		row, err := q.CreateTable(ctx, db.CreateTableParams{
			Name:        table.Name,
			DisplayName: table.DisplayName,
			Description: optionalText(table.Description),
		})
		if err != nil {
			return mapError(err, "create table %s", table.Name)
		}
		created = tableFromRow(row)
		for _, field := range table.Fields {
			field.TableID = row.ID
			params, err := createFieldParams(field)
			if err != nil {
				return err
			}
			fieldRow, err := q.CreateField(ctx, params)
			if err != nil {
				return mapError(err, "create field %s", field.Name)
			}
			f, err := fieldFromRow(fieldRow)
			if err != nil {
				return err
			}
			created.Fields = append(created.Fields, f)
		}
		return nil
	})
	if err != nil {
		return domain.Table{}, err
	}
	return created, nil
}

// GetByID retrieves a table by ID
func (r *tableRepository) GetByID(ctx context.Context, id int64) (domain.Table, error) {
	row, err := r.queries.GetTable(ctx, id)
	if err != nil {
		return domain.Table{}, mapError(err, "get table %d", id)
	}
	return r.withFields(ctx, tableFromRow(row))
}

// GetByName retrieves a table by name
func (r *tableRepository) GetByName(ctx context.Context, name string) (domain.Table, error) {
	row, err := r.queries.GetTableByName(ctx, name)
	if err != nil {
		return domain.Table{}, mapError(err, "get table %s", name)
	}
	return r.withFields(ctx, tableFromRow(row))
}

// List retrieves all tables with their fields
func (r *tableRepository) List(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.queries.ListTables(ctx)
	if err != nil {
		return nil, mapError(err, "list tables")
	}
	fieldRows, err := r.queries.ListAllFields(ctx)
	if err != nil {
		return nil, mapError(err, "list fields")
	}
	byTable := make(map[int64][]domain.Field, len(rows))
	for _, fr := range fieldRows {
		f, err := fieldFromRow(fr)
		if err != nil {
			return nil, err
		}
		byTable[f.TableID] = append(byTable[f.TableID], f)
	}

	tables := make([]domain.Table, len(rows))
	for i, row := range rows {
		t := tableFromRow(row)
		if fields, ok := byTable[t.ID]; ok {
			t.Fields = fields
		}
		tables[i] = t
	}
	return tables, nil
}

// Delete deletes a table; fields and records cascade
func (r *tableRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTable(ctx, id)
	return affected(n, err, "delete table %d", id)
}

// Count returns the number of tables
func (r *tableRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTables(ctx)
	if err != nil {
		return 0, mapError(err, "count tables")
	}
	return n, nil
}

func (r *tableRepository) withFields(ctx context.Context, t domain.Table) (domain.Table, error) {
	rows, err := r.queries.ListFieldsByTable(ctx, t.ID)
	if err != nil {
		return domain.Table{}, mapError(err, "list fields of table %s", t.Name)
	}
	for _, row := range rows {
		f, err := fieldFromRow(row)
		if err != nil {
			return domain.Table{}, err
		}
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

func tableFromRow(row db.Table) domain.Table {
	return domain.Table{
		ID:          row.ID,
		Name:        row.Name,
		DisplayName: row.DisplayName,
		Description: row.Description.String,
		Fields:      []domain.Field{},
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   timePtr(row.UpdatedAt),
	}
}

func fieldFromRow(row db.Field) (domain.Field, error) {
	var options map[string]any
	if len(row.Options) > 0 {
		if err := json.Unmarshal(row.Options, &options); err != nil {
			return domain.Field{}, fmt.Errorf("failed to decode options of field %d: %w", row.ID, err)
		}
	}
	return domain.Field{
		ID:           row.ID,
		TableID:      row.TableID,
		Name:         row.Name,
		DisplayName:  row.DisplayName,
		Type:         domain.FieldType(row.FieldType),
		Options:      options,
		Required:     row.Required,
		DefaultValue: textPtr(row.DefaultValue),
		CreatedAt:    row.CreatedAt,
	}, nil
}

func encodeOptions(options map[string]any) ([]byte, error) {
	if len(options) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode field options: %w", err)
	}
	return raw, nil
}

func createFieldParams(field domain.Field) (db.CreateFieldParams, error) {
	options, err := encodeOptions(field.Options)
	if err != nil {
		return db.CreateFieldParams{}, err
	}
	return db.CreateFieldParams{
		TableID:      field.TableID,
		Name:         field.Name,
		DisplayName:  field.DisplayName,
		FieldType:    string(field.Type),
		Options:      options,
		Required:     field.Required,
		DefaultValue: optionalTextPtr(field.DefaultValue),
	}, nil
}

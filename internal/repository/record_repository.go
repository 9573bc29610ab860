package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/canvasdb/internal/db"
	"github.com/rpattn/canvasdb/internal/domain"

	"github.com/jackc/pgx/v5"
)

// recordRepository implements RecordRepository interface
type recordRepository struct {
	conn    *db.Connection
	queries *db.Queries
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(conn *db.Connection, queries *db.Queries) RecordRepository {
	return &recordRepository{conn: conn, queries: queries}
}

func (r *recordRepository) Create(ctx context.Context, record domain.Record) (domain.Record, error) {
	return insertRecord(ctx, r.queries, record)
}

// CreateBatch inserts all records in one transaction
func (r *recordRepository) CreateBatch(ctx context.Context, records []domain.Record) ([]domain.Record, error) {
	created := make([]domain.Record, 0, len(records))
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		q := r.queries.WithTx(tx)
		for _, record := range records {
			rec, err := insertRecord(ctx, q, record)
			if err != nil {
				return err
			}
			created = append(created, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertRecord(ctx context.Context, q *db.Queries, record domain.Record) (domain.Record, error) {
	data, err := record.DataJSON()
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to encode record data: %w", err)
	}
	if _, err := q.GetTable(ctx, record.TableID); err != nil {
		return domain.Record{}, mapError(err, "get table %d", record.TableID)
	}
	row, err := q.CreateRecord(ctx, db.CreateRecordParams{TableID: record.TableID, Data: data})
	if err != nil {
		return domain.Record{}, mapError(err, "create record")
	}
	return recordFromRow(row)
}

func (r *recordRepository) GetByID(ctx context.Context, id int64) (domain.Record, error) {
	row, err := r.queries.GetRecord(ctx, id)
	if err != nil {
		return domain.Record{}, mapError(err, "get record %d", id)
	}
	return recordFromRow(row)
}

func (r *recordRepository) ListByTable(ctx context.Context, tableID int64) ([]domain.Record, error) {
	rows, err := r.queries.ListRecordsByTable(ctx, tableID)
	if err != nil {
		return nil, mapError(err, "list records of table %d", tableID)
	}
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *recordRepository) Update(ctx context.Context, record domain.Record) (domain.Record, error) {
	data, err := record.DataJSON()
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to encode record data: %w", err)
	}
	row, err := r.queries.UpdateRecord(ctx, db.UpdateRecordParams{ID: record.ID, Data: data})
	if err != nil {
		return domain.Record{}, mapError(err, "update record %d", record.ID)
	}
	return recordFromRow(row)
}

func (r *recordRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteRecord(ctx, id)
	return affected(n, err, "delete record %d", id)
}

func (r *recordRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountRecords(ctx)
	if err != nil {
		return 0, mapError(err, "count records")
	}
	return n, nil
}

func recordFromRow(row db.Record) (domain.Record, error) {
	data, err := domain.DataFromJSON(row.Data)
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to decode record %d: %w", row.ID, err)
	}
	return domain.Record{
		ID:        row.ID,
		TableID:   row.TableID,
		Data:      data,
		CreatedAt: row.CreatedAt,
		UpdatedAt: timePtr(row.UpdatedAt),
	}, nil
}

package repository

import (
	"context"

	"github.com/rpattn/canvasdb/internal/domain"
)

// TableRepository defines the interface for table operations. Tables are
// returned with their fields.
type TableRepository interface {
	Create(ctx context.Context, table domain.Table) (domain.Table, error)
	GetByID(ctx context.Context, id int64) (domain.Table, error)
	GetByName(ctx context.Context, name string) (domain.Table, error)
	List(ctx context.Context) ([]domain.Table, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// FieldRepository defines the interface for field operations
type FieldRepository interface {
	Create(ctx context.Context, field domain.Field) (domain.Field, error)
	GetByID(ctx context.Context, id int64) (domain.Field, error)
	Update(ctx context.Context, field domain.Field) (domain.Field, error)
	Delete(ctx context.Context, id int64) error
}

// RecordRepository defines the interface for record operations
type RecordRepository interface {
	Create(ctx context.Context, record domain.Record) (domain.Record, error)
	CreateBatch(ctx context.Context, records []domain.Record) ([]domain.Record, error)
	GetByID(ctx context.Context, id int64) (domain.Record, error)
	ListByTable(ctx context.Context, tableID int64) ([]domain.Record, error)
	Update(ctx context.Context, record domain.Record) (domain.Record, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// CanvasRepository defines the interface for canvas operations
type CanvasRepository interface {
	Create(ctx context.Context, canvas domain.Canvas) (domain.Canvas, error)
	GetByID(ctx context.Context, id int64) (domain.Canvas, error)
	List(ctx context.Context) ([]domain.Canvas, error)
	Update(ctx context.Context, canvas domain.Canvas) (domain.Canvas, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// ViewRepository defines the interface for view operations
type ViewRepository interface {
	Create(ctx context.Context, view domain.View) (domain.View, error)
	GetByID(ctx context.Context, id int64) (domain.View, error)
	List(ctx context.Context) ([]domain.View, error)
	ListByCanvas(ctx context.Context, canvasID int64) ([]domain.View, error)
	CountByCanvas(ctx context.Context, canvasID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// Store groups the repositories of one backend.
type Store struct {
	Tables   TableRepository
	Fields   FieldRepository
	Records  RecordRepository
	Canvases CanvasRepository
	Views    ViewRepository
}

// FindTableByName resolves a table for the canvas engine.
func (s *Store) FindTableByName(ctx context.Context, name string) (domain.Table, error) {
	return s.Tables.GetByName(ctx, name)
}

// ListRecords lists the records of a table for the canvas engine.
func (s *Store) ListRecords(ctx context.Context, tableID int64) ([]domain.Record, error) {
	return s.Records.ListByTable(ctx, tableID)
}

// Stats counts tables, records, canvases and views.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	var err error
	if stats.Tables, err = s.Tables.Count(ctx); err != nil {
		return domain.Stats{}, err
	}
	if stats.Records, err = s.Records.Count(ctx); err != nil {
		return domain.Stats{}, err
	}
	if stats.Canvases, err = s.Canvases.Count(ctx); err != nil {
		return domain.Stats{}, err
	}
	if stats.Views, err = s.Views.Count(ctx); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

package tableloader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rpattn/canvasdb/internal/domain"
)

type countingSource struct {
	mu          sync.Mutex
	tables      map[string]domain.Table
	records     map[int64][]domain.Record
	tableCalls  int
	recordCalls int
}

func (s *countingSource) FindTableByName(_ context.Context, name string) (domain.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableCalls++
	table, ok := s.tables[name]
	if !ok {
		return domain.Table{}, domain.ErrNotFound
	}
	return table, nil
}

func (s *countingSource) ListRecords(_ context.Context, tableID int64) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordCalls++
	return s.records[tableID], nil
}

func TestLoader_MemoizesLookups(t *testing.T) {
	src := &countingSource{
		tables: map[string]domain.Table{"products": {ID: 7, Name: "products"}},
		records: map[int64][]domain.Record{
			7: {{ID: 1, TableID: 7, Data: map[string]any{"name": "Shirt"}}},
		},
	}
	loader := New(src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		table, err := loader.FindTableByName(ctx, "products")
		if err != nil {
			t.Fatalf("FindTableByName returned error: %v", err)
		}
		if table.ID != 7 {
			t.Fatalf("expected table id 7, got %d", table.ID)
		}
		records, err := loader.ListRecords(ctx, table.ID)
		if err != nil {
			t.Fatalf("ListRecords returned error: %v", err)
		}
		if len(records) != 1 || records[0].Data["name"] != "Shirt" {
			t.Fatalf("unexpected records: %+v", records)
		}
	}

	if src.tableCalls != 1 || src.recordCalls != 1 {
		t.Fatalf("expected one call per key, got tables=%d records=%d", src.tableCalls, src.recordCalls)
	}
}

func TestLoader_PropagatesNotFound(t *testing.T) {
	loader := New(&countingSource{tables: map[string]domain.Table{}})

	_, err := loader.FindTableByName(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

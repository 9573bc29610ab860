// Package tableloader memoizes table and record lookups for the lifetime of
// one canvas execution, so a chain that joins the same table twice reads it
// once.
package tableloader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rpattn/canvasdb/internal/domain"

	"github.com/graph-gophers/dataloader"
)

// Source is the store the loader reads through.
type Source interface {
	FindTableByName(ctx context.Context, name string) (domain.Table, error)
	ListRecords(ctx context.Context, tableID int64) ([]domain.Record, error)
}

// Loader serves the Source methods from per-instance dataloaders. A Loader
// must not outlive the execution it was created for.
type Loader struct {
	tables  *dataloader.Loader
	records *dataloader.Loader
}

// New builds a loader over src.
func New(src Source) *Loader {
	tableBatch := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))
		for i, key := range keys {
			table, err := src.FindTableByName(ctx, key.String())
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			results[i] = &dataloader.Result{Data: table}
		}
		return results
	}

	recordBatch := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))
		for i, key := range keys {
			tableID, err := strconv.ParseInt(key.String(), 10, 64)
			if err != nil {
				results[i] = &dataloader.Result{Error: fmt.Errorf("invalid table id %q: %w", key.String(), err)}
				continue
			}
			records, err := src.ListRecords(ctx, tableID)
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			results[i] = &dataloader.Result{Data: records}
		}
		return results
	}

	// Executions walk their chains sequentially, so the batch window only
	// needs to be long enough to coalesce concurrent loads.
	return &Loader{
		tables:  dataloader.NewBatchedLoader(tableBatch, dataloader.WithWait(time.Millisecond)),
		records: dataloader.NewBatchedLoader(recordBatch, dataloader.WithWait(time.Millisecond)),
	}
}

// FindTableByName returns the table called name.
func (l *Loader) FindTableByName(ctx context.Context, name string) (domain.Table, error) {
	data, err := l.tables.Load(ctx, dataloader.StringKey(name))()
	if err != nil {
		return domain.Table{}, err
	}
	table, ok := data.(domain.Table)
	if !ok {
		return domain.Table{}, errors.New("table loader returned unexpected data")
	}
	return table, nil
}

// ListRecords returns the records of the table with the given id.
func (l *Loader) ListRecords(ctx context.Context, tableID int64) ([]domain.Record, error) {
	data, err := l.records.Load(ctx, dataloader.StringKey(strconv.FormatInt(tableID, 10)))()
	if err != nil {
		return nil, err
	}
	records, ok := data.([]domain.Record)
	if !ok {
		return nil, errors.New("record loader returned unexpected data")
	}
	return records, nil
}

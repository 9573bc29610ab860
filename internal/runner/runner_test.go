package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/rpattn/canvasdb/internal/canvas"
	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/repository"
)

func seededStore(t *testing.T) (*repository.Store, domain.Canvas) {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	table, err := store.Tables.Create(ctx, domain.NewTable("inventory", "Inventory", "", nil))
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, available := range []float64{4, 0, 7} {
		if _, err := store.Records.Create(ctx, domain.NewRecord(table.ID, map[string]any{"available": available})); err != nil {
			t.Fatalf("create record: %v", err)
		}
	}

	c, err := store.Canvases.Create(ctx, domain.Canvas{
		Name: "in stock",
		Nodes: []domain.Node{
			{ID: "t", Type: "tableNode", Data: map[string]any{"tableName": "inventory"}},
			{ID: "f", Type: "filterNode", Data: map[string]any{"condition": "available > 0"}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "t", Target: "f"}},
	})
	if err != nil {
		t.Fatalf("create canvas: %v", err)
	}
	return store, c
}

func TestRunner_RunPersistsViewWithDefaultName(t *testing.T) {
	ctx := context.Background()
	store, c := seededStore(t)
	r := New(canvas.New(store), store.Canvases, store.Views, nil)

	first, err := r.Run(ctx, c.ID, "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(first.Data) != 2 {
		t.Fatalf("expected 2 rows in view, got %d", len(first.Data))
	}
	if want := domain.DefaultViewName(c.ID, 0); first.Name != want {
		t.Fatalf("expected view name %s, got %s", want, first.Name)
	}

	second, err := r.Run(ctx, c.ID, "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if want := domain.DefaultViewName(c.ID, 1); second.Name != want {
		t.Fatalf("expected view name %s, got %s", want, second.Name)
	}

	named, err := r.Run(ctx, c.ID, "  restock  ")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if named.Name != "restock" {
		t.Fatalf("expected explicit view name, got %q", named.Name)
	}
}

func TestRunner_GraphErrorWritesNoView(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	c, err := store.Canvases.Create(ctx, domain.Canvas{
		Name: "loop",
		Nodes: []domain.Node{
			{ID: "a", Type: "filterNode"},
			{ID: "b", Type: "filterNode"},
		},
		Edges: []domain.Edge{{ID: "1", Source: "a", Target: "b"}, {ID: "2", Source: "b", Target: "a"}},
	})
	if err != nil {
		t.Fatalf("create canvas: %v", err)
	}
	r := New(canvas.New(store), store.Canvases, store.Views, nil)

	_, err = r.Run(ctx, c.ID, "")
	if !errors.Is(err, canvas.ErrNoStartNode) {
		t.Fatalf("expected ErrNoStartNode, got %v", err)
	}
	if n, _ := store.Views.Count(ctx); n != 0 {
		t.Fatalf("expected no views, got %d", n)
	}
}

func TestRunner_UnknownCanvas(t *testing.T) {
	store := repository.NewMemoryStore()
	r := New(canvas.New(store), store.Canvases, store.Views, nil)

	if _, err := r.Run(context.Background(), 42, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunner_PreviewDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store, c := seededStore(t)
	r := New(canvas.New(store), store.Canvases, store.Views, nil)

	result, err := r.Preview(ctx, c.Nodes, c.Edges)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result))
	}
	if n, _ := store.Views.Count(ctx); n != 0 {
		t.Fatalf("expected preview to leave views untouched, got %d", n)
	}
}

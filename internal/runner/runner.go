// Package runner executes stored canvases and persists their results as views.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/repository"
)

// Executor runs a canvas graph.
type Executor interface {
	Execute(ctx context.Context, nodes []domain.Node, edges []domain.Edge) (domain.ExecutionResult, error)
}

// Runner ties the engine to the canvas and view stores.
type Runner struct {
	executor Executor
	canvases repository.CanvasRepository
	views    repository.ViewRepository
	logger   *slog.Logger
}

// New creates a Runner.
func New(executor Executor, canvases repository.CanvasRepository, views repository.ViewRepository, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{executor: executor, canvases: canvases, views: views, logger: logger}
}

// Run executes the stored canvas and saves the result as a view. An empty
// viewName is replaced by View_{canvasID}_{n+1}, n being the number of views
// the canvas already has. No view is written when execution fails.
//
// The default name is counted and then created without a lock, so two
// concurrent runs of one canvas can get the same name. View names are not
// unique and views are addressed by id.
func (r *Runner) Run(ctx context.Context, canvasID int64, viewName string) (domain.View, error) {
	canvas, err := r.canvases.GetByID(ctx, canvasID)
	if err != nil {
		return domain.View{}, err
	}

	start := time.Now()
	result, err := r.executor.Execute(ctx, canvas.Nodes, canvas.Edges)
	if err != nil {
		return domain.View{}, fmt.Errorf("execute canvas %d: %w", canvasID, err)
	}

	name := strings.TrimSpace(viewName)
	if name == "" {
		existing, err := r.views.CountByCanvas(ctx, canvasID)
		if err != nil {
			return domain.View{}, err
		}
		name = domain.DefaultViewName(canvasID, int(existing))
	}

	view, err := r.views.Create(ctx, domain.View{Name: name, CanvasID: canvasID, Data: result})
	if err != nil {
		return domain.View{}, err
	}
	r.logger.Info("canvas run saved",
		"canvas_id", canvasID,
		"view_id", view.ID,
		"view", view.Name,
		"rows", len(result),
		"duration", time.Since(start),
	)
	return view, nil
}

// Preview executes a graph without persisting anything.
func (r *Runner) Preview(ctx context.Context, nodes []domain.Node, edges []domain.Edge) (domain.ExecutionResult, error) {
	return r.executor.Execute(ctx, nodes, edges)
}

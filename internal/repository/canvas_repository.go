package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/canvasdb/internal/db"
	"github.com/rpattn/canvasdb/internal/domain"
)

// canvasRepository implements CanvasRepository interface
type canvasRepository struct {
	queries *db.Queries
}

// NewCanvasRepository creates a new canvas repository
func NewCanvasRepository(queries *db.Queries) CanvasRepository {
	return &canvasRepository{queries: queries}
}

func (r *canvasRepository) Create(ctx context.Context, canvas domain.Canvas) (domain.Canvas, error) {
	nodes, edges, err := domain.GraphToJSON(canvas.Nodes, canvas.Edges)
	if err != nil {
		return domain.Canvas{}, fmt.Errorf("failed to encode canvas graph: %w", err)
	}
	row, err := r.queries.CreateCanvas(ctx, db.CreateCanvasParams{
		Name:        canvas.Name,
		Description: optionalText(canvas.Description),
		Nodes:       nodes,
		Edges:       edges,
	})
	if err != nil {
		return domain.Canvas{}, mapError(err, "create canvas %s", canvas.Name)
	}
	return canvasFromRow(row)
}

func (r *canvasRepository) GetByID(ctx context.Context, id int64) (domain.Canvas, error) {
	row, err := r.queries.GetCanvas(ctx, id)
	if err != nil {
		return domain.Canvas{}, mapError(err, "get canvas %d", id)
	}
	return canvasFromRow(row)
}

func (r *canvasRepository) List(ctx context.Context) ([]domain.Canvas, error) {
	rows, err := r.queries.ListCanvases(ctx)
	if err != nil {
		return nil, mapError(err, "list canvases")
	}
	canvases := make([]domain.Canvas, 0, len(rows))
	for _, row := range rows {
		c, err := canvasFromRow(row)
		if err != nil {
			return nil, err
		}
		canvases = append(canvases, c)
	}
	return canvases, nil
}

func (r *canvasRepository) Update(ctx context.Context, canvas domain.Canvas) (domain.Canvas, error) {
	nodes, edges, err := domain.GraphToJSON(canvas.Nodes, canvas.Edges)
	if err != nil {
		return domain.Canvas{}, fmt.Errorf("failed to encode canvas graph: %w", err)
	}
	row, err := r.queries.UpdateCanvas(ctx, db.UpdateCanvasParams{
		ID:          canvas.ID,
		Name:        canvas.Name,
		Description: optionalText(canvas.Description),
		Nodes:       nodes,
		Edges:       edges,
	})
	if err != nil {
		return domain.Canvas{}, mapError(err, "update canvas %d", canvas.ID)
	}
	return canvasFromRow(row)
}

// Delete deletes a canvas; its views cascade
func (r *canvasRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteCanvas(ctx, id)
	return affected(n, err, "delete canvas %d", id)
}

func (r *canvasRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountCanvases(ctx)
	if err != nil {
		return 0, mapError(err, "count canvases")
	}
	return n, nil
}

func canvasFromRow(row db.Canvas) (domain.Canvas, error) {
	nodes, edges, err := domain.GraphFromJSON(row.Nodes, row.Edges)
	if err != nil {
		return domain.Canvas{}, fmt.Errorf("failed to decode canvas %d: %w", row.ID, err)
	}
	return domain.Canvas{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		Nodes:       nodes,
		Edges:       edges,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   timePtr(row.UpdatedAt),
	}, nil
}

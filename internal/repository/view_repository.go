package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/canvasdb/internal/db"
	"github.com/rpattn/canvasdb/internal/domain"
)

// viewRepository implements ViewRepository interface
type viewRepository struct {
	queries *db.Queries
}

// NewViewRepository creates a new view repository
func NewViewRepository(queries *db.Queries) ViewRepository {
	return &viewRepository{queries: queries}
}

func (r *viewRepository) Create(ctx context.Context, view domain.View) (domain.View, error) {
	data, err := domain.ResultToJSON(view.Data)
	if err != nil {
		return domain.View{}, fmt.Errorf("failed to encode view data: %w", err)
	}
	if _, err := r.queries.GetCanvas(ctx, view.CanvasID); err != nil {
		return domain.View{}, mapError(err, "get canvas %d", view.CanvasID)
	}
	row, err := r.queries.CreateView(ctx, db.CreateViewParams{
		Name:     view.Name,
		CanvasID: view.CanvasID,
		Data:     data,
	})
	if err != nil {
		return domain.View{}, mapError(err, "create view %s", view.Name)
	}
	return viewFromRow(row)
}

func (r *viewRepository) GetByID(ctx context.Context, id int64) (domain.View, error) {
	row, err := r.queries.GetView(ctx, id)
	if err != nil {
		return domain.View{}, mapError(err, "get view %d", id)
	}
	return viewFromRow(row)
}

func (r *viewRepository) List(ctx context.Context) ([]domain.View, error) {
	rows, err := r.queries.ListViews(ctx)
	if err != nil {
		return nil, mapError(err, "list views")
	}
	return viewsFromRows(rows)
}

func (r *viewRepository) ListByCanvas(ctx context.Context, canvasID int64) ([]domain.View, error) {
	rows, err := r.queries.ListViewsByCanvas(ctx, canvasID)
	if err != nil {
		return nil, mapError(err, "list views of canvas %d", canvasID)
	}
	return viewsFromRows(rows)
}

func (r *viewRepository) CountByCanvas(ctx context.Context, canvasID int64) (int64, error) {
	n, err := r.queries.CountViewsByCanvas(ctx, canvasID)
	if err != nil {
		return 0, mapError(err, "count views of canvas %d", canvasID)
	}
	return n, nil
}

func (r *viewRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteView(ctx, id)
	return affected(n, err, "delete view %d", id)
}

func (r *viewRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountViews(ctx)
	if err != nil {
		return 0, mapError(err, "count views")
	}
	return n, nil
}

func viewsFromRows(rows []db.View) ([]domain.View, error) {
	views := make([]domain.View, 0, len(rows))
	for _, row := range rows {
		v, err := viewFromRow(row)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func viewFromRow(row db.View) (domain.View, error) {
	data, err := domain.ResultFromJSON(row.Data)
	if err != nil {
		return domain.View{}, fmt.Errorf("failed to decode view %d: %w", row.ID, err)
	}
	return domain.View{
		ID:        row.ID,
		Name:      row.Name,
		CanvasID:  row.CanvasID,
		Data:      data,
		CreatedAt: row.CreatedAt,
	}, nil
}

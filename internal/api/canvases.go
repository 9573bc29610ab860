package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/httpx"
)

func (s *Server) listCanvases(w http.ResponseWriter, r *http.Request) {
	canvases, err := s.cfg.Store.Canvases.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if canvases == nil {
		canvases = []domain.Canvas{}
	}
	httpx.WriteJSON(w, http.StatusOK, canvases)
}

func (s *Server) createCanvas(w http.ResponseWriter, r *http.Request) {
	var c domain.Canvas
	if err := httpx.DecodeJSON(r, &c); err != nil {
		s.fail(w, err)
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		s.fail(w, fmt.Errorf("%w: canvas name is required", domain.ErrInvalidInput))
		return
	}
	created, err := s.cfg.Store.Canvases.Create(r.Context(), c)
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) getCanvas(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, err)
		return
	}
	c, err := s.cfg.Store.Canvases.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) updateCanvas(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, err)
		return
	}
	var patch domain.CanvasPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		s.fail(w, err)
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		s.fail(w, fmt.Errorf("%w: canvas name is required", domain.ErrInvalidInput))
		return
	}
	current, err := s.cfg.Store.Canvases.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	updated, err := s.cfg.Store.Canvases.Update(r.Context(), current.Apply(patch))
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteCanvas(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.cfg.Store.Canvases.Delete(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type executeRequest struct {
	CanvasID int64  `json:"canvas_id"`
	ViewName string `json:"view_name"`
}

func (s *Server) executeCanvas(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if req.CanvasID <= 0 {
		s.fail(w, fmt.Errorf("%w: canvas_id is required", domain.ErrInvalidInput))
		return
	}
	view, err := s.cfg.Runner.Run(r.Context(), req.CanvasID, req.ViewName)
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, view)
}

type previewRequest struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

type previewResponse struct {
	Data domain.ExecutionResult `json:"data"`
}

func (s *Server) previewCanvas(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	result, err := s.cfg.Runner.Preview(r.Context(), req.Nodes, req.Edges)
	if err != nil {
		s.fail(w, err)
		return
	}
	if result == nil {
		result = domain.ExecutionResult{}
	}
	httpx.WriteJSON(w, http.StatusOK, previewResponse{Data: result})
}

// listViews returns every view, or only those of ?canvas_id= when given.
func (s *Server) listViews(w http.ResponseWriter, r *http.Request) {
	var (
		views []domain.View
		err   error
	)
	if raw := r.URL.Query().Get("canvas_id"); raw != "" {
		canvasID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			s.fail(w, fmt.Errorf("%w: invalid canvas_id %q", domain.ErrInvalidInput, raw))
			return
		}
		views, err = s.cfg.Store.Views.ListByCanvas(r.Context(), canvasID)
	} else {
		views, err = s.cfg.Store.Views.List(r.Context())
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	if views == nil {
		views = []domain.View{}
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, err)
		return
	}
	view, err := s.cfg.Store.Views.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (s *Server) deleteView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.cfg.Store.Views.Delete(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

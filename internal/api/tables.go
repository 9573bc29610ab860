package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/httpx"
	"github.com/rpattn/canvasdb/internal/schema"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cfg.Store.Stats(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.cfg.Schema.ListTables(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if tables == nil {
		tables = []domain.Table{}
	}
	httpx.WriteJSON(w, http.StatusOK, tables)
}

func (s *Server) createTable(w http.ResponseWriter, r *http.Request) {
	var input schema.TableInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		s.fail(w, err)
		return
	}
	table, err := s.cfg.Schema.CreateTable(r.Context(), input)
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, table)
}

func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
	table, err := s.cfg.Schema.GetTable(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, table)
}

func (s *Server) deleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Schema.DeleteTable(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addField(w http.ResponseWriter, r *http.Request) {
	var field domain.Field
	if err := httpx.DecodeJSON(r, &field); err != nil {
		s.fail(w, err)
		return
	}
	created, err := s.cfg.Schema.AddField(r.Context(), chi.URLParam(r, "name"), field)
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) updateField(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, err)
		return
	}
	var patch schema.FieldPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		s.fail(w, err)
		return
	}
	field, err := s.cfg.Schema.UpdateField(r.Context(), id, patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, field)
}

func (s *Server) deleteField(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.cfg.Schema.DeleteField(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.cfg.Schema.ListRecords(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}

// recordBody accepts both {"data": {...}} and a bare object.
type recordBody map[string]any

func (b recordBody) values() map[string]any {
	if len(b) == 1 {
		if data, ok := b["data"].(map[string]any); ok {
			return data
		}
	}
	return b
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var body recordBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	rec, err := s.cfg.Schema.CreateRecord(r.Context(), chi.URLParam(r, "name"), body.values())
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rec)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recordID")
	if err != nil {
		s.fail(w, err)
		return
	}
	var body recordBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	rec, err := s.cfg.Schema.UpdateRecord(r.Context(), chi.URLParam(r, "name"), id, body.values())
	if err != nil {
		s.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recordID")
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.cfg.Schema.DeleteRecord(r.Context(), chi.URLParam(r, "name"), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	httpx.WriteError(w, s.logger, err)
}

func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, param, raw)
	}
	return id, nil
}

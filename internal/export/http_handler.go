package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/httpx"
)

// Handler serves GET /api/view/{id}/export?format=csv|xlsx.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) http.Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	viewID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, h.logger, fmt.Errorf("%w: invalid view identifier", domain.ErrInvalidInput))
		return
	}
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}

	// Rendered into memory first so a failure can still be reported as JSON.
	var buf bytes.Buffer
	filename, err := h.service.ExportView(r.Context(), viewID, format, &buf)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

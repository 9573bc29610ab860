package ingestion

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/httpx"
)

const maxUploadBytes = 32 << 20

// Handler exposes record import as a multipart POST endpoint. The target
// table is taken from the {name} route parameter.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHTTPHandler wraps the service with a POST endpoint.
func NewHTTPHandler(service *Service, logger *slog.Logger) http.Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteError(w, h.logger, fmt.Errorf("%w: invalid form data: %v", domain.ErrInvalidInput, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, h.logger, fmt.Errorf("%w: file required: %v", domain.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	summary, err := h.service.Import(r.Context(), Request{
		TableName: chi.URLParam(r, "name"),
		FileName:  header.Filename,
		Data:      file,
	})
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

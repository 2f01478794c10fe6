package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ayusman/mudra/internal/canvas"
)

// Exporter renders the canvas in a view mode as PNG.
type Exporter interface {
	Export(v canvas.View) ([]byte, error)
}

// ExportHandler serves the canvas as a PNG download.
type ExportHandler struct {
	exporter Exporter
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(e Exporter) *ExportHandler {
	return &ExportHandler{exporter: e}
}

// ServeHTTP handles GET /api/export?view={original,split,ai}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	v, err := canvas.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.exporter.Export(v)
	if err != nil {
		if errors.Is(err, canvas.ErrUnallocated) {
			writeError(w, http.StatusConflict, "Canvas is not allocated")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to export canvas")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="mudra-%s.png"`, v))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

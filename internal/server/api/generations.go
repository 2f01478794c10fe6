package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/store"
)

// GenerationHandler serves the generation log.
type GenerationHandler struct {
	store *store.Store
}

// NewGenerationHandler creates a GenerationHandler backed by s.
func NewGenerationHandler(s *store.Store) *GenerationHandler {
	return &GenerationHandler{store: s}
}

type listGenerationsResponse struct {
	Generations []*store.Generation `json:"generations"`
}

type listExportsResponse struct {
	Exports []*store.Export `json:"exports"`
}

// ServeHTTP routes:
//
//	GET /api/generations?limit=n
//	GET /api/generations/exports
//	GET /api/generations/{id}
//	GET /api/generations/{id}/snapshot
func (h *GenerationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/generations")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		h.list(w, r)
	case path == "exports":
		h.exports(w)
	case strings.HasSuffix(path, "/snapshot"):
		h.snapshot(w, strings.TrimSuffix(path, "/snapshot"))
	default:
		h.get(w, path)
	}
}

func (h *GenerationHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	gens, err := h.store.Generations().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list generations")
		return
	}
	writeJSON(w, http.StatusOK, listGenerationsResponse{Generations: gens})
}

func (h *GenerationHandler) exports(w http.ResponseWriter) {
	exports, err := h.store.Generations().Exports()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exports")
		return
	}
	writeJSON(w, http.StatusOK, listExportsResponse{Exports: exports})
}

func parseID(w http.ResponseWriter, s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid generation id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *GenerationHandler) get(w http.ResponseWriter, raw string) {
	id, ok := parseID(w, raw)
	if !ok {
		return
	}
	g, err := h.store.Generations().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Generation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get generation")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GenerationHandler) snapshot(w http.ResponseWriter, raw string) {
	id, ok := parseID(w, raw)
	if !ok {
		return
	}
	data, err := h.store.Generations().Snapshot(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

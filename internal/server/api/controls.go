package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/engine"
)

// ControlsHandler accepts discrete canvas requests. They are applied by the
// frame loop once the application is idle.
type ControlsHandler struct {
	controls *engine.Controls
}

// NewControlsHandler creates a ControlsHandler for c.
func NewControlsHandler(c *engine.Controls) *ControlsHandler {
	return &ControlsHandler{controls: c}
}

type controlsResponse struct {
	Clear uint64 `json:"clear"`
	Undo  uint64 `json:"undo"`
	Redo  uint64 `json:"redo"`
}

// ServeHTTP handles POST /api/controls/{clear,undo,redo}.
func (h *ControlsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/controls"), "/") {
	case "clear":
		h.controls.Clear()
	case "undo":
		h.controls.Undo()
	case "redo":
		h.controls.Redo()
	default:
		writeError(w, http.StatusNotFound, "Unknown control")
		return
	}

	clear, undo, redo := h.controls.Requested()
	writeJSON(w, http.StatusAccepted, controlsResponse{Clear: clear, Undo: undo, Redo: redo})
}

// BrushHandler reads and updates the requested brush.
type BrushHandler struct {
	controls *engine.Controls
}

// NewBrushHandler creates a BrushHandler for c.
func NewBrushHandler(c *engine.Controls) *BrushHandler {
	return &BrushHandler{controls: c}
}

type brushRequest struct {
	Color *string           `json:"color"`
	Width *float64          `json:"width"`
	Mode  *canvas.BrushMode `json:"mode"`
}

type brushResponse struct {
	Brush   canvas.Brush `json:"brush"`
	Palette []string     `json:"palette"`
}

// ServeHTTP handles GET and PUT /api/brush. PUT applies only the fields
// present in the body.
func (h *BrushHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, brushResponse{Brush: h.controls.Brush(), Palette: canvas.Palette})
	case http.MethodPut:
		h.update(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *BrushHandler) update(w http.ResponseWriter, r *http.Request) {
	var req brushRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	err := h.controls.UpdateBrush(func(b canvas.Brush) canvas.Brush {
		if req.Color != nil {
			b = b.WithColor(*req.Color)
		}
		if req.Width != nil {
			b.Width = *req.Width
		}
		if req.Mode != nil {
			b.Mode = *req.Mode
		}
		return b
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, brushResponse{Brush: h.controls.Brush(), Palette: canvas.Palette})
}

// ViewHandler selects the result view mode.
type ViewHandler struct {
	controls *engine.Controls
}

// NewViewHandler creates a ViewHandler for c.
func NewViewHandler(c *engine.Controls) *ViewHandler {
	return &ViewHandler{controls: c}
}

type viewRequest struct {
	View string `json:"view"`
}

// ServeHTTP handles PUT /api/view.
func (h *ViewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req viewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	v, err := canvas.ParseView(req.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.controls.SetView(v)
	writeJSON(w, http.StatusAccepted, viewRequest{View: string(v)})
}

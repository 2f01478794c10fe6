package engine

import (
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/canvas"
)

// Controls carries discrete user requests from any goroutine into the frame
// loop. Clear, undo and redo are counters so that no request is lost between
// frames; the engine applies every increment it has not seen yet.
type Controls struct {
	clear atomic.Uint64
	undo  atomic.Uint64
	redo  atomic.Uint64

	mu       sync.Mutex
	brush    canvas.Brush
	brushRev uint64
	view     canvas.View
	viewRev  uint64
}

// NewControls creates Controls starting from brush.
func NewControls(brush canvas.Brush) *Controls {
	return &Controls{brush: brush, view: canvas.ViewAI}
}

// Clear requests a canvas clear.
func (c *Controls) Clear() { c.clear.Add(1) }

// Undo requests one undo step.
func (c *Controls) Undo() { c.undo.Add(1) }

// Redo requests one redo step.
func (c *Controls) Redo() { c.redo.Add(1) }

// Requested returns the total number of clear, undo and redo requests made.
func (c *Controls) Requested() (clear, undo, redo uint64) {
	return c.clear.Load(), c.undo.Load(), c.redo.Load()
}

// SetBrush requests a brush change. Invalid brushes are rejected.
func (c *Controls) SetBrush(b canvas.Brush) error {
	if err := b.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.brush = b
	c.brushRev++
	return nil
}

// UpdateBrush applies fn to the requested brush atomically.
func (c *Controls) UpdateBrush(fn func(canvas.Brush) canvas.Brush) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := fn(c.brush)
	if err := b.Validate(); err != nil {
		return err
	}
	c.brush = b
	c.brushRev++
	return nil
}

// Brush returns the most recently requested brush.
func (c *Controls) Brush() canvas.Brush {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brush
}

// SetView requests a result view mode.
func (c *Controls) SetView(v canvas.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
	c.viewRev++
}

func (c *Controls) brushRequest() (canvas.Brush, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brush, c.brushRev
}

func (c *Controls) viewRequest() (canvas.View, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view, c.viewRev
}

// counters is the engine's record of requests already applied.
type counters struct {
	clear, undo, redo uint64
	brushRev, viewRev uint64
}

package engine

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/mode"
	"github.com/ayusman/mudra/internal/motion"
)

// Point is a screen position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func pointOf(v *r2.Vec) *Point {
	if v == nil {
		return nil
	}
	return &Point{X: v.X, Y: v.Y}
}

// Vec returns p as a vector.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Hold is the thumbs-up hold feedback for one frame.
type Hold struct {
	Progress float64 `json:"progress"`
	Fired    bool    `json:"fired,omitempty"`
	// Anchor is the screen position of the thumb tip, set while Progress > 0.
	Anchor *Point `json:"anchor,omitempty"`
}

// FrameOutput is everything a renderer needs to draw one frame.
type FrameOutput struct {
	At        time.Time        `json:"at"`
	Mode      mode.Mode        `json:"mode"`
	Label     gesture.Label    `json:"label"`
	Cursor    *Point           `json:"cursor"`
	Drawing   bool             `json:"drawing"`
	UICapture bool             `json:"ui_capture"`
	Transform motion.Transform `json:"transform"`
	Hold      Hold             `json:"hold"`
	Brush     canvas.Brush     `json:"brush"`
	View      canvas.View      `json:"view,omitempty"`

	CanUndo      bool `json:"can_undo"`
	CanRedo      bool `json:"can_redo"`
	HistoryIndex int  `json:"history_index"`
	HistoryLen   int  `json:"history_len"`
}

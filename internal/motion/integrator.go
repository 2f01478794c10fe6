// Package motion turns classified hand frames into a smoothed screen cursor
// and a pan/zoom viewport transform.
package motion

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Config holds the tuning constants of an Integrator.
type Config struct {
	// Margin is trimmed from each edge of the camera frame before mapping,
	// so the cursor reaches the screen edge before the hand leaves the frame.
	Margin float64 `json:"margin"`
	// CursorSmoothing is the weight of the new raw position.
	CursorSmoothing float64 `json:"cursor_smoothing"`
	// SpanSmoothing is the weight of the new raw zoom span.
	SpanSmoothing   float64 `json:"span_smoothing"`
	ZoomSensitivity float64 `json:"zoom_sensitivity"`
	MinScale        float64 `json:"min_scale"`
	MaxScale        float64 `json:"max_scale"`
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		Margin:          0.15,
		CursorSmoothing: 0.6,
		SpanSmoothing:   0.15,
		ZoomSensitivity: 0.3,
		MinScale:        0.2,
		MaxScale:        5.0,
	}
}

// minPrevSpan guards the zoom ratio against a vanishing previous span.
const minPrevSpan = 0.001

// Allow gates the viewport gestures for one frame.
type Allow struct {
	Pan  bool
	Zoom bool
}

// Integrator holds the cross-frame motion state. It is not safe for
// concurrent use.
type Integrator struct {
	cfg       Config
	container r2.Vec

	cursor    *r2.Vec
	panAnchor *r2.Vec
	zoomSpan  *float64
	transform Transform
}

// NewIntegrator creates an Integrator mapping into a container of the given
// size in screen pixels, starting from the identity transform.
func NewIntegrator(cfg Config, container r2.Vec) *Integrator {
	return &Integrator{
		cfg:       cfg,
		container: container,
		transform: Identity(),
	}
}

// Map converts a normalized camera point into container coordinates. The x
// axis is mirrored so the cursor follows the hand like a mirror image.
func (in *Integrator) Map(p detector.Point3D) r2.Vec {
	x, y := 1-p.X, p.Y
	if m := in.cfg.Margin; m > 0 {
		x = clamp((x-m)/(1-2*m), 0, 1)
		y = clamp((y-m)/(1-2*m), 0, 1)
	}
	return r2.Vec{X: x * in.container.X, Y: y * in.container.Y}
}

// Update integrates one frame and returns the smoothed cursor. A nil hand
// clears the cursor, the pan anchor and the zoom span together and returns
// nil.
func (in *Integrator) Update(hand *detector.HandLandmarks, c gesture.Classification, allow Allow) *r2.Vec {
	if hand == nil {
		in.Reset()
		return nil
	}

	raw := in.Map(hand.Points[detector.IndexTip])
	if in.cursor == nil {
		in.cursor = &raw
	} else {
		next := lerpVec(*in.cursor, raw, in.cfg.CursorSmoothing)
		in.cursor = &next
	}

	if c.Label == gesture.LabelPan && allow.Pan {
		in.pan(hand)
	} else {
		in.panAnchor = nil
	}

	if c.Label == gesture.LabelZoom && allow.Zoom {
		in.zoom(c.Span)
	} else {
		in.zoomSpan = nil
	}

	cursor := *in.cursor
	return &cursor
}

func (in *Integrator) pan(hand *detector.HandLandmarks) {
	mean := hand.Centroid(detector.IndexTip, detector.MiddleTip, detector.RingTip)
	center := in.Map(detector.Point3D{X: mean.X, Y: mean.Y})

	if in.panAnchor != nil {
		d := r2.Sub(center, *in.panAnchor)
		in.transform.X += d.X
		in.transform.Y += d.Y
	}
	in.panAnchor = &center
}

func (in *Integrator) zoom(raw float64) {
	if in.zoomSpan == nil {
		in.zoomSpan = &raw
		return
	}

	prev := *in.zoomSpan
	smoothed := lerp(prev, raw, in.cfg.SpanSmoothing)
	ratio := smoothed / math.Max(prev, minPrevSpan)
	damped := 1 + (ratio-1)*in.cfg.ZoomSensitivity
	in.transform.Scale = clamp(in.transform.Scale*damped, in.cfg.MinScale, in.cfg.MaxScale)
	in.zoomSpan = &smoothed
}

// Reset forgets the cursor and both gesture accumulators. The transform is
// kept.
func (in *Integrator) Reset() {
	in.cursor = nil
	in.panAnchor = nil
	in.zoomSpan = nil
}

// Cursor returns the current smoothed cursor, or nil without a hand.
func (in *Integrator) Cursor() *r2.Vec {
	if in.cursor == nil {
		return nil
	}
	c := *in.cursor
	return &c
}

// Transform returns the current viewport transform.
func (in *Integrator) Transform() Transform {
	return in.transform
}

// SetTransform replaces the viewport transform, clamping its scale.
func (in *Integrator) SetTransform(t Transform) {
	t.Scale = clamp(t.Scale, in.cfg.MinScale, in.cfg.MaxScale)
	in.transform = t
}

// Container returns the container size used for mapping.
func (in *Integrator) Container() r2.Vec {
	return in.container
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func lerpVec(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(r2.Scale(1-t, a), r2.Scale(t, b))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

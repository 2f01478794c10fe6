// Package engine runs the per-frame pipeline: it classifies the observed
// hand, drives the hold timer and the motion integrator, feeds the drawing
// surface and hands completed holds to the mode controller.
package engine

import (
	"context"
	"image"
	"log"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/mode"
	"github.com/ayusman/mudra/internal/motion"
)

// Config holds the engine parameters.
type Config struct {
	CanvasWidth  int
	CanvasHeight int
	History      int

	// Screen is the container size the cursor is mapped into.
	Screen r2.Vec

	PinchRatio    float64
	CurlTolerance float64
	Motion        motion.Config
	Hold          time.Duration
	Brush         canvas.Brush
}

// DefaultConfig returns the default engine parameters.
func DefaultConfig() Config {
	return Config{
		CanvasWidth:   1248,
		CanvasHeight:  832,
		History:       canvas.DefaultHistory,
		Screen:        r2.Vec{X: 1920, Y: 1080},
		PinchRatio:    gesture.DefaultPinchRatio,
		CurlTolerance: gesture.DefaultCurlTolerance,
		Motion:        motion.DefaultConfig(),
		Hold:          gesture.DefaultHoldDuration,
		Brush:         canvas.DefaultBrush(),
	}
}

// Widgets is the on-screen control layer driven by the cursor.
type Widgets interface {
	// Claims reports whether pt lies over a widget that is visible in m.
	// A claimed cursor never draws.
	Claims(m mode.Mode, pt r2.Vec) bool
	// Press activates the widget under pt while pinching. held is false on
	// the frame the pinch starts and true while it continues. It reports
	// whether a widget reacted.
	Press(m mode.Mode, pt r2.Vec, held bool) bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWidgets attaches a widget layer.
func WithWidgets(w Widgets) Option {
	return func(e *Engine) { e.widgets = w }
}

// WithControls shares c instead of creating a new Controls.
func WithControls(c *Controls) Option {
	return func(e *Engine) { e.controls = c }
}

// WithContext sets the context generation round trips run under.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) { e.ctx = ctx }
}

// Engine owns all cross-frame state. Frame must be called from a single
// goroutine; Controls may be used from any goroutine.
type Engine struct {
	cfg        Config
	ctx        context.Context
	ctrl       *mode.Controller
	controls   *Controls
	widgets    Widgets
	classifier *gesture.Classifier
	hold       *gesture.HoldTimer
	motion     *motion.Integrator
	surface    *canvas.Surface

	applied   counters
	brush     canvas.Brush
	view      canvas.View
	last      time.Time
	prevPinch bool
}

// New creates an Engine with a freshly allocated surface.
func New(cfg Config, ctrl *mode.Controller, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		ctx:        context.Background(),
		ctrl:       ctrl,
		controls:   NewControls(cfg.Brush),
		classifier: gesture.NewClassifier(cfg.PinchRatio),
		hold:       gesture.NewHoldTimer(cfg.Hold),
		motion:     motion.NewIntegrator(cfg.Motion, cfg.Screen),
		surface:    canvas.New(cfg.CanvasWidth, cfg.CanvasHeight, cfg.History),
		brush:      cfg.Brush,
		view:       canvas.ViewAI,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Controls returns the request channel into the frame loop.
func (e *Engine) Controls() *Controls {
	return e.controls
}

// Controller returns the mode controller.
func (e *Engine) Controller() *mode.Controller {
	return e.ctrl
}

// Surface returns the drawing surface. Callers outside the frame goroutine
// must serialise access with Frame.
func (e *Engine) Surface() *canvas.Surface {
	return e.surface
}

// CanvasRect returns the on-screen box of the canvas under the current
// transform.
func (e *Engine) CanvasRect() r2.Box {
	return e.motion.Transform().CanvasRect(e.cfg.Screen, e.surface.Size())
}

// Resync makes the next frame start a fresh time base, so a pause between
// frames is not counted towards a hold.
func (e *Engine) Resync() {
	e.last = time.Time{}
}

// Frame processes one observation. hand is the first detected hand, or nil
// when none is visible.
func (e *Engine) Frame(now time.Time, hand *detector.HandLandmarks) FrameOutput {
	var delta time.Duration
	if !e.last.IsZero() {
		delta = now.Sub(e.last)
	}
	e.last = now

	if e.ctrl.Poll() && e.ctrl.Mode() == mode.Showing {
		e.view = canvas.ViewAI
		_, e.applied.viewRev = e.controls.viewRequest()
	}
	m := e.ctrl.Mode()

	if m == mode.Generating {
		e.motion.Reset()
		e.hold.Reset()
		e.prevPinch = false
		return e.output(now, m, gesture.LabelNone, nil, false, false, gesture.HoldState{}, nil)
	}

	e.applyControls(m)

	thumb, thumbsUp := gesture.ThumbsUp(hand, e.cfg.CurlTolerance)
	hs := e.hold.Update(thumbsUp, delta, m.Allows(mode.ActionHold))

	var (
		label  = gesture.LabelNone
		cursor *r2.Vec
	)
	if thumbsUp {
		e.motion.Reset()
	} else {
		c := e.classifier.Classify(hand)
		label = c.Label
		cursor = e.motion.Update(hand, c, motion.Allow{
			Pan:  m.Allows(mode.ActionPan),
			Zoom: m.Allows(mode.ActionZoom),
		})
	}

	pinch := label == gesture.LabelDraw && cursor != nil
	uiCapture := cursor != nil && e.widgets != nil && e.widgets.Claims(m, *cursor)
	if uiCapture && pinch {
		e.widgets.Press(m, *cursor, e.prevPinch)
	}
	e.prevPinch = pinch

	drawing := m.Allows(mode.ActionDraw) && pinch && !uiCapture
	e.surface.Update(drawing, cursor, e.CanvasRect(), e.brush)

	var anchor *r2.Vec
	if hs.Progress > 0 {
		p := e.motion.Map(thumb)
		anchor = &p
	}

	if hs.Fired {
		if err := e.ctrl.Confirm(e.ctx, e.surface.SnapshotPNG); err != nil {
			log.Printf("engine: confirm: %v", err)
		}
	}

	return e.output(now, e.ctrl.Mode(), label, cursor, drawing, uiCapture, hs, anchor)
}

// applyControls applies pending requests. Canvas edits and brush changes
// wait for Idle; view changes only apply while Showing.
func (e *Engine) applyControls(m mode.Mode) {
	if m == mode.Showing {
		if v, rev := e.controls.viewRequest(); rev != e.applied.viewRev {
			e.view = v
			e.applied.viewRev = rev
		}
	}

	if !m.Allows(mode.ActionEdit) {
		return
	}

	for n := e.controls.clear.Load(); e.applied.clear < n; e.applied.clear++ {
		e.surface.Clear()
	}
	for n := e.controls.undo.Load(); e.applied.undo < n; e.applied.undo++ {
		e.surface.Undo()
	}
	for n := e.controls.redo.Load(); e.applied.redo < n; e.applied.redo++ {
		e.surface.Redo()
	}
	if b, rev := e.controls.brushRequest(); rev != e.applied.brushRev {
		e.brush = b
		e.applied.brushRev = rev
	}
}

// Export renders the canvas in view v, combined with the shown result if
// there is one. Callers outside the frame goroutine must serialise access
// with Frame.
func (e *Engine) Export(v canvas.View) (*image.RGBA, error) {
	drawing, err := e.surface.Snapshot()
	if err != nil {
		return nil, err
	}
	var result image.Image
	if r := e.ctrl.Result(); r != nil {
		result = r.Image
	}
	return canvas.Compose(drawing, result, v), nil
}

// View returns the view mode used while a result is shown.
func (e *Engine) View() canvas.View {
	return e.view
}

func (e *Engine) output(now time.Time, m mode.Mode, label gesture.Label, cursor *r2.Vec, drawing, uiCapture bool, hs gesture.HoldState, anchor *r2.Vec) FrameOutput {
	out := FrameOutput{
		At:        now,
		Mode:      m,
		Label:     label,
		Cursor:    pointOf(cursor),
		Drawing:   drawing,
		UICapture: uiCapture,
		Transform: e.motion.Transform(),
		Hold: Hold{
			Progress: hs.Progress,
			Fired:    hs.Fired,
			Anchor:   pointOf(anchor),
		},
		Brush:        e.brush,
		CanUndo:      e.surface.CanUndo(),
		CanRedo:      e.surface.CanRedo(),
		HistoryIndex: e.surface.HistoryIndex(),
		HistoryLen:   e.surface.HistoryLen(),
	}
	if m == mode.Showing {
		out.View = e.view
	}
	return out
}

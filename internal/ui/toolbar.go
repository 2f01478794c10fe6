// Package ui lays out the headless on-screen controls and operates them
// with the hand cursor: a pinch over a widget presses it.
package ui

import (
	"log"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/mode"
)

// Action identifies what a widget does when pressed.
type Action string

const (
	ActionDraw   Action = "draw"
	ActionErase  Action = "erase"
	ActionUndo   Action = "undo"
	ActionRedo   Action = "redo"
	ActionClear  Action = "clear"
	ActionColor  Action = "color"
	ActionWidth  Action = "width"
	ActionToggle Action = "toggle"
	ActionView   Action = "view"
	ActionSave   Action = "save"
)

// Debounce is the minimum time between two button presses.
const Debounce = 400 * time.Millisecond

// Panel geometry in screen pixels.
const (
	panelHeight = 180
	button      = 48
	smallButton = 40
	swatch      = 40
	gap         = 8
)

// Widget is one hit region.
type Widget struct {
	Action Action      `json:"action"`
	Bounds r2.Box      `json:"bounds"`
	Color  string      `json:"color,omitempty"`
	View   canvas.View `json:"view,omitempty"`
}

func (w Widget) contains(pt r2.Vec) bool {
	return pt.X >= w.Bounds.Min.X && pt.X <= w.Bounds.Max.X &&
		pt.Y >= w.Bounds.Min.Y && pt.Y <= w.Bounds.Max.Y
}

// Toolbar is the drawing toolbar shown in idle plus the result overlay
// shown in showing. It implements engine.Widgets.
type Toolbar struct {
	controls *engine.Controls
	now      func() time.Time

	panel   Widget
	toggle  Widget
	tools   []Widget
	slider  Widget
	overlay []Widget

	mu        sync.Mutex
	visible   bool
	lastPress time.Time
	onSave    func()
}

var _ engine.Widgets = (*Toolbar)(nil)

// NewToolbar lays out a visible toolbar for a screen of the given size.
func NewToolbar(screen r2.Vec, controls *engine.Controls) *Toolbar {
	t := &Toolbar{
		controls: controls,
		now:      time.Now,
		visible:  true,
	}
	t.layout(screen)
	return t
}

func box(x, y, w, h float64) r2.Box {
	return r2.Box{Min: r2.Vec{X: x, Y: y}, Max: r2.Vec{X: x + w, Y: y + h}}
}

func (t *Toolbar) layout(screen r2.Vec) {
	w, h := screen.X, screen.Y
	top := h - panelHeight

	t.panel = Widget{Bounds: box(0, top, w, panelHeight)}
	t.toggle = Widget{Action: ActionToggle, Bounds: box(16, h-16-button, button, button)}

	row1, row2 := top+24, top+24+button+gap
	left := 96.0
	t.tools = []Widget{
		{Action: ActionDraw, Bounds: box(left, row1, button, button)},
		{Action: ActionErase, Bounds: box(left+button+gap, row1, button, button)},
		{Action: ActionUndo, Bounds: box(left, row2, smallButton, smallButton)},
		{Action: ActionRedo, Bounds: box(left+smallButton+gap, row2, smallButton, smallButton)},
		{Action: ActionClear, Bounds: box(left+2*(smallButton+gap), row2, smallButton, smallButton)},
	}

	paletteLeft := w - 4*(swatch+gap) - 48
	for i, c := range canvas.Palette {
		col, row := i%4, i/4
		t.tools = append(t.tools, Widget{
			Action: ActionColor,
			Color:  c,
			Bounds: box(paletteLeft+float64(col)*(swatch+gap), row1+float64(row)*(swatch+gap), swatch, swatch),
		})
	}

	sliderLeft := left + 3*(smallButton+gap) + 40
	sliderWidth := paletteLeft - 40 - sliderLeft
	if sliderWidth < 100 {
		sliderWidth = 100
	}
	t.slider = Widget{Action: ActionWidth, Bounds: box(sliderLeft, row1+8, sliderWidth, 32)}

	cx := w / 2
	y := h - 32 - smallButton
	t.overlay = []Widget{
		{Action: ActionView, View: canvas.ViewSplit, Bounds: box(cx-200, y, 120, smallButton)},
		{Action: ActionView, View: canvas.ViewOriginal, Bounds: box(cx-72, y, 120, smallButton)},
		{Action: ActionView, View: canvas.ViewAI, Bounds: box(cx+56, y, 120, smallButton)},
		{Action: ActionSave, Bounds: box(cx+190, y-4, button, button)},
	}
}

// SetOnSave sets the callback run when the save button is pressed. It runs
// on the frame goroutine and must not block.
func (t *Toolbar) SetOnSave(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSave = fn
}

// Visible reports whether the idle toolbar panel is shown.
func (t *Toolbar) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// SetVisible shows or hides the idle toolbar panel.
func (t *Toolbar) SetVisible(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visible = v
}

// Widgets returns the hit regions active in m, for rendering.
func (t *Toolbar) Widgets(m mode.Mode) []Widget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active(m)
}

// active must be called with t.mu held.
func (t *Toolbar) active(m mode.Mode) []Widget {
	switch m {
	case mode.Idle:
		out := []Widget{t.toggle}
		if t.visible {
			out = append(out, t.tools...)
			out = append(out, t.slider)
		}
		return out
	case mode.Showing:
		return append([]Widget(nil), t.overlay...)
	default:
		return nil
	}
}

// Claims reports whether pt is over the toolbar panel or a visible widget.
func (t *Toolbar) Claims(m mode.Mode, pt r2.Vec) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m == mode.Idle && t.visible && t.panel.contains(pt) {
		return true
	}
	for _, w := range t.active(m) {
		if w.contains(pt) {
			return true
		}
	}
	return false
}

// Press operates the widget under pt. The width slider follows a held
// pinch; buttons react only to the first frame of a pinch and at most once
// per Debounce.
func (t *Toolbar) Press(m mode.Mode, pt r2.Vec, held bool) bool {
	t.mu.Lock()

	if m == mode.Idle && t.visible && t.slider.contains(pt) {
		t.mu.Unlock()
		b := t.slider.Bounds
		p := (pt.X - b.Min.X) / (b.Max.X - b.Min.X)
		err := t.controls.UpdateBrush(func(br canvas.Brush) canvas.Brush {
			return br.WithWidth(canvas.SliderWidth(p))
		})
		if err != nil {
			log.Printf("toolbar: width: %v", err)
			return false
		}
		return true
	}

	if held {
		t.mu.Unlock()
		return false
	}

	now := t.now()
	if !t.lastPress.IsZero() && now.Sub(t.lastPress) <= Debounce {
		t.mu.Unlock()
		return false
	}

	var hit *Widget
	for _, w := range t.active(m) {
		if w.contains(pt) && w.Action != ActionWidth {
			hit = &w
			break
		}
	}
	if hit == nil {
		t.mu.Unlock()
		return false
	}
	t.lastPress = now
	if hit.Action == ActionToggle {
		t.visible = !t.visible
	}
	onSave := t.onSave
	t.mu.Unlock()

	return t.apply(*hit, onSave)
}

// apply runs the widget's action and reports whether it took effect.
func (t *Toolbar) apply(w Widget, onSave func()) bool {
	var err error
	switch w.Action {
	case ActionDraw, ActionErase:
		bm := canvas.ModeDraw
		if w.Action == ActionErase {
			bm = canvas.ModeErase
		}
		err = t.controls.UpdateBrush(func(b canvas.Brush) canvas.Brush {
			b.Mode = bm
			return b
		})
	case ActionColor:
		err = t.controls.UpdateBrush(func(b canvas.Brush) canvas.Brush {
			return b.WithColor(w.Color)
		})
	case ActionUndo:
		t.controls.Undo()
	case ActionRedo:
		t.controls.Redo()
	case ActionClear:
		t.controls.Clear()
	case ActionView:
		t.controls.SetView(w.View)
	case ActionSave:
		if onSave != nil {
			onSave()
		}
	}
	if err != nil {
		log.Printf("toolbar: %s: %v", w.Action, err)
		return false
	}
	return true
}

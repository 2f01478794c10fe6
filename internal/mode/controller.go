// Package mode owns the application mode (idle, generating, showing) and
// the asynchronous generation round trip that moves between them.
package mode

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/generate"
)

// Mode is the application-level state.
type Mode string

const (
	// Idle accepts every gesture.
	Idle Mode = "idle"
	// Generating waits for a round trip and ignores gestures.
	Generating Mode = "generating"
	// Showing displays a result; pan is allowed and the hold closes it.
	Showing Mode = "showing"
)

// Action is a gesture-driven operation gated by the mode.
type Action int

const (
	ActionDraw Action = iota
	ActionPan
	ActionZoom
	ActionHold
	// ActionEdit covers discrete canvas edits: undo, redo, clear and brush
	// changes.
	ActionEdit
)

// Allows reports whether m permits a.
func (m Mode) Allows(a Action) bool {
	switch m {
	case Idle:
		return true
	case Showing:
		return a == ActionPan || a == ActionHold
	default:
		return false
	}
}

// EventKind classifies a mode transition.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	EventClosed    EventKind = "closed"
)

// Event describes one mode transition.
type Event struct {
	// ID identifies the round trip the event belongs to.
	ID       uuid.UUID
	Kind     EventKind
	From     Mode
	To       Mode
	Result   *generate.Result
	Err      error
	Snapshot []byte
	At       time.Time
}

// Listener receives mode events. It is called without the controller lock
// held, on the goroutine that caused the transition.
type Listener func(Event)

type outcome struct {
	result *generate.Result
	err    error
}

type round struct {
	id       uuid.UUID
	snapshot []byte
	outcome  chan outcome
	done     chan struct{}
}

// Controller is the mode state machine. Confirm and Poll are called from the
// frame loop; Mode, Result and Await are safe from any goroutine.
type Controller struct {
	gen generate.Generator

	mu        sync.Mutex
	mode      Mode
	current   *round
	shownID   uuid.UUID
	result    *generate.Result
	listeners []Listener
}

// NewController creates a Controller in Idle.
func NewController(gen generate.Generator) *Controller {
	return &Controller{gen: gen, mode: Idle}
}

// OnEvent registers a listener for mode events.
func (c *Controller) OnEvent(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Allows reports whether the current mode permits a.
func (c *Controller) Allows(a Action) bool {
	return c.Mode().Allows(a)
}

// Result returns the result being shown, or nil outside Showing.
func (c *Controller) Result() *generate.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Confirm acts on a completed hold. In Idle it takes the snapshot, switches
// to Generating and starts the round trip in the background. In Showing it
// discards the result and returns to Idle. In Generating it does nothing.
func (c *Controller) Confirm(ctx context.Context, snapshot func() ([]byte, error)) error {
	c.mu.Lock()
	switch c.mode {
	case Showing:
		ev := c.transition(EventClosed, Idle)
		ev.ID = c.shownID
		c.result = nil
		c.shownID = uuid.Nil
		c.mu.Unlock()
		c.emit(ev)
		return nil
	case Generating:
		c.mu.Unlock()
		return nil
	}

	id := uuid.New()
	c.mode = Generating
	c.mu.Unlock()

	png, err := snapshot()
	if err != nil {
		c.mu.Lock()
		ev := c.transition(EventFailed, Idle)
		c.mu.Unlock()
		ev.ID = id
		ev.Err = fmt.Errorf("taking snapshot: %w", err)
		c.emit(ev)
		return ev.Err
	}

	r := &round{
		id:       id,
		snapshot: png,
		outcome:  make(chan outcome, 1),
		done:     make(chan struct{}),
	}

	c.mu.Lock()
	c.current = r
	ev := Event{ID: id, Kind: EventStarted, From: Idle, To: Generating, Snapshot: png, At: time.Now()}
	c.mu.Unlock()
	c.emit(ev)

	go func() {
		defer close(r.done)
		res, err := c.gen.Generate(ctx, png)
		if err == nil && (res == nil || res.Image == nil) {
			err = generate.ErrEmptyResult
		}
		r.outcome <- outcome{result: res, err: err}
	}()

	return nil
}

// Poll applies a finished round trip, if there is one. It reports whether
// the mode changed.
func (c *Controller) Poll() bool {
	c.mu.Lock()
	r := c.current
	if r == nil || c.mode != Generating {
		c.mu.Unlock()
		return false
	}

	var o outcome
	select {
	case o = <-r.outcome:
	default:
		c.mu.Unlock()
		return false
	}
	c.current = nil

	var ev Event
	if o.err != nil {
		ev = c.transition(EventFailed, Idle)
		ev.Err = o.err
	} else {
		ev = c.transition(EventSucceeded, Showing)
		ev.Result = o.result
		c.result = o.result
		c.shownID = r.id
	}
	ev.ID = r.id
	ev.Snapshot = r.snapshot
	c.mu.Unlock()

	c.emit(ev)
	return true
}

// Await blocks until the pending round trip has finished or ctx is done.
// The outcome is applied by the next Poll. It returns immediately when
// nothing is pending.
func (c *Controller) Await(ctx context.Context) error {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()
	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// transition must be called with c.mu held.
func (c *Controller) transition(kind EventKind, to Mode) Event {
	ev := Event{Kind: kind, From: c.mode, To: to, At: time.Now()}
	c.mode = to
	return ev
}

func (c *Controller) emit(ev Event) {
	if ev.Err != nil {
		log.Printf("mode: %s -> %s (%s): %v", ev.From, ev.To, ev.Kind, ev.Err)
	} else {
		log.Printf("mode: %s -> %s (%s)", ev.From, ev.To, ev.Kind)
	}

	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

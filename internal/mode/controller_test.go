package mode

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/generate"
)

func snapshotOK() ([]byte, error) {
	return []byte("png"), nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventKind
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func awaitAndPoll(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Await(ctx))
	require.True(t, c.Poll())
}

func TestMode_Allows(t *testing.T) {
	tests := []struct {
		mode Mode
		want map[Action]bool
	}{
		{Idle, map[Action]bool{ActionDraw: true, ActionPan: true, ActionZoom: true, ActionHold: true, ActionEdit: true}},
		{Generating, map[Action]bool{ActionDraw: false, ActionPan: false, ActionZoom: false, ActionHold: false, ActionEdit: false}},
		{Showing, map[Action]bool{ActionDraw: false, ActionPan: true, ActionZoom: false, ActionHold: true, ActionEdit: false}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			for action, want := range tt.want {
				assert.Equal(t, want, tt.mode.Allows(action), "action %d", action)
			}
		})
	}
}

func TestController_RoundTripSuccess(t *testing.T) {
	gen := generate.NewMockGenerator()
	c := NewController(gen)
	rec := &recorder{}
	c.OnEvent(rec.listen)

	require.NoError(t, c.Confirm(context.Background(), snapshotOK))
	assert.Equal(t, Generating, c.Mode())

	awaitAndPoll(t, c)

	assert.Equal(t, Showing, c.Mode())
	require.NotNil(t, c.Result())
	assert.Equal(t, []byte("png"), gen.LastPNG())
	assert.Equal(t, []EventKind{EventStarted, EventSucceeded}, rec.kinds())

	ev := rec.last()
	assert.Equal(t, Generating, ev.From)
	assert.Equal(t, Showing, ev.To)
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, []byte("png"), ev.Snapshot)
}

func TestController_OutcomeWaitsForPoll(t *testing.T) {
	c := NewController(generate.NewMockGenerator())

	require.NoError(t, c.Confirm(context.Background(), snapshotOK))
	require.NoError(t, c.Await(context.Background()))

	assert.Equal(t, Generating, c.Mode(), "the outcome is applied at the next frame")
	assert.True(t, c.Poll())
	assert.False(t, c.Poll(), "outcome applied once")
}

func TestController_RoundTripFailure(t *testing.T) {
	gen := generate.NewMockGenerator()
	boom := errors.New("service unavailable")
	gen.SetError(boom)

	c := NewController(gen)
	rec := &recorder{}
	c.OnEvent(rec.listen)

	require.NoError(t, c.Confirm(context.Background(), snapshotOK))
	awaitAndPoll(t, c)

	assert.Equal(t, Idle, c.Mode())
	assert.Nil(t, c.Result())

	failures := 0
	for _, k := range rec.kinds() {
		if k == EventFailed {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.ErrorIs(t, rec.last().Err, boom)
}

func TestController_EmptyResultFails(t *testing.T) {
	gen := generate.NewMockGenerator()
	gen.SetResult(&generate.Result{URL: "x"})

	c := NewController(gen)
	rec := &recorder{}
	c.OnEvent(rec.listen)

	require.NoError(t, c.Confirm(context.Background(), snapshotOK))
	awaitAndPoll(t, c)

	assert.Equal(t, Idle, c.Mode())
	assert.ErrorIs(t, rec.last().Err, generate.ErrEmptyResult)
}

func TestController_SnapshotFailure(t *testing.T) {
	gen := generate.NewMockGenerator()
	c := NewController(gen)
	rec := &recorder{}
	c.OnEvent(rec.listen)

	boom := errors.New("no pixels")
	err := c.Confirm(context.Background(), func() ([]byte, error) { return nil, boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Idle, c.Mode())
	assert.Equal(t, 0, gen.Calls())
	assert.Equal(t, []EventKind{EventFailed}, rec.kinds())
	assert.False(t, c.Poll())
}

func TestController_CloseFromShowing(t *testing.T) {
	c := NewController(generate.NewMockGenerator())
	rec := &recorder{}
	c.OnEvent(rec.listen)

	require.NoError(t, c.Confirm(context.Background(), snapshotOK))
	awaitAndPoll(t, c)
	shown := rec.last().ID

	calls := 0
	require.NoError(t, c.Confirm(context.Background(), func() ([]byte, error) {
		calls++
		return nil, nil
	}))

	assert.Equal(t, Idle, c.Mode())
	assert.Nil(t, c.Result())
	assert.Zero(t, calls, "closing takes no snapshot")

	ev := rec.last()
	assert.Equal(t, EventClosed, ev.Kind)
	assert.Equal(t, shown, ev.ID)
}

func TestController_ConfirmWhileGenerating(t *testing.T) {
	gen := generate.NewMockGenerator()
	gen.Block()
	defer gen.Release()

	c := NewController(gen)
	require.NoError(t, c.Confirm(context.Background(), snapshotOK))

	require.NoError(t, c.Confirm(context.Background(), snapshotOK))
	assert.Equal(t, Generating, c.Mode())
	assert.False(t, c.Poll(), "nothing to apply while the round trip runs")

	gen.Release()
	awaitAndPoll(t, c)
	assert.Equal(t, 1, gen.Calls())
	assert.Equal(t, Showing, c.Mode())
}

func TestController_AwaitHonoursContext(t *testing.T) {
	gen := generate.NewMockGenerator()
	gen.Block()
	defer gen.Release()

	c := NewController(gen)
	require.NoError(t, c.Confirm(context.Background(), snapshotOK))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Await(ctx), context.DeadlineExceeded)
}

func TestController_AwaitWithoutRoundTrip(t *testing.T) {
	c := NewController(generate.NewMockGenerator())
	assert.NoError(t, c.Await(context.Background()))
}

func TestController_RoundTripIDsAreUnique(t *testing.T) {
	c := NewController(generate.NewMockGenerator())
	rec := &recorder{}
	c.OnEvent(rec.listen)

	seen := map[uuid.UUID]bool{}
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Confirm(context.Background(), snapshotOK))
		awaitAndPoll(t, c)
		seen[rec.last().ID] = true
		require.NoError(t, c.Confirm(context.Background(), snapshotOK))
	}
	assert.Len(t, seen, 3)
}

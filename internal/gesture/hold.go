package gesture

import "time"

// DefaultHoldDuration is how long a pose must be held to confirm.
const DefaultHoldDuration = 3 * time.Second

// HoldState is the per-frame output of a HoldTimer.
type HoldState struct {
	// Progress is the accumulated fraction of the hold in [0, 1].
	Progress float64
	// Fired is true on exactly one frame per completed hold.
	Fired bool
}

// HoldTimer accumulates a sustained pose into a one-shot confirmation. The
// zero value holds for DefaultHoldDuration.
type HoldTimer struct {
	threshold   time.Duration
	accumulated time.Duration
}

// NewHoldTimer creates a HoldTimer. Non-positive thresholds fall back to
// DefaultHoldDuration.
func NewHoldTimer(threshold time.Duration) *HoldTimer {
	if threshold <= 0 {
		threshold = DefaultHoldDuration
	}
	return &HoldTimer{threshold: threshold}
}

// Update advances the timer by one frame. The hold accumulates only while
// the pose is detected and the caller allows it; any other frame drops the
// progress back to zero. When the threshold is reached the timer fires once
// and restarts from zero, so a sustained pose does not fire every frame.
func (t *HoldTimer) Update(detected bool, delta time.Duration, allowed bool) HoldState {
	if !detected || !allowed {
		t.accumulated = 0
		return HoldState{}
	}

	if delta > 0 {
		t.accumulated += delta
	}

	progress := float64(t.accumulated) / float64(t.Threshold())
	if progress < 1 {
		return HoldState{Progress: progress}
	}

	t.accumulated = 0
	return HoldState{Progress: 1, Fired: true}
}

// Accumulated returns the time held so far.
func (t *HoldTimer) Accumulated() time.Duration {
	return t.accumulated
}

// Threshold returns the hold duration required to fire.
func (t *HoldTimer) Threshold() time.Duration {
	if t.threshold <= 0 {
		return DefaultHoldDuration
	}
	return t.threshold
}

// Reset drops any partial hold.
func (t *HoldTimer) Reset() {
	t.accumulated = 0
}

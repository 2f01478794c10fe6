package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

const delta = 1e-6

var allowAll = Allow{Pan: true, Zoom: true}

func newTestIntegrator() *Integrator {
	return NewIntegrator(DefaultConfig(), r2.Vec{X: 1000, Y: 1000})
}

func frame(in *Integrator, hand detector.HandLandmarks, allow Allow) *r2.Vec {
	return in.Update(&hand, gesture.Classify(&hand), allow)
}

func TestIntegrator_Map(t *testing.T) {
	in := newTestIntegrator()

	tests := []struct {
		name string
		p    detector.Point3D
		want r2.Vec
	}{
		{"center", detector.Point3D{X: 0.5, Y: 0.5}, r2.Vec{X: 500, Y: 500}},
		{"mirrored left edge of margin", detector.Point3D{X: 0.85, Y: 0.15}, r2.Vec{X: 0, Y: 0}},
		{"mirrored right edge of margin", detector.Point3D{X: 0.15, Y: 0.85}, r2.Vec{X: 1000, Y: 1000}},
		{"clamped outside margin", detector.Point3D{X: 0.95, Y: 0.99}, r2.Vec{X: 0, Y: 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := in.Map(tt.p)
			assert.InDelta(t, tt.want.X, got.X, delta)
			assert.InDelta(t, tt.want.Y, got.Y, delta)
		})
	}
}

func TestIntegrator_Map_NoMargin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Margin = 0
	in := NewIntegrator(cfg, r2.Vec{X: 200, Y: 100})

	got := in.Map(detector.Point3D{X: 0.25, Y: 0.25})
	assert.InDelta(t, 150, got.X, delta)
	assert.InDelta(t, 25, got.Y, delta)
}

func TestIntegrator_CursorSmoothing(t *testing.T) {
	in := newTestIntegrator()
	hand := detector.HoverLandmarks()

	first := frame(in, hand, allowAll)
	require.NotNil(t, first)
	raw := in.Map(hand.Points[detector.IndexTip])
	assert.InDelta(t, raw.X, first.X, delta, "first frame snaps to the raw position")
	assert.InDelta(t, raw.Y, first.Y, delta)

	moved := hand.Translate(-0.07, 0)
	second := frame(in, moved, allowAll)
	require.NotNil(t, second)
	// 0.07 of the frame is 100 px after the margin remap; the cursor covers 60%.
	assert.InDelta(t, first.X+60, second.X, delta)
	assert.InDelta(t, first.Y, second.Y, delta)
}

func TestIntegrator_HandLossResets(t *testing.T) {
	in := newTestIntegrator()

	frame(in, detector.ZoomLandmarks(0.1), allowAll)
	frame(in, detector.PanLandmarks(), allowAll)
	require.NotNil(t, in.Cursor())

	assert.Nil(t, in.Update(nil, gesture.Classify(nil), allowAll))
	assert.Nil(t, in.Cursor())
	assert.Nil(t, in.panAnchor)
	assert.Nil(t, in.zoomSpan)

	// The cursor snaps again instead of lerping from the old position.
	hand := detector.HoverLandmarks().Translate(0.1, 0.1)
	got := frame(in, hand, allowAll)
	raw := in.Map(hand.Points[detector.IndexTip])
	assert.InDelta(t, raw.X, got.X, delta)
	assert.InDelta(t, raw.Y, got.Y, delta)
}

func TestIntegrator_Pan(t *testing.T) {
	in := newTestIntegrator()
	hand := detector.PanLandmarks()

	frame(in, hand, allowAll)
	assert.Equal(t, Identity(), in.Transform(), "first pan frame only seeds the anchor")

	frame(in, hand.Translate(-0.07, 0.07), allowAll)
	tr := in.Transform()
	assert.InDelta(t, 100, tr.X, delta)
	assert.InDelta(t, 100, tr.Y, delta)
	assert.Equal(t, 1.0, tr.Scale)
}

func TestIntegrator_PanAnchorClearedOnOtherLabel(t *testing.T) {
	in := newTestIntegrator()
	hand := detector.PanLandmarks()

	frame(in, hand, allowAll)
	frame(in, detector.HoverLandmarks(), allowAll)
	// Re-entering pan somewhere else must not jump the viewport.
	frame(in, hand.Translate(-0.1, 0), allowAll)

	assert.Equal(t, Identity(), in.Transform())
}

func TestIntegrator_PanDisallowed(t *testing.T) {
	in := newTestIntegrator()
	hand := detector.PanLandmarks()

	frame(in, hand, Allow{})
	frame(in, hand.Translate(-0.07, 0.07), Allow{})

	assert.Equal(t, Identity(), in.Transform())
}

func TestIntegrator_Zoom(t *testing.T) {
	in := newTestIntegrator()

	frame(in, detector.ZoomLandmarks(0.10), allowAll)
	assert.Equal(t, 1.0, in.Transform().Scale, "first zoom frame only seeds the span")

	frame(in, detector.ZoomLandmarks(0.12), allowAll)
	// smoothed 0.103, ratio 1.03, damped 1 + 0.03*0.3
	assert.InDelta(t, 1.009, in.Transform().Scale, delta)
	require.NotNil(t, in.zoomSpan)
	assert.InDelta(t, 0.103, *in.zoomSpan, delta)
}

func TestIntegrator_ZoomClamped(t *testing.T) {
	t.Run("max", func(t *testing.T) {
		in := newTestIntegrator()
		in.SetTransform(Transform{Scale: 4.9})

		frame(in, detector.ZoomLandmarks(0.01), allowAll)
		for i := 0; i < 5; i++ {
			frame(in, detector.ZoomLandmarks(0.3), allowAll)
		}
		assert.Equal(t, 5.0, in.Transform().Scale)
	})

	t.Run("min", func(t *testing.T) {
		in := newTestIntegrator()
		in.SetTransform(Transform{Scale: 0.2})

		frame(in, detector.ZoomLandmarks(0.3), allowAll)
		frame(in, detector.ZoomLandmarks(0.01), allowAll)
		assert.Equal(t, 0.2, in.Transform().Scale)
	})
}

func TestIntegrator_ZoomDisallowedClearsSpan(t *testing.T) {
	in := newTestIntegrator()

	frame(in, detector.ZoomLandmarks(0.10), allowAll)
	frame(in, detector.ZoomLandmarks(0.10), Allow{Pan: true})
	assert.Nil(t, in.zoomSpan)

	// The next allowed frame seeds again rather than jumping.
	frame(in, detector.ZoomLandmarks(0.20), allowAll)
	assert.Equal(t, 1.0, in.Transform().Scale)
}

func TestIntegrator_SetTransformClampsScale(t *testing.T) {
	in := newTestIntegrator()

	in.SetTransform(Transform{X: 3, Y: 4, Scale: 50})
	assert.Equal(t, Transform{X: 3, Y: 4, Scale: 5}, in.Transform())
}

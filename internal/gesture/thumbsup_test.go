package gesture

import (
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func TestDetectThumbsUp(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want bool
	}{
		{"thumbs up", detector.ThumbsUpLandmarks(), true},
		{"thumbs up anywhere in frame", detector.ThumbsUpLandmarks().Translate(-0.2, 0.1), true},
		{"open palm", detector.OpenPalmLandmarks(), false},
		{"fist with tucked thumb", detector.FistLandmarks(), false},
		{"pinch", detector.PinchLandmarks(), false},
		{"pointing", detector.HoverLandmarks(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := DetectThumbsUp(&tt.hand)
			if got != tt.want {
				t.Errorf("DetectThumbsUp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectThumbsUp_ReturnsThumbTip(t *testing.T) {
	hand := detector.ThumbsUpLandmarks()

	tip, ok := DetectThumbsUp(&hand)
	if !ok {
		t.Fatal("expected thumbs up")
	}
	if tip != hand.Points[detector.ThumbTip] {
		t.Errorf("tip = %v, want %v", tip, hand.Points[detector.ThumbTip])
	}
}

func TestDetectThumbsUp_ThumbChainMustRise(t *testing.T) {
	hand := detector.ThumbsUpLandmarks()
	// IP level with MCP breaks the strict ordering.
	hand.Points[detector.ThumbIP].Y = hand.Points[detector.ThumbMCP].Y

	if _, ok := DetectThumbsUp(&hand); ok {
		t.Error("expected no match when the thumb joints are not strictly rising")
	}
}

func TestDetectThumbsUp_CurlTolerance(t *testing.T) {
	hand := detector.ThumbsUpLandmarks()
	pip := hand.Points[detector.RingPIP].Y

	t.Run("tip slightly above joint still curled", func(t *testing.T) {
		h := hand
		h.Points[detector.RingTip].Y = pip - 0.015
		if _, ok := DetectThumbsUp(&h); !ok {
			t.Error("expected match within tolerance")
		}
	})

	t.Run("tip well above joint is extended", func(t *testing.T) {
		h := hand
		h.Points[detector.RingTip].Y = pip - 0.05
		if _, ok := DetectThumbsUp(&h); ok {
			t.Error("expected no match with an extended ring finger")
		}
	})

	t.Run("custom tolerance", func(t *testing.T) {
		h := hand
		h.Points[detector.RingTip].Y = pip - 0.05
		if _, ok := ThumbsUp(&h, 0.06); !ok {
			t.Error("expected match with a looser tolerance")
		}
	})
}

func TestDetectThumbsUp_ThumbMustBeHighest(t *testing.T) {
	hand := detector.ThumbsUpLandmarks()
	hand.Points[detector.MiddleTip].Y = hand.Points[detector.ThumbTip].Y - 0.01
	hand.Points[detector.MiddlePIP].Y = hand.Points[detector.MiddleTip].Y

	if _, ok := DetectThumbsUp(&hand); ok {
		t.Error("expected no match when a fingertip is above the thumb")
	}
}

func TestDetectThumbsUp_Nil(t *testing.T) {
	if _, ok := DetectThumbsUp(nil); ok {
		t.Error("expected no match for nil hand")
	}
}

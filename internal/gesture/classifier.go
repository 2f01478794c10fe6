// Package gesture turns per-frame hand landmarks into drawing gestures.
package gesture

import (
	"github.com/ayusman/mudra/internal/detector"
)

// Label is the discrete classification of a hand pose for one frame.
type Label string

const (
	// LabelNone covers fists, open palms and every unmatched finger combination.
	LabelNone Label = "none"
	// LabelHover moves the cursor without drawing (index finger alone).
	LabelHover Label = "hover"
	// LabelDraw is a thumb-index pinch.
	LabelDraw Label = "draw"
	// LabelZoom is index and middle fingers extended.
	LabelZoom Label = "zoom"
	// LabelPan is index, middle and ring fingers extended.
	LabelPan Label = "pan"
)

// DefaultPinchRatio is the pinch threshold as a fraction of palm scale.
const DefaultPinchRatio = 0.35

// Classification is the classifier output for one frame.
type Classification struct {
	Label Label
	// Span is the index-to-middle fingertip distance for LabelZoom, 0 otherwise.
	Span float64

	PalmScale     float64
	PinchDistance float64
	Extended      [4]bool // indexed by detector.Finger
}

// Classifier labels hand poses. The zero value is not usable; use
// NewClassifier or the package-level Classify.
type Classifier struct {
	pinchRatio float64
}

// NewClassifier creates a Classifier with the given pinch ratio. Values
// less than or equal to 0 fall back to DefaultPinchRatio.
func NewClassifier(pinchRatio float64) *Classifier {
	if pinchRatio <= 0 {
		pinchRatio = DefaultPinchRatio
	}
	return &Classifier{pinchRatio: pinchRatio}
}

var defaultClassifier = NewClassifier(DefaultPinchRatio)

// Classify labels a hand with the default pinch ratio.
func Classify(hand *detector.HandLandmarks) Classification {
	return defaultClassifier.Classify(hand)
}

// Classify labels a single hand pose. It keeps no state between calls and
// every input maps to exactly one label; a nil hand is LabelNone.
//
// Rules, first match wins:
//  1. pinch (thumb tip near index tip)      -> draw
//  2. index, middle, ring up; pinky down    -> pan
//  3. index, middle up; ring, pinky down    -> zoom
//  4. index up alone                        -> hover
//  5. anything else                         -> none
func (c *Classifier) Classify(hand *detector.HandLandmarks) Classification {
	if hand == nil {
		return Classification{Label: LabelNone}
	}

	p := &hand.Points
	out := Classification{
		PalmScale:     detector.Distance(p[detector.Wrist], p[detector.MiddleMCP]),
		PinchDistance: detector.Distance(p[detector.ThumbTip], p[detector.IndexTip]),
	}
	for _, f := range detector.Fingers {
		out.Extended[f] = isExtended(hand, f)
	}

	index := out.Extended[detector.Index]
	middle := out.Extended[detector.Middle]
	ring := out.Extended[detector.Ring]
	pinky := out.Extended[detector.Pinky]

	switch {
	case out.PinchDistance < out.PalmScale*c.pinchRatio:
		out.Label = LabelDraw
	case index && middle && ring && !pinky:
		out.Label = LabelPan
	case index && middle && !ring && !pinky:
		out.Label = LabelZoom
		out.Span = detector.Distance(p[detector.IndexTip], p[detector.MiddleTip])
	case index && !middle && !ring && !pinky:
		out.Label = LabelHover
	default:
		out.Label = LabelNone
	}

	return out
}

// isExtended compares wrist distances of the tip and the middle joint, which
// holds for any hand rotation in the image plane.
func isExtended(hand *detector.HandLandmarks, f detector.Finger) bool {
	wrist := hand.Points[detector.Wrist]
	return detector.Distance(wrist, hand.Points[f.Tip()]) > detector.Distance(wrist, hand.Points[f.PIP()])
}

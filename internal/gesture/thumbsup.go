package gesture

import "github.com/ayusman/mudra/internal/detector"

// DefaultCurlTolerance is how far above its middle joint (in normalized
// units) a fingertip may sit and still count as curled.
const DefaultCurlTolerance = 0.02

// DetectThumbsUp reports whether the hand is an upright thumbs up, using
// DefaultCurlTolerance. It returns the thumb tip for anchoring feedback.
func DetectThumbsUp(hand *detector.HandLandmarks) (detector.Point3D, bool) {
	return ThumbsUp(hand, DefaultCurlTolerance)
}

// ThumbsUp matches an upright thumbs up: the thumb rises tip over IP over
// MCP, the four fingers are curled, and the thumb tip is above the index and
// middle fingertips. It assumes an upright hand, so it compares y only.
func ThumbsUp(hand *detector.HandLandmarks, curlTolerance float64) (detector.Point3D, bool) {
	if hand == nil {
		return detector.Point3D{}, false
	}

	p := &hand.Points
	tip := p[detector.ThumbTip]

	if !(tip.Y < p[detector.ThumbIP].Y && p[detector.ThumbIP].Y < p[detector.ThumbMCP].Y) {
		return tip, false
	}

	for _, f := range detector.Fingers {
		if p[f.Tip()].Y < p[f.PIP()].Y-curlTolerance {
			return tip, false
		}
	}

	if tip.Y >= p[detector.IndexTip].Y || tip.Y >= p[detector.MiddleTip].Y {
		return tip, false
	}

	return tip, true
}

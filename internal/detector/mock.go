package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]HandLandmarks(nil), m.hands...), nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Finger base x positions and knuckle heights used by the preset poses.
var (
	fingerX     = [4]float64{0.56, 0.50, 0.44, 0.38}
	knuckleY    = [4]float64{0.68, 0.66, 0.68, 0.70}
	presetWrist = Point3D{X: 0.5, Y: 0.8}
)

// Pose returns an upright right hand with the given fingers extended and
// the rest curled into the palm. The thumb rests sideways, so the pose is
// neither a pinch nor a thumbs up.
func Pose(extended ...Finger) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = presetWrist

	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.77}
	h.Points[ThumbMCP] = Point3D{X: 0.61, Y: 0.74}
	h.Points[ThumbIP] = Point3D{X: 0.66, Y: 0.73}
	h.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.73}

	up := [4]bool{}
	for _, f := range extended {
		up[f] = true
	}

	for _, f := range Fingers {
		x, y := fingerX[f], knuckleY[f]
		h.Points[f.MCP()] = Point3D{X: x, Y: y}
		if up[f] {
			h.Points[f.PIP()] = Point3D{X: x, Y: y - 0.13}
			h.Points[f.PIP()+1] = Point3D{X: x, Y: y - 0.23}
			h.Points[f.Tip()] = Point3D{X: x, Y: y - 0.33}
		} else {
			h.Points[f.PIP()] = Point3D{X: x, Y: y - 0.08, Z: -0.05}
			h.Points[f.PIP()+1] = Point3D{X: x, Y: y - 0.04, Z: -0.04}
			h.Points[f.Tip()] = Point3D{X: x, Y: y + 0.02, Z: -0.02}
		}
	}

	return h
}

// HoverLandmarks returns a pointing hand: index finger extended alone.
func HoverLandmarks() HandLandmarks {
	return Pose(Index)
}

// ZoomLandmarks returns index and middle fingers extended with their tips
// the given planar distance apart.
func ZoomLandmarks(span float64) HandLandmarks {
	h := Pose(Index, Middle)
	h.Points[IndexTip].X = 0.53 + span/2
	h.Points[MiddleTip].X = 0.53 - span/2
	h.Points[MiddleTip].Y = h.Points[IndexTip].Y
	return h
}

// PanLandmarks returns index, middle and ring fingers extended with the
// pinky curled.
func PanLandmarks() HandLandmarks {
	return Pose(Index, Middle, Ring)
}

// FistLandmarks returns a closed fist with the thumb tucked sideways.
func FistLandmarks() HandLandmarks {
	return Pose()
}

// PinchLandmarks returns a hand with the thumb tip touching a half-bent
// index finger.
func PinchLandmarks() HandLandmarks {
	h := Pose()
	h.Points[IndexPIP] = Point3D{X: 0.58, Y: 0.58}
	h.Points[IndexDIP] = Point3D{X: 0.60, Y: 0.52}
	h.Points[IndexTip] = Point3D{X: 0.61, Y: 0.50}

	h.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70}
	h.Points[ThumbIP] = Point3D{X: 0.66, Y: 0.60}
	h.Points[ThumbTip] = Point3D{X: 0.62, Y: 0.51}
	return h
}

// Translate returns a copy of h moved by (dx, dy) in normalized space.
func (h HandLandmarks) Translate(dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// ThumbsUpLandmarks returns a preset HandLandmarks representing a thumbs up gesture.
// The thumb is extended upward while other fingers are curled.
func ThumbsUpLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (pointing up, Y decreases going up)
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Index finger curled (knuckles close together, tip near palm)
	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	landmarks.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	landmarks.Points[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	landmarks.Points[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	landmarks.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return landmarks
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	return Pose(Index, Middle, Ring, Pinky)
}

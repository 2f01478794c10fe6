// Package detector provides hand detection interfaces and landmark types.
package detector

import "gonum.org/v1/gonum/spatial/r2"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Finger identifies one of the four non-thumb fingers.
type Finger int

const (
	Index Finger = iota
	Middle
	Ring
	Pinky
)

// MCP returns the landmark index of the finger's base knuckle.
func (f Finger) MCP() int {
	return IndexMCP + 4*int(f)
}

// Tip returns the landmark index of the finger's tip.
func (f Finger) Tip() int {
	return IndexTip + 4*int(f)
}

// PIP returns the landmark index of the finger's middle (proximal
// interphalangeal) joint.
func (f Finger) PIP() int {
	return IndexPIP + 4*int(f)
}

// Fingers lists the non-thumb fingers in landmark order.
var Fingers = [...]Finger{Index, Middle, Ring, Pinky}

// Point3D represents a landmark position. X and Y are normalized to the
// camera frame; Z is relative depth and is ignored by planar helpers.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY returns the planar part of the point.
func (p Point3D) XY() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Distance returns the planar Euclidean distance between two landmarks.
func Distance(a, b Point3D) float64 {
	return r2.Norm(r2.Sub(a.XY(), b.XY()))
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Centroid returns the planar mean of the given landmarks.
func (h *HandLandmarks) Centroid(indices ...int) r2.Vec {
	if h == nil || len(indices) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for _, i := range indices {
		sum = r2.Add(sum, h.Points[i].XY())
	}
	return r2.Scale(1/float64(len(indices)), sum)
}

// First returns the authoritative hand of a detection result, or nil when
// no hand was detected. Only the first detected hand drives the canvas.
func First(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	h := hands[0]
	return &h
}

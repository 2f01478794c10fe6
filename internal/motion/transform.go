package motion

import "gonum.org/v1/gonum/spatial/r2"

// Transform is the viewport applied to the canvas: a translation in screen
// pixels and a uniform scale about the canvas centre.
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Identity returns the untransformed viewport.
func Identity() Transform {
	return Transform{Scale: 1}
}

// CanvasRect returns the on-screen box of a canvas of the given size, centred
// in the container and then translated and scaled by t.
func (t Transform) CanvasRect(container, canvas r2.Vec) r2.Box {
	center := r2.Add(r2.Scale(0.5, container), r2.Vec{X: t.X, Y: t.Y})
	half := r2.Scale(0.5*t.Scale, canvas)
	return r2.Box{Min: r2.Sub(center, half), Max: r2.Add(center, half)}
}

// internal/humanoid/vector.go
package humanoid

import "math"

// Vector2D is a point or displacement in screen pixels.
type Vector2D struct {
	X, Y float64
}

func (v Vector2D) Add(o Vector2D) Vector2D { return Vector2D{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vector2D) Sub(o Vector2D) Vector2D { return Vector2D{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vector2D) Mul(s float64) Vector2D { return Vector2D{X: v.X * s, Y: v.Y * s} }

// Mag is the vector length.
func (v Vector2D) Mag() float64 { return math.Hypot(v.X, v.Y) }

// Dist is the Euclidean distance between two points.
func (v Vector2D) Dist(o Vector2D) float64 { return v.Sub(o).Mag() }

// Perp returns the unit vector perpendicular to v, or zero for a zero vector.
func (v Vector2D) Perp() Vector2D {
	m := v.Mag()
	if m < 1e-9 {
		return Vector2D{}
	}
	return Vector2D{X: -v.Y / m, Y: v.X / m}
}

// IsFinite reports whether both components are real numbers.
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Clamp confines v to the rectangle [0, w-1] x [0, h-1].
func (v Vector2D) Clamp(w, h int) Vector2D {
	return Vector2D{
		X: math.Max(0, math.Min(v.X, float64(w-1))),
		Y: math.Max(0, math.Min(v.Y, float64(h-1))),
	}
}

// Package geom provides the numeric primitives shared by the composition
// engine: normalized frame points, guidance vectors, candidate selection and
// the scoring terms used by the template resolvers.
//
// All coordinates are frame-relative: (0,0) is the top-left corner, (1,1)
// the bottom-right. X grows to the right and Y grows downward, so a guidance
// vector with DY > 0 asks for the subject to move down in the frame.
package geom

import "math"

// Point is a frame-relative position with components nominally in [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Center is the geometric center of the frame.
var Center = Point{X: 0.5, Y: 0.5}

// Clamped returns p with both components clamped to [0,1].
func (p Point) Clamped() Point {
	return Point{X: Clamp(p.X, 0, 1), Y: Clamp(p.Y, 0, 1)}
}

// ClampTo returns p with both components clamped to [lo,hi].
func (p Point) ClampTo(lo, hi float64) Point {
	return Point{X: Clamp(p.X, lo, hi), Y: Clamp(p.Y, lo, hi)}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vector {
	return Vector{DX: p.X - q.X, DY: p.Y - q.Y}
}

// Add offsets p by v.
func (p Point) Add(v Vector) Point {
	return Point{X: p.X + v.DX, Y: p.Y + v.DY}
}

// IsFinite reports whether both components are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Lerp blends from a (t=0) to b (t=1). t is clamped to [0,1].
func Lerp(a, b Point, t float64) Point {
	t = Clamp(t, 0, 1)
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// Rect is an axis-aligned frame-relative rectangle.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// ClampPoint returns the point of r nearest to p.
func (r Rect) ClampPoint(p Point) Point {
	return Point{X: Clamp(p.X, r.X, r.X+r.W), Y: Clamp(p.Y, r.Y, r.Y+r.H)}
}

// Diagonal identifies one of the two frame diagonals.
type Diagonal string

const (
	// DiagonalMain runs from the top-left corner to the bottom-right corner.
	DiagonalMain Diagonal = "main"
	// DiagonalAnti runs from the bottom-left corner to the top-right corner.
	DiagonalAnti Diagonal = "anti"
)

// Clamp limits value to [lo,hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// sign returns -1, 0 or 1.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

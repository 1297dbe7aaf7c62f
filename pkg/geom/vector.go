package geom

import "math"

// Vector is an unshaped 2D displacement in frame units.
type Vector struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Magnitude returns the Euclidean length of v.
func (v Vector) Magnitude() float64 {
	return math.Hypot(v.DX, v.DY)
}

// Scale multiplies both axes by k.
func (v Vector) Scale(k float64) Vector {
	return Vector{DX: v.DX * k, DY: v.DY * k}
}

// Clamped returns v with both axes clamped to [-1,1].
func (v Vector) Clamped() Vector {
	return Vector{DX: Clamp(v.DX, -1, 1), DY: Clamp(v.DY, -1, 1)}
}

// IsZero reports whether both axes are exactly zero.
func (v Vector) IsZero() bool {
	return v.DX == 0 && v.DY == 0
}

// Guidance is the directional instruction handed to the presentation layer.
// Build it with NewGuidance so the invariants hold.
type Guidance struct {
	DX         float64 `json:"dx"`
	DY         float64 `json:"dy"`
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
}

// NewGuidance clamps dx, dy to [-1,1] and confidence to [0,1], and derives
// Strength as the clamped vector magnitude.
func NewGuidance(dx, dy, confidence float64) Guidance {
	if math.IsNaN(dx) {
		dx = 0
	}
	if math.IsNaN(dy) {
		dy = 0
	}
	if math.IsNaN(confidence) {
		confidence = 0
	}
	dx = Clamp(dx, -1, 1)
	dy = Clamp(dy, -1, 1)
	return Guidance{
		DX:         dx,
		DY:         dy,
		Strength:   Clamp(math.Hypot(dx, dy), 0, 1),
		Confidence: Clamp(confidence, 0, 1),
	}
}

// ZeroGuidance is the neutral instruction: no movement, no confidence.
func ZeroGuidance() Guidance {
	return Guidance{}
}

// Vector returns the directional part of g.
func (g Guidance) Vector() Vector {
	return Vector{DX: g.DX, DY: g.DY}
}

// Shaping holds the per-template constants used by TunedGuidance.
type Shaping struct {
	GainX           float64 `json:"gain_x"`
	GainY           float64 `json:"gain_y"`
	DeadZone        float64 `json:"dead_zone"`
	ActiveRange     float64 `json:"active_range"`
	ConfidenceFloor float64 `json:"confidence_floor"`
}

// TunedGuidance turns a raw subject→target displacement into a shaped
// guidance vector. Small displacements inside the dead zone and
// observations at or below the confidence floor produce the zero vector;
// otherwise the response eases in over ActiveRange.
func TunedGuidance(raw Vector, confidence float64, s Shaping) Vector {
	v := Vector{DX: raw.DX * s.GainX, DY: raw.DY * s.GainY}.Clamped()
	mag := v.Magnitude()
	ramp := ConfidenceRamp(confidence, s.ConfidenceFloor)
	if mag < s.DeadZone || ramp <= 0 {
		return Vector{}
	}

	activeRange := s.ActiveRange
	if activeRange <= 0 {
		activeRange = 1
	}
	scale := (0.42 + 0.58*Smoothstep((mag-s.DeadZone)/activeRange)) * ramp
	return v.Scale(scale)
}

const (
	// directionEpsilon is the tolerance below which an axis counts as neutral.
	directionEpsilon = 0.01

	// directionFloor is the fraction of the expected displacement an axis
	// is forced to when it points away from the target.
	directionFloor = 0.6
)

// EnforceDirectionConsistency replaces any axis of g whose sign opposes the
// subject→target displacement with at least 60% of the expected magnitude,
// pointing toward the target.
func EnforceDirectionConsistency(g Vector, subject, target Point) Vector {
	expected := target.Sub(subject)
	g.DX = consistentAxis(g.DX, expected.DX)
	g.DY = consistentAxis(g.DY, expected.DY)
	return g.Clamped()
}

func consistentAxis(got, expected float64) float64 {
	if math.Abs(expected) <= directionEpsilon {
		return got
	}
	if got*sign(expected) >= -directionEpsilon {
		return got
	}
	mag := math.Max(directionFloor*math.Abs(expected), math.Min(math.Abs(got), math.Abs(expected)))
	return sign(expected) * mag
}

// ApplyBoundsConstraint nudges g inward when anchor sits within margin of a
// frame edge. The push on each axis is weight·(margin − distance-to-edge).
func ApplyBoundsConstraint(anchor Point, g Vector, margin, weight float64) Vector {
	if margin <= 0 || weight <= 0 {
		return g.Clamped()
	}
	if d := anchor.X; d < margin {
		g.DX += weight * (margin - d)
	}
	if d := 1 - anchor.X; d < margin {
		g.DX -= weight * (margin - d)
	}
	if d := anchor.Y; d < margin {
		g.DY += weight * (margin - d)
	}
	if d := 1 - anchor.Y; d < margin {
		g.DY -= weight * (margin - d)
	}
	return g.Clamped()
}

package geom

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DistanceSquared returns the squared Euclidean distance between a and b.
func DistanceSquared(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Sqrt(DistanceSquared(a, b))
}

// Nearest returns the candidate closest to p and its index.
// It returns (p, -1) when candidates is empty.
func Nearest(p Point, candidates []Point) (Point, int) {
	if len(candidates) == 0 {
		return p, -1
	}
	best := 0
	bestDist := DistanceSquared(p, candidates[0])
	for i := 1; i < len(candidates); i++ {
		if d := DistanceSquared(p, candidates[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return candidates[best], best
}

// SoftCentroid returns the centroid of candidates weighted by
// 1/(d²+softness²), where d is the distance to p. Small softness values make
// the result hug the nearest candidate; large values flatten the weights.
func SoftCentroid(p Point, candidates []Point, softness float64) Point {
	if len(candidates) == 0 {
		return p
	}
	s2 := softness * softness
	if s2 <= 0 {
		s2 = 1e-9
	}
	xs := make([]float64, len(candidates))
	ys := make([]float64, len(candidates))
	ws := make([]float64, len(candidates))
	for i, c := range candidates {
		xs[i], ys[i] = c.X, c.Y
		ws[i] = 1 / (DistanceSquared(p, c) + s2)
	}
	return Point{X: stat.Mean(xs, ws), Y: stat.Mean(ys, ws)}
}

// ArgMax returns the candidate with the highest score and its index. Ties
// keep the earliest candidate. It returns the zero value and -1 when
// candidates is empty.
func ArgMax[T any](candidates []T, score func(T) float64) (T, int) {
	var zero T
	if len(candidates) == 0 {
		return zero, -1
	}
	best := 0
	bestScore := score(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if s := score(candidates[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return candidates[best], best
}

// Weighted is a (value, weight) pair.
type Weighted struct {
	Value  float64
	Weight float64
}

// W is shorthand for Weighted{Value: value, Weight: weight}.
func W(value, weight float64) Weighted {
	return Weighted{Value: value, Weight: weight}
}

// WeightedMean returns Σ(value·weight)/Σweight, or 0 when the total weight
// is not positive.
func WeightedMean(pairs []Weighted) float64 {
	total := 0.0
	values := make([]float64, len(pairs))
	weights := make([]float64, len(pairs))
	for i, p := range pairs {
		values[i] = p.Value
		weights[i] = p.Weight
		total += p.Weight
	}
	if total <= 0 {
		return 0
	}
	return stat.Mean(values, weights)
}

// WeightedScore combines scoring terms into a single value in [0,1].
func WeightedScore(terms ...Weighted) float64 {
	return Clamp(WeightedMean(terms), 0, 1)
}

// Smoothstep is the cubic Hermite ease 3t²−2t³ with t clamped to [0,1].
func Smoothstep(x float64) float64 {
	t := Clamp(x, 0, 1)
	return t * t * (3 - 2*t)
}

// ConfidenceRamp is 0 at or below floor and eases to 1 as confidence
// approaches 1.
func ConfidenceRamp(confidence, floor float64) float64 {
	if confidence <= floor {
		return 0
	}
	if floor >= 1 {
		return 0
	}
	return Smoothstep((confidence - floor) / (1 - floor))
}

// MovementEconomyScore rewards short moves: 1 at zero distance, falling to
// 0 at idealDistance and beyond.
func MovementEconomyScore(distance, idealDistance float64) float64 {
	if idealDistance <= 0 {
		return 0
	}
	return 1 - Smoothstep(distance/idealDistance)
}

// EdgeSafetyScore rewards points far from every frame edge. A point at
// least margin away from all edges scores 1.
func EdgeSafetyScore(p Point, margin float64) float64 {
	if margin <= 0 {
		return 1
	}
	edge := math.Min(math.Min(p.X, 1-p.X), math.Min(p.Y, 1-p.Y))
	return Smoothstep(edge / margin)
}

// SideConsistencyScore penalizes targets that make the subject cross the
// frame midline: 1.0 when both axes stay on the same side, 0.72 for one
// axis, 0.42 for neither.
func SideConsistencyScore(subject, target Point) float64 {
	same := 0
	if sameSide(subject.X, target.X) {
		same++
	}
	if sameSide(subject.Y, target.Y) {
		same++
	}
	switch same {
	case 2:
		return 1.0
	case 1:
		return 0.72
	}
	return 0.42
}

func sameSide(a, b float64) bool {
	return (a-0.5)*(b-0.5) >= 0
}

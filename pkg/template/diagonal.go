package template

import (
	"math"

	"github.com/teslashibe/go-compose/pkg/geom"
)

const (
	// diagonalBand is the distance difference over which the target
	// blends between the two diagonals instead of switching.
	diagonalBand = 0.08

	// diagonalBias shifts the choice toward the analyzer's preferred
	// diagonal, scaled by its confidence.
	diagonalBias = 0.06

	// diagonalBiasFloor is the analyzer confidence below which the
	// preference is ignored.
	diagonalBiasFloor = 0.35

	// A previously reported branch is kept while the main weight stays
	// inside [diagonalHoldLow, diagonalHoldHigh].
	diagonalHoldLow  = 0.35
	diagonalHoldHigh = 0.65
)

type diagonalResolver struct{}

func (diagonalResolver) Kind() Kind            { return Diagonal }
func (diagonalResolver) Shaping() geom.Shaping { return shaping[Diagonal] }
func (diagonalResolver) sealed()               {}

// Resolve places the subject on the nearer frame diagonal. Near the point
// where both diagonals are equally close the target slides continuously
// from one to the other. The reported branch only leaves the previous one
// once the blend weight is outside the hold band, so jitter around the
// boundary does not flip it.
func (diagonalResolver) Resolve(in Input) Target {
	s := in.Subject.Clamped()

	// Main runs y = x, anti runs y = 1 - x.
	dMain := math.Abs(s.X-s.Y) / math.Sqrt2
	dAnti := math.Abs(s.X+s.Y-1) / math.Sqrt2

	lead := dAnti - dMain
	if pref := in.Analysis.Diagonal; pref != nil && pref.Confidence >= diagonalBiasFloor {
		bias := diagonalBias * pref.Confidence
		if pref.Diagonal == geom.DiagonalAnti {
			bias = -bias
		}
		lead += bias
	}
	wMain := geom.Smoothstep(lead/(2*diagonalBand) + 0.5)

	p := geom.Lerp(diagonalCandidate(s, geom.DiagonalAnti), diagonalCandidate(s, geom.DiagonalMain), wMain)
	return Target{Point: safe(p), Diagonal: diagonalBranch(wMain, in.PreviousDiagonal)}
}

func diagonalBranch(wMain float64, prev geom.Diagonal) geom.Diagonal {
	switch {
	case prev == geom.DiagonalMain && wMain >= diagonalHoldLow:
		return geom.DiagonalMain
	case prev == geom.DiagonalAnti && wMain <= diagonalHoldHigh:
		return geom.DiagonalAnti
	case wMain >= 0.5:
		return geom.DiagonalMain
	}
	return geom.DiagonalAnti
}

// diagonalCandidate projects the subject onto diagonal d, limited to the
// segment between the diagonal's two thirds points.
func diagonalCandidate(s geom.Point, d geom.Diagonal) geom.Point {
	if d == geom.DiagonalMain {
		t := geom.Clamp((s.X+s.Y)/2, 1.0/3, 2.0/3)
		return geom.Pt(t, t)
	}
	t := geom.Clamp((s.X+1-s.Y)/2, 1.0/3, 2.0/3)
	return geom.Pt(t, 1-t)
}

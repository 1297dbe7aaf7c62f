package analysis

import (
	"math"

	"github.com/teslashibe/go-compose/pkg/frame"
	"github.com/teslashibe/go-compose/pkg/geom"
)

// SymmetryAxis is a detected vertical mirror axis.
type SymmetryAxis struct {
	// Offset is the axis displacement from the frame center in [-1,1],
	// where ±1 is the edge of the search window.
	Offset     float64 `json:"offset"`
	X          float64 `json:"x"`
	Confidence float64 `json:"confidence"`
}

// Symmetry finds the column about which gradient energy mirrors best.
// Candidate axes are weighted by a Gaussian prior centered on the middle
// column, so a symmetric scene near center wins over a marginally better
// match at the edge of the search window.
func Symmetry(g *frame.Grid, cfg Config) *SymmetryAxis {
	energy := make([]float64, g.W)
	total, count := 0.0, 0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			m := g.Mag[g.At(x, y)]
			if m < cfg.MagnitudeThreshold {
				continue
			}
			energy[x] += m
			total += m
			count++
		}
	}
	if count < cfg.MinSamples || total < cfg.MinWeight {
		return nil
	}

	// Axes are searched in half-cell steps; p is twice the axis column.
	center := float64(g.W-1) / 2
	search := math.Max(1, cfg.SymmetrySearch*float64(g.W))
	sigma := math.Max(1, cfg.SymmetryPriorSigma*float64(g.W))
	window := max(2, g.W/4)

	bestAxis, bestScore, bestMatch := -1.0, 0.0, 0.0
	lo := max(1, int(math.Ceil(2*(center-search))))
	hi := min(2*g.W-3, int(math.Floor(2*(center+search))))
	for p := lo; p <= hi; p++ {
		axis := float64(p) / 2
		match := mirrorMatch(energy, p, window)
		d := (axis - center) / sigma
		score := match * math.Exp(-0.5*d*d)
		if score > bestScore {
			bestAxis, bestScore, bestMatch = axis, score, match
		}
	}
	if bestAxis < 0 || bestMatch <= 0 {
		return nil
	}

	evidence := geom.Smoothstep(total / (2 * cfg.MinWeight))
	return &SymmetryAxis{
		Offset:     geom.Clamp((bestAxis-center)/search, -1, 1),
		X:          (bestAxis + 0.5) / float64(g.W),
		Confidence: geom.Clamp(bestMatch*evidence, 0, 1),
	}
}

// mirrorMatch scores how well energy mirrors about column p/2: 1 for a
// perfect mirror, 0 when the two sides share nothing. Columns l and r are
// mirror partners when l+r == p.
func mirrorMatch(energy []float64, p, window int) float64 {
	diff, sum := 0.0, 0.0
	for l := (p - 1) / 2; l >= 0; l-- {
		r := p - l
		if r >= len(energy) || r-l > 2*window {
			break
		}
		diff += math.Abs(energy[l] - energy[r])
		sum += energy[l] + energy[r]
	}
	if sum <= 0 {
		return 0
	}
	return 1 - diff/sum
}

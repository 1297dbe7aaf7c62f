package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-compose/pkg/frame"
	"github.com/teslashibe/go-compose/pkg/geom"
)

// VanishingPoint is where upward-converging edges meet the top of the frame.
type VanishingPoint struct {
	X          float64 `json:"x"`
	Samples    int     `json:"samples"`
	Confidence float64 `json:"confidence"`
}

// Vanishing projects every sufficiently steep edge that heads toward the
// frame's vertical midline as it rises onto the top edge, and returns the
// depth-weighted mean crossing. Edges lower in the frame carry more weight.
func Vanishing(g *frame.Grid, cfg Config) *VanishingPoint {
	var xs, ws []float64
	total := 0.0
	for y := 0; y < g.H; y++ {
		py := (float64(y) + 0.5) / float64(g.H)
		for x := 0; x < g.W; x++ {
			i := g.At(x, y)
			m := g.Mag[i]
			if m < cfg.MagnitudeThreshold {
				continue
			}

			// Edge direction is perpendicular to the gradient. Convert to
			// normalized frame units before measuring slope.
			ex := -g.GY[i] / float64(g.W)
			ey := g.GX[i] / float64(g.H)
			if ex == 0 || ey == 0 {
				continue
			}
			if slope := math.Abs(ey / ex); slope < cfg.VanishingMinSlope || slope > 12 {
				continue
			}

			px := (float64(x) + 0.5) / float64(g.W)
			top := px - py*ex/ey
			if (top-px)*(0.5-px) <= 0 {
				continue
			}
			if top < -0.5 || top > 1.5 {
				continue
			}

			w := m * py
			xs = append(xs, top)
			ws = append(ws, w)
			total += w
		}
	}
	if len(ws) < cfg.VanishingMinSamples || total <= cfg.VanishingMinWeight {
		return nil
	}

	mean, std := stat.MeanStdDev(xs, ws)
	if math.IsNaN(std) {
		std = 0
	}
	evidence := geom.Smoothstep(total / (3 * cfg.VanishingMinWeight))
	agreement := 1 - geom.Clamp(std/0.35, 0, 1)
	return &VanishingPoint{
		X:          geom.Clamp(mean, 0, 1),
		Samples:    len(ws),
		Confidence: geom.Clamp(evidence*agreement, 0, 1),
	}
}

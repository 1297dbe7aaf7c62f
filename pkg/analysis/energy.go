package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-compose/pkg/frame"
	"github.com/teslashibe/go-compose/pkg/geom"
)

// EnergyCentroid is the gradient-magnitude weighted center of the scene.
type EnergyCentroid struct {
	Point      geom.Point `json:"point"`
	Spread     float64    `json:"spread"`
	Confidence float64    `json:"confidence"`
}

// Energy returns the magnitude-weighted centroid of all cells above the
// threshold. Confidence falls as the energy spreads across the frame.
func Energy(g *frame.Grid, cfg Config) *EnergyCentroid {
	var xs, ys, ws []float64
	total := 0.0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			m := g.Mag[g.At(x, y)]
			if m < cfg.MagnitudeThreshold {
				continue
			}
			xs = append(xs, (float64(x)+0.5)/float64(g.W))
			ys = append(ys, (float64(y)+0.5)/float64(g.H))
			ws = append(ws, m)
			total += m
		}
	}
	if len(ws) < cfg.MinSamples || total < cfg.MinWeight {
		return nil
	}

	mx, sx := stat.MeanStdDev(xs, ws)
	my, sy := stat.MeanStdDev(ys, ws)
	spread := math.Hypot(sx, sy)
	if math.IsNaN(spread) {
		spread = 0
	}

	evidence := geom.Smoothstep(total / (2 * cfg.MinWeight))
	concentration := 1 - geom.Clamp(spread/0.5, 0, 1)
	return &EnergyCentroid{
		Point:      geom.Pt(mx, my).Clamped(),
		Spread:     spread,
		Confidence: geom.Clamp(evidence*(0.35+0.65*concentration), 0, 1),
	}
}

package analysis

import (
	"math"

	"github.com/teslashibe/go-compose/pkg/frame"
	"github.com/teslashibe/go-compose/pkg/geom"
)

// DiagonalPreference reports which frame diagonal the scene's edges follow.
type DiagonalPreference struct {
	Diagonal   geom.Diagonal `json:"diagonal"`
	Main       float64       `json:"main"`
	Anti       float64       `json:"anti"`
	Confidence float64       `json:"confidence"`
}

// Diagonal accumulates how well each edge aligns with the 45° (main) and
// 135° (anti) directions. Axis-aligned edges split evenly and are skipped.
func Diagonal(g *frame.Grid, cfg Config) *DiagonalPreference {
	const invSqrt2 = 1 / math.Sqrt2
	main, anti, total := 0.0, 0.0, 0.0
	count := 0
	for i, m := range g.Mag {
		if m < cfg.MagnitudeThreshold {
			continue
		}
		ex, ey := -g.GY[i]/m, g.GX[i]/m
		dm := (ex + ey) * invSqrt2
		da := (ex - ey) * invSqrt2
		am, aa := dm*dm, da*da
		if math.Abs(am-aa) < cfg.DiagonalMinAlignment {
			continue
		}
		main += m * am
		anti += m * aa
		total += m
		count++
	}
	if count < cfg.MinSamples || total < cfg.MinWeight {
		return nil
	}
	sum := main + anti
	if sum <= 0 {
		return nil
	}

	d := geom.DiagonalMain
	if anti > main {
		d = geom.DiagonalAnti
	}
	gap := math.Abs(main-anti) / sum
	evidence := geom.Smoothstep(total / (2 * cfg.MinWeight))
	return &DiagonalPreference{
		Diagonal:   d,
		Main:       main / sum,
		Anti:       anti / sum,
		Confidence: geom.Clamp(gap*evidence, 0, 1),
	}
}

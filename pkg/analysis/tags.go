package analysis

import (
	"math"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// Structural tags summarizing what the analyzers saw.
const (
	TagSymmetryAxisLock   = "symmetry-axis-lock"
	TagVanishLeft         = "vanish-left"
	TagVanishCenter       = "vanish-center"
	TagVanishRight        = "vanish-right"
	TagDiagonalMain       = "diagonal-main"
	TagDiagonalAnti       = "diagonal-anti"
	TagThirdsIntersection = "thirds-intersection"
	TagGoldenPoint        = "golden-point"
	TagEnergyCenter       = "energy-center"
	TagEnergyLow          = "energy-low"
	TagEnergyHigh         = "energy-high"
	TagOpenSpaceLeft      = "open-space-left"
	TagOpenSpaceRight     = "open-space-right"
	TagOpenSpaceTop       = "open-space-top"
)

const tagConfidence = 0.35

// Tags derives structural tags from r. The order is stable.
func Tags(r Result) []string {
	var tags []string

	if s := r.Symmetry; s != nil && s.Confidence >= 0.5 && math.Abs(s.Offset) < 0.25 {
		tags = append(tags, TagSymmetryAxisLock)
	}

	if v := r.Vanishing; v != nil && v.Confidence >= tagConfidence {
		switch {
		case v.X < 0.4:
			tags = append(tags, TagVanishLeft)
		case v.X > 0.6:
			tags = append(tags, TagVanishRight)
		default:
			tags = append(tags, TagVanishCenter)
		}
	}

	if d := r.Diagonal; d != nil && d.Confidence >= tagConfidence {
		if d.Diagonal == geom.DiagonalMain {
			tags = append(tags, TagDiagonalMain)
		} else {
			tags = append(tags, TagDiagonalAnti)
		}
	}

	if e := r.Energy; e != nil && e.Confidence >= tagConfidence {
		p := e.Point
		if nearAny(p, thirdsPoints, 0.08) {
			tags = append(tags, TagThirdsIntersection)
		}
		if nearAny(p, goldenPoints, 0.06) {
			tags = append(tags, TagGoldenPoint)
		}
		if geom.Distance(p, geom.Center) < 0.1 {
			tags = append(tags, TagEnergyCenter)
		}
		switch {
		case p.Y > 0.62:
			tags = append(tags, TagEnergyLow, TagOpenSpaceTop)
		case p.Y < 0.38:
			tags = append(tags, TagEnergyHigh)
		}
		switch {
		case p.X > 0.62:
			tags = append(tags, TagOpenSpaceLeft)
		case p.X < 0.38:
			tags = append(tags, TagOpenSpaceRight)
		}
	}
	return tags
}

var thirdsPoints = []geom.Point{
	{X: 1.0 / 3, Y: 1.0 / 3}, {X: 2.0 / 3, Y: 1.0 / 3},
	{X: 1.0 / 3, Y: 2.0 / 3}, {X: 2.0 / 3, Y: 2.0 / 3},
}

var goldenPoints = []geom.Point{
	{X: 0.382, Y: 0.382}, {X: 0.618, Y: 0.382},
	{X: 0.382, Y: 0.618}, {X: 0.618, Y: 0.618},
}

func nearAny(p geom.Point, candidates []geom.Point, radius float64) bool {
	_, i := geom.Nearest(p, candidates)
	return i >= 0 && geom.Distance(p, candidates[i]) <= radius
}

package template

import (
	"math"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// Negative-space zone names. The name says where the open space is.
const (
	ZoneLeft   = "space-left"
	ZoneRight  = "space-right"
	ZoneTop    = "space-top"
	ZoneBottom = "space-bottom"
)

type negativeZone struct {
	name       string
	horizontal bool
	rect       geom.Rect
}

var negativeZones = []negativeZone{
	{name: ZoneRight, horizontal: true, rect: geom.Rect{X: 0.42, Y: 0.08, W: 0.52, H: 0.84}},
	{name: ZoneLeft, horizontal: true, rect: geom.Rect{X: 0.06, Y: 0.08, W: 0.52, H: 0.84}},
	{name: ZoneTop, rect: geom.Rect{X: 0.08, Y: 0.06, W: 0.84, H: 0.52}},
	{name: ZoneBottom, rect: geom.Rect{X: 0.08, Y: 0.42, W: 0.84, H: 0.52}},
}

// target returns where the subject sits when the zone is open. The free
// axis follows the subject, pulled toward center.
func (z negativeZone) target(s geom.Point) geom.Point {
	free := func(v float64) float64 {
		return 0.5 + (geom.Clamp(v, 0.25, 0.75)-0.5)*0.6
	}
	switch z.name {
	case ZoneRight:
		return geom.Pt(0.30, free(s.Y))
	case ZoneLeft:
		return geom.Pt(0.70, free(s.Y))
	case ZoneTop:
		return geom.Pt(free(s.X), 0.70)
	}
	return geom.Pt(free(s.X), 0.30)
}

type negativeSpaceResolver struct{}

func (negativeSpaceResolver) Kind() Kind            { return NegativeSpace }
func (negativeSpaceResolver) Shaping() geom.Shaping { return shaping[NegativeSpace] }
func (negativeSpaceResolver) sealed()               {}

// Resolve picks the open-space zone that is cheapest to reach and clearest
// of scene energy, and places the subject opposite it.
func (negativeSpaceResolver) Resolve(in Input) Target {
	s := in.Subject.Clamped()

	scores := make([]float64, len(negativeZones))
	targets := make([]geom.Point, len(negativeZones))
	for i, z := range negativeZones {
		t := z.target(s)
		targets[i] = t

		axis := 0.7
		if z.horizontal {
			axis = 1.0
		}
		clearance := 0.6
		if e := in.Analysis.Energy; e != nil {
			far := geom.Smoothstep(geom.Distance(e.Point, z.rect.Center()) / 0.4)
			clearance += (far - clearance) * geom.Clamp(e.Confidence, 0, 1)
		}
		scores[i] = geom.WeightedScore(
			geom.W(axis, 0.14),
			geom.W(geom.MovementEconomyScore(geom.Distance(s, t), 0.6), 0.24),
			geom.W(geom.EdgeSafetyScore(t, 0.25), 0.12),
			geom.W(geom.Smoothstep(geom.Distance(s, z.rect.Center())/0.4), 0.16),
			geom.W(geom.SideConsistencyScore(s, t), 0.18),
			geom.W(clearance, 0.16),
		)
	}

	idx := 0
	for i := range scores {
		if scores[i] > scores[idx] {
			idx = i
		}
	}

	// Soft candidate: zones weighted by how close they score to the best.
	var xs, ys []geom.Weighted
	for i, t := range targets {
		w := math.Exp((scores[i] - scores[idx]) / 0.05)
		xs = append(xs, geom.W(t.X, w))
		ys = append(ys, geom.W(t.Y, w))
	}
	soft := geom.Pt(geom.WeightedMean(xs), geom.WeightedMean(ys))

	z := negativeZones[idx]
	return Target{
		Point: safe(blend(targets[idx], soft)),
		Zone:  &Zone{Name: z.name, Rect: z.rect},
	}
}

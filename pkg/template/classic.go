package template

import (
	"math"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// Symmetry

type symmetryResolver struct{}

func (symmetryResolver) Kind() Kind            { return Symmetry }
func (symmetryResolver) Shaping() geom.Shaping { return shaping[Symmetry] }
func (symmetryResolver) sealed()               {}

// Resolve centers the subject on the vertical axis. A detected symmetry
// axis pulls the target off center in proportion to its confidence.
func (symmetryResolver) Resolve(in Input) Target {
	s := in.Subject.Clamped()
	axis := 0.5
	if sym := in.Analysis.Symmetry; sym != nil {
		detected := geom.Clamp(0.5+0.25*sym.Offset, 0.3, 0.7)
		w := 0.65 * geom.Smoothstep(sym.Confidence)
		axis += (detected - 0.5) * w
	}
	return Target{Point: safe(geom.Pt(axis, s.Y+(0.5-s.Y)*0.35))}
}

// Rule of thirds

var thirdsIntersections = []geom.Point{
	{X: 1.0 / 3, Y: 1.0 / 3},
	{X: 2.0 / 3, Y: 1.0 / 3},
	{X: 1.0 / 3, Y: 2.0 / 3},
	{X: 2.0 / 3, Y: 2.0 / 3},
}

// thirdsDominance is the minimum score gap for an intersection to win
// outright; below it the subject's quadrant decides.
const thirdsDominance = 0.04

type thirdsResolver struct{}

func (thirdsResolver) Kind() Kind            { return Thirds }
func (thirdsResolver) Shaping() geom.Shaping { return shaping[Thirds] }
func (thirdsResolver) sealed()               {}

// Resolve always lands on one of the four intersections.
func (thirdsResolver) Resolve(in Input) Target {
	s := in.Subject.Clamped()
	score := func(c geom.Point) float64 {
		line := math.Min(math.Abs(s.X-c.X), math.Abs(s.Y-c.Y))
		return geom.WeightedScore(
			geom.W(1-geom.Smoothstep(line/0.33), 0.22),
			geom.W(1-geom.Smoothstep(geom.Distance(s, c)/0.5), 0.28),
			geom.W(geom.MovementEconomyScore(geom.Distance(s, c), 0.6), 0.24),
			geom.W(geom.SideConsistencyScore(s, c), 0.16),
			geom.W(geom.EdgeSafetyScore(c, 0.3), 0.10),
		)
	}

	best, idx := geom.ArgMax(thirdsIntersections, score)
	runnerUp := 0.0
	for i, c := range thirdsIntersections {
		if i != idx {
			runnerUp = math.Max(runnerUp, score(c))
		}
	}
	if score(best)-runnerUp < thirdsDominance {
		best = quadrantIntersection(s)
	}
	return Target{Point: safe(best)}
}

// quadrantIntersection returns the intersection in the subject's quadrant.
// A subject exactly on the midline goes to the far third.
func quadrantIntersection(s geom.Point) geom.Point {
	p := geom.Pt(2.0/3, 2.0/3)
	if s.X < 0.5 {
		p.X = 1.0 / 3
	}
	if s.Y < 0.5 {
		p.Y = 1.0 / 3
	}
	return p
}

// Golden spiral

var goldenPoints = []geom.Point{
	{X: 0.382, Y: 0.382},
	{X: 0.618, Y: 0.382},
	{X: 0.382, Y: 0.618},
	{X: 0.618, Y: 0.618},
}

type goldenResolver struct{}

func (goldenResolver) Kind() Kind            { return GoldenSpiral }
func (goldenResolver) Shaping() geom.Shaping { return shaping[GoldenSpiral] }
func (goldenResolver) sealed()               {}

// Resolve blends the nearest golden point with a soft centroid over all
// four, then leans toward the scene-energy centroid when one was found.
func (goldenResolver) Resolve(in Input) Target {
	s := in.Subject.Clamped()
	hard, _ := geom.Nearest(s, goldenPoints)
	p := blend(hard, geom.SoftCentroid(s, goldenPoints, 0.1))
	if e := in.Analysis.Energy; e != nil {
		p = geom.Lerp(p, e.Point.Clamped(), 0.35*geom.Smoothstep(e.Confidence))
	}
	return Target{Point: safe(p)}
}

// Leading lines

// vanishingZone is where leading lines should deliver the eye when no
// vanishing point was detected.
var vanishingZone = geom.Pt(0.5, 0.4)

type leadingLinesResolver struct{}

func (leadingLinesResolver) Kind() Kind            { return LeadingLines }
func (leadingLinesResolver) Shaping() geom.Shaping { return shaping[LeadingLines] }
func (leadingLinesResolver) sealed()               {}

// Resolve places the subject near the vanishing zone, shifted toward a
// detected vanishing point.
func (leadingLinesResolver) Resolve(in Input) Target {
	s := in.Subject.Clamped()
	soft := geom.Pt(vanishingZone.X, geom.Clamp(s.Y, 0.3, 0.55))
	p := blend(vanishingZone, soft)
	if vp := in.Analysis.Vanishing; vp != nil {
		w := 0.7 * geom.Smoothstep(vp.Confidence)
		p.X += (geom.Clamp(vp.X, 0.25, 0.75) - p.X) * w
	}
	return Target{Point: safe(p)}
}

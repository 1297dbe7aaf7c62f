package template

import (
	"math"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// band is a pair of nested regions: the subject is ideally inside lock and
// acceptably inside comfort.
type band struct {
	lock    geom.Rect
	comfort geom.Rect
}

var (
	framingBand = band{
		lock:    geom.Rect{X: 0.40, Y: 0.38, W: 0.20, H: 0.24},
		comfort: geom.Rect{X: 0.30, Y: 0.28, W: 0.40, H: 0.44},
	}
	portraitBand = band{
		lock:    geom.Rect{X: 0.42, Y: 0.30, W: 0.16, H: 0.08},
		comfort: geom.Rect{X: 0.34, Y: 0.24, W: 0.32, H: 0.20},
	}
	triangleBand = band{
		lock:    geom.Rect{X: 0.42, Y: 0.55, W: 0.16, H: 0.13},
		comfort: geom.Rect{X: 0.32, Y: 0.45, W: 0.36, H: 0.30},
	}
	layeredBand = band{
		lock:    geom.Rect{X: 0.30, Y: 0.62, W: 0.40, H: 0.12},
		comfort: geom.Rect{X: 0.20, Y: 0.52, W: 0.60, H: 0.28},
	}
)

func (b band) fit(p geom.Point) float64 {
	switch {
	case b.lock.Contains(p):
		return 1.0
	case b.comfort.Contains(p):
		return 0.8
	}
	return 0.4
}

// candidates are the lock and comfort projections of s, plus a move along
// only the axis that needs the larger correction.
func (b band) candidates(s geom.Point) []geom.Point {
	lock := b.lock.ClampPoint(s)
	comfort := b.comfort.ClampPoint(s)
	axis := geom.Pt(comfort.X, lock.Y)
	if math.Abs(lock.X-s.X) >= math.Abs(lock.Y-s.Y) {
		axis = geom.Pt(lock.X, comfort.Y)
	}
	return []geom.Point{lock, comfort, axis}
}

type bandResolver struct {
	kind Kind
	band band
}

func (r bandResolver) Kind() Kind            { return r.kind }
func (r bandResolver) Shaping() geom.Shaping { return shaping[r.kind] }
func (bandResolver) sealed()                 {}

// Resolve moves the subject toward the nearest safe region, scored by
// movement economy and how well the landing point fits the band.
func (r bandResolver) Resolve(in Input) Target {
	s := in.Subject.Clamped()
	cands := r.band.candidates(s)
	score := func(p geom.Point) float64 {
		return 0.55*geom.MovementEconomyScore(geom.Distance(s, p), 0.5) + 0.45*r.band.fit(p)
	}

	hard, _ := geom.ArgMax(cands, score)
	xs := make([]geom.Weighted, len(cands))
	ys := make([]geom.Weighted, len(cands))
	for i, c := range cands {
		w := score(c)
		xs[i] = geom.W(c.X, w)
		ys[i] = geom.W(c.Y, w)
	}
	soft := geom.Pt(geom.WeightedMean(xs), geom.WeightedMean(ys))
	return Target{Point: safe(blend(hard, soft))}
}

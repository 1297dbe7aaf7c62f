package template

import (
	"github.com/teslashibe/go-compose/pkg/analysis"
	"github.com/teslashibe/go-compose/pkg/geom"
)

// Targets are kept inside [SafeMin, SafeMax] on both axes.
const (
	SafeMin = 0.12
	SafeMax = 0.88
)

// Blend weights between the hard structural candidate and the soft
// centroid over all candidates.
const (
	hardWeight = 0.6
	softWeight = 0.4
)

// Input is what a resolver sees for one frame.
type Input struct {
	Subject  geom.Point
	Analysis analysis.Result

	// PreviousDiagonal is the branch reported for the previous frame, or
	// empty when there is none.
	PreviousDiagonal geom.Diagonal
}

// Zone is a negative-space region the composition leaves open.
type Zone struct {
	Name string    `json:"name"`
	Rect geom.Rect `json:"rect"`
}

// Target is a resolved composition target.
type Target struct {
	Point geom.Point `json:"point"`

	// Diagonal is set by the diagonal template only.
	Diagonal geom.Diagonal `json:"diagonal,omitempty"`

	// Zone is set by the negative-space template only.
	Zone *Zone `json:"zone,omitempty"`
}

// Resolver resolves the target for one template. The set of resolvers is
// closed; use For to obtain one.
type Resolver interface {
	Kind() Kind
	Shaping() geom.Shaping
	Resolve(in Input) Target
	sealed()
}

// For returns the resolver for k. It returns false for Other and any
// unsupported kind.
func For(k Kind) (Resolver, bool) {
	switch k {
	case Symmetry:
		return symmetryResolver{}, true
	case Thirds:
		return thirdsResolver{}, true
	case GoldenSpiral:
		return goldenResolver{}, true
	case Diagonal:
		return diagonalResolver{}, true
	case LeadingLines:
		return leadingLinesResolver{}, true
	case NegativeSpace:
		return negativeSpaceResolver{}, true
	case Framing:
		return bandResolver{kind: Framing, band: framingBand}, true
	case PortraitHeadroom:
		return bandResolver{kind: PortraitHeadroom, band: portraitBand}, true
	case Triangle:
		return bandResolver{kind: Triangle, band: triangleBand}, true
	case LayeredDepth:
		return bandResolver{kind: LayeredDepth, band: layeredBand}, true
	}
	return nil, false
}

// Resolve is shorthand for For(k) followed by Resolve. ok is false for
// unsupported kinds.
func Resolve(k Kind, in Input) (Target, bool) {
	r, ok := For(k)
	if !ok {
		return Target{}, false
	}
	return r.Resolve(in), true
}

// shaping holds the per-template guidance constants.
var shaping = map[Kind]geom.Shaping{
	Symmetry:         {GainX: 2.0, GainY: 1.6, DeadZone: 0.030, ActiveRange: 0.30, ConfidenceFloor: 0.18},
	Thirds:           {GainX: 1.8, GainY: 1.8, DeadZone: 0.035, ActiveRange: 0.30, ConfidenceFloor: 0.18},
	GoldenSpiral:     {GainX: 1.8, GainY: 1.8, DeadZone: 0.035, ActiveRange: 0.30, ConfidenceFloor: 0.18},
	Diagonal:         {GainX: 1.7, GainY: 1.7, DeadZone: 0.040, ActiveRange: 0.32, ConfidenceFloor: 0.20},
	LeadingLines:     {GainX: 1.6, GainY: 1.4, DeadZone: 0.040, ActiveRange: 0.35, ConfidenceFloor: 0.20},
	NegativeSpace:    {GainX: 1.6, GainY: 1.6, DeadZone: 0.040, ActiveRange: 0.35, ConfidenceFloor: 0.20},
	Framing:          {GainX: 1.5, GainY: 1.5, DeadZone: 0.030, ActiveRange: 0.30, ConfidenceFloor: 0.18},
	PortraitHeadroom: {GainX: 1.6, GainY: 2.0, DeadZone: 0.025, ActiveRange: 0.25, ConfidenceFloor: 0.22},
	Triangle:         {GainX: 1.5, GainY: 1.7, DeadZone: 0.030, ActiveRange: 0.30, ConfidenceFloor: 0.20},
	LayeredDepth:     {GainX: 1.4, GainY: 1.8, DeadZone: 0.030, ActiveRange: 0.30, ConfidenceFloor: 0.20},
}

func safe(p geom.Point) geom.Point {
	return p.ClampTo(SafeMin, SafeMax)
}

func blend(hard, soft geom.Point) geom.Point {
	return geom.Pt(hardWeight*hard.X+softWeight*soft.X, hardWeight*hard.Y+softWeight*soft.Y)
}

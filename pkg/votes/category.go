package votes

import (
	"math"

	"github.com/teslashibe/go-compose/pkg/analysis"
)

// Category is a coarse scene summary.
type Category string

const (
	CategoryPortrait     Category = "portrait"
	CategoryArchitecture Category = "architecture"
	CategoryStreet       Category = "street"
	CategoryLandscape    Category = "landscape"
	CategoryObject       Category = "object"
	CategoryUnknown      Category = "unknown"
)

// Categorize summarizes a frame analysis. A visible face always wins.
func Categorize(r analysis.Result, hasFace bool) Category {
	switch {
	case hasFace:
		return CategoryPortrait
	case r.Symmetry != nil && r.Symmetry.Confidence >= 0.5 && math.Abs(r.Symmetry.Offset) < 0.25:
		return CategoryArchitecture
	case r.Vanishing != nil && r.Vanishing.Confidence >= 0.35:
		return CategoryStreet
	case r.Energy != nil && r.Energy.Confidence >= 0.35 && r.Energy.Spread < 0.18:
		return CategoryObject
	case r.Diagonal != nil || r.Energy != nil:
		return CategoryLandscape
	default:
		return CategoryUnknown
	}
}

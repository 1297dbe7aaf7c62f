// Package votes picks a composition template for a scene from a fixed score
// table, and decides whether an externally suggested template may override
// that pick.
package votes

import (
	"github.com/teslashibe/go-compose/pkg/analysis"
	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/template"
)

// Band is the confidence band of an external suggestion.
type Band string

const (
	BandHigh Band = "high"
	BandMid  Band = "mid"
	BandLow  Band = "low"
)

// BandFor maps a suggestion confidence to its band.
func BandFor(confidence float64) Band {
	switch {
	case confidence >= 0.75:
		return BandHigh
	case confidence >= 0.45:
		return BandMid
	default:
		return BandLow
	}
}

// Table is the deterministic score table.
type Table struct {
	Base     float64                               // Uniform base score for every supported template
	Category map[Category]map[template.Kind]float64 // Bonus per scene category
	Tags     map[string]map[template.Kind]float64   // Bonus per structural tag
	Margins  map[Band]float64                       // How far below the fallback a suggestion may score
}

// DefaultTable returns the built-in score table.
func DefaultTable() Table {
	return Table{
		Base: 1.0,
		Category: map[Category]map[template.Kind]float64{
			CategoryPortrait: {
				template.PortraitHeadroom: 1.2,
				template.Thirds:           0.5,
				template.Framing:          0.3,
			},
			CategoryArchitecture: {
				template.Symmetry:     1.0,
				template.LeadingLines: 0.5,
				template.Framing:      0.4,
			},
			CategoryStreet: {
				template.LeadingLines: 0.9,
				template.Diagonal:     0.4,
				template.Thirds:       0.3,
			},
			CategoryLandscape: {
				template.Thirds:       0.6,
				template.LayeredDepth: 0.5,
				template.GoldenSpiral: 0.3,
			},
			CategoryObject: {
				template.NegativeSpace: 0.7,
				template.GoldenSpiral:  0.4,
				template.Triangle:      0.3,
			},
			CategoryUnknown: {
				template.Thirds: 0.2,
			},
		},
		Tags: map[string]map[template.Kind]float64{
			analysis.TagSymmetryAxisLock: {
				template.Symmetry: 1.1,
				template.Framing:  0.2,
			},
			analysis.TagVanishLeft: {
				template.LeadingLines: 0.8,
				template.Diagonal:     0.3,
			},
			analysis.TagVanishCenter: {
				template.LeadingLines: 0.8,
				template.Symmetry:     0.4,
			},
			analysis.TagVanishRight: {
				template.LeadingLines: 0.8,
				template.Diagonal:     0.3,
			},
			analysis.TagDiagonalMain: {
				template.Diagonal: 0.9,
				template.Triangle: 0.3,
			},
			analysis.TagDiagonalAnti: {
				template.Diagonal: 0.9,
				template.Triangle: 0.3,
			},
			analysis.TagThirdsIntersection: {
				template.Thirds: 0.8,
			},
			analysis.TagGoldenPoint: {
				template.GoldenSpiral: 0.8,
			},
			analysis.TagEnergyCenter: {
				template.Symmetry: 0.4,
				template.Framing:  0.4,
			},
			analysis.TagEnergyLow: {
				template.LayeredDepth: 0.4,
				template.Thirds:       0.2,
			},
			analysis.TagEnergyHigh: {
				template.PortraitHeadroom: 0.2,
				template.Thirds:           0.2,
			},
			analysis.TagOpenSpaceLeft: {
				template.NegativeSpace: 0.6,
			},
			analysis.TagOpenSpaceRight: {
				template.NegativeSpace: 0.6,
			},
			analysis.TagOpenSpaceTop: {
				template.NegativeSpace: 0.3,
				template.LayeredDepth:  0.2,
			},
		},
		Margins: map[Band]float64{
			BandHigh: 0.9,
			BandMid:  0.45,
			BandLow:  0.15,
		},
	}
}

// Vote is one template's score.
type Vote struct {
	Template template.Kind `json:"template"`
	Score    float64       `json:"score"`
}

// Scene is the scorer input.
type Scene struct {
	Category Category `json:"category"`
	Tags     []string `json:"tags"`
}

// SceneFor summarizes an analysis result for scoring.
func SceneFor(r analysis.Result, hasFace bool) Scene {
	return Scene{Category: Categorize(r, hasFace), Tags: analysis.Tags(r)}
}

// Scorer scores templates against a Table.
type Scorer struct {
	table Table
}

// NewScorer creates a scorer over t.
func NewScorer(t Table) *Scorer {
	return &Scorer{table: t}
}

// Score returns the score of kind for scene. Unsupported templates score 0.
func (s *Scorer) Score(kind template.Kind, scene Scene) float64 {
	if !kind.Supported() {
		return 0
	}
	score := s.table.Base + s.table.Category[scene.Category][kind]
	for _, tag := range scene.Tags {
		score += s.table.Tags[tag][kind]
	}
	return score
}

// Votes scores every supported template in display order.
func (s *Scorer) Votes(scene Scene) []Vote {
	kinds := template.All()
	out := make([]Vote, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, Vote{Template: k, Score: s.Score(k, scene)})
	}
	return out
}

// Select returns the highest scoring supported template. Ties go to the
// earlier template in display order.
func (s *Scorer) Select(scene Scene) Vote {
	best, _ := geom.ArgMax(s.Votes(scene), func(v Vote) float64 { return v.Score })
	return best
}

// Suggestion is a template proposed from outside the scorer.
type Suggestion struct {
	Template   string  `json:"template"`
	Confidence float64 `json:"confidence"`
}

// Decision is the outcome of validating a suggestion.
type Decision struct {
	Template template.Kind `json:"template"`
	Accepted bool          `json:"accepted"`
	Reason   string        `json:"reason"`
	Fallback Vote          `json:"fallback"`
	Score    float64       `json:"score"`
	Band     Band          `json:"band"`
}

// Rejection reasons.
const (
	ReasonAccepted    = "accepted"
	ReasonUnsupported = "unsupported"
	ReasonCenter      = "center"
	ReasonOutscored   = "outscored"
)

// ValidateSuggestion accepts sug only if it names a supported template other
// than the raw "center" id and scores within the band margin of the
// scorer's own pick. Otherwise the pick is used.
func (s *Scorer) ValidateSuggestion(sug Suggestion, scene Scene) Decision {
	fallback := s.Select(scene)
	band := BandFor(sug.Confidence)
	d := Decision{Template: fallback.Template, Fallback: fallback, Score: fallback.Score, Band: band}

	if template.IsCenterAlias(sug.Template) {
		d.Reason = ReasonCenter
		return d
	}
	kind := template.Parse(sug.Template)
	if !kind.Supported() {
		d.Reason = ReasonUnsupported
		return d
	}

	score := s.Score(kind, scene)
	if score < fallback.Score-s.table.Margins[band] {
		d.Reason = ReasonOutscored
		return d
	}

	d.Template = kind
	d.Score = score
	d.Accepted = true
	d.Reason = ReasonAccepted
	return d
}

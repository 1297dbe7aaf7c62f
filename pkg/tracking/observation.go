// Package tracking bridges subject-tracker dropouts and turns face
// detections into per-frame face observations.
package tracking

import "github.com/teslashibe/go-compose/pkg/geom"

// Source says where a subject observation came from.
type Source string

const (
	SourceTracked    Source = "tracked"
	SourceUserTap    Source = "user_tap"
	SourceAutoAnchor Source = "auto_anchor"

	// SourceFallback marks an observation synthesized from memory while
	// the tracker is briefly lost.
	SourceFallback Source = "fallback"
)

// Observation is the per-frame subject estimate.
type Observation struct {
	Point      geom.Point `json:"point"`
	Confidence float64    `json:"confidence"`
	Lost       bool       `json:"lost"`
	Source     Source     `json:"source"`
}

// Reliable reports whether o can be trusted as a tracked subject.
func (o Observation) Reliable(floor float64) bool {
	return !o.Lost && o.Confidence >= floor && o.Point.IsFinite()
}

// Face is a detected face in frame coordinates.
type Face struct {
	Box        geom.Rect   `json:"box"`
	Confidence float64     `json:"confidence"`
	EyeLine    *geom.Point `json:"eye_line,omitempty"`
}

// EyePoint returns the eye line when known, otherwise an estimate 40% down
// the face box.
func (f Face) EyePoint() geom.Point {
	if f.EyeLine != nil {
		return f.EyeLine.Clamped()
	}
	return geom.Pt(f.Box.X+f.Box.W/2, f.Box.Y+f.Box.H*0.4).Clamped()
}

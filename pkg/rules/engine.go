// Package rules turns a template choice and a subject observation into a
// shaped guidance vector for one frame.
package rules

import (
	"sync"

	"github.com/teslashibe/go-compose/pkg/analysis"
	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/template"
	"github.com/teslashibe/go-compose/pkg/tracking"
)

// Config holds the rule engine constants shared by every template.
type Config struct {
	BoundsMargin      float64 `json:"bounds_margin" toml:"bounds_margin"`           // Edge distance that triggers an inward push
	BoundsWeight      float64 `json:"bounds_weight" toml:"bounds_weight"`           // Push per unit of margin violation
	TrackedConfidence float64 `json:"tracked_confidence" toml:"tracked_confidence"` // Tracked subjects below this are skipped
	FaceConfidence    float64 `json:"face_confidence" toml:"face_confidence"`       // Portrait uses the face at or above this
	UserTapConfidence float64 `json:"user_tap_confidence" toml:"user_tap_confidence"`
	AutoConfidence    float64 `json:"auto_confidence" toml:"auto_confidence"`
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		BoundsMargin:      0.10,
		BoundsWeight:      1.2,
		TrackedConfidence: 0.18,
		FaceConfidence:    0.35,
		UserTapConfidence: 0.85,
		AutoConfidence:    0.5,
	}
}

// Input is everything the engine needs for one frame.
type Input struct {
	Template        template.Kind
	Analysis        analysis.Result
	Subject         tracking.Observation
	Face            *tracking.Face
	UserAnchor      *geom.Point
	AutoFocusAnchor geom.Point

	// PreviousDiagonal holds the diagonal branch across frames.
	PreviousDiagonal geom.Diagonal
}

// Result is the engine output for one frame.
type Result struct {
	Template      template.Kind   `json:"template"`
	Guidance      geom.Guidance   `json:"guidance"`
	Subject       geom.Point      `json:"subject"`
	SubjectSource tracking.Source `json:"subject_source"`
	Target        *geom.Point     `json:"target,omitempty"`
	Diagonal      geom.Diagonal   `json:"diagonal,omitempty"`
	Zone          *template.Zone  `json:"zone,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a callback that receives every result.
func WithObserver(fn func(Result)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// Engine computes guidance. Compute is a pure function of its input; the
// engine only remembers the last result for inspection.
type Engine struct {
	config   Config
	observer func(Result)

	mu      sync.RWMutex
	last    Result
	hasLast bool
}

// New creates an engine.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{config: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute resolves the subject, the template target and the shaped
// guidance for one frame. Unsupported templates yield zero guidance.
func (e *Engine) Compute(in Input) Result {
	res := e.compute(in)

	e.mu.Lock()
	e.last = res
	e.hasLast = true
	e.mu.Unlock()

	if e.observer != nil {
		e.observer(res)
	}
	return res
}

func (e *Engine) compute(in Input) Result {
	subject, confidence, source := e.ResolveSubject(in)
	res := Result{
		Template:      in.Template,
		Guidance:      geom.ZeroGuidance(),
		Subject:       subject,
		SubjectSource: source,
	}

	resolver, ok := template.For(in.Template)
	if !ok {
		res.Template = template.Other
		return res
	}

	target := resolver.Resolve(template.Input{
		Subject:          subject,
		Analysis:         in.Analysis,
		PreviousDiagonal: in.PreviousDiagonal,
	})
	shaped := geom.TunedGuidance(target.Point.Sub(subject), confidence, resolver.Shaping())
	bounded := geom.ApplyBoundsConstraint(subject, shaped, e.config.BoundsMargin, e.config.BoundsWeight)
	final := geom.EnforceDirectionConsistency(bounded, subject, target.Point)

	tp := target.Point
	res.Guidance = geom.NewGuidance(final.DX, final.DY, confidence)
	res.Target = &tp
	res.Diagonal = target.Diagonal
	res.Zone = target.Zone
	return res
}

// ResolveSubject picks the anchor for this frame: a reliable tracked
// subject first, then a user tap, then the auto-focus anchor. Portrait
// headroom substitutes the face eye line when a confident face is present.
func (e *Engine) ResolveSubject(in Input) (geom.Point, float64, tracking.Source) {
	if in.Template == template.PortraitHeadroom && in.Face != nil && in.Face.Confidence >= e.config.FaceConfidence {
		return in.Face.EyePoint(), geom.Clamp(in.Face.Confidence, 0, 1), tracking.SourceTracked
	}
	if in.Subject.Reliable(e.config.TrackedConfidence) {
		source := in.Subject.Source
		if source == "" {
			source = tracking.SourceTracked
		}
		return in.Subject.Point.Clamped(), geom.Clamp(in.Subject.Confidence, 0, 1), source
	}
	if in.UserAnchor != nil && in.UserAnchor.IsFinite() {
		return in.UserAnchor.Clamped(), e.config.UserTapConfidence, tracking.SourceUserTap
	}
	anchor := in.AutoFocusAnchor
	if !anchor.IsFinite() {
		anchor = geom.Center
	}
	return anchor.Clamped(), e.config.AutoConfidence, tracking.SourceAutoAnchor
}

// Last returns the most recent result.
func (e *Engine) Last() (Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.hasLast
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

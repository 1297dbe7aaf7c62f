// Package guidance is the single per-frame entry point of the engine. A
// Coordinator owns the history-dependent state of one camera session and
// turns each frame into a stabilized guidance output.
package guidance

import (
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-compose/pkg/analysis"
	"github.com/teslashibe/go-compose/pkg/frame"
	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/rules"
	"github.com/teslashibe/go-compose/pkg/smartcompose"
	"github.com/teslashibe/go-compose/pkg/stabilizer"
	"github.com/teslashibe/go-compose/pkg/template"
	"github.com/teslashibe/go-compose/pkg/tracking"
)

// Coach produces short coaching text for an output. It is optional.
type Coach interface {
	Advise(out Output) string
}

// Input is one frame of the session.
type Input struct {
	Sequence        uint64               // Must increase across calls
	Time            time.Time            // Capture time; zero means now
	Frame           frame.Frame          // Luma or RGBA pixels; other layouts skip analysis
	Template        string               // Template id; empty keeps the current one
	Subject         tracking.Observation // Tracker estimate
	Face            *tracking.Face       // Optional face observation
	UserAnchor      *geom.Point          // Optional user tap
	AutoFocusAnchor geom.Point           // Camera auto-focus point
}

// Output is the immutable per-frame result handed to presentation and
// camera layers.
type Output struct {
	Sequence      uint64                    `json:"sequence"`
	Time          time.Time                 `json:"time"`
	Template      template.Kind             `json:"template"`
	Raw           geom.Guidance             `json:"raw"`
	Guidance      geom.Guidance             `json:"guidance"`
	Holding       bool                      `json:"holding"`
	Subject       geom.Point                `json:"subject"`
	SubjectSource tracking.Source           `json:"subject_source"`
	Target        *geom.Point               `json:"target,omitempty"`
	Diagonal      geom.Diagonal             `json:"diagonal,omitempty"`
	Zone          *template.Zone            `json:"zone,omitempty"`
	Analysis      analysis.Result           `json:"analysis"`
	Tags          []string                  `json:"tags,omitempty"`
	Phase         tracking.Phase            `json:"phase"`
	Reacquire     *geom.Point               `json:"reacquire,omitempty"`
	Zoom          *smartcompose.ZoomCommand `json:"zoom,omitempty"`
	Coaching      string                    `json:"coaching,omitempty"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithCoach attaches a coaching backend.
func WithCoach(c Coach) Option {
	return func(co *Coordinator) {
		co.coach = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(co *Coordinator) {
		co.logger = l
	}
}

// WithRulesObserver forwards every rule engine result to fn.
func WithRulesObserver(fn func(rules.Result)) Option {
	return func(co *Coordinator) {
		co.rulesOpts = append(co.rulesOpts, rules.WithObserver(fn))
	}
}

// Coordinator glues the analyzer, rule engine, stabilizer, resilience
// controller and smart compose controller together for one session.
//
// Process is serialized by the coordinator lock. Frames whose sequence is
// not newer than the last processed one are dropped. The smart compose
// controller has its own lock and may be driven concurrently through
// SmartCompose.
type Coordinator struct {
	mu sync.Mutex

	config     Config
	analyzer   *analysis.Analyzer
	engine     *rules.Engine
	stabilizer *stabilizer.Stabilizer
	resilience *tracking.Resilience
	smart      *smartcompose.Controller

	coach     Coach
	logger    *slog.Logger
	rulesOpts []rules.Option

	template template.Kind
	diagonal geom.Diagonal
	lastSeq  uint64
	hasSeq   bool
	last     Output
	hasLast  bool
}

// New creates a coordinator starting on the rule of thirds.
func New(cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		config:   cfg,
		logger:   slog.Default(),
		template: template.Thirds,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.analyzer = analysis.New(cfg.Analysis)
	c.engine = rules.New(cfg.Rules, c.rulesOpts...)
	c.stabilizer = stabilizer.New(cfg.Stabilizer)
	c.resilience = tracking.NewResilience(cfg.Tracking)
	c.smart = smartcompose.New(cfg.SmartCompose, c.logger)
	return c
}

// HasCoach reports whether a coaching backend is attached.
func (c *Coordinator) HasCoach() bool {
	return c.coach != nil
}

// SmartCompose returns the session's smart compose controller.
func (c *Coordinator) SmartCompose() *smartcompose.Controller {
	return c.smart
}

// Template returns the active template.
func (c *Coordinator) Template() template.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.template
}

// SetTemplate switches the active template. Switching resets the
// stabilizer so guidance for the old target does not leak into the new one.
func (c *Coordinator) SetTemplate(id string) template.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setTemplateLocked(template.Parse(id))
}

func (c *Coordinator) setTemplateLocked(kind template.Kind) template.Kind {
	if kind == c.template {
		return kind
	}
	c.logger.Info("template changed", "from", c.template, "to", kind)
	c.template = kind
	c.diagonal = ""
	c.stabilizer.Reset()
	return kind
}

// Seed forces a reliable subject fix, e.g. after the user taps a subject.
func (c *Coordinator) Seed(p geom.Point, confidence float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resilience.Seed(p, confidence, now)
}

// Reset clears all history. The next frame may use any sequence number.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.stabilizer.Reset()
	c.resilience.Reset()
	c.diagonal = ""
	c.hasSeq = false
	c.lastSeq = 0
	c.hasLast = false
	c.last = Output{}
	c.mu.Unlock()

	c.smart.Cancel()
	c.logger.Info("session reset")
}

// Process runs one frame through the pipeline. It returns false, without
// touching any state, when the frame is stale.
func (c *Coordinator) Process(in Input) (Output, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasSeq && in.Sequence <= c.lastSeq {
		c.logger.Debug("dropping stale frame", "sequence", in.Sequence, "last", c.lastSeq)
		return Output{}, false
	}
	c.hasSeq = true
	c.lastSeq = in.Sequence

	now := in.Time
	if now.IsZero() {
		now = time.Now()
	}
	if in.Template != "" {
		c.setTemplateLocked(template.Parse(in.Template))
	}

	result := c.analyzer.Analyze(in.Frame)

	obs := in.Subject
	fallback := in.AutoFocusAnchor
	if in.UserAnchor != nil {
		fallback = *in.UserAnchor
	}
	reacquire := c.resilience.Update(&obs, now, fallback)

	res := c.engine.Compute(rules.Input{
		Template:         c.template,
		Analysis:         result,
		Subject:          obs,
		Face:             in.Face,
		UserAnchor:       in.UserAnchor,
		AutoFocusAnchor:  in.AutoFocusAnchor,
		PreviousDiagonal: c.diagonal,
	})
	c.diagonal = res.Diagonal

	raw := res.Guidance.Vector()
	stable := c.stabilizer.Update(raw, res.Guidance.Confidence, now)
	stable = stabilizer.AntiOvershoot(stable, raw)
	holding := c.stabilizer.Holding()

	out := Output{
		Sequence:      in.Sequence,
		Time:          now,
		Template:      res.Template,
		Raw:           res.Guidance,
		Guidance:      geom.NewGuidance(stable.DX, stable.DY, res.Guidance.Confidence),
		Holding:       holding,
		Subject:       res.Subject,
		SubjectSource: res.SubjectSource,
		Target:        res.Target,
		Diagonal:      res.Diagonal,
		Zone:          res.Zone,
		Analysis:      result,
		Tags:          analysis.Tags(result),
		Phase:         c.resilience.Phase(),
		Reacquire:     reacquire,
	}
	if reacquire != nil {
		c.logger.Info("subject lost, requesting reacquire", "x", reacquire.X, "y", reacquire.Y)
	}

	if cmd, ok := c.smart.DecisionForFrame(now, c.template, holding, res.Guidance.Confidence, in.Subject.Lost); ok {
		out.Zoom = &cmd
	}
	if c.coach != nil {
		out.Coaching = c.coach.Advise(out)
	}

	c.last = out
	c.hasLast = true
	return out, true
}

// Last returns the most recent output.
func (c *Coordinator) Last() (Output, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// Config returns the current configuration.
func (c *Coordinator) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetTuningParams applies runtime tuning to every stage.
func (c *Coordinator) SetTuningParams(p TuningParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = p.Apply(c.config)
	c.analyzer.SetTuningParams(c.config.Analysis.Params())
	c.stabilizer.SetConfig(c.config.Stabilizer)
	c.resilience.SetConfig(c.config.Tracking)
}

// TuningParams reports the current tuning.
func (c *Coordinator) TuningParams() TuningParams {
	return c.Config().Params()
}

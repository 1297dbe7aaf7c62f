// Package smartcompose drives automatic zoom convergence: once a template
// has been chosen for the scene, it watches stabilized guidance frame by
// frame and emits the target zoom while the subject stays aligned.
package smartcompose

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/template"
)

// State is the controller state.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateActive     State = "active"
)

// Config holds the smart compose timing constants.
type Config struct {
	Watchdog         time.Duration `json:"watchdog" toml:"watchdog"`                       // Abort an active or processing session after this long
	AlignedFrames    int           `json:"aligned_frames" toml:"aligned_frames"`           // Holding frames needed before zooming
	AdjustInterval   time.Duration `json:"adjust_interval" toml:"adjust_interval"`         // Minimum time between zoom commands
	MinConfidence    float64       `json:"min_confidence" toml:"min_confidence"`           // Frames below this count against alignment
	MinZoomStep      float64       `json:"min_zoom_step" toml:"min_zoom_step"`             // AdaptiveZoomStep lower bound
	MaxZoomStep      float64       `json:"max_zoom_step" toml:"max_zoom_step"`             // AdaptiveZoomStep upper bound
	ZoomStepPerDelta float64       `json:"zoom_step_per_delta" toml:"zoom_step_per_delta"` // AdaptiveZoomStep slope
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		Watchdog:         8 * time.Second,
		AlignedFrames:    4,
		AdjustInterval:   50 * time.Millisecond,
		MinConfidence:    0.18,
		MinZoomStep:      0.007,
		MaxZoomStep:      0.045,
		ZoomStepPerDelta: 0.35,
	}
}

// ZoomCommand asks the camera layer to move toward Zoom.
type ZoomCommand struct {
	RequestID uuid.UUID     `json:"request_id"`
	Template  template.Kind `json:"template"`
	Zoom      float64       `json:"zoom"`
	At        time.Time     `json:"at"`
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State         State         `json:"state"`
	RequestID     uuid.UUID     `json:"request_id"`
	Template      template.Kind `json:"template,omitempty"`
	TargetZoom    float64       `json:"target_zoom,omitempty"`
	AlignedFrames int           `json:"aligned_frames"`
	ActivatedAt   time.Time     `json:"activated_at,omitempty"`
	LastAdjustAt  time.Time     `json:"last_adjust_at,omitempty"`
}

// Transition describes a state change.
type Transition struct {
	From      State
	To        State
	RequestID uuid.UUID
	Reason    string
}

// Controller is the smart compose state machine: idle, processing,
// active, and back to idle. Every public method is atomic with respect to
// the others.
type Controller struct {
	mu     sync.Mutex
	config Config
	logger *slog.Logger

	state      State
	requestID  uuid.UUID
	template   template.Kind
	targetZoom float64
	aligned    int

	processingAt time.Time
	activatedAt  time.Time
	lastAdjustAt time.Time

	onTransition func(Transition)
}

// NewRequestID returns a fresh processing request id.
func NewRequestID() uuid.UUID {
	return uuid.New()
}

// New creates an idle controller.
func New(cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{config: cfg, logger: logger, state: StateIdle}
}

// OnTransition registers a callback invoked after every state change,
// outside the controller lock.
func (c *Controller) OnTransition(fn func(Transition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTransition = fn
}

// BeginProcessing claims the single in-flight slot for id. It returns false
// if another request is already processing.
func (c *Controller) BeginProcessing(id uuid.UUID) bool {
	return c.BeginProcessingAt(id, time.Now())
}

// BeginProcessingAt is BeginProcessing with an explicit clock.
func (c *Controller) BeginProcessingAt(id uuid.UUID, now time.Time) bool {
	c.mu.Lock()
	if c.state == StateProcessing {
		c.mu.Unlock()
		return false
	}
	tr := c.setLocked(StateProcessing, "begin processing")
	c.requestID = id
	tr.RequestID = id
	c.processingAt = now
	c.aligned = 0
	c.mu.Unlock()

	c.notify(tr)
	return true
}

// Activate completes the in-flight request id and starts converging on
// targetZoom for kind. A stale id is rejected and leaves the controller
// processing.
func (c *Controller) Activate(id uuid.UUID, kind template.Kind, targetZoom float64, now time.Time) bool {
	c.mu.Lock()
	if c.state != StateProcessing || id != c.requestID {
		c.mu.Unlock()
		c.logger.Debug("stale smart compose activation", "request_id", id)
		return false
	}
	tr := c.setLocked(StateActive, "activated")
	c.template = kind
	c.targetZoom = targetZoom
	c.aligned = 0
	c.activatedAt = now
	c.lastAdjustAt = time.Time{}
	c.mu.Unlock()

	c.notify(tr)
	return true
}

// FailProcessing abandons the in-flight request id.
func (c *Controller) FailProcessing(id uuid.UUID) bool {
	c.mu.Lock()
	if c.state != StateProcessing || id != c.requestID {
		c.mu.Unlock()
		return false
	}
	tr := c.idleLocked("processing failed")
	c.mu.Unlock()

	c.notify(tr)
	return true
}

// Complete ends an active session, e.g. once the camera reports the zoom
// has converged.
func (c *Controller) Complete() bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return false
	}
	tr := c.idleLocked("completed")
	c.mu.Unlock()

	c.notify(tr)
	return true
}

// Cancel returns to idle from any state.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	tr := c.idleLocked("cancelled")
	c.mu.Unlock()

	c.notify(tr)
}

// DecisionForFrame advances an active session by one frame and returns a
// zoom command when the subject has stayed aligned long enough.
//
// The session aborts to idle when it outlives the watchdog or when the
// current template no longer matches. Lost or low-confidence frames count
// against alignment without aborting.
func (c *Controller) DecisionForFrame(now time.Time, current template.Kind, holding bool, confidence float64, lost bool) (ZoomCommand, bool) {
	c.mu.Lock()
	var tr *Transition
	cmd, ok := c.decideLocked(now, current, holding, confidence, lost, &tr)
	c.mu.Unlock()

	if tr != nil {
		c.notify(*tr)
	}
	return cmd, ok
}

func (c *Controller) decideLocked(now time.Time, current template.Kind, holding bool, confidence float64, lost bool, tr **Transition) (ZoomCommand, bool) {
	switch c.state {
	case StateProcessing:
		if now.Sub(c.processingAt) > c.config.Watchdog {
			t := c.idleLocked("processing watchdog")
			*tr = &t
		}
		return ZoomCommand{}, false
	case StateActive:
	default:
		return ZoomCommand{}, false
	}

	if now.Sub(c.activatedAt) > c.config.Watchdog {
		t := c.idleLocked("watchdog")
		*tr = &t
		return ZoomCommand{}, false
	}
	if current != c.template {
		t := c.idleLocked("template changed")
		*tr = &t
		return ZoomCommand{}, false
	}

	switch {
	case lost || confidence < c.config.MinConfidence:
		c.aligned = max(0, c.aligned-1)
	case holding:
		c.aligned++
	default:
		c.aligned = max(0, c.aligned-1)
	}

	if c.aligned < c.config.AlignedFrames {
		return ZoomCommand{}, false
	}
	if !c.lastAdjustAt.IsZero() && now.Sub(c.lastAdjustAt) < c.config.AdjustInterval {
		return ZoomCommand{}, false
	}
	c.lastAdjustAt = now
	return ZoomCommand{RequestID: c.requestID, Template: c.template, Zoom: c.targetZoom, At: now}, true
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:         c.state,
		RequestID:     c.requestID,
		Template:      c.template,
		TargetZoom:    c.targetZoom,
		AlignedFrames: c.aligned,
		ActivatedAt:   c.activatedAt,
		LastAdjustAt:  c.lastAdjustAt,
	}
}

// AdaptiveZoomStep maps a per-frame positional delta to a zoom step.
func (c *Controller) AdaptiveZoomStep(deltaMagnitude float64) float64 {
	c.mu.Lock()
	cfg := c.config
	c.mu.Unlock()
	return geom.Clamp(cfg.ZoomStepPerDelta*deltaMagnitude, cfg.MinZoomStep, cfg.MaxZoomStep)
}

// AdaptiveZoomStep maps a per-frame positional delta to a zoom step using
// the default constants: 0.35·delta clamped to [0.007, 0.045].
func AdaptiveZoomStep(deltaMagnitude float64) float64 {
	cfg := DefaultConfig()
	return geom.Clamp(cfg.ZoomStepPerDelta*deltaMagnitude, cfg.MinZoomStep, cfg.MaxZoomStep)
}

// Config returns the configuration.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetConfig replaces the configuration.
func (c *Controller) SetConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = cfg
}

func (c *Controller) setLocked(to State, reason string) Transition {
	tr := Transition{From: c.state, To: to, RequestID: c.requestID, Reason: reason}
	c.state = to
	return tr
}

func (c *Controller) idleLocked(reason string) Transition {
	tr := c.setLocked(StateIdle, reason)
	c.template = ""
	c.targetZoom = 0
	c.aligned = 0
	c.activatedAt = time.Time{}
	c.lastAdjustAt = time.Time{}
	return tr
}

func (c *Controller) notify(tr Transition) {
	c.logger.Debug("smart compose transition",
		"from", tr.From, "to", tr.To, "request_id", tr.RequestID, "reason", tr.Reason)

	c.mu.Lock()
	fn := c.onTransition
	c.mu.Unlock()
	if fn != nil {
		fn(tr)
	}
}

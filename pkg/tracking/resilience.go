package tracking

import (
	"time"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// Phase is the resilience controller's current state.
type Phase string

const (
	PhaseIdle          Phase = "idle"           // no reliable fix yet
	PhaseReliable      Phase = "reliable"       // last observation was trusted
	PhaseRecentLoss    Phase = "recent_loss"    // lost, inside the grace window
	PhaseSustainedLoss Phase = "sustained_loss" // lost beyond the grace window
)

// Resilience bridges short tracker dropouts with the last reliable fix and
// requests a reacquire when the loss persists.
//
// Resilience is not safe for concurrent use. Callers feed it one frame at a
// time in arrival order.
type Resilience struct {
	config Config

	hasReliable    bool
	lastPoint      geom.Point
	lastConfidence float64
	lastReliableAt time.Time

	lostFrames      int
	lastReacquireAt time.Time
	phase           Phase
}

// NewResilience creates a controller with the given configuration.
func NewResilience(cfg Config) *Resilience {
	return &Resilience{config: cfg, phase: PhaseIdle}
}

// Seed force-sets a reliable fix, e.g. after the user taps a subject.
func (r *Resilience) Seed(p geom.Point, confidence float64, now time.Time) {
	r.hasReliable = true
	r.lastPoint = p.Clamped()
	r.lastConfidence = geom.Clamp(confidence, 0, 1)
	r.lastReliableAt = now
	r.lostFrames = 0
	r.phase = PhaseReliable
}

// Update consumes one frame's observation. While the loss is recent it
// rewrites obs in place with the remembered point and a decayed confidence.
// It returns a reacquire point once enough consecutive frames were lost and
// the reacquire cooldown has elapsed, and nil otherwise.
func (r *Resilience) Update(obs *Observation, now time.Time, fallbackAnchor geom.Point) *geom.Point {
	if obs == nil {
		return nil
	}
	if obs.Reliable(r.config.ReliableConfidence) {
		r.Seed(obs.Point, obs.Confidence, now)
		return nil
	}

	r.lostFrames++
	age := now.Sub(r.lastReliableAt)
	if r.hasReliable && age < r.config.LossGrace {
		r.phase = PhaseRecentLoss
		decay := 1.0
		if r.config.LossGrace > 0 {
			decay -= r.config.FallbackDecay * float64(age) / float64(r.config.LossGrace)
		}
		obs.Point = r.lastPoint
		obs.Confidence = geom.Clamp(r.lastConfidence*decay, 0, r.lastConfidence)
		obs.Lost = false
		obs.Source = SourceFallback
	} else if r.hasReliable {
		r.phase = PhaseSustainedLoss
	}

	if r.lostFrames < r.config.LostFramesBeforeReacquire {
		return nil
	}
	if !r.lastReacquireAt.IsZero() && now.Sub(r.lastReacquireAt) < r.config.ReacquireInterval {
		return nil
	}

	r.lastReacquireAt = now
	if r.hasReliable {
		p := r.lastPoint
		return &p
	}
	if !fallbackAnchor.IsFinite() {
		fallbackAnchor = geom.Center
	}
	p := fallbackAnchor.Clamped()
	return &p
}

// Reset forgets all memory.
func (r *Resilience) Reset() {
	*r = Resilience{config: r.config, phase: PhaseIdle}
}

// Phase returns the current state.
func (r *Resilience) Phase() Phase {
	return r.phase
}

// LostFrames returns the number of consecutive lost frames.
func (r *Resilience) LostFrames() int {
	return r.lostFrames
}

// LastReliable returns the last reliable point and whether one exists.
func (r *Resilience) LastReliable() (geom.Point, bool) {
	return r.lastPoint, r.hasReliable
}

// Config returns the controller's configuration.
func (r *Resilience) Config() Config {
	return r.config
}

// SetConfig replaces the configuration without clearing memory.
func (r *Resilience) SetConfig(cfg Config) {
	r.config = cfg
}

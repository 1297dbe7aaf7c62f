// Package stabilizer smooths raw guidance over time and decides when the
// subject has been aligned long enough to count as holding.
package stabilizer

import (
	"math"
	"time"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// Config holds the stabilizer time constants and hysteresis band.
type Config struct {
	SlowTau     time.Duration `json:"slow_tau" toml:"slow_tau"`         // Smoothing time constant at zero confidence
	FastTau     time.Duration `json:"fast_tau" toml:"fast_tau"`         // Smoothing time constant at full confidence
	MaxStep     time.Duration `json:"max_step" toml:"max_step"`         // Longer frame gaps are clamped to this
	HoldEnter   float64       `json:"hold_enter" toml:"hold_enter"`     // Magnitude below which holding can begin
	HoldRelease float64       `json:"hold_release" toml:"hold_release"` // Magnitude above which holding ends
	HoldDwell   time.Duration `json:"hold_dwell" toml:"hold_dwell"`     // Time below HoldEnter before holding
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		SlowTau:     450 * time.Millisecond,
		FastTau:     120 * time.Millisecond,
		MaxStep:     250 * time.Millisecond,
		HoldEnter:   0.06,
		HoldRelease: 0.14,
		HoldDwell:   350 * time.Millisecond,
	}
}

// SmoothConfig favors steadiness over responsiveness.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.SlowTau = 700 * time.Millisecond
	cfg.FastTau = 220 * time.Millisecond
	cfg.HoldDwell = 500 * time.Millisecond
	return cfg
}

// ResponsiveConfig follows raw guidance closely.
func ResponsiveConfig() Config {
	cfg := DefaultConfig()
	cfg.SlowTau = 250 * time.Millisecond
	cfg.FastTau = 60 * time.Millisecond
	cfg.HoldDwell = 200 * time.Millisecond
	return cfg
}

// Stabilizer is a confidence-modulated exponential filter with a
// hysteresis-banded holding flag. It is not safe for concurrent use.
type Stabilizer struct {
	config Config

	stable     geom.Vector
	lastUpdate time.Time
	started    bool

	holding    bool
	belowSince time.Time
	below      bool
}

// New creates a stabilizer.
func New(cfg Config) *Stabilizer {
	return &Stabilizer{config: cfg}
}

// Update feeds one raw guidance vector and returns the stabilized vector.
// Lower confidence means a longer time constant, so noisy tracking moves
// the output slowly. The first update after a reset adopts raw directly.
func (s *Stabilizer) Update(raw geom.Vector, confidence float64, now time.Time) geom.Vector {
	if math.IsNaN(raw.DX) || math.IsNaN(raw.DY) {
		raw = geom.Vector{}
	}
	raw = raw.Clamped()

	if !s.started {
		s.stable = raw
		s.started = true
	} else {
		dt := now.Sub(s.lastUpdate)
		if dt < 0 {
			dt = 0
		}
		if dt > s.config.MaxStep {
			dt = s.config.MaxStep
		}
		c := geom.Clamp(confidence, 0, 1)
		tau := float64(s.config.SlowTau) + (float64(s.config.FastTau)-float64(s.config.SlowTau))*c
		alpha := 1.0
		if tau > 0 {
			alpha = 1 - math.Exp(-float64(dt)/tau)
		}
		s.stable = geom.Vector{
			DX: s.stable.DX + (raw.DX-s.stable.DX)*alpha,
			DY: s.stable.DY + (raw.DY-s.stable.DY)*alpha,
		}
	}
	s.lastUpdate = now
	s.updateHolding(s.stable.Magnitude(), now)
	return s.stable
}

func (s *Stabilizer) updateHolding(mag float64, now time.Time) {
	if s.holding {
		if mag > s.config.HoldRelease {
			s.holding = false
			s.below = false
		}
		return
	}
	if mag >= s.config.HoldEnter {
		s.below = false
		return
	}
	if !s.below {
		s.below = true
		s.belowSince = now
	}
	if now.Sub(s.belowSince) >= s.config.HoldDwell {
		s.holding = true
	}
}

// Holding reports sustained low-magnitude alignment.
func (s *Stabilizer) Holding() bool {
	return s.holding
}

// Stable returns the last stabilized vector.
func (s *Stabilizer) Stable() geom.Vector {
	return s.stable
}

// Reset clears all memory. Call on template change or session reset.
func (s *Stabilizer) Reset() {
	*s = Stabilizer{config: s.config}
}

// Config returns the current configuration.
func (s *Stabilizer) Config() Config {
	return s.config
}

// SetConfig replaces the configuration without clearing memory.
func (s *Stabilizer) SetConfig(cfg Config) {
	s.config = cfg
}

const (
	overshootEpsilon = 0.02
	overshootMinRaw  = 0.08
	overshootSnap    = 0.6
)

// AntiOvershoot snaps any stable axis that points against raw to 60% of
// raw, provided raw on that axis is large enough to trust.
func AntiOvershoot(stable, raw geom.Vector) geom.Vector {
	stable.DX = antiOvershootAxis(stable.DX, raw.DX)
	stable.DY = antiOvershootAxis(stable.DY, raw.DY)
	return stable
}

func antiOvershootAxis(stable, raw float64) float64 {
	if math.Abs(raw) < overshootMinRaw {
		return stable
	}
	if stable*raw >= 0 || math.Abs(stable) <= overshootEpsilon {
		return stable
	}
	return overshootSnap * raw
}

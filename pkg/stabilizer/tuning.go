package stabilizer

import "time"

// TuningParams holds the runtime-adjustable stabilizer parameters.
// Only non-zero values are applied.
type TuningParams struct {
	SlowTauMs   float64 `json:"slow_tau_ms" toml:"slow_tau_ms"`     // Time constant at zero confidence (ms)
	FastTauMs   float64 `json:"fast_tau_ms" toml:"fast_tau_ms"`     // Time constant at full confidence (ms)
	HoldEnter   float64 `json:"hold_enter" toml:"hold_enter"`       // Enter threshold
	HoldRelease float64 `json:"hold_release" toml:"hold_release"`   // Release threshold
	HoldDwellMs float64 `json:"hold_dwell_ms" toml:"hold_dwell_ms"` // Dwell before holding (ms)
}

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

// Apply returns cfg with the non-zero values of p applied. A release
// threshold below the enter threshold is raised to match it.
func (p TuningParams) Apply(cfg Config) Config {
	if p.SlowTauMs > 0 {
		cfg.SlowTau = ms(p.SlowTauMs)
	}
	if p.FastTauMs > 0 {
		cfg.FastTau = ms(p.FastTauMs)
	}
	if p.HoldEnter > 0 {
		cfg.HoldEnter = p.HoldEnter
	}
	if p.HoldRelease > 0 {
		cfg.HoldRelease = p.HoldRelease
	}
	if p.HoldDwellMs > 0 {
		cfg.HoldDwell = ms(p.HoldDwellMs)
	}
	if cfg.HoldRelease < cfg.HoldEnter {
		cfg.HoldRelease = cfg.HoldEnter
	}
	return cfg
}

// Params reports cfg as tuning parameters.
func (cfg Config) Params() TuningParams {
	return TuningParams{
		SlowTauMs:   float64(cfg.SlowTau) / float64(time.Millisecond),
		FastTauMs:   float64(cfg.FastTau) / float64(time.Millisecond),
		HoldEnter:   cfg.HoldEnter,
		HoldRelease: cfg.HoldRelease,
		HoldDwellMs: float64(cfg.HoldDwell) / float64(time.Millisecond),
	}
}

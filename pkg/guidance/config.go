package guidance

import (
	"github.com/teslashibe/go-compose/pkg/analysis"
	"github.com/teslashibe/go-compose/pkg/rules"
	"github.com/teslashibe/go-compose/pkg/smartcompose"
	"github.com/teslashibe/go-compose/pkg/stabilizer"
	"github.com/teslashibe/go-compose/pkg/tracking"
)

// Config bundles the configuration of every per-frame stage.
type Config struct {
	Analysis     analysis.Config     `json:"analysis" toml:"analysis"`
	Rules        rules.Config        `json:"rules" toml:"rules"`
	Stabilizer   stabilizer.Config   `json:"stabilizer" toml:"stabilizer"`
	Tracking     tracking.Config     `json:"tracking" toml:"resilience"`
	SmartCompose smartcompose.Config `json:"smart_compose" toml:"smart_compose"`
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		Analysis:     analysis.DefaultConfig(),
		Rules:        rules.DefaultConfig(),
		Stabilizer:   stabilizer.DefaultConfig(),
		Tracking:     tracking.DefaultConfig(),
		SmartCompose: smartcompose.DefaultConfig(),
	}
}

// SmoothConfig favours steady guidance over responsiveness.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.Stabilizer = stabilizer.SmoothConfig()
	cfg.Tracking = tracking.SlowConfig()
	return cfg
}

// ResponsiveConfig favours fast reaction over steadiness.
func ResponsiveConfig() Config {
	cfg := DefaultConfig()
	cfg.Stabilizer = stabilizer.ResponsiveConfig()
	cfg.Tracking = tracking.AggressiveConfig()
	return cfg
}

// TuningParams groups the runtime-adjustable parameters of each stage.
// Nil sections are left untouched.
type TuningParams struct {
	Stabilizer *stabilizer.TuningParams `json:"stabilizer,omitempty" toml:"stabilizer"`
	Resilience *tracking.TuningParams   `json:"resilience,omitempty" toml:"resilience"`
	Analysis   *analysis.TuningParams   `json:"analysis,omitempty" toml:"analysis"`
}

// Apply returns cfg with every non-nil section of p applied.
func (p TuningParams) Apply(cfg Config) Config {
	if p.Stabilizer != nil {
		cfg.Stabilizer = p.Stabilizer.Apply(cfg.Stabilizer)
	}
	if p.Resilience != nil {
		cfg.Tracking = p.Resilience.Apply(cfg.Tracking)
	}
	if p.Analysis != nil {
		cfg.Analysis = p.Analysis.Apply(cfg.Analysis)
	}
	return cfg
}

// Params reports cfg as tuning parameters.
func (cfg Config) Params() TuningParams {
	s := cfg.Stabilizer.Params()
	r := cfg.Tracking.Params()
	a := cfg.Analysis.Params()
	return TuningParams{Stabilizer: &s, Resilience: &r, Analysis: &a}
}

package analysis

import "github.com/teslashibe/go-compose/pkg/frame"

// Config holds analyzer thresholds. All magnitudes are in luma units per
// grid cell (luma spans [0,1]).
type Config struct {
	Grid frame.GridConfig `json:"grid" toml:"grid"`

	// Evidence gates
	MagnitudeThreshold float64 `json:"magnitude_threshold" toml:"magnitude_threshold"` // Ignore weaker gradients
	MinSamples         int     `json:"min_samples" toml:"min_samples"`                 // Cells needed for symmetry/energy/diagonal
	MinWeight          float64 `json:"min_weight" toml:"min_weight"`                   // Summed magnitude needed

	// Symmetry
	SymmetrySearch     float64 `json:"symmetry_search" toml:"symmetry_search"`           // Candidate axes within ±search of center (fraction of width)
	SymmetryPriorSigma float64 `json:"symmetry_prior_sigma" toml:"symmetry_prior_sigma"` // Gaussian prior around the center column

	// Vanishing point
	VanishingMinSlope   float64 `json:"vanishing_min_slope" toml:"vanishing_min_slope"`     // |dy/dx| an edge must exceed
	VanishingMinSamples int     `json:"vanishing_min_samples" toml:"vanishing_min_samples"` // Accepted edges required
	VanishingMinWeight  float64 `json:"vanishing_min_weight" toml:"vanishing_min_weight"`   // Depth·magnitude weight required

	// Diagonal preference
	DiagonalMinAlignment float64 `json:"diagonal_min_alignment" toml:"diagonal_min_alignment"` // Skip edges closer than this to axis-aligned
}

// DefaultConfig returns thresholds tuned for a 64×48 grid.
func DefaultConfig() Config {
	return Config{
		Grid: frame.DefaultGridConfig(),

		MagnitudeThreshold: 0.04,
		MinSamples:         24,
		MinWeight:          1.0,

		SymmetrySearch:     0.25,
		SymmetryPriorSigma: 0.25,

		VanishingMinSlope:   0.35,
		VanishingMinSamples: 8,
		VanishingMinWeight:  1.2,

		DiagonalMinAlignment: 0.15,
	}
}

// SensitiveConfig lowers the evidence gates for dim or low-contrast scenes.
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.MagnitudeThreshold = 0.02
	cfg.MinSamples = 12
	cfg.MinWeight = 0.5
	return cfg
}

// TuningParams holds runtime-adjustable analyzer thresholds.
// Only non-zero values are applied.
type TuningParams struct {
	MagnitudeThreshold float64 `json:"magnitude_threshold" toml:"magnitude_threshold"`
	MinSamples         int     `json:"min_samples" toml:"min_samples"`
	MinWeight          float64 `json:"min_weight" toml:"min_weight"`
	VanishingMinSlope  float64 `json:"vanishing_min_slope" toml:"vanishing_min_slope"`
}

// Apply returns cfg with the non-zero fields of p applied.
func (p TuningParams) Apply(cfg Config) Config {
	if p.MagnitudeThreshold > 0 {
		cfg.MagnitudeThreshold = p.MagnitudeThreshold
	}
	if p.MinSamples > 0 {
		cfg.MinSamples = p.MinSamples
	}
	if p.MinWeight > 0 {
		cfg.MinWeight = p.MinWeight
	}
	if p.VanishingMinSlope > 0 {
		cfg.VanishingMinSlope = p.VanishingMinSlope
	}
	return cfg
}

// Params reports cfg as tuning parameters.
func (cfg Config) Params() TuningParams {
	return TuningParams{
		MagnitudeThreshold: cfg.MagnitudeThreshold,
		MinSamples:         cfg.MinSamples,
		MinWeight:          cfg.MinWeight,
		VanishingMinSlope:  cfg.VanishingMinSlope,
	}
}

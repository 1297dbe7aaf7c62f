// Package analysis derives composition heuristics from frame gradients:
// a vertical symmetry axis, the scene-energy centroid, a vanishing point
// and a diagonal preference. Each analyzer is a weighted directional vote
// over a fixed-size gradient grid and returns nil when the evidence is too
// thin to trust.
package analysis

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-compose/pkg/frame"
)

// Result bundles the per-frame analyzer outputs. Any field may be nil.
type Result struct {
	Symmetry  *SymmetryAxis       `json:"symmetry,omitempty"`
	Energy    *EnergyCentroid     `json:"energy,omitempty"`
	Vanishing *VanishingPoint     `json:"vanishing,omitempty"`
	Diagonal  *DiagonalPreference `json:"diagonal,omitempty"`
}

// Empty reports whether no analyzer produced a result.
func (r Result) Empty() bool {
	return r.Symmetry == nil && r.Energy == nil && r.Vanishing == nil && r.Diagonal == nil
}

// Analyzer runs all four analyzers over a frame.
type Analyzer struct {
	mu     sync.RWMutex
	config Config
}

// New creates an analyzer with the given thresholds.
func New(cfg Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Config returns the current thresholds.
func (a *Analyzer) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// SetTuningParams applies the non-zero fields of p.
func (a *Analyzer) SetTuningParams(p TuningParams) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = p.Apply(a.config)
}

// Analyze samples f and runs the analyzers concurrently. All four finish
// before it returns. Frames without a readable luma plane yield an empty
// Result.
func (a *Analyzer) Analyze(f frame.Frame) Result {
	cfg := a.Config()
	g, ok := frame.Sample(f, cfg.Grid)
	if !ok {
		return Result{}
	}
	return AnalyzeGrid(g, cfg)
}

// AnalyzeGrid runs the analyzers over an already sampled grid.
func AnalyzeGrid(g *frame.Grid, cfg Config) Result {
	var r Result
	var eg errgroup.Group
	eg.Go(func() error { r.Symmetry = Symmetry(g, cfg); return nil })
	eg.Go(func() error { r.Energy = Energy(g, cfg); return nil })
	eg.Go(func() error { r.Vanishing = Vanishing(g, cfg); return nil })
	eg.Go(func() error { r.Diagonal = Diagonal(g, cfg); return nil })
	_ = eg.Wait()
	return r
}

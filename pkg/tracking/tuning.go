package tracking

import "time"

// TuningParams holds the real-time adjustable tracking parameters.
// These can be modified via the tuning API without restarting the server.
type TuningParams struct {
	// Resilience
	LossGraceMs         float64 `json:"loss_grace_ms" toml:"loss_grace_ms"`                 // Grace window (ms)
	ReacquireIntervalMs float64 `json:"reacquire_interval_ms" toml:"reacquire_interval_ms"` // Reacquire cooldown (ms)
	LostFrames          int     `json:"lost_frames" toml:"lost_frames"`                     // Lost frames before reacquire
	ReliableConfidence  float64 `json:"reliable_confidence" toml:"reliable_confidence"`     // Reliable floor (0-1)

	// Face perception
	FaceSmoothing float64 `json:"face_smoothing" toml:"face_smoothing"` // EMA weight (0.3=smooth, 0.8=responsive)
}

// Params reports cfg as tuning parameters.
func (cfg Config) Params() TuningParams {
	return TuningParams{
		LossGraceMs:         float64(cfg.LossGrace) / float64(time.Millisecond),
		ReacquireIntervalMs: float64(cfg.ReacquireInterval) / float64(time.Millisecond),
		LostFrames:          cfg.LostFramesBeforeReacquire,
		ReliableConfidence:  cfg.ReliableConfidence,
		FaceSmoothing:       cfg.FaceSmoothing,
	}
}

// Apply returns cfg with the non-zero values of p applied.
func (p TuningParams) Apply(cfg Config) Config {
	if p.LossGraceMs > 0 {
		cfg.LossGrace = time.Duration(p.LossGraceMs * float64(time.Millisecond))
	}
	if p.ReacquireIntervalMs > 0 {
		cfg.ReacquireInterval = time.Duration(p.ReacquireIntervalMs * float64(time.Millisecond))
	}
	if p.LostFrames > 0 {
		cfg.LostFramesBeforeReacquire = p.LostFrames
	}
	if p.ReliableConfidence > 0 {
		cfg.ReliableConfidence = clamp(p.ReliableConfidence, 0.0, 1.0)
	}
	if p.FaceSmoothing > 0 {
		cfg.FaceSmoothing = clamp(p.FaceSmoothing, 0.0, 1.0)
	}
	return cfg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

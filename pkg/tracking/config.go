package tracking

import "time"

// Config holds all tunable parameters for tracking resilience and face
// perception.
type Config struct {
	// Resilience
	LossGrace                 time.Duration `json:"loss_grace" toml:"loss_grace"`                                     // Synthesize a fallback for this long after the last reliable fix
	ReacquireInterval         time.Duration `json:"reacquire_interval" toml:"reacquire_interval"`                     // Minimum time between reacquire requests
	LostFramesBeforeReacquire int           `json:"lost_frames_before_reacquire" toml:"lost_frames_before_reacquire"` // Consecutive lost frames before reacquiring
	ReliableConfidence        float64       `json:"reliable_confidence" toml:"reliable_confidence"`                   // Observations below this are treated as lost
	FallbackDecay             float64       `json:"fallback_decay" toml:"fallback_decay"`                             // Fraction of confidence lost over the grace window

	// Face perception
	FaceSmoothing     float64 `json:"face_smoothing" toml:"face_smoothing"`           // EMA weight of the newest detection (0-1)
	FaceMinConfidence float64 `json:"face_min_confidence" toml:"face_min_confidence"` // Ignore detections below this
	FaceMaxMisses     int     `json:"face_max_misses" toml:"face_max_misses"`         // Drop the smoothed face after this many misses
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		LossGrace:                 900 * time.Millisecond,
		ReacquireInterval:         450 * time.Millisecond,
		LostFramesBeforeReacquire: 4,
		ReliableConfidence:        0.18,
		FallbackDecay:             0.5,

		FaceSmoothing:     0.6, // 60% new, 40% old
		FaceMinConfidence: 0.35,
		FaceMaxMisses:     5,
	}
}

// SlowConfig holds on to a lost subject longer and smooths faces harder.
// Suits handheld shooting with frequent occlusions.
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.LossGrace = 1500 * time.Millisecond
	cfg.ReacquireInterval = 700 * time.Millisecond
	cfg.LostFramesBeforeReacquire = 6
	cfg.FaceSmoothing = 0.4
	return cfg
}

// AggressiveConfig gives up on a lost subject quickly and trusts new face
// detections more.
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.LossGrace = 500 * time.Millisecond
	cfg.ReacquireInterval = 300 * time.Millisecond
	cfg.LostFramesBeforeReacquire = 3
	cfg.FaceSmoothing = 0.8 // Trust new readings more
	return cfg
}

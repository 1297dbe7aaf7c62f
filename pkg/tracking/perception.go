package tracking

import (
	"image"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/tracking/detection"
)

// FacePerception turns raw face detections into a smoothed face
// observation.
type FacePerception struct {
	mu sync.Mutex

	detector detection.Detector
	logger   *slog.Logger

	smoothingFactor float64 // 0-1, higher = more weight on new reading
	minConfidence   float64
	maxMisses       int

	// Smoothing state
	smoothed *Face

	// Detection state
	consecutiveMisses int
}

// NewFacePerception creates a face perception stage. detector may be nil,
// in which case Observe never reports a face.
func NewFacePerception(cfg Config, detector detection.Detector, logger *slog.Logger) *FacePerception {
	if logger == nil {
		logger = slog.Default()
	}
	return &FacePerception{
		detector:        detector,
		logger:          logger,
		smoothingFactor: cfg.FaceSmoothing,
		minConfidence:   cfg.FaceMinConfidence,
		maxMisses:       cfg.FaceMaxMisses,
	}
}

// Available reports whether a detector is attached.
func (p *FacePerception) Available() bool {
	return p != nil && p.detector != nil
}

// Observe runs detection on img. It returns the smoothed face and true
// when a face was seen recently enough to trust.
func (p *FacePerception) Observe(img image.Image) (Face, bool) {
	if !p.Available() || img == nil {
		return Face{}, false
	}

	detections, err := p.detector.Detect(img)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.logger.Debug("face detection failed", "error", err)
		return p.missLocked()
	}

	best := detection.SelectBest(detections)
	if best == nil || best.Confidence < p.minConfidence {
		return p.missLocked()
	}

	face := Face{Box: best.Box(), Confidence: geom.Clamp(best.Confidence, 0, 1)}
	if eye, ok := best.EyeLine(); ok {
		face.EyeLine = &eye
	}

	if p.smoothed != nil {
		face = blendFace(*p.smoothed, face, p.smoothingFactor)
	}
	p.smoothed = &face
	p.consecutiveMisses = 0
	return face, true
}

// missLocked records a miss and returns the remembered face while the miss
// streak is short.
func (p *FacePerception) missLocked() (Face, bool) {
	p.consecutiveMisses++
	if p.smoothed == nil || p.consecutiveMisses > p.maxMisses {
		p.smoothed = nil
		return Face{}, false
	}
	return *p.smoothed, true
}

// ConsecutiveMisses returns how many consecutive detections have failed
func (p *FacePerception) ConsecutiveMisses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.consecutiveMisses
}

// SetSmoothing updates the EMA weight.
func (p *FacePerception) SetSmoothing(alpha float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.smoothingFactor = clamp(alpha, 0.0, 1.0)
}

// Reset drops the smoothed face.
func (p *FacePerception) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.smoothed = nil
	p.consecutiveMisses = 0
}

// Close releases the detector.
func (p *FacePerception) Close() error {
	if !p.Available() {
		return nil
	}
	return p.detector.Close()
}

// blendFace applies exponential smoothing from prev toward next.
func blendFace(prev, next Face, alpha float64) Face {
	mix := func(a, b float64) float64 { return alpha*b + (1-alpha)*a }
	out := Face{
		Box: geom.Rect{
			X: mix(prev.Box.X, next.Box.X),
			Y: mix(prev.Box.Y, next.Box.Y),
			W: mix(prev.Box.W, next.Box.W),
			H: mix(prev.Box.H, next.Box.H),
		},
		Confidence: next.Confidence,
	}
	switch {
	case prev.EyeLine != nil && next.EyeLine != nil:
		eye := geom.Pt(mix(prev.EyeLine.X, next.EyeLine.X), mix(prev.EyeLine.Y, next.EyeLine.Y))
		out.EyeLine = &eye
	case next.EyeLine != nil:
		eye := *next.EyeLine
		out.EyeLine = &eye
	}
	return out
}

// Package detection provides face detection using computer vision
package detection

import (
	"image"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// Detection represents a detected face
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)

	// Eye landmarks, when the backend reports them.
	RightEye geom.Point
	LeftEye  geom.Point
	HasEyes  bool
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Box returns the bounding box as a frame rectangle.
func (d Detection) Box() geom.Rect {
	return geom.Rect{X: d.X, Y: d.Y, W: d.W, H: d.H}
}

// EyeLine returns the midpoint between the eyes.
func (d Detection) EyeLine() (geom.Point, bool) {
	if !d.HasEyes {
		return geom.Point{}, false
	}
	return geom.Lerp(d.RightEye, d.LeftEye, 0.5), true
}

// Detector is the interface for face detection backends
type Detector interface {
	// Detect finds faces in the image and returns their positions
	Detect(img image.Image) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// SelectBest picks the best face from multiple detections
// Priority: confidence * 0.7 + area * 0.3
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}

	if len(dets) == 1 {
		return &dets[0]
	}

	// Find max area for normalization
	maxArea := 0.0
	for _, d := range dets {
		if d.Area() > maxArea {
			maxArea = d.Area()
		}
	}
	if maxArea <= 0 {
		maxArea = 1
	}

	bestScore := -1.0
	var best *Detection
	for i := range dets {
		score := dets[i].Confidence*0.7 + (dets[i].Area()/maxArea)*0.3
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}

	return best
}

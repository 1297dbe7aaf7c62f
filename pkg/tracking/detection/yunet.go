package detection

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// ErrEmptyImage is returned when Detect is given an image with no pixels.
var ErrEmptyImage = errors.New("empty image")

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates a new YuNet face detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	// Input size is updated per image.
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect finds faces in img.
func (d *YuNetDetector) Detect(img image.Image) ([]Detection, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, ErrEmptyImage
	}

	imgW := float64(mat.Cols())
	imgH := float64(mat.Rows())

	d.detector.SetInputSize(image.Pt(mat.Cols(), mat.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(mat, &faces)

	var detections []Detection
	for r := 0; r < faces.Rows(); r++ {
		row := make([]float64, yunetColumns)
		for c := range row {
			row[c] = float64(faces.GetFloatAt(r, c))
		}
		if det, ok := detectionFromRow(row, imgW, imgH); ok {
			detections = append(detections, det)
		}
	}

	return detections, nil
}

// YuNet output row layout.
const (
	yunetBox      = 0  // x, y, w, h in pixels, top-left origin
	yunetRightEye = 4  // x, y
	yunetLeftEye  = 6  // x, y
	yunetScore    = 14 // face score
	yunetColumns  = 15
)

// detectionFromRow converts one YuNet row into frame units. The box is
// clipped to the frame; rows whose box falls outside it are dropped. Eyes
// are reported only when both landmarks are finite.
func detectionFromRow(row []float64, imgW, imgH float64) (Detection, bool) {
	if len(row) < yunetColumns || imgW <= 0 || imgH <= 0 {
		return Detection{}, false
	}

	x0 := geom.Clamp(row[yunetBox]/imgW, 0, 1)
	y0 := geom.Clamp(row[yunetBox+1]/imgH, 0, 1)
	x1 := geom.Clamp((row[yunetBox]+row[yunetBox+2])/imgW, 0, 1)
	y1 := geom.Clamp((row[yunetBox+1]+row[yunetBox+3])/imgH, 0, 1)
	if !(x1 > x0) || !(y1 > y0) || math.IsNaN(row[yunetScore]) {
		return Detection{}, false
	}

	det := Detection{
		X:          x0,
		Y:          y0,
		W:          x1 - x0,
		H:          y1 - y0,
		Confidence: geom.Clamp(row[yunetScore], 0, 1),
	}

	right := geom.Pt(row[yunetRightEye]/imgW, row[yunetRightEye+1]/imgH)
	left := geom.Pt(row[yunetLeftEye]/imgW, row[yunetLeftEye+1]/imgH)
	if right.IsFinite() && left.IsFinite() {
		det.RightEye = right.Clamped()
		det.LeftEye = left.Clamped()
		det.HasEyes = true
	}
	return det, true
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

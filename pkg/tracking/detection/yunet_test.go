package detection

import (
	"errors"
	"image"
	"math"
	"os"
	"testing"

	"github.com/teslashibe/go-compose/pkg/geom"
)

// yunetRow builds a raw detector row for a 200x100 pixel frame.
func yunetRow(x, y, w, h, rx, ry, lx, ly, score float64) []float64 {
	row := make([]float64, yunetColumns)
	row[yunetBox], row[yunetBox+1], row[yunetBox+2], row[yunetBox+3] = x, y, w, h
	row[yunetRightEye], row[yunetRightEye+1] = rx, ry
	row[yunetLeftEye], row[yunetLeftEye+1] = lx, ly
	row[yunetScore] = score
	return row
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetectionFromRow_Normalizes(t *testing.T) {
	det, ok := detectionFromRow(yunetRow(50, 20, 40, 50, 60, 35, 80, 37, 0.92), 200, 100)
	if !ok {
		t.Fatal("Expected detection")
	}
	if !near(det.X, 0.25) || !near(det.Y, 0.2) || !near(det.W, 0.2) || !near(det.H, 0.5) {
		t.Errorf("Expected box (0.25,0.2,0.2,0.5), got (%v,%v,%v,%v)", det.X, det.Y, det.W, det.H)
	}
	if det.Confidence != 0.92 {
		t.Errorf("Expected confidence 0.92, got %v", det.Confidence)
	}
	if !det.HasEyes {
		t.Fatal("Expected eye landmarks")
	}
	if !near(det.RightEye.X, 0.3) || !near(det.RightEye.Y, 0.35) {
		t.Errorf("Expected right eye (0.3,0.35), got %+v", det.RightEye)
	}
	if !near(det.LeftEye.X, 0.4) || !near(det.LeftEye.Y, 0.37) {
		t.Errorf("Expected left eye (0.4,0.37), got %+v", det.LeftEye)
	}

	eye, _ := det.EyeLine()
	if !near(eye.X, 0.35) || !near(eye.Y, 0.36) {
		t.Errorf("Expected eye line (0.35,0.36), got %+v", eye)
	}
}

func TestDetectionFromRow_ClipsToFrame(t *testing.T) {
	// Box hangs off the left and bottom edges; one eye is outside.
	det, ok := detectionFromRow(yunetRow(-20, 70, 60, 50, -4, 80, 20, 82, 1.3), 200, 100)
	if !ok {
		t.Fatal("Expected detection")
	}
	if det.X != 0 || !near(det.W, 0.2) {
		t.Errorf("Expected x clipped to [0,0.2], got x=%v w=%v", det.X, det.W)
	}
	if !near(det.Y, 0.7) || !near(det.H, 0.3) {
		t.Errorf("Expected y clipped to [0.7,1], got y=%v h=%v", det.Y, det.H)
	}
	if det.Confidence != 1 {
		t.Errorf("Expected confidence clamped to 1, got %v", det.Confidence)
	}
	if det.RightEye != geom.Pt(0, 0.8) {
		t.Errorf("Expected right eye clamped to (0,0.8), got %+v", det.RightEye)
	}
}

func TestDetectionFromRow_Rejects(t *testing.T) {
	tests := []struct {
		name string
		row  []float64
	}{
		{"outside frame", yunetRow(210, 20, 30, 30, 0, 0, 0, 0, 0.9)},
		{"zero size", yunetRow(50, 20, 0, 30, 0, 0, 0, 0, 0.9)},
		{"nan box", yunetRow(math.NaN(), 20, 30, 30, 0, 0, 0, 0, 0.9)},
		{"nan score", yunetRow(50, 20, 30, 30, 0, 0, 0, 0, math.NaN())},
		{"short row", []float64{50, 20, 30, 30}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if det, ok := detectionFromRow(tc.row, 200, 100); ok {
				t.Errorf("Expected row to be dropped, got %+v", det)
			}
		})
	}
}

func TestDetectionFromRow_NonFiniteEyes(t *testing.T) {
	det, ok := detectionFromRow(yunetRow(50, 20, 40, 50, math.NaN(), 35, 80, 37, 0.8), 200, 100)
	if !ok {
		t.Fatal("Expected detection")
	}
	if det.HasEyes {
		t.Errorf("Expected no eye landmarks, got %+v %+v", det.RightEye, det.LeftEye)
	}
	if _, ok := det.EyeLine(); ok {
		t.Error("Expected no eye line")
	}
}

func TestYuNetDetect_EmptyImage(t *testing.T) {
	var d YuNetDetector
	if _, err := d.Detect(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for nil image, got %v", err)
	}
	if _, err := d.Detect(image.NewRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for empty image, got %v", err)
	}
}

func TestNewYuNet_MissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = "/nonexistent/path/model.onnx"
	if _, err := NewYuNet(cfg); err == nil {
		t.Error("Expected error for missing model")
	}
}

// TestYuNetDetect_NoFace needs a real model; set COMPOSER_FACE_MODEL.
func TestYuNetDetect_NoFace(t *testing.T) {
	path := os.Getenv("COMPOSER_FACE_MODEL")
	if path == "" {
		t.Skip("COMPOSER_FACE_MODEL not set")
	}
	cfg := DefaultConfig()
	cfg.ModelPath = path
	d, err := NewYuNet(cfg)
	if err != nil {
		t.Fatalf("NewYuNet failed: %v", err)
	}
	defer d.Close()

	img := image.NewGray(image.Rect(0, 0, 160, 120))
	for i := range img.Pix {
		img.Pix[i] = 90
	}

	dets, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("Expected no faces in a flat image, got %d", len(dets))
	}
}

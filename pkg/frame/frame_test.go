package frame

import (
	"image"
	"image/color"
	"testing"
)

// grayFrame builds a w×h gray frame with fill(x,y) luma.
func grayFrame(w, h int, fill func(x, y int) uint8) Frame {
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = fill(x, y)
		}
	}
	return Frame{Width: w, Height: h, Layout: LayoutGray, Pix: pix}
}

func TestAnalyzable(t *testing.T) {
	tests := []struct {
		name string
		f    Frame
		want bool
	}{
		{"gray", Frame{Width: 4, Height: 2, Layout: LayoutGray, Pix: make([]byte, 8)}, true},
		{"rgba", Frame{Width: 4, Height: 2, Layout: LayoutRGBA, Pix: make([]byte, 32)}, true},
		{"short buffer", Frame{Width: 4, Height: 2, Layout: LayoutGray, Pix: make([]byte, 5)}, false},
		{"yuv", Frame{Width: 4, Height: 2, Layout: LayoutYUV420, Pix: make([]byte, 12)}, false},
		{"empty", Frame{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Analyzable(); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSampleUnsupportedLayout(t *testing.T) {
	f := Frame{Width: 8, Height: 8, Layout: LayoutYUV420, Pix: make([]byte, 96)}
	if _, ok := Sample(f, DefaultGridConfig()); ok {
		t.Error("Expected no grid for yuv420 frame")
	}
}

func TestSampleFixedSize(t *testing.T) {
	cfg := DefaultGridConfig()
	for _, size := range [][2]int{{320, 240}, {1920, 1080}, {50, 50}} {
		f := grayFrame(size[0], size[1], func(x, y int) uint8 { return uint8(x % 256) })
		g, ok := Sample(f, cfg)
		if !ok {
			t.Fatalf("Expected grid for %v", size)
		}
		if g.W != cfg.Width || g.H != cfg.Height {
			t.Errorf("Expected %dx%d grid, got %dx%d", cfg.Width, cfg.Height, g.W, g.H)
		}
		if len(g.Mag) != cfg.Width*cfg.Height {
			t.Errorf("Expected %d magnitudes, got %d", cfg.Width*cfg.Height, len(g.Mag))
		}
	}
}

func TestSampleVerticalEdge(t *testing.T) {
	f := grayFrame(256, 192, func(x, y int) uint8 {
		if x < 128 {
			return 0
		}
		return 255
	})
	g, ok := Sample(f, DefaultGridConfig())
	if !ok {
		t.Fatal("Expected grid")
	}

	y := g.H / 2
	edge := g.At(g.W/2, y)
	flat := g.At(4, y)
	if g.GX[edge] <= 0 {
		t.Errorf("Expected positive x gradient at the edge, got %v", g.GX[edge])
	}
	if g.Mag[flat] != 0 {
		t.Errorf("Expected zero gradient in the flat region, got %v", g.Mag[flat])
	}
	if g.GY[edge] != 0 {
		t.Errorf("Expected no y gradient on a vertical edge, got %v", g.GY[edge])
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	f := FromImage(src)
	if f.Layout != LayoutGray {
		t.Errorf("Expected gray layout, got %s", f.Layout)
	}
	if f.Width != 10 || f.Height != 6 {
		t.Errorf("Expected 10x6, got %dx%d", f.Width, f.Height)
	}
	if f.Pix[0] != 200 {
		t.Errorf("Expected luma 200, got %d", f.Pix[0])
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if got := FromImage(rgba); got.Layout != LayoutRGBA {
		t.Errorf("Expected rgba frame to be shared, got %s", got.Layout)
	}
}

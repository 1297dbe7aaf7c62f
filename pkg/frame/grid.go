package frame

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// GridConfig sizes the fixed sample grid.
type GridConfig struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`

	// Bands is the number of row bands computed concurrently.
	Bands int `json:"bands" toml:"bands"`
}

// DefaultGridConfig returns a 64×48 grid split into four row bands.
func DefaultGridConfig() GridConfig {
	return GridConfig{Width: 64, Height: 48, Bands: 4}
}

// Grid is a downsampled luma plane (values in [0,1]) with its gradients.
type Grid struct {
	W, H int
	Luma []float64
	GX   []float64
	GY   []float64
	Mag  []float64
}

// At returns the index of cell (x,y).
func (g *Grid) At(x, y int) int {
	return y*g.W + x
}

// MaxMagnitude returns the largest gradient magnitude in g.
func (g *Grid) MaxMagnitude() float64 {
	best := 0.0
	for _, m := range g.Mag {
		if m > best {
			best = m
		}
	}
	return best
}

// Sample resamples f onto a cfg-sized grid and computes central-difference
// gradients. It returns ok=false when f has no readable luma plane.
func Sample(f Frame, cfg GridConfig) (*Grid, bool) {
	img, err := f.Image()
	if err != nil {
		return nil, false
	}
	if cfg.Width < 3 || cfg.Height < 3 {
		cfg = DefaultGridConfig()
	}

	dst := image.NewGray(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	g := &Grid{
		W:    cfg.Width,
		H:    cfg.Height,
		Luma: make([]float64, cfg.Width*cfg.Height),
		GX:   make([]float64, cfg.Width*cfg.Height),
		GY:   make([]float64, cfg.Width*cfg.Height),
		Mag:  make([]float64, cfg.Width*cfg.Height),
	}
	for y := 0; y < g.H; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+g.W]
		for x, v := range row {
			g.Luma[g.At(x, y)] = float64(v) / 255
		}
	}

	bands := cfg.Bands
	if bands < 1 {
		bands = 1
	}
	if bands > g.H {
		bands = g.H
	}
	rowsPerBand := (g.H + bands - 1) / bands

	// Bands write disjoint rows; no error path exists.
	var eg errgroup.Group
	for start := 0; start < g.H; start += rowsPerBand {
		lo, hi := start, min(start+rowsPerBand, g.H)
		eg.Go(func() error {
			g.gradientRows(lo, hi)
			return nil
		})
	}
	_ = eg.Wait()
	return g, true
}

func (g *Grid) gradientRows(lo, hi int) {
	for y := lo; y < hi; y++ {
		for x := 0; x < g.W; x++ {
			xl, xr := max(x-1, 0), min(x+1, g.W-1)
			yu, yd := max(y-1, 0), min(y+1, g.H-1)
			gx := (g.Luma[g.At(xr, y)] - g.Luma[g.At(xl, y)]) / float64(xr-xl)
			gy := (g.Luma[g.At(x, yd)] - g.Luma[g.At(x, yu)]) / float64(yd-yu)
			i := g.At(x, y)
			g.GX[i] = gx
			g.GY[i] = gy
			g.Mag[i] = math.Hypot(gx, gy)
		}
	}
}

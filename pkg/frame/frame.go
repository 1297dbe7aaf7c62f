// Package frame holds per-frame pixel buffers and reduces them to a small,
// fixed-size luma grid with central-difference gradients. Everything the
// analyzers read comes from a Grid, so per-frame cost depends only on the
// grid size, never on the capture resolution.
package frame

import (
	"errors"
	"image"
	"image/color"
)

// Layout identifies how Pix is packed.
type Layout string

const (
	// LayoutGray is one byte of luma per pixel.
	LayoutGray Layout = "gray"
	// LayoutRGBA is four bytes per pixel in R, G, B, A order.
	LayoutRGBA Layout = "rgba"
	// LayoutYUV420 is accepted by the wire protocol but not analysed.
	LayoutYUV420 Layout = "yuv420"
)

// ErrUnsupportedLayout is returned by Image for layouts without a luma plane
// the analyzers can read.
var ErrUnsupportedLayout = errors.New("frame: unsupported pixel layout")

// Frame is a single captured image.
type Frame struct {
	Width  int
	Height int
	Stride int // bytes per row; 0 means tightly packed
	Layout Layout
	Pix    []byte
}

// Analyzable reports whether f carries a luma plane of the expected size.
func (f Frame) Analyzable() bool {
	if f.Width <= 0 || f.Height <= 0 {
		return false
	}
	bpp := f.bytesPerPixel()
	if bpp == 0 {
		return false
	}
	return len(f.Pix) >= f.stride()*(f.Height-1)+f.Width*bpp
}

func (f Frame) bytesPerPixel() int {
	switch f.Layout {
	case LayoutGray:
		return 1
	case LayoutRGBA:
		return 4
	}
	return 0
}

func (f Frame) stride() int {
	if f.Stride > 0 {
		return f.Stride
	}
	return f.Width * f.bytesPerPixel()
}

// Image wraps f as an image.Image without copying pixels.
func (f Frame) Image() (image.Image, error) {
	if !f.Analyzable() {
		return nil, ErrUnsupportedLayout
	}
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch f.Layout {
	case LayoutGray:
		return &image.Gray{Pix: f.Pix, Stride: f.stride(), Rect: rect}, nil
	case LayoutRGBA:
		return &image.RGBA{Pix: f.Pix, Stride: f.stride(), Rect: rect}, nil
	}
	return nil, ErrUnsupportedLayout
}

// FromImage converts any decoded image into a Frame. Gray and RGBA images
// are shared; anything else is converted to gray.
func FromImage(img image.Image) Frame {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.Gray:
		if b.Min == (image.Point{}) {
			return Frame{Width: b.Dx(), Height: b.Dy(), Stride: m.Stride, Layout: LayoutGray, Pix: m.Pix}
		}
	case *image.RGBA:
		if b.Min == (image.Point{}) {
			return Frame{Width: b.Dx(), Height: b.Dy(), Stride: m.Stride, Layout: LayoutRGBA, Pix: m.Pix}
		}
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return Frame{Width: b.Dx(), Height: b.Dy(), Stride: gray.Stride, Layout: LayoutGray, Pix: gray.Pix}
}

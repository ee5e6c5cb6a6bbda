package motion

import "fmt"

// Frame is an opaque grayscale pixel buffer owned by the caller. The pipeline
// reads it during ProcessFrame and never retains a reference.
type Frame struct {
	Width  int
	Height int
	// Pix holds one intensity byte per pixel, row-major.
	Pix []uint8
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At returns the intensity at (x, y). Callers must stay in bounds.
func (f Frame) At(x, y int) uint8 { return f.Pix[y*f.Width+x] }

// Set writes the intensity at (x, y). Callers must stay in bounds.
func (f *Frame) Set(x, y int, v uint8) { f.Pix[y*f.Width+x] = v }

// Fill sets every pixel to v.
func (f *Frame) Fill(v uint8) {
	for i := range f.Pix {
		f.Pix[i] = v
	}
}

func (f Frame) validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("frame resolution %dx%d must be positive", f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height {
		return fmt.Errorf("frame buffer holds %d pixels, want %d", len(f.Pix), f.Width*f.Height)
	}
	return nil
}

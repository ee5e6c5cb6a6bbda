package motion

import "fmt"

// BackgroundModel maintains a per-pixel exponential moving average of recent
// frames. A pixel is foreground when its deviation from the average exceeds
// the configured threshold.
//
// The model updates continuously on every absorbed frame and is never reset
// mid-session; Reset exists only for explicit session restarts.
type BackgroundModel struct {
	width  int
	height int
	mean   []float32

	alpha        float32
	warmupFrames int
	absorbed     int
}

// NewBackgroundModel returns an empty model. The pixel grid is sized lazily
// from the first absorbed frame.
func NewBackgroundModel(updateFraction float64, warmupFrames int) *BackgroundModel {
	return &BackgroundModel{
		alpha:        float32(updateFraction),
		warmupFrames: warmupFrames,
	}
}

// Ready reports whether the warm-up period has completed. Until then the
// differencer emits no candidates; the model only seeds itself.
func (m *BackgroundModel) Ready() bool {
	return m.mean != nil && m.absorbed >= m.warmupFrames
}

// FramesAbsorbed returns how many frames the model has blended so far.
func (m *BackgroundModel) FramesAbsorbed() int { return m.absorbed }

// Reset drops all accumulated state. Only valid between sessions.
func (m *BackgroundModel) Reset() {
	m.mean = nil
	m.absorbed = 0
}

// Absorb blends the frame into the running average. The first frame seeds
// the model; later frames must match its resolution.
func (m *BackgroundModel) Absorb(f Frame) error {
	if err := f.validate(); err != nil {
		return err
	}
	if m.mean == nil {
		m.width = f.Width
		m.height = f.Height
		m.mean = make([]float32, len(f.Pix))
		for i, px := range f.Pix {
			m.mean[i] = float32(px)
		}
		m.absorbed = 1
		return nil
	}
	if f.Width != m.width || f.Height != m.height {
		return fmt.Errorf("frame resolution %dx%d does not match background %dx%d",
			f.Width, f.Height, m.width, m.height)
	}
	a := m.alpha
	for i, px := range f.Pix {
		m.mean[i] += a * (float32(px) - m.mean[i])
	}
	m.absorbed++
	return nil
}

// Mask writes the foreground mask for f into dst: dst[i] is true where the
// pixel deviates from the background average by more than threshold. dst must
// hold one entry per pixel.
func (m *BackgroundModel) Mask(f Frame, threshold uint8, dst []bool) error {
	if m.mean == nil {
		return fmt.Errorf("background model is empty")
	}
	if f.Width != m.width || f.Height != m.height {
		return fmt.Errorf("frame resolution %dx%d does not match background %dx%d",
			f.Width, f.Height, m.width, m.height)
	}
	if len(dst) != len(f.Pix) {
		return fmt.Errorf("mask holds %d entries, want %d", len(dst), len(f.Pix))
	}
	th := float32(threshold)
	for i, px := range f.Pix {
		diff := float32(px) - m.mean[i]
		if diff < 0 {
			diff = -diff
		}
		dst[i] = diff > th
	}
	return nil
}

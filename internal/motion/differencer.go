package motion

// FrameDifferencer turns one incoming frame into raw motion candidates:
// background subtraction, thresholding, 8-connected component labeling, and
// the raw area band. Artifact filtering happens afterwards.
type FrameDifferencer struct {
	cfg   Config
	model *BackgroundModel

	// scratch buffers reused across frames
	mask  []bool
	stack []int
}

// NewFrameDifferencer builds a differencer with a fresh background model.
// The config must already be validated.
func NewFrameDifferencer(cfg Config) *FrameDifferencer {
	return &FrameDifferencer{
		cfg:   cfg,
		model: NewBackgroundModel(cfg.UpdateFraction, cfg.WarmupFrames),
	}
}

// Model exposes the underlying background model (read-mostly; used for
// warm-up inspection and explicit restarts).
func (d *FrameDifferencer) Model() *BackgroundModel { return d.model }

// Reset drops the background model for an explicit session restart.
func (d *FrameDifferencer) Reset() { d.model.Reset() }

// Candidates processes one frame: during warm-up it only feeds the background
// model and returns no candidates; afterwards it returns every connected
// foreground component whose area falls inside [MinArea, MaxArea].
func (d *FrameDifferencer) Candidates(f Frame) ([]Candidate, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if f.Width != d.cfg.FrameWidth || f.Height != d.cfg.FrameHeight {
		return nil, &FrameSizeError{Got: [2]int{f.Width, f.Height}, Want: [2]int{d.cfg.FrameWidth, d.cfg.FrameHeight}}
	}

	if !d.model.Ready() {
		if err := d.model.Absorb(f); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if len(d.mask) != len(f.Pix) {
		d.mask = make([]bool, len(f.Pix))
	}
	if err := d.model.Mask(f, d.cfg.Threshold, d.mask); err != nil {
		return nil, err
	}
	// The model keeps adapting after warm-up so slow scene changes are
	// absorbed rather than detected forever.
	if err := d.model.Absorb(f); err != nil {
		return nil, err
	}

	return d.label(f.Width, f.Height), nil
}

// FrameSizeError reports a frame that does not match the configured
// resolution. Such frames are skipped without disturbing the background model.
type FrameSizeError struct {
	Got  [2]int
	Want [2]int
}

func (e *FrameSizeError) Error() string {
	return "frame resolution mismatch"
}

// label runs 8-connected component extraction over the current mask and
// returns candidates within the raw area band.
func (d *FrameDifferencer) label(width, height int) []Candidate {
	var out []Candidate
	mask := d.mask
	stack := d.stack[:0]

	for start := range mask {
		if !mask[start] {
			continue
		}
		// Flood-fill this component, clearing mask entries as visited.
		mask[start] = false
		stack = append(stack, start)
		area := 0
		minX, minY := start%width, start/width
		maxX, maxY := minX, minY

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			area++
			x, y := idx%width, idx/width
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= height {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= width || (dx == 0 && dy == 0) {
						continue
					}
					nidx := ny*width + nx
					if mask[nidx] {
						mask[nidx] = false
						stack = append(stack, nidx)
					}
				}
			}
		}

		if area < d.cfg.MinArea || area > d.cfg.MaxArea {
			continue
		}
		bounds := Rect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
		out = append(out, Candidate{
			Bounds: bounds,
			Area:   area,
			Center: bounds.Mid(),
		})
	}
	d.stack = stack
	return out
}

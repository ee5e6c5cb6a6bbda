// Package replay generates synthetic camera frames for deterministic
// end-to-end runs: a flat background with a single bright blob moving along
// a parametric pixel trajectory.
package replay

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/skywatch-data/stereotrack/internal/motion"
)

// Trajectory maps elapsed session time to the blob's center pixel.
type Trajectory func(elapsed time.Duration) (x, y float64)

// FixedTrajectory keeps the blob centered at (x, y) in every frame.
func FixedTrajectory(x, y float64) Trajectory {
	return func(time.Duration) (float64, float64) { return x, y }
}

// LinearTrajectory moves the blob from (x0, y0) at (vx, vy) pixels/second.
func LinearTrajectory(x0, y0, vx, vy float64) Trajectory {
	return func(elapsed time.Duration) (float64, float64) {
		s := elapsed.Seconds()
		return x0 + vx*s, y0 + vy*s
	}
}

// SyntheticConfig describes a synthetic camera feed.
type SyntheticConfig struct {
	Width  int
	Height int
	// BlobSize is the rendered square's edge length in pixels.
	BlobSize int
	// Background and BlobValue are the flat intensities of scene and blob.
	Background uint8
	BlobValue  uint8
	// FrameInterval is the simulated capture period.
	FrameInterval time.Duration
	// Start anchors frame timestamps; MaxFrames bounds the feed
	// (0 means unbounded).
	Start     time.Time
	MaxFrames int
}

// Validate rejects unusable feed parameters.
func (c SyntheticConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("resolution %dx%d must be positive", c.Width, c.Height)
	}
	if c.BlobSize <= 0 {
		return fmt.Errorf("blob size %d must be positive", c.BlobSize)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval %v must be positive", c.FrameInterval)
	}
	return nil
}

// SyntheticSource implements track.FrameSource with rendered frames and
// exact, reproducible timestamps: frame n carries Start + n*FrameInterval.
type SyntheticSource struct {
	cfg  SyntheticConfig
	traj Trajectory
	n    int
}

// NewSyntheticSource validates cfg and returns a source following traj.
func NewSyntheticSource(cfg SyntheticConfig, traj Trajectory) (*SyntheticSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if traj == nil {
		traj = FixedTrajectory(float64(cfg.Width)/2, float64(cfg.Height)/2)
	}
	return &SyntheticSource{cfg: cfg, traj: traj}, nil
}

// Next renders the next frame. After MaxFrames it reports io.EOF.
func (s *SyntheticSource) Next(ctx context.Context) (motion.Frame, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return motion.Frame{}, time.Time{}, err
	}
	if s.cfg.MaxFrames > 0 && s.n >= s.cfg.MaxFrames {
		return motion.Frame{}, time.Time{}, io.EOF
	}
	elapsed := time.Duration(s.n) * s.cfg.FrameInterval
	ts := s.cfg.Start.Add(elapsed)
	x, y := s.traj(elapsed)
	frame := RenderFrame(s.cfg, x, y)
	s.n++
	return frame, ts, nil
}

// FramesEmitted returns how many frames the source has produced.
func (s *SyntheticSource) FramesEmitted() int { return s.n }

// RenderFrame draws one frame: flat background plus a BlobSize square
// centered at (cx, cy), clipped to the frame. Warm-up callers pass a center
// far outside the frame to render pure background.
func RenderFrame(cfg SyntheticConfig, cx, cy float64) motion.Frame {
	f := motion.NewFrame(cfg.Width, cfg.Height)
	f.Fill(cfg.Background)
	half := cfg.BlobSize / 2
	x0 := int(cx) - half
	y0 := int(cy) - half
	for y := y0; y < y0+cfg.BlobSize; y++ {
		if y < 0 || y >= cfg.Height {
			continue
		}
		for x := x0; x < x0+cfg.BlobSize; x++ {
			if x < 0 || x >= cfg.Width {
				continue
			}
			f.Set(x, y, cfg.BlobValue)
		}
	}
	return f
}

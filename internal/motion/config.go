package motion

import "fmt"

// Defaults shared across detection profiles.
const (
	// DefaultWarmupFrames is how many frames the background model absorbs
	// before the differencer emits its first candidates.
	DefaultWarmupFrames = 30
	// DefaultUpdateFraction is the background EMA blend factor per frame.
	DefaultUpdateFraction = 0.05
	// DefaultLogCapacity bounds the per-camera motion log.
	DefaultLogCapacity = 50
)

// Config is the immutable per-camera tuning snapshot. It is resolved once at
// session start; per-frame processing never reads live-mutable settings.
type Config struct {
	// FrameWidth and FrameHeight pin the expected frame resolution. Frames
	// of any other size are rejected.
	FrameWidth  int
	FrameHeight int
	// FrameRate is the nominal capture rate, used to normalize speeds to
	// pixels per frame.
	FrameRate float64

	// Threshold is the minimum per-pixel deviation from the background
	// model (intensity levels) for a pixel to count as foreground.
	Threshold uint8
	// MinArea and MaxArea bound raw candidate area in pixels.
	MinArea int
	MaxArea int

	// MinMovement is the minimum pixel displacement from the previous
	// accepted detection; smaller movements are rejected as drift.
	MinMovement float64
	// ArtifactMinArea and ArtifactMaxArea are the tighter anti-cloud area
	// band applied after the raw band.
	ArtifactMinArea int
	ArtifactMaxArea int
	// MinSpeed is the minimum pixels-per-frame speed over the recent
	// detection history.
	MinSpeed float64

	// WarmupFrames is the background warm-up length in frames.
	WarmupFrames int
	// UpdateFraction is the background EMA blend factor in (0, 1].
	UpdateFraction float64
	// LogCapacity bounds the camera motion log (oldest evicted first).
	LogCapacity int
}

// MosquitoProfile targets small fast insects on a near camera.
func MosquitoProfile() Config {
	return Config{
		FrameWidth:      640,
		FrameHeight:     480,
		FrameRate:       60,
		Threshold:       8,
		MinArea:         15,
		MaxArea:         800,
		MinMovement:     8,
		ArtifactMinArea: 20,
		ArtifactMaxArea: 600,
		MinSpeed:        12,
		WarmupFrames:    DefaultWarmupFrames,
		UpdateFraction:  DefaultUpdateFraction,
		LogCapacity:     DefaultLogCapacity,
	}
}

// BirdProfile targets birds and mid-size flying objects.
func BirdProfile() Config {
	return Config{
		FrameWidth:      800,
		FrameHeight:     600,
		FrameRate:       30,
		Threshold:       12,
		MinArea:         30,
		MaxArea:         6000,
		MinMovement:     15,
		ArtifactMinArea: 50,
		ArtifactMaxArea: 4000,
		MinSpeed:        20,
		WarmupFrames:    DefaultWarmupFrames,
		UpdateFraction:  DefaultUpdateFraction,
		LogCapacity:     DefaultLogCapacity,
	}
}

// AircraftProfile targets large, distant, comparatively slow objects.
func AircraftProfile() Config {
	return Config{
		FrameWidth:      1280,
		FrameHeight:     720,
		FrameRate:       15,
		Threshold:       40,
		MinArea:         500,
		MaxArea:         50000,
		MinMovement:     20,
		ArtifactMinArea: 600,
		ArtifactMaxArea: 45000,
		MinSpeed:        6,
		WarmupFrames:    DefaultWarmupFrames,
		UpdateFraction:  DefaultUpdateFraction,
		LogCapacity:     DefaultLogCapacity,
	}
}

// CustomProfile is the neutral starting point for hand tuning.
func CustomProfile() Config {
	return Config{
		FrameWidth:      640,
		FrameHeight:     480,
		FrameRate:       30,
		Threshold:       25,
		MinArea:         100,
		MaxArea:         10000,
		MinMovement:     12,
		ArtifactMinArea: 100,
		ArtifactMaxArea: 8000,
		MinSpeed:        10,
		WarmupFrames:    DefaultWarmupFrames,
		UpdateFraction:  DefaultUpdateFraction,
		LogCapacity:     DefaultLogCapacity,
	}
}

// ProfileByName resolves a named detection profile.
func ProfileByName(name string) (Config, error) {
	switch name {
	case "mosquito":
		return MosquitoProfile(), nil
	case "bird":
		return BirdProfile(), nil
	case "aircraft":
		return AircraftProfile(), nil
	case "custom":
		return CustomProfile(), nil
	default:
		return Config{}, fmt.Errorf("unknown detection profile %q", name)
	}
}

// Validate rejects inconsistent configuration eagerly, before any frame is
// processed.
func (c Config) Validate() error {
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("frame resolution %dx%d must be positive", c.FrameWidth, c.FrameHeight)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame rate %v must be positive", c.FrameRate)
	}
	if c.MinArea <= 0 {
		return fmt.Errorf("min area %d must be positive", c.MinArea)
	}
	if c.MinArea > c.MaxArea {
		return fmt.Errorf("min area %d exceeds max area %d", c.MinArea, c.MaxArea)
	}
	if c.ArtifactMinArea > c.ArtifactMaxArea {
		return fmt.Errorf("artifact min area %d exceeds artifact max area %d", c.ArtifactMinArea, c.ArtifactMaxArea)
	}
	if c.MinMovement < 0 {
		return fmt.Errorf("min movement %v must not be negative", c.MinMovement)
	}
	if c.MinSpeed < 0 {
		return fmt.Errorf("min speed %v must not be negative", c.MinSpeed)
	}
	if c.WarmupFrames < 0 {
		return fmt.Errorf("warmup frames %d must not be negative", c.WarmupFrames)
	}
	if c.UpdateFraction <= 0 || c.UpdateFraction > 1 {
		return fmt.Errorf("update fraction %v must be in (0, 1]", c.UpdateFraction)
	}
	if c.LogCapacity <= 0 {
		return fmt.Errorf("log capacity %d must be positive", c.LogCapacity)
	}
	return nil
}

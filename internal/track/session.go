package track

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skywatch-data/stereotrack/internal/geom"
	"github.com/skywatch-data/stereotrack/internal/monitoring"
	"github.com/skywatch-data/stereotrack/internal/motion"
	"github.com/skywatch-data/stereotrack/internal/timeutil"
)

// TriangulatedPoint is one fused 3D estimate, the session's output value.
// Immutable after creation.
type TriangulatedPoint struct {
	Position   geom.FusedPoint
	Set        SynchronizedSet
	ComputedAt time.Time
}

// SessionConfig collects the cross-camera tuning of one tracking session.
type SessionConfig struct {
	Sync         SynchronizerConfig
	Triangulator geom.TriangulatorConfig
	// ConsumerInterval paces the synchronize-and-triangulate cycle.
	ConsumerInterval time.Duration
}

// DefaultSessionConfig paces the consumer at 400 ms with default
// synchronizer and triangulator tuning.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Sync:             DefaultSynchronizerConfig(),
		Triangulator:     geom.DefaultTriangulatorConfig(),
		ConsumerInterval: 400 * time.Millisecond,
	}
}

// CameraSetup binds one camera's detection tuning to its rig pose.
type CameraSetup struct {
	ID        motion.CameraID
	Detection motion.Config
	Pose      geom.CameraPose
}

// Archive receives accepted detections and fused estimates for persistence.
// Implementations must not block the pipeline; archive errors are reported
// as non-fatal events.
type Archive interface {
	RecordDetection(sessionID string, d motion.Detection) error
	RecordTriangulation(sessionID string, p TriangulatedPoint) error
}

// FrameSource delivers frames for one camera. Next blocks until a frame is
// available, the source is exhausted (io.EOF), or ctx is done.
type FrameSource interface {
	Next(ctx context.Context) (motion.Frame, time.Time, error)
}

type cameraState struct {
	id       motion.CameraID
	pipeline *motion.Pipeline
	pose     geom.CameraPose

	// mu serializes ProcessFrame for this camera. Each camera normally has
	// a single producer goroutine; the lock keeps misbehaving callers from
	// corrupting the background model.
	mu sync.Mutex
}

// Session owns the full engine for one tracking run: per-camera pipelines,
// the synchronizer, the triangulator, and the latest estimate. Producers
// append to their own camera's motion log; the consumer cycle reads
// snapshots, so neither side blocks the other.
type Session struct {
	id      string
	cfg     SessionConfig
	clock   timeutil.Clock
	archive Archive

	cameras []*cameraState
	byID    map[motion.CameraID]*cameraState

	synchronizer *Synchronizer
	triangulator *geom.Triangulator

	mu     sync.RWMutex
	latest *TriangulatedPoint
}

// NewSession validates every camera and tuning struct eagerly and assembles
// the engine. clock may be nil for the real clock; archive may be nil to
// disable persistence. Camera order is preserved: it defines synchronizer
// tie-breaks and pairwise iteration order.
func NewSession(cfg SessionConfig, cameras []CameraSetup, clock timeutil.Clock, archive Archive) (*Session, error) {
	if len(cameras) == 0 {
		return nil, errors.New("session needs at least one camera")
	}
	if cfg.ConsumerInterval <= 0 {
		return nil, fmt.Errorf("consumer interval %v must be positive", cfg.ConsumerInterval)
	}
	synchronizer, err := NewSynchronizer(cfg.Sync)
	if err != nil {
		return nil, err
	}
	triangulator, err := geom.NewTriangulator(cfg.Triangulator)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	s := &Session{
		id:           uuid.NewString(),
		cfg:          cfg,
		clock:        clock,
		archive:      archive,
		byID:         make(map[motion.CameraID]*cameraState, len(cameras)),
		synchronizer: synchronizer,
		triangulator: triangulator,
	}
	for _, cam := range cameras {
		if _, dup := s.byID[cam.ID]; dup {
			return nil, fmt.Errorf("duplicate camera id %q", cam.ID)
		}
		if err := cam.Pose.Validate(); err != nil {
			return nil, fmt.Errorf("camera %s pose: %w", cam.ID, err)
		}
		pipeline, err := motion.NewPipeline(cam.ID, cam.Detection)
		if err != nil {
			return nil, err
		}
		state := &cameraState{id: cam.ID, pipeline: pipeline, pose: cam.Pose}
		s.cameras = append(s.cameras, state)
		s.byID[cam.ID] = state
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Cameras returns the registered camera IDs in registration order.
func (s *Session) Cameras() []motion.CameraID {
	out := make([]motion.CameraID, len(s.cameras))
	for i, c := range s.cameras {
		out[i] = c.id
	}
	return out
}

// ProcessFrame feeds one frame from the acquisition layer into the camera's
// pipeline and returns the annotated detections (accepted and rejected).
func (s *Session) ProcessFrame(camera motion.CameraID, f motion.Frame, ts time.Time) ([]motion.Detection, error) {
	cam, ok := s.byID[camera]
	if !ok {
		return nil, fmt.Errorf("unknown camera %q", camera)
	}
	cam.mu.Lock()
	detections, err := cam.pipeline.ProcessFrame(f, ts)
	cam.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if s.archive != nil {
		for _, d := range detections {
			if !d.Accepted {
				continue
			}
			if archErr := s.archive.RecordDetection(s.id, d); archErr != nil {
				monitoring.Logf("session %s: archive detection: %v", s.id, archErr)
			}
		}
	}
	return detections, nil
}

// MotionLog returns a snapshot of one camera's accepted detections, oldest
// first, for rendering rays and points. Unknown cameras yield nil.
func (s *Session) MotionLog(camera motion.CameraID) []motion.Detection {
	cam, ok := s.byID[camera]
	if !ok {
		return nil
	}
	return cam.pipeline.Log().Snapshot()
}

// LatestTriangulation returns the most recent fused estimate, or nil before
// the first. The value is retained until a later cycle replaces it, so
// repeated calls without new frames return the same point.
func (s *Session) LatestTriangulation() *TriangulatedPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Cycle runs one synchronize-and-triangulate pass and returns the estimate
// it produced, or nil when no cross-camera match or no qualifying pair
// exists this cycle. A nil cycle leaves the previous latest estimate intact.
func (s *Session) Cycle() *TriangulatedPoint {
	now := s.clock.Now()
	views := make([]CameraLogView, len(s.cameras))
	for i, cam := range s.cameras {
		views[i] = CameraLogView{Camera: cam.id, Detections: cam.pipeline.Log().Snapshot()}
	}

	set := s.synchronizer.Match(views, now)
	if len(set) < 2 {
		return nil
	}

	// Pairwise intersections in camera registration order.
	var estimates []geom.PairEstimate
	for i := 0; i < len(s.cameras); i++ {
		d1, ok1 := set[s.cameras[i].id]
		if !ok1 {
			continue
		}
		cfg1 := s.cameras[i].pipeline.Config()
		ray1 := s.cameras[i].pose.RayThrough(d1.Center.X, d1.Center.Y, cfg1.FrameWidth, cfg1.FrameHeight)
		for j := i + 1; j < len(s.cameras); j++ {
			d2, ok2 := set[s.cameras[j].id]
			if !ok2 {
				continue
			}
			cfg2 := s.cameras[j].pipeline.Config()
			ray2 := s.cameras[j].pose.RayThrough(d2.Center.X, d2.Center.Y, cfg2.FrameWidth, cfg2.FrameHeight)
			if est, ok := s.triangulator.Intersect(ray1, ray2); ok {
				estimates = append(estimates, est)
			}
		}
	}

	fused, ok := s.triangulator.Fuse(estimates)
	if !ok {
		return nil
	}
	point := &TriangulatedPoint{
		Position:   fused,
		Set:        set,
		ComputedAt: now,
	}
	s.mu.Lock()
	s.latest = point
	s.mu.Unlock()

	if s.archive != nil {
		if err := s.archive.RecordTriangulation(s.id, *point); err != nil {
			monitoring.Logf("session %s: archive triangulation: %v", s.id, err)
		}
	}
	return point
}

// RunCamera drives one camera's producer loop until ctx is done or the
// source reports io.EOF. Per-frame errors are non-fatal: they are logged and
// the loop continues, so one camera's trouble never aborts the others.
func (s *Session) RunCamera(ctx context.Context, camera motion.CameraID, src FrameSource) error {
	if _, ok := s.byID[camera]; !ok {
		return fmt.Errorf("unknown camera %q", camera)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, ts, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if err != nil {
			monitoring.Logf("camera %s: frame source: %v", camera, err)
			s.clock.Sleep(100 * time.Millisecond)
			continue
		}
		if _, err := s.ProcessFrame(camera, frame, ts); err != nil {
			monitoring.Logf("camera %s: process frame: %v", camera, err)
		}
	}
}

// RunConsumer drives the synchronize-and-triangulate cycle on the configured
// interval until ctx is done.
func (s *Session) RunConsumer(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.cfg.ConsumerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			s.Cycle()
		}
	}
}

// Reset returns every pipeline to its pre-session state and clears the
// latest estimate. Only valid while no producer or consumer loop is running.
func (s *Session) Reset() {
	for _, cam := range s.cameras {
		cam.mu.Lock()
		cam.pipeline.Reset()
		cam.mu.Unlock()
	}
	s.mu.Lock()
	s.latest = nil
	s.mu.Unlock()
}

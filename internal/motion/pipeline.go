package motion

import (
	"errors"
	"fmt"
	"time"
)

// ErrStaleTimestamp reports a frame whose timestamp does not advance the
// camera's clock. Timestamps must strictly increase within a session.
var ErrStaleTimestamp = errors.New("frame timestamp does not advance")

// Pipeline is the complete per-camera processing chain: frame differencing,
// artifact filtering, and the bounded motion log. One pipeline is owned by
// exactly one camera loop; only the log is shared with readers.
type Pipeline struct {
	camera      CameraID
	cfg         Config
	differencer *FrameDifferencer
	filter      *ArtifactFilter
	log         *MotionLog
	lastTS      time.Time
}

// NewPipeline validates cfg and assembles the chain for one camera.
func NewPipeline(camera CameraID, cfg Config) (*Pipeline, error) {
	if camera == "" {
		return nil, fmt.Errorf("camera id must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("camera %s: %w", camera, err)
	}
	return &Pipeline{
		camera:      camera,
		cfg:         cfg,
		differencer: NewFrameDifferencer(cfg),
		filter:      NewArtifactFilter(cfg),
		log:         NewMotionLog(cfg.LogCapacity),
	}, nil
}

// Camera returns the owning camera's ID.
func (p *Pipeline) Camera() CameraID { return p.camera }

// Config returns the immutable tuning snapshot.
func (p *Pipeline) Config() Config { return p.cfg }

// Log returns the camera's motion log for read-only consumers.
func (p *Pipeline) Log() *MotionLog { return p.log }

// ProcessFrame runs one frame through differencing and artifact filtering.
// It returns every candidate as an annotated Detection, accepted or not;
// accepted detections are also appended to the motion log. During background
// warm-up the result is empty.
func (p *Pipeline) ProcessFrame(f Frame, ts time.Time) ([]Detection, error) {
	if !ts.After(p.lastTS) {
		return nil, fmt.Errorf("camera %s at %v: %w", p.camera, ts, ErrStaleTimestamp)
	}
	candidates, err := p.differencer.Candidates(f)
	if err != nil {
		return nil, fmt.Errorf("camera %s: %w", p.camera, err)
	}
	p.lastTS = ts
	if len(candidates) == 0 {
		return nil, nil
	}

	out := make([]Detection, 0, len(candidates))
	for _, c := range candidates {
		history := p.log.Last(3)
		reason, tags := p.filter.Evaluate(c, history)
		d := Detection{
			Camera:    p.camera,
			Center:    c.Center,
			Bounds:    c.Bounds,
			Area:      c.Area,
			Timestamp: ts,
			Accepted:  reason == RejectNone,
			Reason:    reason,
			Tags:      tags,
		}
		if d.Accepted {
			p.log.Append(d)
		}
		out = append(out, d)
	}
	return out, nil
}

// Reset returns the pipeline to its pre-session state: background model
// dropped, motion log emptied, timestamp watermark cleared.
func (p *Pipeline) Reset() {
	p.differencer.Reset()
	p.log.Clear()
	p.lastTS = time.Time{}
}

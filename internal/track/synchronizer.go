// Package track orchestrates the multi-camera session: per-camera pipelines,
// cross-camera temporal synchronization, and the triangulation cycle.
package track

import (
	"fmt"
	"time"

	"github.com/skywatch-data/stereotrack/internal/motion"
)

// SynchronizerConfig tunes cross-camera temporal matching.
type SynchronizerConfig struct {
	// Tolerance is the maximum timestamp difference for two detections to
	// count as the same physical event.
	Tolerance time.Duration
	// RecencyWindow limits matching to detections younger than this.
	RecencyWindow time.Duration
}

// DefaultSynchronizerConfig matches the live-session tuning: 200 ms sync
// tolerance over the last second of detections.
func DefaultSynchronizerConfig() SynchronizerConfig {
	return SynchronizerConfig{
		Tolerance:     200 * time.Millisecond,
		RecencyWindow: time.Second,
	}
}

// Validate rejects non-positive windows eagerly.
func (c SynchronizerConfig) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("sync tolerance %v must be positive", c.Tolerance)
	}
	if c.RecencyWindow <= 0 {
		return fmt.Errorf("recency window %v must be positive", c.RecencyWindow)
	}
	return nil
}

// CameraLogView is one camera's motion-log snapshot handed to the
// synchronizer. Views are passed in camera registration order, which defines
// the deterministic tie-break between equally good matches.
type CameraLogView struct {
	Camera     motion.CameraID
	Detections []motion.Detection
}

// SynchronizedSet maps each participating camera to the one detection that
// represents the shared physical event. At most one entry per camera; at
// least two entries are needed for triangulation. Created transiently per
// synchronizer invocation.
type SynchronizedSet map[motion.CameraID]motion.Detection

// Synchronizer finds cross-camera detections inside the tolerance window.
type Synchronizer struct {
	cfg SynchronizerConfig
}

// NewSynchronizer validates cfg and returns a synchronizer.
func NewSynchronizer(cfg SynchronizerConfig) (*Synchronizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Synchronizer{cfg: cfg}, nil
}

// Match scans the per-camera views for the best cross-camera pair: among all
// unordered camera pairs, the detection pair minimizing |t1-t2|, kept only
// when strictly inside the tolerance. Remaining cameras are then extended
// into the set with their detection closest to the winning pair's mean
// timestamp, when that detection is itself inside the tolerance.
//
// Ties in time difference keep the first pair encountered in view order.
// The result is nil when fewer than two cameras have recent detections or no
// pair qualifies; that is the ordinary no-data outcome, not an error.
func (s *Synchronizer) Match(views []CameraLogView, now time.Time) SynchronizedSet {
	cutoff := now.Add(-s.cfg.RecencyWindow)
	recent := make([]CameraLogView, 0, len(views))
	for _, v := range views {
		var fresh []motion.Detection
		for _, d := range v.Detections {
			if d.Timestamp.After(cutoff) {
				fresh = append(fresh, d)
			}
		}
		if len(fresh) > 0 {
			recent = append(recent, CameraLogView{Camera: v.Camera, Detections: fresh})
		}
	}
	if len(recent) < 2 {
		return nil
	}

	var (
		bestDiff = s.cfg.Tolerance
		bestA    = -1
		bestB    = -1
		bestDetA motion.Detection
		bestDetB motion.Detection
		found    bool
	)
	for i := 0; i < len(recent); i++ {
		for j := i + 1; j < len(recent); j++ {
			for _, d1 := range recent[i].Detections {
				for _, d2 := range recent[j].Detections {
					diff := absDuration(d1.Timestamp.Sub(d2.Timestamp))
					// Strict comparisons: the first pair at a given
					// difference wins, and a difference equal to the
					// tolerance does not qualify.
					if diff < bestDiff {
						bestDiff = diff
						bestA, bestB = i, j
						bestDetA, bestDetB = d1, d2
						found = true
					}
				}
			}
		}
	}
	if !found {
		return nil
	}

	set := SynchronizedSet{
		recent[bestA].Camera: bestDetA,
		recent[bestB].Camera: bestDetB,
	}

	// Extension: each remaining camera may join with its detection closest
	// to the winning pair's mean timestamp, within the same tolerance.
	target := bestDetA.Timestamp.Add(bestDetB.Timestamp.Sub(bestDetA.Timestamp) / 2)
	for i, v := range recent {
		if i == bestA || i == bestB {
			continue
		}
		bestExt := s.cfg.Tolerance
		var pick motion.Detection
		ok := false
		for _, d := range v.Detections {
			diff := absDuration(d.Timestamp.Sub(target))
			if diff < bestExt {
				bestExt = diff
				pick = d
				ok = true
			}
		}
		if ok {
			set[v.Camera] = pick
		}
	}
	return set
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

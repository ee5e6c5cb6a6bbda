// Package motion implements the per-camera motion detection pipeline: an
// adaptive background model, frame differencing with connected-component
// extraction, and the artifact filter that separates real moving targets from
// cloud drift, reflections and sensor noise.
package motion

import (
	"fmt"
	"math"
	"time"
)

// CameraID identifies one camera within a tracking session.
type CameraID string

// PixelPoint is a 2D pixel coordinate. Detection centers are bounding-box
// midpoints, not centroids, so that movement and speed filters stay
// comparable with ray casting downstream.
type PixelPoint struct {
	X float64
	Y float64
}

// Dist returns the Euclidean pixel distance to q.
func (p PixelPoint) Dist(q PixelPoint) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is a pixel-aligned bounding box.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Mid returns the bounding-box midpoint.
func (r Rect) Mid() PixelPoint {
	return PixelPoint{X: float64(r.X) + float64(r.W)/2, Y: float64(r.Y) + float64(r.H)/2}
}

// RejectReason classifies why the artifact filter discarded a candidate.
type RejectReason int

const (
	// RejectNone marks an accepted detection.
	RejectNone RejectReason = iota
	// RejectTooSlow: moved less than MinMovement pixels since the last
	// accepted detection (cloud drift, stationary branches).
	RejectTooSlow
	// RejectTooSmall: area below the artifact band (reflections, noise).
	RejectTooSmall
	// RejectTooLarge: area above the artifact band (cloud formations).
	RejectTooLarge
	// RejectTooSlowSpeed: pixels-per-frame speed below MinSpeed (crawling
	// artifacts that pass the raw movement check).
	RejectTooSlowSpeed
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectTooSlow:
		return "too_slow"
	case RejectTooSmall:
		return "too_small"
	case RejectTooLarge:
		return "too_large"
	case RejectTooSlowSpeed:
		return "too_slow_speed"
	default:
		return fmt.Sprintf("reject(%d)", int(r))
	}
}

// Candidate is a raw motion blob emitted by the frame differencer, before
// artifact filtering.
type Candidate struct {
	Bounds Rect
	Area   int
	Center PixelPoint
}

// Detection is one observed moving blob in one frame from one camera.
// Immutable after creation.
type Detection struct {
	Camera    CameraID
	Center    PixelPoint
	Bounds    Rect
	Area      int
	Timestamp time.Time
	Accepted  bool
	Reason    RejectReason
	// Tags carries the short per-rule diagnostic markers (FAST/SLOW,
	// SIZE_OK/TINY/HUGE, TARGET_SPEED/CRAWL, FIRST) in rule order.
	Tags []string
}

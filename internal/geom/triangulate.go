package geom

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"
)

// TriangulatorConfig tunes pairwise ray intersection and fusion.
type TriangulatorConfig struct {
	// GapToleranceMeters is the closest-approach gap at which pair
	// confidence falls to zero (linear falloff).
	GapToleranceMeters float64
	// MinTravel is the floor on each ray's line parameter; intersections
	// behind (or effectively at) a camera are discarded.
	MinTravel float64
	// MinPairConfidence is the floor a pair estimate must clear to enter
	// the fused result.
	MinPairConfidence float64

	// AngleWeighting scales confidence by the sine of the ray angle, so
	// orthogonal rays score higher. Off by default: a clean narrow-baseline
	// stereo pair legitimately intersects at a very shallow angle.
	AngleWeighting bool
	// RangeWeighting penalizes estimates closer than NearLimit or farther
	// than FarLimit from either camera. Off by default.
	RangeWeighting bool
	NearLimit      float64
	FarLimit       float64
}

// DefaultTriangulatorConfig matches the field-tuned bird/insect setup:
// 8 m gap tolerance, 0.1 travel floor, pairs below 0.3 confidence dropped.
func DefaultTriangulatorConfig() TriangulatorConfig {
	return TriangulatorConfig{
		GapToleranceMeters: 8.0,
		MinTravel:          0.1,
		MinPairConfidence:  0.3,
		NearLimit:          0.5,
		FarLimit:           50.0,
	}
}

// Validate rejects inconsistent tuning eagerly.
func (c TriangulatorConfig) Validate() error {
	if c.GapToleranceMeters <= 0 {
		return fmt.Errorf("gap tolerance %v must be positive", c.GapToleranceMeters)
	}
	if c.MinTravel <= 0 {
		return fmt.Errorf("min travel %v must be positive", c.MinTravel)
	}
	if c.MinPairConfidence < 0 || c.MinPairConfidence >= 1 {
		return fmt.Errorf("min pair confidence %v must be in [0, 1)", c.MinPairConfidence)
	}
	if c.RangeWeighting && (c.NearLimit <= 0 || c.FarLimit <= c.NearLimit) {
		return fmt.Errorf("range limits [%v, %v] must be positive and ordered", c.NearLimit, c.FarLimit)
	}
	return nil
}

// parallelEpsilon bounds the normal-equation denominator below which two
// rays are treated as parallel.
const parallelEpsilon = 1e-8

// PairEstimate is one pairwise closest-point-of-approach result.
type PairEstimate struct {
	Point      r3.Vector
	Confidence float64
	// Gap is the residual distance between the two closest points.
	Gap float64
}

// FusedPoint is the confidence-weighted combination of all qualifying pair
// estimates from one synchronizer cycle.
type FusedPoint struct {
	Position   r3.Vector
	Confidence float64
	Pairs      int
}

// Triangulator computes pairwise ray intersections and their weighted fusion.
type Triangulator struct {
	cfg TriangulatorConfig
}

// NewTriangulator validates cfg and returns a triangulator.
func NewTriangulator(cfg TriangulatorConfig) (*Triangulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Triangulator{cfg: cfg}, nil
}

// Config returns the active tuning snapshot.
func (t *Triangulator) Config() TriangulatorConfig { return t.cfg }

// Intersect finds the closest point of approach between two rays and scores
// it. The second return is false when no usable intersection exists: rays
// parallel, or the closest approach lies behind either camera. Numeric
// degeneracy is an ordinary no-result, never an error.
func (t *Triangulator) Intersect(a, b Ray) (PairEstimate, bool) {
	w := a.Origin.Sub(b.Origin)
	da, db := a.Direction, b.Direction

	// Normal equations for min |(a.Origin + t1*da) - (b.Origin + t2*db)|.
	aa := da.Dot(da)
	ab := da.Dot(db)
	bb := db.Dot(db)
	aw := da.Dot(w)
	bw := db.Dot(w)

	denom := aa*bb - ab*ab
	if math.Abs(denom) < parallelEpsilon {
		return PairEstimate{}, false
	}
	t1 := (ab*bw - bb*aw) / denom
	t2 := (aa*bw - ab*aw) / denom
	if t1 < t.cfg.MinTravel || t2 < t.cfg.MinTravel {
		return PairEstimate{}, false
	}

	closest1 := a.Origin.Add(da.Mul(t1))
	closest2 := b.Origin.Add(db.Mul(t2))
	point := closest1.Add(closest2).Mul(0.5)
	gap := closest1.Sub(closest2).Norm()

	confidence := 1 - gap/t.cfg.GapToleranceMeters
	if confidence < 0 {
		confidence = 0
	}
	if t.cfg.AngleWeighting {
		confidence *= angleTerm(da, db)
	}
	if t.cfg.RangeWeighting {
		confidence *= t.rangeTerm(t1) * t.rangeTerm(t2)
	}

	return PairEstimate{Point: point, Confidence: confidence, Gap: gap}, true
}

// angleTerm is the sine of the angle between the (unit) ray directions:
// 1 for orthogonal rays, approaching 0 as they become parallel.
func angleTerm(da, db r3.Vector) float64 {
	s := da.Cross(db).Norm()
	if s > 1 {
		s = 1
	}
	return s
}

// rangeTerm penalizes extreme near/far estimates linearly outside the
// configured range band.
func (t *Triangulator) rangeTerm(travel float64) float64 {
	switch {
	case travel < t.cfg.NearLimit:
		return travel / t.cfg.NearLimit
	case travel > t.cfg.FarLimit:
		f := t.cfg.FarLimit / travel
		return f * f
	default:
		return 1
	}
}

// Fuse combines pair estimates into one weighted point. Estimates at or
// below MinPairConfidence are dropped; if none qualify the second return is
// false and the cycle simply produces no estimate.
func (t *Triangulator) Fuse(estimates []PairEstimate) (FusedPoint, bool) {
	var xs, ys, zs, weights []float64
	for _, e := range estimates {
		if e.Confidence <= t.cfg.MinPairConfidence {
			continue
		}
		xs = append(xs, e.Point.X)
		ys = append(ys, e.Point.Y)
		zs = append(zs, e.Point.Z)
		weights = append(weights, e.Confidence)
	}
	if len(weights) == 0 {
		return FusedPoint{}, false
	}
	fused := FusedPoint{
		Position: r3.Vector{
			X: stat.Mean(xs, weights),
			Y: stat.Mean(ys, weights),
			Z: stat.Mean(zs, weights),
		},
		// Confidence-weighted mean of the pair confidences themselves.
		Confidence: stat.Mean(weights, weights),
		Pairs:      len(weights),
	}
	return fused, true
}

package geom

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTriangulator(t *testing.T, cfg TriangulatorConfig) *Triangulator {
	t.Helper()
	tri, err := NewTriangulator(cfg)
	require.NoError(t, err)
	return tri
}

// rayAt aims a ray from origin straight at target.
func rayAt(origin, target r3.Vector) Ray {
	return Ray{Origin: origin, Direction: target.Sub(origin).Normalize()}
}

func TestIntersectStereoPairHitsTarget(t *testing.T) {
	tri := newTestTriangulator(t, DefaultTriangulatorConfig())
	left, right := SkywardPair()
	target := r3.Vector{X: 0, Y: 2, Z: 2}

	est, ok := tri.Intersect(rayAt(left.Position, target), rayAt(right.Position, target))
	require.True(t, ok)

	assert.InDelta(t, target.X, est.Point.X, 0.01)
	assert.InDelta(t, target.Y, est.Point.Y, 0.01)
	assert.InDelta(t, target.Z, est.Point.Z, 0.01)
	assert.InDelta(t, 0, est.Gap, 1e-9)
	assert.InDelta(t, 1, est.Confidence, 1e-9, "a clean stereo intersection scores full confidence")
}

func TestIntersectParallelRays(t *testing.T) {
	tri := newTestTriangulator(t, DefaultTriangulatorConfig())
	dir := r3.Vector{Y: 1}
	_, ok := tri.Intersect(
		Ray{Origin: r3.Vector{X: -1}, Direction: dir},
		Ray{Origin: r3.Vector{X: 1}, Direction: dir},
	)
	assert.False(t, ok)

	// Antiparallel rays are equally degenerate.
	_, ok = tri.Intersect(
		Ray{Origin: r3.Vector{X: -1}, Direction: dir},
		Ray{Origin: r3.Vector{X: 1}, Direction: dir.Mul(-1)},
	)
	assert.False(t, ok)
}

func TestIntersectBehindCamera(t *testing.T) {
	tri := newTestTriangulator(t, DefaultTriangulatorConfig())

	// Closest approach at t1 = 0, t2 = -1: both under the travel floor.
	_, ok := tri.Intersect(
		Ray{Origin: r3.Vector{}, Direction: r3.Vector{X: 1}},
		Ray{Origin: r3.Vector{Y: 1}, Direction: r3.Vector{Y: 1}},
	)
	assert.False(t, ok)

	// Rays crossing in front of both cameras succeed.
	_, ok = tri.Intersect(
		Ray{Origin: r3.Vector{}, Direction: r3.Vector{X: 1}},
		Ray{Origin: r3.Vector{X: 1, Y: -1}, Direction: r3.Vector{Y: 1}},
	)
	assert.True(t, ok)
}

func TestIntersectGapFalloff(t *testing.T) {
	tri := newTestTriangulator(t, DefaultTriangulatorConfig())

	// Skew lines with a known closest-approach gap g: ray A runs along +X
	// through the origin, ray B runs along +Y offset by g in Z. They pass
	// each other above (5, 0, 0).
	skew := func(g float64) (Ray, Ray) {
		a := Ray{Origin: r3.Vector{}, Direction: r3.Vector{X: 1}}
		b := Ray{Origin: r3.Vector{X: 5, Y: -5, Z: g}, Direction: r3.Vector{Y: 1}}
		return a, b
	}

	tests := []struct {
		gap      float64
		wantConf float64
	}{
		{gap: 0, wantConf: 1},
		{gap: 2, wantConf: 0.75},
		{gap: 4, wantConf: 0.5},
		{gap: 8, wantConf: 0},
		{gap: 12, wantConf: 0}, // clamped, never negative
	}
	for _, tc := range tests {
		a, b := skew(tc.gap)
		est, ok := tri.Intersect(a, b)
		require.True(t, ok, "gap %v", tc.gap)
		assert.InDelta(t, tc.gap, est.Gap, 1e-9)
		assert.InDelta(t, tc.wantConf, est.Confidence, 1e-9, "gap %v", tc.gap)
		// Midpoint of the two closest points.
		assert.InDelta(t, 5, est.Point.X, 1e-9)
		assert.InDelta(t, 0, est.Point.Y, 1e-9)
		assert.InDelta(t, tc.gap/2, est.Point.Z, 1e-9)
	}
}

func TestIntersectAngleWeighting(t *testing.T) {
	cfg := DefaultTriangulatorConfig()
	cfg.AngleWeighting = true
	tri := newTestTriangulator(t, cfg)

	// Orthogonal rays keep their gap confidence untouched.
	est, ok := tri.Intersect(
		Ray{Origin: r3.Vector{}, Direction: r3.Vector{X: 1}},
		Ray{Origin: r3.Vector{X: 1, Y: -1}, Direction: r3.Vector{Y: 1}},
	)
	require.True(t, ok)
	assert.InDelta(t, 1, est.Confidence, 1e-9)

	// A narrow stereo pair intersects at a shallow angle and is discounted.
	left, right := SkywardPair()
	target := r3.Vector{X: 0, Y: 2, Z: 2}
	est, ok = tri.Intersect(rayAt(left.Position, target), rayAt(right.Position, target))
	require.True(t, ok)
	assert.Less(t, est.Confidence, 0.1)
}

func TestIntersectRangeWeighting(t *testing.T) {
	cfg := DefaultTriangulatorConfig()
	cfg.RangeWeighting = true
	cfg.NearLimit = 2
	cfg.FarLimit = 10
	tri := newTestTriangulator(t, cfg)

	cross := func(dist float64) (Ray, Ray) {
		a := Ray{Origin: r3.Vector{}, Direction: r3.Vector{X: 1}}
		b := Ray{Origin: r3.Vector{X: dist, Y: -dist}, Direction: r3.Vector{Y: 1}}
		return a, b
	}

	// Inside the band: no penalty.
	a, b := cross(5)
	est, ok := tri.Intersect(a, b)
	require.True(t, ok)
	assert.InDelta(t, 1, est.Confidence, 1e-9)

	// Too close: linear near penalty on both rays.
	a, b = cross(1)
	est, ok = tri.Intersect(a, b)
	require.True(t, ok)
	assert.InDelta(t, 0.25, est.Confidence, 1e-9)

	// Too far: quadratic far penalty on both rays.
	a, b = cross(20)
	est, ok = tri.Intersect(a, b)
	require.True(t, ok)
	assert.InDelta(t, 0.0625, est.Confidence, 1e-9)
}

func TestFuseWeightedCentroid(t *testing.T) {
	tri := newTestTriangulator(t, DefaultTriangulatorConfig())

	fused, ok := tri.Fuse([]PairEstimate{
		{Point: r3.Vector{X: 0, Y: 2, Z: 2}, Confidence: 1},
		{Point: r3.Vector{X: 2, Y: 2, Z: 2}, Confidence: 0.5},
	})
	require.True(t, ok)
	assert.Equal(t, 2, fused.Pairs)
	assert.InDelta(t, 2.0/3, fused.Position.X, 1e-9)
	assert.InDelta(t, 2, fused.Position.Y, 1e-9)
	assert.InDelta(t, 2, fused.Position.Z, 1e-9)
	// Weighted mean of the confidences: (1*1 + 0.5*0.5) / 1.5.
	assert.InDelta(t, 1.25/1.5, fused.Confidence, 1e-9)
}

func TestFuseConfidenceFloor(t *testing.T) {
	tri := newTestTriangulator(t, DefaultTriangulatorConfig())

	// Exactly at the floor is dropped; just above survives.
	_, ok := tri.Fuse([]PairEstimate{{Point: r3.Vector{X: 1}, Confidence: 0.3}})
	assert.False(t, ok)

	fused, ok := tri.Fuse([]PairEstimate{
		{Point: r3.Vector{X: 1}, Confidence: 0.31},
		{Point: r3.Vector{X: 9}, Confidence: 0.3},
	})
	require.True(t, ok)
	assert.Equal(t, 1, fused.Pairs)
	assert.InDelta(t, 1, fused.Position.X, 1e-9)

	_, ok = tri.Fuse(nil)
	assert.False(t, ok)
}

func TestTriangulatorConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TriangulatorConfig)
	}{
		{"zero gap tolerance", func(c *TriangulatorConfig) { c.GapToleranceMeters = 0 }},
		{"zero travel floor", func(c *TriangulatorConfig) { c.MinTravel = 0 }},
		{"confidence floor at one", func(c *TriangulatorConfig) { c.MinPairConfidence = 1 }},
		{"negative confidence floor", func(c *TriangulatorConfig) { c.MinPairConfidence = -0.1 }},
		{"inverted range band", func(c *TriangulatorConfig) { c.RangeWeighting = true; c.NearLimit = 10; c.FarLimit = 5 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTriangulatorConfig()
			tc.mutate(&cfg)
			_, err := NewTriangulator(cfg)
			assert.Error(t, err)
		})
	}

	_, err := NewTriangulator(DefaultTriangulatorConfig())
	assert.NoError(t, err)
}

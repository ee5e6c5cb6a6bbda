// Package geom converts pixel detections into rig-frame 3D rays and fuses
// pairwise ray intersections into a single weighted position estimate.
package geom

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// vector tolerance for pose validation
const unitTolerance = 1e-9

// CameraPose is the static rig-frame placement of one camera: its position
// in meters relative to the rig origin and the direction model used for ray
// casting (unit base look vector, right vector, up vector, and a single
// field-of-view scale ≈ tan of the half FOV).
//
// A pose is set once per session, from a named preset or explicit values,
// and never changes while tracking runs.
type CameraPose struct {
	Position      r3.Vector
	BaseDirection r3.Vector
	Right         r3.Vector
	Up            r3.Vector
	FOVFactor     float64
}

// NewCameraPose normalizes the direction vectors and validates the result.
func NewCameraPose(position, base, right, up r3.Vector, fovFactor float64) (CameraPose, error) {
	p := CameraPose{
		Position:      position,
		BaseDirection: base.Normalize(),
		Right:         right.Normalize(),
		Up:            up.Normalize(),
		FOVFactor:     fovFactor,
	}
	if err := p.Validate(); err != nil {
		return CameraPose{}, err
	}
	return p, nil
}

// Validate rejects degenerate poses: zero-length direction vectors or a
// non-positive field-of-view factor.
func (p CameraPose) Validate() error {
	if p.FOVFactor <= 0 {
		return fmt.Errorf("fov factor %v must be positive", p.FOVFactor)
	}
	for _, v := range []struct {
		name string
		vec  r3.Vector
	}{
		{"base direction", p.BaseDirection},
		{"right vector", p.Right},
		{"up vector", p.Up},
	} {
		n := v.vec.Norm()
		if n < unitTolerance {
			return fmt.Errorf("%s is zero-length", v.name)
		}
		if math.Abs(n-1) > 1e-6 {
			return fmt.Errorf("%s has norm %v, want unit", v.name, n)
		}
	}
	return nil
}

// CastRay maps a pixel coordinate to a unit direction in the rig frame using
// the simplified pinhole model: pixel coordinates are normalized to [-1, 1]
// around the optical center, then scaled by the FOV factor along the right
// and up vectors. Pure: identical inputs always produce identical outputs.
//
// The zero vector is returned for a non-positive resolution.
func (p CameraPose) CastRay(px, py float64, width, height int) r3.Vector {
	if width <= 0 || height <= 0 {
		return r3.Vector{}
	}
	halfW := float64(width) / 2
	halfH := float64(height) / 2
	normX := (px - halfW) / halfW
	normY := (py - halfH) / halfH

	dir := p.BaseDirection.
		Add(p.Right.Mul(normX * p.FOVFactor)).
		Add(p.Up.Mul(normY * p.FOVFactor))
	return dir.Normalize()
}

// Ray is a half-line from a camera position along a unit direction.
type Ray struct {
	Origin    r3.Vector
	Direction r3.Vector
}

// RayThrough builds the rig-frame ray for a pixel seen by this camera.
func (p CameraPose) RayThrough(px, py float64, width, height int) Ray {
	return Ray{Origin: p.Position, Direction: p.CastRay(px, py, width, height)}
}

// Preset pose geometry recovered from field rigs: a 10 cm stereo baseline
// with both cameras parallel, either elevated 60 degrees for sky watching or
// 45 degrees for tree-line work.
const presetBaselineMeters = 0.10

// SkywardPair returns the left/right poses of the standard sky-watching rig:
// cameras 10 cm apart on the X axis, both looking up at 60 degrees over +Y,
// with a 0.7 FOV factor (about 70 degrees full FOV).
func SkywardPair() (left, right CameraPose) {
	base := r3.Vector{X: 0, Y: 0.5, Z: 0.866}
	up := r3.Vector{X: 0, Y: 0.866, Z: -0.5}
	return parallelPair(base, up, 0.7)
}

// ForwardPair returns the left/right poses of the tree-line rig: the same
// baseline, looking forward-up at 45 degrees with a wider 0.8 FOV factor.
func ForwardPair() (left, right CameraPose) {
	base := r3.Vector{X: 0, Y: 0.7, Z: 0.7}
	up := r3.Vector{X: 0, Y: 0.7, Z: -0.7}
	return parallelPair(base, up, 0.8)
}

func parallelPair(base, up r3.Vector, fov float64) (left, right CameraPose) {
	half := presetBaselineMeters / 2
	rightVec := r3.Vector{X: 1, Y: 0, Z: 0}
	left = CameraPose{
		Position:      r3.Vector{X: -half},
		BaseDirection: base.Normalize(),
		Right:         rightVec,
		Up:            up.Normalize(),
		FOVFactor:     fov,
	}
	right = left
	right.Position = r3.Vector{X: half}
	return left, right
}

// RingPose places camera index of count on a 5 m circle around the rig
// origin, facing the center. Used when more than two cameras surround the
// volume instead of sitting on a stereo bar.
func RingPose(index, count int) (CameraPose, error) {
	if count < 1 {
		return CameraPose{}, fmt.Errorf("ring needs at least one camera, got %d", count)
	}
	if index < 0 || index >= count {
		return CameraPose{}, fmt.Errorf("ring index %d out of range [0, %d)", index, count)
	}
	const radius = 5.0
	angle := 2 * math.Pi * float64(index) / float64(count)
	pos := r3.Vector{X: radius * math.Cos(angle), Y: radius * math.Sin(angle), Z: 0}
	base := pos.Mul(-1).Normalize()
	worldUp := r3.Vector{X: 0, Y: 0, Z: 1}
	right := base.Cross(worldUp).Normalize()
	up := right.Cross(base).Normalize()
	return CameraPose{
		Position:      pos,
		BaseDirection: base,
		Right:         right,
		Up:            up,
		FOVFactor:     0.7,
	}, nil
}

// PresetPoses resolves a named rig preset to count camera poses, in camera
// order. Two-camera presets reject other counts.
func PresetPoses(name string, count int) ([]CameraPose, error) {
	switch name {
	case "skyward-pair":
		if count != 2 {
			return nil, fmt.Errorf("preset %q requires exactly 2 cameras, got %d", name, count)
		}
		l, r := SkywardPair()
		return []CameraPose{l, r}, nil
	case "forward-pair":
		if count != 2 {
			return nil, fmt.Errorf("preset %q requires exactly 2 cameras, got %d", name, count)
		}
		l, r := ForwardPair()
		return []CameraPose{l, r}, nil
	case "ring":
		if count < 2 {
			return nil, fmt.Errorf("preset %q requires at least 2 cameras, got %d", name, count)
		}
		poses := make([]CameraPose, count)
		for i := range poses {
			p, err := RingPose(i, count)
			if err != nil {
				return nil, err
			}
			poses[i] = p
		}
		return poses, nil
	default:
		return nil, fmt.Errorf("unknown pose preset %q", name)
	}
}

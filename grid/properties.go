// Package grid defines the immutable spatial descriptor shared by every voxel data channel,
// ground-truth grid, and Reconstruction in the engine.
package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan"
)

// Properties is an immutable spatial descriptor for a uniform 3D voxel grid. The lower corner
// of the grid's implicit AABB is always the origin; Dimensions gives the upper corner.
type Properties struct {
	// Resolution is the edge length of one voxel, in world units. Always > 0.
	Resolution float64

	// Size is the number of voxels along each axis. Each component is always >= 1.
	Size [3]int

	// Dimensions is (Size - 1) * Resolution: the upper corner of the grid's AABB.
	Dimensions mgl64.Vec3

	// P2IScale is (Size - 1) / Dimensions, used to convert a world point to a fractional index.
	P2IScale mgl64.Vec3
}

// New builds Properties from a resolution and a requested per-axis voxel count. Each axis of
// size is clamped to a minimum of 1; resolution is coerced to its absolute value.
func New(resolution float64, size [3]int) *Properties {
	resolution = math.Abs(resolution)
	for i := range size {
		if size[i] < 1 {
			size[i] = 1
		}
	}

	dims := mgl64.Vec3{
		float64(size[0]-1) * resolution,
		float64(size[1]-1) * resolution,
		float64(size[2]-1) * resolution,
	}

	scale := mgl64.Vec3{}
	for i := 0; i < 3; i++ {
		if dims[i] == 0 {
			// A single-voxel axis has no meaningful scale; leave it at zero so
			// PointToIndex always resolves that axis to index 0.
			scale[i] = 0
			continue
		}
		scale[i] = float64(size[i]-1) / dims[i]
	}

	return &Properties{
		Resolution: resolution,
		Size:       size,
		Dimensions: dims,
		P2IScale:   scale,
	}
}

// NumVoxels returns the total number of voxels in the grid.
func (p *Properties) NumVoxels() int {
	return p.Size[0] * p.Size[1] * p.Size[2]
}

// Center returns the geometric center of the grid's AABB.
func (p *Properties) Center() mgl64.Vec3 {
	return p.Dimensions.Mul(0.5)
}

// IndexValid reports whether idx lies within Size on every axis (and is non-negative).
func (p *Properties) IndexValid(idx [3]int) bool {
	for i := 0; i < 3; i++ {
		if idx[i] < 0 || idx[i] >= p.Size[i] {
			return false
		}
	}
	return true
}

// LinearIndex performs the unchecked X-fastest linearization of idx. Callers must have already
// validated idx with IndexValid; out-of-range input produces a meaningless (but non-panicking)
// result.
func (p *Properties) LinearIndex(idx [3]int) int {
	return idx[0] + idx[1]*p.Size[0] + idx[2]*p.Size[0]*p.Size[1]
}

// At performs the checked X-fastest linearization of idx, failing with a VoxelOutOfRangeError
// if idx lies outside Size.
func (p *Properties) At(idx [3]int) (int, error) {
	if !p.IndexValid(idx) {
		return 0, forgescan.NewVoxelOutOfRangeError(p.Size, idx)
	}
	return p.LinearIndex(idx), nil
}

// PointToIndex rounds a world point (in the grid's local frame) to the nearest voxel index,
// element-wise, using P2IScale.
func (p *Properties) PointToIndex(point mgl64.Vec3) [3]int {
	return [3]int{
		int(math.Round(point[0] * p.P2IScale[0])),
		int(math.Round(point[1] * p.P2IScale[1])),
		int(math.Round(point[2] * p.P2IScale[2])),
	}
}

// AtPoint rounds point to the nearest voxel index and performs the checked linearization,
// failing with VoxelOutOfRangeError if the rounded index lies outside Size.
func (p *Properties) AtPoint(point mgl64.Vec3) (int, error) {
	return p.At(p.PointToIndex(point))
}

// IndexToPoint returns the world-space center of voxel idx (the inverse of PointToIndex, modulo
// rounding).
func (p *Properties) IndexToPoint(idx [3]int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(idx[0]) * p.Resolution,
		float64(idx[1]) * p.Resolution,
		float64(idx[2]) * p.Resolution,
	}
}

// Equal reports whether p and other describe the same grid: equal resolution, size, and
// derived fields.
func (p *Properties) Equal(other *Properties) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.Resolution == other.Resolution &&
		p.Size == other.Size &&
		p.Dimensions == other.Dimensions &&
		p.P2IScale == other.P2IScale
}

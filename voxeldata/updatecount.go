package voxeldata

import (
	"github.com/forgescan/forgescan"
	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
)

// UpdateCount counts, per voxel, how many rays have touched it within (dist_min, dist_max].
// Unlike CountViews, this increments once per ray, not once per update batch — a voxel crossed
// twice in one Reconstruction.Update call (from two different sensed points) counts twice.
type UpdateCount[T Numeric] struct {
	Base

	Data []T
}

// NewUpdateCount builds an UpdateCount channel over props, every voxel starting at zero.
func NewUpdateCount[T Numeric](props *grid.Properties, distMin, distMax float64) (*UpdateCount[T], error) {
	if distMin > distMax {
		return nil, forgescan.NewConstructorError("UpdateCount", "dist_min must be <= dist_max")
	}
	return &UpdateCount[T]{
		Base: NewBase(props, distMin, distMax, "UpdateCount"),
		Data: make([]T, props.NumVoxels()),
	}, nil
}

// Update increments every voxel whose trace entry falls within (dist_min, dist_max]; an entry
// exactly at dist_min is not counted. Rollover is
// the caller's responsibility if T is too small for the expected update volume.
func (u *UpdateCount[T]) Update(tr *raytrace.Trace) {
	distMin, distMax := u.DistWindow()
	iter := tr.FirstAbove(distMin)
	last := tr.FirstAboveFrom(distMax, iter)

	for ; iter < last; iter++ {
		u.Data[tr.Entries[iter].Index]++
	}
}

package voxeldata

import (
	"math"
	"unsafe"

	"github.com/forgescan/forgescan"
	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
)

// CountViews counts, per voxel, how many distinct update batches (Reconstruction.Update calls)
// saw it — as opposed to UpdateCount, which counts every ray crossing. Each element packs three
// things into one T: the top bit flags "viewed this batch", the next bit flags "occluded this
// batch" (only meaningful if the viewed bit is clear), and the remaining low bits are a
// saturating view counter consolidated during PostUpdate.
type CountViews[T Unsigned] struct {
	Base

	Data []T

	viewedCount, occludedCount, unseenCount int

	viewedBit, occludedBit, ceiling T
}

// NewCountViews builds a CountViews channel over props. The trace-distance window is always
// (-Inf, +Inf): every entry on a trace, regardless of distance, marks its voxel viewed or
// occluded for the batch.
func NewCountViews[T Unsigned](props *grid.Properties) (*CountViews[T], error) {
	var zero T
	bits := int(unsafe.Sizeof(zero)) * 8
	if bits < 3 {
		return nil, forgescan.NewConstructorError("CountViews", "element type too narrow to hold the flag bits and a counter")
	}

	viewedBit := T(1) << (bits - 1)
	occludedBit := T(1) << (bits - 2)
	ceiling := ^T(0) >> 2

	return &CountViews[T]{
		Base:        NewBase(props, math.Inf(-1), math.Inf(1), "CountViews"),
		Data:        make([]T, props.NumVoxels()),
		viewedBit:   viewedBit,
		occludedBit: occludedBit,
		ceiling:     ceiling,
	}, nil
}

// Update ORs the viewed or occluded flag into every voxel on the trace: entries at a positive
// distance are viewed; entries at zero or negative distance are occluded. A voxel touched by
// both within one batch carries both flags and is counted as viewed, since PostUpdate checks the
// viewed flag first.
func (c *CountViews[T]) Update(tr *raytrace.Trace) {
	for _, e := range tr.Entries {
		if e.Dist > 0 {
			c.Data[e.Index] |= c.viewedBit
		} else {
			c.Data[e.Index] |= c.occludedBit
		}
	}
}

// PostUpdate consolidates each voxel's per-batch flags into its saturating counter — viewed
// voxels increment (unless already at ceiling), occluded-only voxels don't — clears both flag
// bits, and recomputes the batch totals returned by LastUpdateTotals.
func (c *CountViews[T]) PostUpdate() {
	c.viewedCount, c.occludedCount, c.unseenCount = 0, 0, 0

	for i, v := range c.Data {
		wasViewed := v&c.viewedBit != 0
		wasOccluded := v&c.occludedBit != 0 && !wasViewed

		v &= c.ceiling
		if wasViewed && v != c.ceiling {
			v++
		}
		c.Data[i] = v

		switch {
		case wasViewed:
			c.viewedCount++
		case wasOccluded:
			c.occludedCount++
		default:
			c.unseenCount++
		}
	}
}

// LastUpdateTotals returns how many voxels were viewed, occluded, and neither during the most
// recent PostUpdate pass.
func (c *CountViews[T]) LastUpdateTotals() (viewed, occluded, unseen int) {
	return c.viewedCount, c.occludedCount, c.unseenCount
}

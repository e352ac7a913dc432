package voxeldata

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
)

func TestNewCountViewsAcceptsUint8(t *testing.T) {
	props := grid.New(1.0, [3]int{3, 3, 3})
	if _, err := NewCountViews[uint8](props); err != nil {
		t.Fatalf("NewCountViews[uint8] should fit the 2 flag bits plus a counter, got: %v", err)
	}
}

// TestCountViewsIncrementsOncePerBatch covers the UpdateCount-vs-CountViews distinction: two
// rays within the SAME batch (before PostUpdate) touching a voxel still only count once, since
// Update only sets a flag bit and PostUpdate increments at most once per call.
func TestCountViewsIncrementsOncePerBatch(t *testing.T) {
	props := grid.New(1.0, [3]int{3, 3, 3})
	c, err := NewCountViews[uint32](props)
	if err != nil {
		t.Fatalf("NewCountViews: %v", err)
	}

	var tr raytrace.Trace
	for i := 0; i < 2; i++ {
		ok, err := raytrace.Trace(&tr, mgl64.Vec3{1, 1, 0.4}, mgl64.Vec3{1, 1, 5}, props, 0, 10)
		if err != nil {
			t.Fatalf("Trace: %v", err)
		}
		if !ok {
			t.Fatalf("expected the ray to intersect the grid")
		}
		c.Update(&tr)
	}
	c.PostUpdate()

	center, err := props.At([3]int{1, 1, 1})
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if got := c.Data[center] &^ (c.viewedBit | c.occludedBit); got != 1 {
		t.Fatalf("got count %d, want 1 after one PostUpdate pass regardless of ray count", got)
	}
}

// TestCountViewsViewedWinsOverOccluded covers the documented "viewed flag wins" tie-break: a
// voxel touched at a positive distance by one ray and a non-positive distance by another within
// the same batch is consolidated as viewed, not occluded.
func TestCountViewsViewedWinsOverOccluded(t *testing.T) {
	props := grid.New(1.0, [3]int{3, 3, 3})
	c, err := NewCountViews[uint32](props)
	if err != nil {
		t.Fatalf("NewCountViews: %v", err)
	}

	idx, err := props.At([3]int{1, 1, 1})
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	c.Data[idx] |= c.occludedBit
	c.Data[idx] |= c.viewedBit

	c.PostUpdate()

	viewed, occluded, unseen := c.LastUpdateTotals()
	if viewed != 1 || occluded != 0 {
		t.Fatalf("got viewed=%d occluded=%d, want viewed=1 occluded=0", viewed, occluded)
	}
	if unseen != props.NumVoxels()-1 {
		t.Fatalf("got unseen=%d, want %d", unseen, props.NumVoxels()-1)
	}
}

func TestCountViewsSaturatesAtCeiling(t *testing.T) {
	props := grid.New(1.0, [3]int{1, 1, 1})
	c, err := NewCountViews[uint8](props)
	if err != nil {
		t.Fatalf("NewCountViews: %v", err)
	}

	c.Data[0] = c.ceiling
	c.Data[0] |= c.viewedBit
	c.PostUpdate()

	if c.Data[0] != c.ceiling {
		t.Fatalf("got %d, want the counter to stay at ceiling %d instead of overflowing", c.Data[0], c.ceiling)
	}
}

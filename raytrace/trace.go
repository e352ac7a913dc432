// Package raytrace implements the Amanatides-Woo fast voxel traversal algorithm: walking a ray
// through a uniform grid and emitting an ordered trace of (voxel-index, signed-distance) pairs.
package raytrace

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// SensedLocation describes where distance 0 (the sensed point) falls relative to the clipped
// ray segment that produced a Trace.
type SensedLocation int

const (
	// Unknown is the zero value, used before a trace has been populated.
	Unknown SensedLocation = iota
	// Before means the sensed point lies before the clipped segment began (t_enter > 0).
	Before
	// In means the sensed point lies within the clipped segment.
	In
	// After means the sensed point lies beyond where the clipped segment ended (t_exit < 0).
	After
)

// Entry is one (voxel-index, signed-distance) pair on a Trace.
type Entry struct {
	// Index is the voxel's linear index within the grid (Grid.Properties.LinearIndex result).
	Index int
	// Dist is the signed distance from the sensed point, along the ray, to this voxel's
	// crossing. Zero is the sensed point itself; negative values are on the far side of the
	// surface from the camera.
	Dist float64
}

// Trace is an ordered, ascending-by-distance sequence of voxel crossings produced by Trace(),
// along with the sensed-point metadata needed by channel updaters.
type Trace struct {
	Entries        []Entry
	SensedLocation SensedLocation
	Sensed         mgl64.Vec3
}

// Reset clears t for reuse. Reconstruction holds a single Trace and reuses it across every ray
// within one Update call; Reset avoids reallocating the backing slice.
func (t *Trace) Reset() {
	t.Entries = t.Entries[:0]
	t.SensedLocation = Unknown
	t.Sensed = mgl64.Vec3{}
}

// FirstAbove returns the index into t.Entries of the first entry whose Dist is strictly greater
// than d, or len(t.Entries) if none (including when d is +Inf). Entries must be sorted ascending
// by Dist, which Trace() guarantees.
func (t *Trace) FirstAbove(d float64) int {
	return sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].Dist > d
	})
}

// FirstAboveFrom is FirstAbove but only searches t.Entries[from:], returning an absolute index.
// Used to seek forward from a previously found position instead of re-scanning from the start.
func (t *Trace) FirstAboveFrom(d float64, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(t.Entries) {
		from = len(t.Entries)
	}
	rel := sort.Search(len(t.Entries)-from, func(i int) bool {
		return t.Entries[from+i].Dist > d
	})
	return from + rel
}

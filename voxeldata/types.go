// Package voxeldata defines the per-voxel data channels a Reconstruction maintains: Binary
// occupancy, TSDF, Probability, UpdateCount, and CountViews. Each channel owns one densely
// packed slice over a shared grid.Properties and knows how to fold a raytrace.Trace into itself.
package voxeldata

// Numeric is the set of element types a channel's backing slice may hold. Each channel picks
// exactly one type parameter at construction, so the compiler selects the update arm once per
// channel instance rather than dispatching per voxel.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Float restricts Numeric to the floating-point element types, used by TSDF and Probability.
type Float interface {
	~float32 | ~float64
}

// Unsigned restricts Numeric to the unsigned integer element types, used by CountViews.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Label is the occupancy byte stored by a Binary channel. Its bit layout is part of the external
// contract shared with ground-truth data and confusion metrics: classification tests must use
// Is, a bitwise-AND against a type mask, never equality against a specific label.
type Label uint8

const (
	Unseen   Label = 0b0000_0000
	Free     Label = 0b0100_0001
	Occupied Label = 0b1000_0001
	Occluded Label = 0b1000_0010
	Clipped  Label = 0b1000_0010

	TypeFree     Label = 0b0100_0000
	TypeOccupied Label = 0b1000_0000
	TypeUnknown  Label = 0b0000_0011
	TypeOccplane Label = 0b0000_0100
)

// Is reports whether l shares any bit with mask: the standard classification test for the
// single-bit type masks (TypeFree, TypeOccupied, TypeOccplane). Unseen, the all-zero label,
// never satisfies Is against any of them — it carries no bits to share.
func (l Label) Is(mask Label) bool {
	return l&mask != 0
}

// IsUnknownType reports whether l is still untyped. TypeUnknown is an absence mask rather than a
// presence mask like the others, so this is an equality-to-zero test, not a shared-bit test — of
// the defined labels, only Unseen (the all-zero label) satisfies it; Free and Occupied each set
// one of the two masked bits, and Occluded/Clipped set the other.
func (l Label) IsUnknownType() bool {
	return l&TypeUnknown == 0
}

package voxeldata

import (
	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
)

// Channel is one data array a Reconstruction maintains over a shared grid. Implementations pick
// exactly one Numeric element type at construction.
type Channel interface {
	// Update folds a single ray's Trace into the channel's backing array.
	Update(tr *raytrace.Trace)

	// PostUpdate runs once after every sensed point in an update batch has been folded in.
	// Channels with no batch-level bookkeeping (TSDF, Probability, UpdateCount) inherit Base's
	// no-op; Binary and CountViews override it.
	PostUpdate()

	// TypeName identifies the channel's concrete kind, e.g. for save/report labeling.
	TypeName() string

	// Properties returns the grid shared by every channel in a Reconstruction.
	Properties() *grid.Properties

	// DistWindow returns the [min, max] trace distance this channel accepts updates within.
	DistWindow() (min, max float64)
}

// Base holds the fields and default behavior common to every channel: the shared grid and the
// trace-distance acceptance window. Concrete channels embed Base and override PostUpdate when
// they need batch-level bookkeeping.
type Base struct {
	props            *grid.Properties
	distMin, distMax float64
	typeName         string
}

// NewBase builds the shared channel state. dist_min must be <= dist_max; callers construct this
// through a concrete channel's constructor, which enforces that ordering.
func NewBase(props *grid.Properties, distMin, distMax float64, typeName string) Base {
	return Base{props: props, distMin: distMin, distMax: distMax, typeName: typeName}
}

func (b Base) Properties() *grid.Properties { return b.props }

func (b Base) DistWindow() (float64, float64) { return b.distMin, b.distMax }

func (b Base) TypeName() string { return b.typeName }

// PostUpdate is a no-op default; channels that need batch-level bookkeeping override it.
func (b Base) PostUpdate() {}

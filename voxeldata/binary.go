package voxeldata

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan"
	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
)

// Binary tracks per-voxel occupancy as a Label byte. Every voxel starts Unseen; rays carve out
// Free and Occluded regions and pin the measured surface voxel to Occupied.
type Binary struct {
	Base

	Data []Label

	noOccplane bool
	track      bool

	lastOccplanes []OccplanePoint
}

// BinaryOption configures New.
type BinaryOption func(*binaryConfig)

type binaryConfig struct {
	distMin, distMax float64
	noOccplane       bool
	track            bool
}

// WithBinaryDistWindow overrides the default [0, +Inf) trace-acceptance window.
func WithBinaryDistWindow(min, max float64) BinaryOption {
	return func(c *binaryConfig) { c.distMin, c.distMax = min, max }
}

// WithOccplaneExtraction enables or disables the automatic occplane pass PostUpdate otherwise
// always runs.
func WithOccplaneExtraction(enabled bool) BinaryOption {
	return func(c *binaryConfig) { c.noOccplane = !enabled }
}

// WithNoOccplane disables the automatic occplane pass PostUpdate otherwise runs. Equivalent to
// WithOccplaneExtraction(false).
func WithNoOccplane() BinaryOption {
	return func(c *binaryConfig) { c.noOccplane = true }
}

// WithOccplaneTracking switches PostUpdate's occplane pass from ExtractOccplanesNoTrack to
// ExtractOccplanesTrack, caching the resulting (center, normal) pairs for Occplanes to return.
func WithOccplaneTracking() BinaryOption {
	return func(c *binaryConfig) { c.track = true }
}

// New builds a Binary channel over props, with every voxel initialized to Unseen.
func New(props *grid.Properties, opts ...BinaryOption) (*Binary, error) {
	cfg := binaryConfig{distMin: 0, distMax: math.Inf(1)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.distMin > cfg.distMax {
		return nil, forgescan.NewConstructorError("Binary", "dist_min must be <= dist_max")
	}

	data := make([]Label, props.NumVoxels())
	for i := range data {
		data[i] = Unseen
	}

	return &Binary{
		Base:       NewBase(props, cfg.distMin, cfg.distMax, "Binary"),
		Data:       data,
		noOccplane: cfg.noOccplane,
		track:      cfg.track,
	}, nil
}

// OccupancyData returns the channel's backing Label slice, satisfying the interface the
// confusion metric and ground-truth comparisons use to read occupancy-style channels
// generically. seen is ignored: a Binary channel already labels every unobserved voxel Unseen
// directly, so it carries no separate seen-tracking ambiguity to resolve.
func (b *Binary) OccupancyData(seen []bool) []Label {
	return b.Data
}

// Update folds one ray into the channel: voxels at or behind the surface (distance above dist_min
// and at most 0) become Occluded unless already Occupied; voxels between the surface and dist_max become Free
// unless already Occupied; finally, if the sensed point itself lies on the trace, its voxel is
// forced to Occupied. An Occupied voxel is never downgraded to Free or Occluded within this or
// any later pass.
func (b *Binary) Update(tr *raytrace.Trace) {
	distMin, distMax := b.DistWindow()

	iter := tr.FirstAbove(distMin)
	lastOcc := tr.FirstAboveFrom(0, iter)
	lastFree := tr.FirstAboveFrom(distMax, lastOcc)

	for ; iter < lastOcc; iter++ {
		i := tr.Entries[iter].Index
		if b.Data[i] != Occupied {
			b.Data[i] = Occluded
		}
	}
	for ; iter < lastFree; iter++ {
		i := tr.Entries[iter].Index
		if b.Data[i] != Occupied {
			b.Data[i] = Free
		}
	}

	if tr.SensedLocation == raytrace.In {
		i, err := b.Properties().AtPoint(tr.Sensed)
		if err == nil {
			b.Data[i] = Occupied
		}
	}
}

// PostUpdate runs the occplane pass unless the channel was built with WithNoOccplane /
// WithOccplaneExtraction(false); which of the two extraction entry points it calls depends on
// whether WithOccplaneTracking was set at construction.
func (b *Binary) PostUpdate() {
	if b.noOccplane {
		return
	}
	if b.track {
		b.lastOccplanes = b.ExtractOccplanesTrack()
		return
	}
	b.ExtractOccplanesNoTrack()
}

// Occplanes returns the (center, normal) pairs found by the most recent tracking occplane pass,
// or nil if the channel was not built with WithOccplaneTracking or PostUpdate has not run yet.
// Satisfies the policy package's occplaneSource contract.
func (b *Binary) Occplanes() []OccplanePoint {
	return b.lastOccplanes
}

// ExtractOccplanesNoTrack ORs TypeOccplane into every interior TypeUnknown voxel that has at
// least one TypeFree 6-neighbor. A no-op on grids smaller than 3 voxels on any axis.
func (b *Binary) ExtractOccplanesNoTrack() {
	b.walkInterior(func(c int, _ [3]int, neighbors [6]Label) {
		for _, n := range neighbors {
			if n.Is(TypeFree) {
				b.Data[c] |= TypeOccplane
				return
			}
		}
	})
}

// OccplanePoint pairs an occplane voxel's world-space center with its free-neighbor-derived unit
// normal, as produced by ExtractOccplanesTrack.
type OccplanePoint struct {
	Center mgl64.Vec3
	Normal mgl64.Vec3
}

// ExtractOccplanesTrack is ExtractOccplanesNoTrack's tracking sibling: it marks the same voxels
// and returns one (center, normal) pair per occplane voxel found, where the unnormalized normal
// sums +1/-1 per axis for each TypeFree 6-neighbor on that axis' positive/negative side. A voxel
// whose free neighbors cancel to a zero normal is marked but not returned.
func (b *Binary) ExtractOccplanesTrack() []OccplanePoint {
	var out []OccplanePoint
	props := b.Properties()

	b.walkInterior(func(c int, idx [3]int, neighbors [6]Label) {
		var normal mgl64.Vec3
		if neighbors[0].Is(TypeFree) {
			normal[0] += 1
		}
		if neighbors[1].Is(TypeFree) {
			normal[0] -= 1
		}
		if neighbors[2].Is(TypeFree) {
			normal[1] += 1
		}
		if neighbors[3].Is(TypeFree) {
			normal[1] -= 1
		}
		if neighbors[4].Is(TypeFree) {
			normal[2] += 1
		}
		if neighbors[5].Is(TypeFree) {
			normal[2] -= 1
		}

		anyFree := false
		for _, n := range neighbors {
			if n.Is(TypeFree) {
				anyFree = true
				break
			}
		}
		if !anyFree {
			return
		}
		b.Data[c] |= TypeOccplane

		if normal.Len() == 0 {
			return
		}
		out = append(out, OccplanePoint{
			Center: props.IndexToPoint(idx),
			Normal: normal.Normalize(),
		})
	})

	return out
}

// walkInterior visits every interior voxel (excluding the outer shell on every axis) still
// untyped, calling visit with its linear index and its six axis-neighbors in +x,-x,+y,-y,+z,-z
// order. A no-op when any axis of Size is below 3.
func (b *Binary) walkInterior(visit func(c int, idx [3]int, neighbors [6]Label)) {
	size := b.Properties().Size
	if size[0] < 3 || size[1] < 3 || size[2] < 3 {
		return
	}

	dx := 1
	dy := size[0]
	dz := size[0] * size[1]

	for z := 1; z < size[2]-1; z++ {
		for y := 1; y < size[1]-1; y++ {
			for x := 1; x < size[0]-1; x++ {
				idx := [3]int{x, y, z}
				c := b.Properties().LinearIndex(idx)
				if !b.Data[c].IsUnknownType() {
					continue
				}
				visit(c, idx, [6]Label{
					b.Data[c+dx], b.Data[c-dx],
					b.Data[c+dy], b.Data[c-dy],
					b.Data[c+dz], b.Data[c-dz],
				})
			}
		}
	}
}

// Package groundtruth holds the dense Occupancy and TSDF grids sampled once from an external
// mesh scene, against which metric.OccupancyConfusion compares a live Reconstruction channel.
package groundtruth

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan"
	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/internal/scene"
	"github.com/forgescan/forgescan/voxeldata"
)

// MeshSampler is the consumer-side contract a mesh raycaster must satisfy to populate
// ground-truth grids: given a batch of world-space points, it reports either an occupancy vote
// per point or a signed distance per point. No concrete implementation lives in this module.
type MeshSampler interface {
	SampleOccupancy(points []mgl64.Vec3) []bool
	SampleTSDF(points []mgl64.Vec3) []float64
}

// Occupancy is a dense, read-only-after-construction ground-truth occupancy grid. Every voxel
// starts Occupied; Sample only ever demotes a voxel to Free or Clipped, mirroring the
// vertex-vote rule that leaves fully-enclosed voxels untouched.
type Occupancy struct {
	props *grid.Properties
	Data  []voxeldata.Label

	log forgescan.Logger
}

// OccupancyOption configures NewOccupancy.
type OccupancyOption func(*Occupancy)

// WithOccupancyLogger attaches a Logger that reports length mismatches on Compare. Omitting
// this option leaves the grid with a no-op Logger.
func WithOccupancyLogger(log forgescan.Logger) OccupancyOption {
	return func(o *Occupancy) { o.log = forgescan.OrNop(log) }
}

// NewOccupancy builds an Occupancy grid over props with every voxel defaulted to Occupied.
func NewOccupancy(props *grid.Properties, opts ...OccupancyOption) *Occupancy {
	data := make([]voxeldata.Label, props.NumVoxels())
	for i := range data {
		data[i] = voxeldata.Occupied
	}
	o := &Occupancy{props: props, Data: data, log: forgescan.NewNopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Properties returns the grid this ground-truth occupancy was sampled over.
func (o *Occupancy) Properties() *grid.Properties { return o.props }

// Confusion tallies a label-by-label comparison between this ground truth and one measured
// occupancy snapshot.
type Confusion struct {
	TP, TN, FP, FN, Unknown int
}

// Sum returns the total number of voxels tallied, which always equals numVoxels for a complete
// comparison.
func (c Confusion) Sum() int { return c.TP + c.TN + c.FP + c.FN + c.Unknown }

// Compare tallies measurement against this ground truth, voxel by voxel, using the type-mask
// classification rules: TP (truth Occupied, measurement Occupied), TN (truth Free, measurement
// Free), FP (truth Free, measurement Occupied or still-unknown), FN (truth Occupied, measurement
// Free), and Unknown for everything else (e.g. an occupied truth voxel whose measurement is
// still unknown). Returns false without tallying if measurement's length does not match Data's.
func (o *Occupancy) Compare(measurement []voxeldata.Label) (Confusion, bool) {
	if len(measurement) != len(o.Data) {
		o.log.Warnf("Compare: measurement length %d does not match ground truth voxel count %d", len(measurement), len(o.Data))
		return Confusion{}, false
	}

	var c Confusion
	for i, truth := range o.Data {
		m := measurement[i]
		switch {
		case truth.Is(voxeldata.TypeOccupied) && m.Is(voxeldata.TypeOccupied):
			c.TP++
		case truth.Is(voxeldata.TypeFree) && m.Is(voxeldata.TypeFree):
			c.TN++
		case truth.Is(voxeldata.TypeFree) && (m.IsUnknownType() || m.Is(voxeldata.TypeOccupied)):
			c.FP++
		case truth.Is(voxeldata.TypeOccupied) && m.Is(voxeldata.TypeFree):
			c.FN++
		default:
			c.Unknown++
		}
	}
	return c, true
}

// Sample votes each voxel's 8 corner vertices (transformed into world space by lowerBound)
// against sampler in a single batched call, then assigns Free to voxels with zero votes,
// Clipped to voxels with a partial vote, and leaves voxels with all 8 votes at their default
// Occupied — reproducing the mesh scene's all_vertex_votes/no_vertex_votes rule.
func (o *Occupancy) Sample(sampler MeshSampler, lowerBound mgl64.Mat4) {
	size := o.props.Size
	vertices := scene.VoxelVertices(o.props, lowerBound)
	votes := sampler.SampleOccupancy(vertices)

	i := 0
	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				count := 0
				for _, c := range [8][3]int{
					{x, y, z}, {x + 1, y, z}, {x, y + 1, z}, {x + 1, y + 1, z},
					{x, y, z + 1}, {x + 1, y, z + 1}, {x, y + 1, z + 1}, {x + 1, y + 1, z + 1},
				} {
					if votes[scene.VertexIndex(size, c[0], c[1], c[2])] {
						count++
					}
				}
				switch {
				case count == 0:
					o.Data[i] = voxeldata.Free
				case count < 8:
					o.Data[i] = voxeldata.Clipped
				}
				i++
			}
		}
	}
}

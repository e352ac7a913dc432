package groundtruth

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/internal/scene"
)

// TSDF is a dense, read-only-after-construction ground-truth signed-distance grid: one value
// per voxel center, sampled once from an external mesh scene.
type TSDF struct {
	props *grid.Properties
	Data  []float64
}

// NewTSDF builds a TSDF grid over props with every voxel defaulted to zero.
func NewTSDF(props *grid.Properties) *TSDF {
	return &TSDF{props: props, Data: make([]float64, props.NumVoxels())}
}

// Properties returns the grid this ground-truth TSDF was sampled over.
func (t *TSDF) Properties() *grid.Properties { return t.props }

// Sample queries sampler once per voxel center (transformed into world space by lowerBound) and
// stores the resulting signed distances directly — no averaging or vote-counting, unlike
// Occupancy.Sample.
func (t *TSDF) Sample(sampler MeshSampler, lowerBound mgl64.Mat4) {
	centers := scene.VoxelCenters(t.props, lowerBound)
	copy(t.Data, sampler.SampleTSDF(centers))
}

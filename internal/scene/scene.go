// Package scene holds the point-grid geometry groundtruth needs to query an external mesh
// sampler: the (size+1)^3 voxel-vertex lattice for occupancy voting, and the size^3 voxel-center
// lattice for signed-distance sampling. It has no sampler implementation of its own.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan/grid"
)

// VertexIndex linearizes a vertex-lattice coordinate for a grid whose voxel count is size; the
// vertex lattice has one more point than voxels along each axis.
func VertexIndex(size [3]int, x, y, z int) int {
	vx, vy := size[0]+1, size[1]+1
	return x + y*vx + z*vx*vy
}

// VoxelVertices returns the world-space position (lowerBound applied) of every point in the
// (size+1)^3 voxel-vertex lattice, X-fastest, matching VertexIndex's linearization.
func VoxelVertices(props *grid.Properties, lowerBound mgl64.Mat4) []mgl64.Vec3 {
	size := props.Size
	vx, vy, vz := size[0]+1, size[1]+1, size[2]+1
	out := make([]mgl64.Vec3, vx*vy*vz)
	for z := 0; z < vz; z++ {
		for y := 0; y < vy; y++ {
			for x := 0; x < vx; x++ {
				local := mgl64.Vec3{
					float64(x) * props.Resolution,
					float64(y) * props.Resolution,
					float64(z) * props.Resolution,
				}
				out[VertexIndex(size, x, y, z)] = TransformPoint(lowerBound, local)
			}
		}
	}
	return out
}

// VoxelCenters returns the world-space center (lowerBound applied) of every voxel, in the same
// X-fastest order as grid.Properties.LinearIndex.
func VoxelCenters(props *grid.Properties, lowerBound mgl64.Mat4) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, props.NumVoxels())
	size := props.Size
	i := 0
	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				out[i] = TransformPoint(lowerBound, props.IndexToPoint([3]int{x, y, z}))
				i++
			}
		}
	}
	return out
}

// TransformPoint applies the affine transform m to p.
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	v := m.Mul4x1(mgl64.Vec4{p[0], p[1], p[2], 1})
	return mgl64.Vec3{v[0], v[1], v[2]}
}

package raytrace

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan/aabb"
	"github.com/forgescan/forgescan/grid"
)

func signbit(x float64) bool {
	return math.Signbit(x)
}

func invertVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{1 / v[0], 1 / v[1], 1 / v[2]}
}

// Trace performs the Amanatides-Woo fast voxel traversal of the ray from origin through sensed,
// clipped to props' implicit AABB and further to [distMin, distMax], writing the ordered
// crossings into out. sensed and origin must already be expressed in the grid's local frame
// (lower corner at the origin).
//
// Trace returns false iff the ray segment never intersects the grid's AABB within the clipped
// window; in that case out is reset and carries no entries. A non-nil error indicates an
// internal inconsistency (an emitted index fell outside the grid) and must not be silently
// absorbed: an out-of-range index, including a negative one, is reported as an error and never
// clamped into the grid.
func Trace(out *Trace, sensed, origin mgl64.Vec3, props *grid.Properties, distMin, distMax float64) (bool, error) {
	out.Reset()

	diff := origin.Sub(sensed)
	length := diff.Len()
	if length == 0 {
		return false, nil
	}
	normal := diff.Mul(1 / length)
	invNormal := invertVec(normal)

	length = math.Min(length, distMax)

	tEnter, tExit, ok := aabb.ClipRayZeroBounded(props.Dimensions, sensed, invNormal, distMin, length)
	if !ok {
		return false, nil
	}
	tEnter = math.Max(tEnter, distMin)
	tExit = math.Min(tExit, distMax)
	if tEnter > tExit {
		return false, nil
	}

	pEntry := sensed.Add(normal.Mul(tEnter))
	c := props.PointToIndex(pEntry)

	var step [3]int
	var delta [3]float64
	var dist [3]float64

	for axis := 0; axis < 3; axis++ {
		nextAdj := 0.5
		step[axis] = 1
		if signbit(normal[axis]) {
			nextAdj = -0.5
			step[axis] = -1
		}
		delta[axis] = math.Abs(props.Resolution * invNormal[axis])
		dist[axis] = tEnter + ((float64(c[axis])+nextAdj)*props.Resolution-pEntry[axis])*invNormal[axis]
	}

	emit := func(idx [3]int, d float64) error {
		lin, err := props.At(idx)
		if err != nil {
			return fmt.Errorf("raytrace: ray tracing failed, this should not happen: %w", err)
		}
		out.Entries = append(out.Entries, Entry{Index: lin, Dist: d})
		return nil
	}

	if err := emit(c, tEnter); err != nil {
		return false, err
	}

	for {
		i := 0
		if dist[1] < dist[i] {
			i = 1
		}
		if dist[2] < dist[i] {
			i = 2
		}

		if dist[i] > tExit {
			break
		}

		c[i] += step[i]
		if err := emit(c, dist[i]); err != nil {
			return false, err
		}
		dist[i] += delta[i]
	}

	switch {
	case tEnter > 0:
		out.SensedLocation = Before
	case tExit < 0:
		out.SensedLocation = After
	default:
		out.SensedLocation = In
	}
	out.Sensed = sensed

	return true, nil
}

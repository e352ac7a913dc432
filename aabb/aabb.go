// Package aabb implements the slab-method ray/axis-aligned-bounding-box intersection used by
// the ray tracer to clip a ray to a grid's implicit AABB.
package aabb

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func elementMul(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// findIntersection runs the core slab-method chain over two pre-computed per-axis distance
// vectors, shrinking [tmin, tmax] one axis at a time, X then Y then Z.
//
// Adapted from Tavian Barnes' boundary-respecting formulation:
// https://tavianator.com/2022/ray_box_boundary.html#boundaries
func findIntersection(distB1, distB2 mgl64.Vec3) (tmin, tmax float64) {
	tmin = math.Inf(-1)
	tmax = math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		tmin = math.Min(math.Max(distB1[axis], tmin), math.Max(distB2[axis], tmin))
		tmax = math.Max(math.Min(distB1[axis], tmax), math.Min(distB2[axis], tmax))
	}

	return tmin, tmax
}

// ClipRay determines where a time-parameterized ray intersects the AABB [lower, upper], bounded
// additionally to [tLoBound, tHiBound]. invDir is the element-wise inverse of the ray's
// direction (full ray direction for scalar-multiplier outputs, unit direction for
// distance-along-ray outputs).
func ClipRay(lower, upper, origin, invDir mgl64.Vec3, tLoBound, tHiBound float64) (tEnter, tExit float64, ok bool) {
	distB1 := elementMul(lower.Sub(origin), invDir)
	distB2 := elementMul(upper.Sub(origin), invDir)

	tmin, tmax := findIntersection(distB1, distB2)
	ok = tmin <= tmax && tmin <= tHiBound && tLoBound <= tmax
	return tmin, tmax, ok
}

// ClipRayZeroBounded is ClipRay specialized for an AABB whose lower corner is the origin (0,0,0)
// — the common case for a grid's implicit bounding box, whose upper corner is Dimensions.
func ClipRayZeroBounded(upper, origin, invDir mgl64.Vec3, tLoBound, tHiBound float64) (tEnter, tExit float64, ok bool) {
	distB1 := elementMul(origin.Mul(-1), invDir)
	distB2 := elementMul(upper.Sub(origin), invDir)

	tmin, tmax := findIntersection(distB1, distB2)
	ok = tmin <= tmax && tmin <= tHiBound && tLoBound <= tmax
	return tmin, tmax, ok
}

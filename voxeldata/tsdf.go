package voxeldata

import (
	"math"

	"github.com/forgescan/forgescan"
	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
)

// TSDF is a truncated signed-distance function channel over element type T. Average mode
// accumulates a running mean via Welford's algorithm; minimum-magnitude mode keeps whichever
// measurement is closest to the surface.
type TSDF[T Float] struct {
	Base

	Data []T

	average     bool
	sampleCount []uint64
	variance    []float64
}

// NewTSDF builds a TSDF channel over props. When average is true, Data starts at zero and each
// update folds in a running mean via Welford's algorithm; when false, Data starts at negative
// infinity and each update keeps the smaller-magnitude of the current and new value.
func NewTSDF[T Float](props *grid.Properties, distMin, distMax float64, average bool) (*TSDF[T], error) {
	if distMin > distMax {
		return nil, forgescan.NewConstructorError("TSDF", "dist_min must be <= dist_max")
	}

	n := props.NumVoxels()
	data := make([]T, n)
	if !average {
		for i := range data {
			data[i] = T(math.Inf(-1))
		}
	}

	t := &TSDF[T]{
		Base:    NewBase(props, distMin, distMax, "TSDF"),
		Data:    data,
		average: average,
	}
	if average {
		t.sampleCount = make([]uint64, n)
		t.variance = make([]float64, n)
	}
	return t, nil
}

// Update folds every trace entry within (dist_min, dist_max] into the channel; an entry exactly
// at dist_min is skipped.
func (t *TSDF[T]) Update(tr *raytrace.Trace) {
	distMin, distMax := t.DistWindow()
	iter := tr.FirstAbove(distMin)
	last := tr.FirstAboveFrom(distMax, iter)

	for ; iter < last; iter++ {
		e := tr.Entries[iter]
		if t.average {
			t.updateAverage(e.Index, e.Dist)
		} else {
			t.updateMinMagnitude(e.Index, e.Dist)
		}
	}
}

func (t *TSDF[T]) updateMinMagnitude(i int, update float64) {
	current := float64(t.Data[i])
	if math.Abs(update) < math.Abs(current) {
		t.Data[i] = T(update)
	}
}

// updateAverage replicates Welford's online algorithm exactly, step order included: scale the
// running variance back up by n before folding in the new sample, then increment n, update the
// mean, accumulate the squared residual, and rescale variance down by the new n.
func (t *TSDF[T]) updateAverage(i int, update float64) {
	average := float64(t.Data[i])
	delta := update - average

	t.variance[i] *= float64(t.sampleCount[i])
	t.sampleCount[i]++
	average += delta / float64(t.sampleCount[i])
	t.variance[i] += delta * delta
	t.variance[i] /= float64(t.sampleCount[i])

	t.Data[i] = T(average)
}

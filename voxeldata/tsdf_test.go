package voxeldata

import (
	"math"
	"testing"

	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
)

func isNegInf32(v float32) bool {
	return math.IsInf(float64(v), -1)
}

func traceWith(idx int, dist float64) *raytrace.Trace {
	return &raytrace.Trace{Entries: []raytrace.Entry{{Index: idx, Dist: dist}}}
}

func TestTSDFMinMagnitudeKeepsSmaller(t *testing.T) {
	props := grid.New(1.0, [3]int{3, 3, 3})
	channel, err := NewTSDF[float32](props, -0.5, 0.5, false)
	if err != nil {
		t.Fatalf("NewTSDF: %v", err)
	}

	voxel := props.LinearIndex([3]int{1, 1, 1})

	channel.Update(traceWith(voxel, 0.3))
	channel.Update(traceWith(voxel, -0.1))

	if got := channel.Data[voxel]; got != -0.1 {
		t.Fatalf("got %v, want -0.1 (smaller magnitude)", got)
	}
}

// TestTSDFMinMagnitudeIdempotent covers P4: applying the same ray twice to a min-magnitude
// channel leaves it bitwise identical to a single application.
func TestTSDFMinMagnitudeIdempotent(t *testing.T) {
	props := grid.New(1.0, [3]int{3, 3, 3})
	voxel := props.LinearIndex([3]int{1, 1, 1})

	once, err := NewTSDF[float32](props, -0.5, 0.5, false)
	if err != nil {
		t.Fatalf("NewTSDF: %v", err)
	}
	once.Update(traceWith(voxel, 0.2))

	twice, err := NewTSDF[float32](props, -0.5, 0.5, false)
	if err != nil {
		t.Fatalf("NewTSDF: %v", err)
	}
	twice.Update(traceWith(voxel, 0.2))
	twice.Update(traceWith(voxel, 0.2))

	if once.Data[voxel] != twice.Data[voxel] {
		t.Fatalf("idempotence violated: once=%v twice=%v", once.Data[voxel], twice.Data[voxel])
	}
}

func TestTSDFAverageWelford(t *testing.T) {
	props := grid.New(1.0, [3]int{3, 3, 3})
	channel, err := NewTSDF[float32](props, -1, 1, true)
	if err != nil {
		t.Fatalf("NewTSDF: %v", err)
	}
	voxel := props.LinearIndex([3]int{1, 1, 1})

	channel.Update(traceWith(voxel, 0.2))
	channel.Update(traceWith(voxel, 0.4))

	const want = (0.2 + 0.4) / 2
	if got := channel.Data[voxel]; got < want-1e-6 || got > want+1e-6 {
		t.Fatalf("got %v, want ~%v", got, want)
	}
}

func TestTSDFRespectsDistWindow(t *testing.T) {
	props := grid.New(1.0, [3]int{3, 3, 3})
	channel, err := NewTSDF[float32](props, -0.5, 0.5, false)
	if err != nil {
		t.Fatalf("NewTSDF: %v", err)
	}
	voxel := props.LinearIndex([3]int{1, 1, 1})

	// 5.0 is outside [-0.5, 0.5]; the update must be a no-op, leaving the default -Inf.
	channel.Update(traceWith(voxel, 5.0))

	if got := channel.Data[voxel]; got != channel.Data[voxel] || !isNegInf32(got) {
		t.Fatalf("got %v, want the untouched default (-Inf)", got)
	}
}

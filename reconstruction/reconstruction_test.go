package reconstruction

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
	"github.com/forgescan/forgescan/voxeldata"
)

func threeCube(t *testing.T) *grid.Properties {
	t.Helper()
	return grid.New(1.0, [3]int{3, 3, 3})
}

func TestAddChannelRejectsReservedPrefixUnprivileged(t *testing.T) {
	props := threeCube(t)
	r := New(props)
	ch, err := voxeldata.New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.AddChannel("MetricFoo", ch); err == nil {
		t.Fatalf("expected a reserved-prefix error")
	}
	if err := r.AddChannel("PolicyFoo", ch); err == nil {
		t.Fatalf("expected a reserved-prefix error")
	}
}

func TestMetricAddChannelRequiresPrefix(t *testing.T) {
	props := threeCube(t)
	r := New(props)
	ch, err := voxeldata.New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.MetricAddChannel("NotMetric", ch); err == nil {
		t.Fatalf("expected an error: name lacks the Metric prefix")
	}
	if err := r.MetricAddChannel("MetricConfusion", ch); err != nil {
		t.Fatalf("MetricAddChannel: %v", err)
	}
	if _, ok := r.Channel("MetricConfusion"); !ok {
		t.Fatalf("channel was not registered")
	}
}

func TestAddChannelRejectsMismatchedProperties(t *testing.T) {
	r := New(threeCube(t))
	other := grid.New(1.0, [3]int{4, 4, 4})
	ch, err := voxeldata.New(other)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.AddChannel("Occupancy", ch); err == nil {
		t.Fatalf("expected a GridPropertyError")
	}
}

// TestUpdateOrderingIsInsertionOrder covers spec ordering guarantee (i): within one ray,
// channels are updated in the order they were added, not map-iteration order.
func TestUpdateOrderingIsInsertionOrder(t *testing.T) {
	props := threeCube(t)
	r := New(props)

	var order []string
	add := func(name string) {
		ch := &recordingChannel{props: props, name: name, log: &order}
		if err := r.AddChannel(name, ch); err != nil {
			t.Fatalf("AddChannel(%s): %v", name, err)
		}
	}
	add("Zebra")
	add("Apple")
	add("Mango")

	if err := r.Update([]mgl64.Vec3{{1, 1, 0.4}}, mgl64.Ident4()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := []string{"Zebra", "Apple", "Mango"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

// TestAxialRayThroughCenter covers end-to-end scenario 1 via the Reconstruction entry point:
// a camera-frame sensed point carried through an identity extrinsic marks the surface voxel
// Occupied and the voxels between it and the camera Free.
func TestAxialRayThroughCenter(t *testing.T) {
	props := threeCube(t)
	r := New(props)

	ch, err := voxeldata.New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.AddChannel("Occupancy", ch); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	// z=0.4 avoids the z=0.5 voxel-boundary rounding tie (see voxeldata's binary_test.go).
	origin := mgl64.Translate3D(1, 1, 5)
	sensed := mgl64.Vec3{0, 0, 0.4 - 5}
	if err := r.Update([]mgl64.Vec3{sensed}, origin); err != nil {
		t.Fatalf("Update: %v", err)
	}

	sensedVoxel, err := props.AtPoint(mgl64.Vec3{1, 1, 0.4})
	if err != nil {
		t.Fatalf("AtPoint: %v", err)
	}
	if got := ch.Data[sensedVoxel]; got != voxeldata.Occupied {
		t.Fatalf("sensed voxel: got %v, want Occupied", got)
	}

	cameraVoxel, err := props.At([3]int{1, 1, 2})
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if got := ch.Data[cameraVoxel]; got != voxeldata.Free {
		t.Fatalf("camera-side voxel: got %v, want Free", got)
	}

	if !r.Seen()[cameraVoxel] {
		t.Fatalf("camera-side voxel must be marked seen")
	}
}

// TestRayMissingBoxLeavesStateUnchanged covers end-to-end scenario 2: a ray that never
// intersects the grid mutates neither the channel nor the seen bitmap.
func TestRayMissingBoxLeavesStateUnchanged(t *testing.T) {
	props := threeCube(t)
	r := New(props)

	ch, err := voxeldata.New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.AddChannel("Occupancy", ch); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	before := make([]voxeldata.Label, len(ch.Data))
	copy(before, ch.Data)

	if err := r.Update([]mgl64.Vec3{{-1, -1, -1}}, mgl64.Translate3D(-5, -5, -5)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	for i := range before {
		if ch.Data[i] != before[i] {
			t.Fatalf("voxel %d mutated by a ray that should have missed the grid", i)
		}
	}
	for i, s := range r.Seen() {
		if s {
			t.Fatalf("voxel %d marked seen by a ray that should have missed the grid", i)
		}
	}
}

// TestSeenMonotone covers P8: the seen bitmap only ever flips false to true, never back.
func TestSeenMonotone(t *testing.T) {
	props := threeCube(t)
	r := New(props)
	ch, err := voxeldata.New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.AddChannel("Occupancy", ch); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	origin := mgl64.Translate3D(1, 1, 5)
	var prev []bool

	for i := 0; i < 5; i++ {
		if err := r.Update([]mgl64.Vec3{{0, 0, 0.4 - 5}}, origin); err != nil {
			t.Fatalf("Update: %v", err)
		}
		cur := append([]bool(nil), r.Seen()...)
		for j, was := range prev {
			if was && !cur[j] {
				t.Fatalf("voxel %d flipped from seen back to unseen", j)
			}
		}
		prev = cur
	}
}

// TestRemoveChannelRefusesWhileAcquired covers the owner-count invariant: AcquireChannel blocks
// RemoveChannel until a matching ReleaseChannel brings the count back to 1.
func TestRemoveChannelRefusesWhileAcquired(t *testing.T) {
	props := threeCube(t)
	r := New(props)
	ch, err := voxeldata.New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.AddChannel("Occupancy", ch); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	if !r.AcquireChannel("Occupancy") {
		t.Fatalf("AcquireChannel: expected a registered channel")
	}
	if r.RemoveChannel("Occupancy") {
		t.Fatalf("expected RemoveChannel to refuse a channel with an external owner")
	}

	if !r.ReleaseChannel("Occupancy") {
		t.Fatalf("ReleaseChannel: expected a registered channel")
	}
	if !r.RemoveChannel("Occupancy") {
		t.Fatalf("expected RemoveChannel to succeed once the external owner released it")
	}
}

// TestAcquireReleaseUnknownChannelReportFalse covers the not-registered edge case for both
// AcquireChannel and ReleaseChannel.
func TestAcquireReleaseUnknownChannelReportFalse(t *testing.T) {
	r := New(threeCube(t))
	if r.AcquireChannel("Nope") {
		t.Fatalf("expected AcquireChannel to report false for an unregistered channel")
	}
	if r.ReleaseChannel("Nope") {
		t.Fatalf("expected ReleaseChannel to report false for an unregistered channel")
	}
}

// TestNewAssignsDistinctID covers the uuid-backed identity supplement: two Reconstructions get
// different, non-empty IDs.
func TestNewAssignsDistinctID(t *testing.T) {
	a := New(threeCube(t))
	b := New(threeCube(t))

	if a.ID() == "" || b.ID() == "" {
		t.Fatalf("expected a non-empty ID")
	}
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct IDs, got %q twice", a.ID())
	}
}

// recordingLogger records every Warnf/Debugf call it receives, for TestWithLoggerReportsMissesAndRefusals.
type recordingLogger struct {
	warns, debugs []string
}

func (l *recordingLogger) DebugEnabled() bool         { return true }
func (l *recordingLogger) SetDebug(enabled bool)      {}
func (l *recordingLogger) Debugf(format string, args ...any) {
	l.debugs = append(l.debugs, format)
}
func (l *recordingLogger) Infof(format string, args ...any) {}
func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warns = append(l.warns, format)
}
func (l *recordingLogger) Errorf(format string, args ...any) {}

// TestWithLoggerReportsMissesAndRefusals covers the Logger wiring: a ray miss logs a Debugf
// line, and a reserved-prefix RemoveChannel refusal logs a Warnf line.
func TestWithLoggerReportsMissesAndRefusals(t *testing.T) {
	props := threeCube(t)
	log := &recordingLogger{}
	r := New(props, WithLogger(log))

	if err := r.Update([]mgl64.Vec3{{-1, -1, -1}}, mgl64.Translate3D(-5, -5, -5)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(log.debugs) == 0 {
		t.Fatalf("expected a Debugf call reporting the missed ray")
	}

	r.RemoveChannel("MetricFoo")
	if len(log.warns) == 0 {
		t.Fatalf("expected a Warnf call reporting the reserved-prefix removal refusal")
	}
}

// recordingChannel is a minimal voxeldata.Channel that appends its own name to a shared log
// every time Update is called, used only to observe channel-application order.
type recordingChannel struct {
	props *grid.Properties
	name  string
	log   *[]string
}

func (c *recordingChannel) Update(tr *raytrace.Trace)       { *c.log = append(*c.log, c.name) }
func (c *recordingChannel) PostUpdate()                     {}
func (c *recordingChannel) TypeName() string                { return "recording" }
func (c *recordingChannel) Properties() *grid.Properties    { return c.props }
func (c *recordingChannel) DistWindow() (float64, float64) { return math.Inf(-1), math.Inf(1) }

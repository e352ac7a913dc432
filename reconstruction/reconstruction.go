// Package reconstruction owns the per-voxel channel map, the seen bitmap, and the update loop
// that folds a batch of sensed points into every registered channel.
package reconstruction

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/forgescan/forgescan"
	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
	"github.com/forgescan/forgescan/voxeldata"
)

// ID identifies a Reconstruction instance, distinct from any channel or scan name.
type ID string

func makeID() ID { return ID(uuid.NewString()) }

// channelEntry pairs a registered channel with an owner count: 1 while only the Reconstruction
// itself holds it, incremented past 1 by AcquireChannel for every external package (e.g. a
// metric.OccupancyConfusion) that keeps its own reference. RemoveChannel refuses to remove a
// channel with an owner count above 1.
type channelEntry struct {
	ch   voxeldata.Channel
	refs int
}

// Reconstruction owns a named map of voxel data channels, the grid-wide seen bitmap, and the
// cached trace-distance window the ray tracer is clipped to. Go maps do not preserve insertion
// order, so order is tracked separately in order — this is what gives Update its deterministic,
// insertion-order channel application (spec ordering guarantee (i)).
type Reconstruction struct {
	id ID

	props *grid.Properties

	channels map[string]*channelEntry
	order    []string

	seen []bool

	minDistMin, maxDistMax float64

	trace raytrace.Trace

	log forgescan.Logger
}

// Option configures New.
type Option func(*Reconstruction)

// WithLogger attaches a Logger that reports ray-trace misses, reserved-prefix rejections, and
// channel-removal refusals. Omitting this option leaves the Reconstruction with a no-op Logger.
func WithLogger(log forgescan.Logger) Option {
	return func(r *Reconstruction) { r.log = forgescan.OrNop(log) }
}

// New builds an empty Reconstruction over props, assigning it a fresh ID. A fresh
// Reconstruction's cached window is [0, 0] until the first channel is added.
func New(props *grid.Properties, opts ...Option) *Reconstruction {
	r := &Reconstruction{
		id:       makeID(),
		props:    props,
		channels: make(map[string]*channelEntry),
		seen:     make([]bool, props.NumVoxels()),
		log:      forgescan.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns this Reconstruction's identity, assigned once at construction.
func (r *Reconstruction) ID() ID { return r.id }

// Properties returns the grid shared by every channel this Reconstruction owns.
func (r *Reconstruction) Properties() *grid.Properties { return r.props }

// Seen reports whether voxel i has ever been visited by a ray at a strictly positive distance
// (observed as free space or beyond, as opposed to merely sensed or occluded). The returned
// slice is read-only; callers must not mutate it.
func (r *Reconstruction) Seen() []bool { return r.seen }

// Channel returns the channel registered under name, if any.
func (r *Reconstruction) Channel(name string) (voxeldata.Channel, bool) {
	e, ok := r.channels[name]
	if !ok {
		return nil, false
	}
	return e.ch, true
}

// AcquireChannel registers external ownership of the channel registered under name, on behalf of
// a package (e.g. metric) that keeps its own reference to it. While any external owner holds a
// channel, RemoveChannel/MetricRemoveChannel/PolicyRemoveChannel refuse to remove it. Returns
// false if no channel is registered under name.
func (r *Reconstruction) AcquireChannel(name string) bool {
	e, ok := r.channels[name]
	if !ok {
		return false
	}
	e.refs++
	return true
}

// ReleaseChannel reverses a prior AcquireChannel, allowing removal again once no external owner
// remains. Returns false if no channel is registered under name.
func (r *Reconstruction) ReleaseChannel(name string) bool {
	e, ok := r.channels[name]
	if !ok {
		return false
	}
	if e.refs > 1 {
		e.refs--
	}
	return true
}

// AddChannel registers ch under name via the unprivileged path: name must be non-empty, must not
// already be taken, must not use a reserved Metric/Policy prefix, and ch must share this
// Reconstruction's Grid Properties.
func (r *Reconstruction) AddChannel(name string, ch voxeldata.Channel) error {
	if forgescan.IsReservedChannelName(name) {
		return forgescan.NewReservedMapKeyError(name)
	}
	return r.addChannel(name, ch)
}

// RemoveChannel removes the unprivileged channel registered under name, returning false if no
// such channel exists, if name uses a reserved Metric/Policy prefix (those are only removable
// through MetricRemoveChannel/PolicyRemoveChannel), or if an external owner still holds it via
// AcquireChannel.
func (r *Reconstruction) RemoveChannel(name string) bool {
	if forgescan.IsReservedChannelName(name) {
		r.log.Warnf("refused to remove %q: reserved channel-name prefix", name)
		return false
	}
	return r.removeChannel(name)
}

// MetricAddChannel registers ch under name via the privileged path reserved for the metric
// package: name must begin with the Metric prefix. Exported so the metric package (part of this
// module) can reach it; per the module's own policy, the privileged path only needs to be
// unreachable from outside this module, not from other packages within it.
func (r *Reconstruction) MetricAddChannel(name string, ch voxeldata.Channel) error {
	if !hasPrefix(name, forgescan.MetricChannelPrefix) {
		return forgescan.NewInvalidMapKeyError(name, "MetricAddChannel requires the Metric prefix")
	}
	return r.addChannel(name, ch)
}

// MetricRemoveChannel removes a channel previously registered with MetricAddChannel.
func (r *Reconstruction) MetricRemoveChannel(name string) bool {
	if !hasPrefix(name, forgescan.MetricChannelPrefix) {
		return false
	}
	return r.removeChannel(name)
}

// PolicyAddChannel registers ch under name via the privileged path reserved for the policy
// package: name must begin with the Policy prefix.
func (r *Reconstruction) PolicyAddChannel(name string, ch voxeldata.Channel) error {
	if !hasPrefix(name, forgescan.PolicyChannelPrefix) {
		return forgescan.NewInvalidMapKeyError(name, "PolicyAddChannel requires the Policy prefix")
	}
	return r.addChannel(name, ch)
}

// PolicyRemoveChannel removes a channel previously registered with PolicyAddChannel.
func (r *Reconstruction) PolicyRemoveChannel(name string) bool {
	if !hasPrefix(name, forgescan.PolicyChannelPrefix) {
		return false
	}
	return r.removeChannel(name)
}

func (r *Reconstruction) addChannel(name string, ch voxeldata.Channel) error {
	if name == "" {
		return forgescan.NewInvalidMapKeyError(name, "channel name must not be empty")
	}
	if _, exists := r.channels[name]; exists {
		return forgescan.NewInvalidMapKeyError(name, "a channel with this name is already registered")
	}
	if !r.props.Equal(ch.Properties()) {
		return forgescan.NewGridPropertyError("channel Grid Properties do not match the Reconstruction's", r.props.Size, ch.Properties().Size)
	}

	r.channels[name] = &channelEntry{ch: ch, refs: 1}
	r.order = append(r.order, name)
	r.recomputeWindow()
	return nil
}

func (r *Reconstruction) removeChannel(name string) bool {
	e, exists := r.channels[name]
	if !exists {
		return false
	}
	if e.refs > 1 {
		r.log.Warnf("refused to remove %q: held by %d external owner(s)", name, e.refs-1)
		return false
	}
	delete(r.channels, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.recomputeWindow()
	return true
}

// recomputeWindow refreshes the cached [min_dist_min, max_dist_max] the ray tracer is clipped
// to, so that no voxel outside every channel's combined interest is ever visited.
func (r *Reconstruction) recomputeWindow() {
	if len(r.order) == 0 {
		r.minDistMin, r.maxDistMax = 0, 0
		return
	}
	first := true
	for _, name := range r.order {
		min, max := r.channels[name].ch.DistWindow()
		if first {
			r.minDistMin, r.maxDistMax = min, max
			first = false
			continue
		}
		if min < r.minDistMin {
			r.minDistMin = min
		}
		if max > r.maxDistMax {
			r.maxDistMax = max
		}
	}
}

// Update folds one batch of sensed points into every registered channel. extrinsic is the 4x4
// camera pose: its translation column is the ray origin, and it transforms each sensedPoints
// entry (given in the camera frame) into the grid's local frame before tracing.
//
// Per spec ordering guarantees: within one ray, channels update in insertion order (i); across
// rays, sensedPoints is walked in order (ii); PostUpdate runs once per channel, in insertion
// order, after every ray in the batch has been applied (iii).
func (r *Reconstruction) Update(sensedPoints []mgl64.Vec3, extrinsic mgl64.Mat4) error {
	origin := translationOf(extrinsic)

	for _, camPoint := range sensedPoints {
		sensed := transformPoint(extrinsic, camPoint)

		ok, err := raytrace.Trace(&r.trace, sensed, origin, r.props, r.minDistMin, r.maxDistMax)
		if err != nil {
			return err
		}
		if !ok {
			r.log.Debugf("ray from %v to %v missed the grid", origin, sensed)
			continue
		}

		for i := r.trace.FirstAbove(0); i < len(r.trace.Entries); i++ {
			r.seen[r.trace.Entries[i].Index] = true
		}

		for _, name := range r.order {
			r.channels[name].ch.Update(&r.trace)
		}
	}

	for _, name := range r.order {
		r.channels[name].ch.PostUpdate()
	}
	return nil
}

func transformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	v := m.Mul4x1(mgl64.Vec4{p[0], p[1], p[2], 1})
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func translationOf(m mgl64.Mat4) mgl64.Vec3 {
	return mgl64.Vec3{m[12], m[13], m[14]}
}

func hasPrefix(name, prefix string) bool {
	return len(name) >= len(prefix) && name[:len(prefix)] == prefix
}

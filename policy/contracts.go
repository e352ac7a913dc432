// Package policy declares the read-only contracts a next-best-view policy implementation needs
// against a Binary channel and a Reconstruction, plus the Policy interface itself. No concrete
// view-selection policy lives here — that remains external, same as it does in the reference
// implementation this is distilled from.
package policy

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/forgescan/forgescan/voxeldata"
)

// occplaneSource is the narrow read accessor a Binary channel's tracking occplane pass
// satisfies. Implemented only by *voxeldata.Binary.
type occplaneSource interface {
	Occplanes() []voxeldata.OccplanePoint
}

// OccplaneView is a read-only snapshot of a Binary channel's most recently tracked occplane
// voxels: one world-space center and one free-neighbor-derived unit normal per voxel, at
// matching indices.
type OccplaneView struct {
	Centers []mgl64.Vec3
	Normals []mgl64.Vec3
}

// ReadOccplanes builds an OccplaneView from ch's most recent tracking occplane pass. Returns
// false if ch does not track occplanes (it is not a *voxeldata.Binary built with
// WithOccplaneTracking, or PostUpdate has not run since the channel was created).
func ReadOccplanes(ch voxeldata.Channel) (OccplaneView, bool) {
	src, ok := ch.(occplaneSource)
	if !ok {
		return OccplaneView{}, false
	}
	points := src.Occplanes()
	if points == nil {
		return OccplaneView{}, false
	}

	view := OccplaneView{
		Centers: make([]mgl64.Vec3, len(points)),
		Normals: make([]mgl64.Vec3, len(points)),
	}
	for i, p := range points {
		view.Centers[i] = p.Center
		view.Normals[i] = p.Normal
	}
	return view, true
}

// Policy is the contract surface a next-best-view policy implementation satisfies. No concrete
// implementation is provided — selecting the next view from reconstruction state is out of
// scope here.
type Policy interface {
	// GetView returns the camera extrinsic the policy currently proposes as the next view.
	GetView() mgl64.Mat4

	// AcceptView tells the policy its proposed view was captured and folded into the
	// Reconstruction, so it may advance its internal state.
	AcceptView()

	// RejectView tells the policy its proposed view was not used, so it may propose a
	// different one on the next GetView call.
	RejectView()

	// IsComplete reports whether the policy considers the scan finished.
	IsComplete() bool

	// Generate recomputes the policy's candidate views from current Reconstruction state.
	Generate()
}

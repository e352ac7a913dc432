// Package metric observes a live Reconstruction and scores it against ground truth. The only
// metric implemented is OccupancyConfusion: a running true/false positive/negative tally against
// a ground-truth Occupancy grid.
package metric

import (
	"github.com/forgescan/forgescan"
	"github.com/forgescan/forgescan/groundtruth"
	"github.com/forgescan/forgescan/reconstruction"
	"github.com/forgescan/forgescan/voxeldata"
)

// occupancySource is the narrow read accessor a Reconstruction channel must satisfy to be
// compared against ground-truth occupancy. voxeldata.Binary and voxeldata.Probability both
// implement it.
type occupancySource interface {
	OccupancyData(seen []bool) []voxeldata.Label
}

// ConfusionRow is one row of OccupancyConfusion's running history: the tally from a single
// PostUpdate call, tagged with how many times PostUpdate had been called on this metric,
// counting that call.
type ConfusionRow struct {
	Update int
	groundtruth.Confusion
}

// OccupancyConfusion tracks one Reconstruction channel's occupancy classification against a
// ground-truth Occupancy grid, appending one ConfusionRow per PostUpdate call.
type OccupancyConfusion struct {
	recon   *reconstruction.Reconstruction
	truth   *groundtruth.Occupancy
	channel string
	source  occupancySource

	History []ConfusionRow
	updates int
}

// New builds an OccupancyConfusion over recon and truth, whose Grid Properties must match.
//
// useChannel names the Reconstruction channel to compare against truth. If it is empty, names
// no registered channel, or names a channel that does not implement OccupancyData, a default
// Binary occupancy channel is created and registered on recon through the privileged metric path
// instead of failing — mirroring the channel the metric needs existing unconditionally.
func New(recon *reconstruction.Reconstruction, truth *groundtruth.Occupancy, useChannel string) (*OccupancyConfusion, error) {
	if !recon.Properties().Equal(truth.Properties()) {
		return nil, forgescan.NewGridPropertyError("ground truth Grid Properties do not match the Reconstruction's", recon.Properties().Size, truth.Properties().Size)
	}

	c := &OccupancyConfusion{recon: recon, truth: truth}

	if src, ok := c.lookupChannel(useChannel); ok {
		c.channel = useChannel
		c.source = src
	} else {
		name := forgescan.MetricChannelPrefix + c.TypeName()
		ch, err := voxeldata.New(recon.Properties())
		if err != nil {
			return nil, err
		}
		if err := recon.MetricAddChannel(name, ch); err != nil {
			return nil, err
		}
		c.channel = name
		c.source = ch
	}

	// c.source is an external reference this OccupancyConfusion keeps regardless of which branch
	// registered the channel; acquiring it here prevents RemoveChannel from pulling the channel
	// out from under a live metric.
	recon.AcquireChannel(c.channel)

	return c, nil
}

func (c *OccupancyConfusion) lookupChannel(name string) (occupancySource, bool) {
	if name == "" {
		return nil, false
	}
	ch, ok := c.recon.Channel(name)
	if !ok {
		return nil, false
	}
	src, ok := ch.(occupancySource)
	return src, ok
}

// TypeName identifies this metric for channel-naming and reporting purposes.
func (c *OccupancyConfusion) TypeName() string { return "OccupancyConfusion" }

// Channel returns the name of the Reconstruction channel this metric compares against truth.
func (c *OccupancyConfusion) Channel() string { return c.channel }

// SetGroundTruth swaps the ground truth this metric compares against, returning false without
// making any change if its Grid Properties do not match the Reconstruction's.
func (c *OccupancyConfusion) SetGroundTruth(truth *groundtruth.Occupancy) bool {
	if !c.recon.Properties().Equal(truth.Properties()) {
		return false
	}
	c.truth = truth
	return true
}

// PostUpdate compares the tracked channel's current occupancy data against ground truth and
// appends the resulting tally to History, tagged with this metric's PostUpdate call count (1 on
// the first call).
// Returns an error if the channel's data length does not match the ground truth grid's.
func (c *OccupancyConfusion) PostUpdate() error {
	c.updates++
	confusion, ok := c.truth.Compare(c.source.OccupancyData(c.recon.Seen()))
	if !ok {
		return forgescan.NewGridPropertyError("measurement length does not match ground truth voxel count", c.recon.Properties().Size, c.truth.Properties().Size)
	}
	c.History = append(c.History, ConfusionRow{Update: c.updates, Confusion: confusion})
	return nil
}

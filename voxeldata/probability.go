package voxeldata

import (
	"math"

	"github.com/forgescan/forgescan"
	"github.com/forgescan/forgescan/grid"
	"github.com/forgescan/forgescan/raytrace"
)

// Default occupation probabilities, mirroring an OctoMap-style log-odds update.
const (
	DefaultPMax    = 0.98
	DefaultPMin    = 0.02
	DefaultPPast   = 0.60
	DefaultPSensed = 0.80
	DefaultPFar    = 0.10
	DefaultPInit   = 0.60
	DefaultPThresh = 0.51
)

// logOdds is log(p / (1-p)), the additive representation of a Bayesian occupancy update.
func logOdds(p float64) float64 {
	return math.Log(p / (1 - p))
}

// probabilityOf inverts logOdds.
func probabilityOf(logOdds float64) float64 {
	return 1 / (1 + math.Exp(-logOdds))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Probability is a log-odds occupancy channel over element type T. Every voxel starts at
// logOdds(p_init); each trace entry nudges the voxel's log-odds toward the entry's implied
// occupation probability, clamped to [logOdds(p_min), logOdds(p_max)].
type Probability[T Float] struct {
	Base

	Data []T

	logPMax, logPMin, logPInit float64
	pPast, pSensed, pFar       float64
	logPThresh                 float64

	// saveAsProbability, when true, means Data is round-tripped through probability space and
	// back around a save; the channel's own Update/Data stay in log-odds space regardless.
	saveAsProbability bool
}

// NewProbability builds a Probability channel. Every probability parameter is clamped to
// [0, 1] before conversion to log-odds.
func NewProbability[T Float](
	props *grid.Properties,
	distMin, distMax float64,
	pMax, pMin, pPast, pSensed, pFar, pInit, pThresh float64,
	saveAsProbability bool,
) (*Probability[T], error) {
	if distMin > distMax {
		return nil, forgescan.NewConstructorError("Probability", "dist_min must be <= dist_max")
	}

	pMax = clamp(pMax, 0, 1)
	pMin = clamp(pMin, 0, 1)
	pPast = clamp(pPast, 0, 1)
	pSensed = clamp(pSensed, 0, 1)
	pFar = clamp(pFar, 0, 1)
	pInit = clamp(pInit, 0, 1)
	pThresh = clamp(pThresh, 0, 1)

	logPInit := logOdds(pInit)
	data := make([]T, props.NumVoxels())
	for i := range data {
		data[i] = T(logPInit)
	}

	return &Probability[T]{
		Base:              NewBase(props, distMin, distMax, "Probability"),
		Data:              data,
		logPMax:           logOdds(pMax),
		logPMin:           logOdds(pMin),
		logPInit:          logPInit,
		pPast:             pPast,
		pSensed:           pSensed,
		pFar:              pFar,
		logPThresh:        logOdds(pThresh),
		saveAsProbability: saveAsProbability,
	}, nil
}

// Update folds every trace entry strictly above dist_min into the channel; unlike Binary and TSDF,
// there is no upper cutoff — entries past dist_max still update, just with the far-field
// probability.
func (p *Probability[T]) Update(tr *raytrace.Trace) {
	distMin, distMax := p.DistWindow()
	iter := tr.FirstAbove(distMin)

	for ; iter < len(tr.Entries); iter++ {
		e := tr.Entries[iter]
		px := p.pAt(e.Dist, distMin, distMax)
		v := float64(p.Data[e.Index]) + logOdds(px)
		p.Data[e.Index] = T(clamp(v, p.logPMin, p.logPMax))
	}
}

// pAt returns the occupation probability implied by a trace entry's distance from the sensed
// point, per the piecewise linear model: behind the surface it interpolates from p_sensed to
// p_past; ahead of it and within dist_max it interpolates from p_sensed to p_far; beyond
// dist_max it is pinned at p_far.
func (p *Probability[T]) pAt(d, distMin, distMax float64) float64 {
	switch {
	case d <= 0:
		dx := math.Abs(d / distMin)
		return lerp(p.pSensed, p.pPast, dx)
	case d <= distMax:
		dx := math.Abs(d / distMax)
		return lerp(p.pSensed, p.pFar, dx)
	default:
		return p.pFar
	}
}

// OccupancyData classifies every voxel against logPThresh: below it is Free; at or above it is
// Occupied only if seen marks that voxel as observed, and Unseen otherwise. A nil or
// mismatched-length seen leaves every above-threshold voxel Unseen, since an untouched voxel
// still at p_init cannot otherwise be told apart from a genuinely observed one. Satisfies the
// interface the confusion metric and ground-truth comparisons use to read occupancy-style
// channels generically.
func (p *Probability[T]) OccupancyData(seen []bool) []Label {
	haveSeen := len(seen) == len(p.Data)

	out := make([]Label, len(p.Data))
	for i, v := range p.Data {
		switch {
		case float64(v) < p.logPThresh:
			out[i] = Free
		case haveSeen && seen[i]:
			out[i] = Occupied
		default:
			out[i] = Unseen
		}
	}
	return out
}

package l3hits

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l2clusters"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

const (
	// minPadCharge is the smallest charge a pad needs to enter the centroid.
	minPadCharge = 0.05
	// preciseTimeShift is removed from event-built-precise hit times, ns.
	preciseTimeShift = 46
	rectTimeError    = 8.5
	rectEnergyScale  = 1e-6
	// IncompleteELoss marks hits from clusters missing an edge.
	IncompleteELoss = -1
)

// Time-based readout position bias, linear in the global coordinate.
var (
	angleCorrX = [2]float64{0.00214788, 0.000195394}
	angleCorrY = [2]float64{0.00370566, 0.000213235}
)

// HitFinder builds hits from rectangular-pad clusters.
type HitFinder struct {
	mod   *setup.Module
	frame setup.Frame
	errs  *setup.HitErrorTable
}

// NewHitFinder returns a hit finder for the module.
func NewHitFinder(mod *setup.Module) *HitFinder {
	return &HitFinder{mod: mod, frame: mod.Frame(), errs: mod.ErrorTable()}
}

// Find builds one hit per cluster. Clusters without charge are dropped.
func (f *HitFinder) Find(clusters []l2clusters.Cluster) []HitData {
	out := make([]HitData, 0, len(clusters))
	for i := range clusters {
		h, ok := f.MakeHit(int32(i), &clusters[i])
		if !ok {
			continue
		}
		out = append(out, HitData{Hit: h})
	}
	return out
}

// MakeHit computes the charge centroid of a cluster. It returns false when
// no pad carries charge.
func (f *HitFinder) MakeHit(refID int32, c *l2clusters.Cluster) (Hit, bool) {
	if len(c.Samples) == 0 {
		return Hit{Address: -1}, false
	}
	nCols := f.mod.NumCols()

	var timeSum float64
	q := make([]float64, 0, len(c.Samples))
	xs := make([]float64, 0, len(c.Samples))
	ys := make([]float64, 0, len(c.Samples))
	zs := make([]float64, 0, len(c.Samples))
	last := c.Samples[len(c.Samples)-1]
	for _, s := range c.Samples {
		if s.Charge <= minPadCharge {
			continue
		}
		timeSum += s.Time
		pad, ok := f.mod.Pad(s.Row(nCols), s.Col(nCols))
		if !ok {
			continue
		}
		q = append(q, s.Charge)
		xs = append(xs, pad.Position[0])
		ys = append(ys, pad.Position[1])
		zs = append(zs, pad.Position[2])
	}
	total := floats.Sum(q)
	if total <= 0 {
		trd.Tracef("module %d: cluster at channel %d has no charge", f.mod.Address, c.StartChannel)
		return Hit{Address: -1}, false
	}

	local := r3.Vec{
		X: floats.Dot(q, xs) / total,
		Y: floats.Dot(q, ys) / total,
		Z: floats.Dot(q, zs) / total,
	}
	g := f.frame.ToGlobal(local)
	if !last.EventBased {
		g.X += angleCorrX[0] + g.X*angleCorrX[1]
		g.Y += angleCorrY[0] + g.Y*angleCorrY[1]
	}

	// uncharged pads count in the mean without contributing a time
	t := timeSum / float64(len(c.Samples))
	if last.EventBasedPrecise {
		t -= preciseTimeShift
	}

	// the table entries are used as position errors as they are
	dx, dy := f.errs.Variance(last.EventBased, last.ErrorClass)
	if setup.IsRotatedQuarter(f.mod.Orientation) {
		dx, dy = dy, dx
		dx = math.Sqrt(f.mod.PadSizeY)
	} else {
		dy = math.Sqrt(f.mod.PadSizeY)
	}

	eloss := total * rectEnergyScale
	if !c.IsComplete(nCols) {
		eloss = IncompleteELoss
	}

	return Hit{
		Address:   f.mod.Address,
		X:         g.X,
		Y:         g.Y,
		Z:         g.Z,
		Dx:        dx,
		Dy:        dy,
		RefID:     refID,
		ELoss:     eloss,
		Time:      t,
		TimeError: rectTimeError,
	}, true
}

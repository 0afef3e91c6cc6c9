package l3hits

import (
	"github.com/banshee-data/trd.reco/internal/trd/l2clusters"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

// HitFinder2D builds hits from triangular-pad clusters.
type HitFinder2D struct {
	mod *setup.Module
	ctx *HitBuildContext
}

// NewHitFinder2D returns a hit finder for the module. timeOffset (ns) is
// added to every hit time.
func NewHitFinder2D(mod *setup.Module, timeOffset float64) *HitFinder2D {
	return &HitFinder2D{mod: mod, ctx: NewHitBuildContext(mod, timeOffset)}
}

// Find builds one hit per finalized cluster. RefID is the cluster index.
func (f *HitFinder2D) Find(clusters []l2clusters.Cluster2D) []HitData {
	out := make([]HitData, 0, len(clusters))
	for i := range clusters {
		cl := &clusters[i]
		if f.ctx.Project(cl.Calibrated, nil) == 0 {
			continue
		}
		h := Hit{Address: f.mod.Address, RefID: int32(i)}
		f.ctx.BuildHit(&h)
		out = append(out, HitData{Hit: h, Samples: cl.Calibrated})
	}
	return out
}

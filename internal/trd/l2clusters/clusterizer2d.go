package l2clusters

import (
	"sort"

	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

// Time matching in clock ticks.
const (
	// addMaxDt is the largest |dt| between a sample and an open cluster's
	// start for the sample to join it.
	addMaxDt = 5
	// minValidCharge is the raw ADC level below which a tilt or rect
	// half is treated as not read out, unless that channel is masked.
	minValidCharge = 1
)

// Clusterizer2D groups triangular-pad samples into Cluster2D values.
type Clusterizer2D struct {
	mod *setup.Module
}

// NewClusterizer2D returns a triangular-pad clusterizer for the module.
func NewClusterizer2D(mod *setup.Module) *Clusterizer2D {
	return &Clusterizer2D{mod: mod}
}

type rowBuffer struct {
	clusters []*Cluster2D
	pos      int
}

// Build clusters the samples of one module (or one row of it). t0 is the
// timeslice start in clock ticks. Output is ordered by row, then by
// cluster start time.
func (c *Clusterizer2D) Build(input []l1samples.IndexedSample, t0 int64) []Cluster2D {
	nCols, nRows := c.mod.NumCols(), c.mod.NumRows()
	if nCols == 0 {
		return nil
	}

	sorted := make([]l1samples.IndexedSample, len(input))
	copy(sorted, input)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sample.TimeDAQ < sorted[j].Sample.TimeDAQ
	})

	rows := make([]rowBuffer, nRows)
	for _, in := range sorted {
		s := in.Sample
		row, col := s.Row(nCols), s.Col(nCols)
		if row < 0 || row >= nRows {
			trd.Opsf("module %d: channel %d out of range, sample %d skipped", c.mod.Address, s.Channel, in.Index)
			continue
		}
		pad, _ := c.mod.Pad(row, col)

		hasTilt := s.TiltCharge >= minValidCharge || pad.TiltMasked
		hasRect := s.RectCharge >= minValidCharge || pad.RectMasked
		if !hasTilt && !hasRect {
			trd.Tracef("module %d: channel %d below threshold on both halves", c.mod.Address, s.Channel)
			continue
		}
		lo, hi := TiltChannel(s.Channel), RectChannel(s.Channel)
		if !hasTilt {
			lo = hi
		}
		if !hasRect {
			hi = lo
		}
		tm := s.EarliestTimeDAQ() - t0

		buf := &rows[row]
		added := false
		for k := buf.pos; k < len(buf.clusters); k++ {
			cl := buf.clusters[k]
			dt := cl.StartTime - tm
			if dt < -addMaxDt {
				if k == buf.pos {
					buf.pos++
				}
				continue
			}
			if dt >= addMaxDt {
				continue
			}
			if cl.Add(in, lo, hi, tm) {
				added = true
				break
			}
		}
		if !added {
			buf.clusters = append(buf.clusters, NewCluster2D(c.mod.Address, in, lo, hi, tm))
		}
	}

	var out []Cluster2D
	for r := range rows {
		merged := mergeRow(rows[r].clusters)
		for _, cl := range merged {
			if !cl.Finalize(c.mod.FEE, nCols) {
				continue
			}
			out = append(out, *cl)
		}
	}
	trd.Tracef("module %d: %d samples -> %d 2D clusters", c.mod.Address, len(input), len(out))
	return out
}

// mergeRow merges clusters of one row pairwise until no pair merges. The
// inner scan stops once start times differ by more than mergeMaxDt.
func mergeRow(clusters []*Cluster2D) []*Cluster2D {
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].StartTime < clusters[j].StartTime
	})
	dead := make([]bool, len(clusters))
	for i := range clusters {
		if dead[i] {
			continue
		}
		for merged := true; merged; {
			merged = false
			for j := i + 1; j < len(clusters); j++ {
				if dead[j] {
					continue
				}
				if clusters[j].StartTime-clusters[i].StartTime > mergeMaxDt {
					break
				}
				if clusters[i].Merge(clusters[j]) {
					dead[j] = true
					merged = true
				}
			}
		}
	}
	out := clusters[:0]
	for i, cl := range clusters {
		if !dead[i] {
			out = append(out, cl)
		}
	}
	return out
}

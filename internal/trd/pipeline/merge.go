package pipeline

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/trd.reco/internal/trd/l3hits"
	"github.com/banshee-data/trd.reco/internal/trd/l4merge"
)

// mergeRowPairs stitches neighbouring rows in place: pairs (0,1), (2,3)...
// of the global row list first, then (1,2), (3,4)... Pairs that straddle
// two modules or belong to a rectangular module are skipped. Pairs of one
// phase are disjoint and run concurrently.
func (h *Hitfind) mergeRowPairs(ctx context.Context, rowHits [][]l3hits.HitData) (int, error) {
	total := 0
	for _, phase := range []int{0, 1} {
		var pairs []int
		for r1 := phase; r1+1 < len(h.rows); r1 += 2 {
			a, b := h.rows[r1], h.rows[r1+1]
			if a.mod != b.mod || !h.modules[a.mod].Triangular {
				continue
			}
			if len(rowHits[r1]) == 0 || len(rowHits[r1+1]) == 0 {
				continue
			}
			pairs = append(pairs, r1)
		}

		merged := make([]int, len(pairs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(h.cfg.GetWorkers())
		for k, r1 := range pairs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				m := l4merge.NewHitMerger2D(&h.modules[h.rows[r1].mod], h.cfg.GetHitTimeOffsetNs())
				res := m.Merge(rowHits[r1], rowHits[r1+1])
				rowHits[r1], rowHits[r1+1] = res.Row1, res.Row2
				merged[k] = res.Merged
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}
		for _, n := range merged {
			total += n
		}
	}
	return total, ctx.Err()
}

// mergeModules concatenates the rows of every module and, for
// triangular-pad modules, runs one module-wide merge pass. It returns one
// hit list per module together with the module addresses.
func (h *Hitfind) mergeModules(ctx context.Context, rowHits [][]l3hits.HitData) ([][]l3hits.HitData, []int, int, error) {
	parts := make([][]l3hits.HitData, len(h.modules))
	addrs := make([]int, len(h.modules))
	for i, r := range h.rows {
		parts[r.mod] = append(parts[r.mod], rowHits[i]...)
	}

	merged := make([]int, len(h.modules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.GetWorkers())
	for i := range h.modules {
		m := &h.modules[i]
		addrs[i] = m.Address
		if !m.Triangular || len(parts[i]) < 2 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			kept, outcomes := l4merge.NewHitMerger2D(m, h.cfg.GetHitTimeOffsetNs()).MergeModule(parts[i])
			parts[i] = kept
			merged[i] = countAbsorbed(outcomes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	total := 0
	for _, n := range merged {
		total += n
	}
	return parts, addrs, total, ctx.Err()
}

func countAbsorbed(outcomes []l4merge.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Kind == l4merge.AbsorbedInto {
			n++
		}
	}
	return n
}

// flatten lays the partitions out back to back.
func flatten(parts [][]l3hits.HitData, addrs []int) ([]l3hits.Hit, []Partition) {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	hits := make([]l3hits.Hit, 0, n)
	partitions := make([]Partition, len(parts))
	for i, p := range parts {
		partitions[i] = Partition{Address: addrs[i], Offset: len(hits), Size: len(p)}
		for _, hd := range p {
			hits = append(hits, hd.Hit)
		}
	}
	return slices.Clip(hits), partitions
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/trd.reco/internal/config"
	"github.com/banshee-data/trd.reco/internal/timeutil"
	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/l2clusters"
	"github.com/banshee-data/trd.reco/internal/trd/l3hits"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

// ErrDuplicateModule is returned by New when two setups share an address.
var ErrDuplicateModule = errors.New("duplicate module address")

// Partition locates the hits of one module (or one row of it) inside
// Result.Hits.
type Partition struct {
	Address int `json:"address"`
	Offset  int `json:"offset"`
	Size    int `json:"size"`
}

// Monitor collects per-timeslice counters and stage durations.
type Monitor struct {
	NumSamples  int           `json:"num_samples"`
	NumDropped  int           `json:"num_dropped"`
	NumClusters int           `json:"num_clusters"`
	NumHits     int           `json:"num_hits"`
	NumMerged   int           `json:"num_merged"`
	SortTime    time.Duration `json:"sort_time"`
	HitfindTime time.Duration `json:"hitfind_time"`
}

// Result is the output of one Run.
type Result struct {
	Hits       []l3hits.Hit
	Partitions []Partition
	Monitor    Monitor
}

// Part returns the hits of partition i.
func (r *Result) Part(i int) []l3hits.Hit {
	p := r.Partitions[i]
	return r.Hits[p.Offset : p.Offset+p.Size]
}

// rowRef addresses one pad row in the global row list.
type rowRef struct {
	mod int // index into Hitfind.modules
	row int
}

// Hitfind reconstructs hits for a fixed set of modules. Run may be called
// repeatedly; every call builds its own per-row state.
type Hitfind struct {
	modules []setup.Module
	byAddr  map[int]int
	rows    []rowRef
	cfg     *config.TuningConfig
	clock   timeutil.Clock
}

// New validates the module setups and the tuning config and prepares the
// global row list. A nil cfg uses the defaults.
func New(modules []setup.Module, cfg *config.TuningConfig) (*Hitfind, error) {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning config: %w", err)
	}

	h := &Hitfind{
		modules: slices.Clone(modules),
		byAddr:  make(map[int]int, len(modules)),
		cfg:     cfg,
		clock:   timeutil.RealClock{},
	}
	for i := range h.modules {
		m := &h.modules[i]
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("module %d: %w", m.Address, err)
		}
		if _, ok := h.byAddr[m.Address]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateModule, m.Address)
		}
		h.byAddr[m.Address] = i
		for r := 0; r < m.NumRows(); r++ {
			h.rows = append(h.rows, rowRef{mod: i, row: r})
		}
	}
	trd.Diagf("configured hit finding for %d modules, %d rows", len(h.modules), len(h.rows))
	return h, nil
}

// SetClock replaces the clock used for the monitor timings.
func (h *Hitfind) SetClock(c timeutil.Clock) { h.clock = c }

// NumRows returns the length of the global row list.
func (h *Hitfind) NumRows() int { return len(h.rows) }

// Run reconstructs the hits of one timeslice. It returns ctx.Err() when
// the context is cancelled before all jobs have finished.
func (h *Hitfind) Run(ctx context.Context, samples []l1samples.ChannelSample) (Result, error) {
	var res Result
	res.Monitor.NumSamples = len(samples)

	start := h.clock.Now()
	buckets, dropped := h.bucket(samples)
	res.Monitor.NumDropped = dropped
	res.Monitor.SortTime = h.clock.Since(start)

	start = h.clock.Now()
	rowHits, nClusters, err := h.findRows(ctx, buckets)
	if err != nil {
		return Result{}, err
	}
	res.Monitor.NumClusters = nClusters

	var parts [][]l3hits.HitData
	var addrs []int
	switch h.cfg.GetMergeMode() {
	case config.MergeByModule:
		if h.cfg.GetPreprocessByRow() {
			n, err := h.mergeRowPairs(ctx, rowHits)
			if err != nil {
				return Result{}, err
			}
			res.Monitor.NumMerged += n
		}
		var n int
		parts, addrs, n, err = h.mergeModules(ctx, rowHits)
		if err != nil {
			return Result{}, err
		}
		res.Monitor.NumMerged += n
	default:
		if h.cfg.GetMergeRows() {
			n, err := h.mergeRowPairs(ctx, rowHits)
			if err != nil {
				return Result{}, err
			}
			res.Monitor.NumMerged = n
		}
		parts = rowHits
		addrs = make([]int, len(h.rows))
		for i, r := range h.rows {
			addrs[i] = h.modules[r.mod].Address
		}
	}

	res.Hits, res.Partitions = flatten(parts, addrs)
	if h.cfg.GetSortHitsByTime() {
		for i := range res.Partitions {
			part := res.Part(i)
			sort.SliceStable(part, func(a, b int) bool { return part[a].Time < part[b].Time })
		}
	}
	res.Monitor.NumHits = len(res.Hits)
	res.Monitor.HitfindTime = h.clock.Since(start)

	trd.Diagf("timeslice: %d samples (%d dropped), %d clusters, %d hits (%d merged), sort %v, hitfind %v",
		res.Monitor.NumSamples, res.Monitor.NumDropped, res.Monitor.NumClusters, res.Monitor.NumHits,
		res.Monitor.NumMerged, res.Monitor.SortTime, res.Monitor.HitfindTime)
	return res, nil
}

// bucket splits samples into per-row inputs indexed like h.rows. Samples
// of unknown modules, of the wrong readout type or outside the pad plane
// are dropped.
func (h *Hitfind) bucket(samples []l1samples.ChannelSample) ([][]l1samples.IndexedSample, int) {
	first := make([]int, len(h.modules))
	for i := len(h.rows) - 1; i >= 0; i-- {
		first[h.rows[i].mod] = i
	}

	buckets := make([][]l1samples.IndexedSample, len(h.rows))
	dropped := 0
	for i, s := range samples {
		mi, ok := h.byAddr[s.Module]
		if !ok {
			trd.Opsf("unknown module %d, sample %d dropped", s.Module, i)
			dropped++
			continue
		}
		m := &h.modules[mi]
		if m.Triangular != s.IsFasp() {
			trd.Opsf("module %d: sample %d readout type %s does not match module", m.Address, i, s.Asic)
			dropped++
			continue
		}
		row := s.Row(m.NumCols())
		if s.Channel < 0 || row >= m.NumRows() {
			trd.Opsf("module %d: sample %d channel %d outside pad plane", m.Address, i, s.Channel)
			dropped++
			continue
		}
		g := first[mi] + row
		buckets[g] = append(buckets[g], l1samples.IndexedSample{Sample: s, Index: int32(i)})
	}
	return buckets, dropped
}

// findRows clusters and builds hits for every row on the worker pool.
func (h *Hitfind) findRows(ctx context.Context, buckets [][]l1samples.IndexedSample) ([][]l3hits.HitData, int, error) {
	hits := make([][]l3hits.HitData, len(h.rows))
	clusters := make([]int, len(h.rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.GetWorkers())
	for i := range h.rows {
		if len(buckets[i]) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hits[i], clusters[i] = h.findRow(&h.modules[h.rows[i].mod], buckets[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, n := range clusters {
		total += n
	}
	return hits, total, nil
}

// findRow runs one row with fresh clusterizer and finder instances.
func (h *Hitfind) findRow(m *setup.Module, in []l1samples.IndexedSample) ([]l3hits.HitData, int) {
	if m.Triangular {
		cl := l2clusters.NewClusterizer2D(m).Build(in, h.cfg.GetTimesliceStartClk())
		return l3hits.NewHitFinder2D(m, h.cfg.GetHitTimeOffsetNs()).Find(cl), len(cl)
	}
	cl := l2clusters.NewClusterizer(m).Build(in)
	return l3hits.NewHitFinder(m).Find(cl), len(cl)
}

package l2clusters

import (
	"math"
	"sort"

	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

// Clusterizer groups rectangular-pad samples into clusters.
//
// Every self-triggered sample seeds a cluster. The cluster grows one pad at
// a time to the left and right, taking a self-triggered sample of the next
// pad if one lies within one ASIC clock period of the seed, otherwise a
// neighbour-triggered one, which closes that side. The first and last
// column of a row always close their side, so clusters never wrap rows.
// Each sample joins at most one cluster.
type Clusterizer struct {
	mod *setup.Module
}

// NewClusterizer returns a clusterizer for the given module.
func NewClusterizer(mod *setup.Module) *Clusterizer {
	return &Clusterizer{mod: mod}
}

// sampleArena owns the samples of one Build call. Buckets hold arena
// indices per channel in ascending time; cursors only move forward.
type sampleArena struct {
	samples  []l1samples.IndexedSample
	consumed []bool
}

type bucketSet struct {
	arena   *sampleArena
	entries [][]int
	cursor  []int
}

func newBucketSet(a *sampleArena, nChannels int) *bucketSet {
	return &bucketSet{
		arena:   a,
		entries: make([][]int, nChannels),
		cursor:  make([]int, nChannels),
	}
}

// take consumes the first unused sample on channel ch within window of t.
// Entries older than the window are skipped for good, which is valid
// because seeds are visited in ascending time.
func (b *bucketSet) take(ch int, t, window float64) (int, bool) {
	if ch < 0 || ch >= len(b.entries) {
		return -1, false
	}
	list := b.entries[ch]
	for k := b.cursor[ch]; k < len(list); k++ {
		i := list[k]
		st := b.arena.samples[i].Sample.Time
		if b.arena.consumed[i] || st < t-window {
			if k == b.cursor[ch] {
				b.cursor[ch]++
			}
			continue
		}
		if st > t+window {
			return -1, false
		}
		b.arena.consumed[i] = true
		if k == b.cursor[ch] {
			b.cursor[ch]++
		}
		return i, true
	}
	return -1, false
}

// Build clusters the samples of one module (or one row of it).
func (c *Clusterizer) Build(input []l1samples.IndexedSample) []Cluster {
	nCols, nRows := c.mod.NumCols(), c.mod.NumRows()
	nChannels := nCols * nRows

	arena := &sampleArena{samples: input, consumed: make([]bool, len(input))}
	order := make([]int, 0, len(input))
	for i, in := range input {
		if in.Sample.Channel < 0 || in.Sample.Channel >= nChannels {
			trd.Opsf("module %d: channel %d out of range, sample %d skipped", c.mod.Address, in.Sample.Channel, in.Index)
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return input[order[a]].Sample.Time < input[order[b]].Sample.Time
	})

	self := newBucketSet(arena, nChannels)
	neighbor := newBucketSet(arena, nChannels)
	for _, i := range order {
		ch := input[i].Sample.Channel
		if input[i].Sample.IsSelfTriggered() {
			self.entries[ch] = append(self.entries[ch], i)
		} else {
			neighbor.entries[ch] = append(neighbor.entries[ch], i)
		}
	}

	var clusters []Cluster
	for _, seed := range order {
		s := input[seed].Sample
		if arena.consumed[seed] || !s.IsSelfTriggered() {
			continue
		}
		arena.consumed[seed] = true
		clusters = append(clusters, c.grow(arena, self, neighbor, seed))
	}
	trd.Tracef("module %d: %d samples -> %d clusters", c.mod.Address, len(input), len(clusters))
	return clusters
}

func (c *Clusterizer) grow(arena *sampleArena, self, neighbor *bucketSet, seed int) Cluster {
	nCols := c.mod.NumCols()
	s := arena.samples[seed].Sample
	window := s.ClockPeriod()
	if window <= 0 {
		window = math.SmallestNonzeroFloat64
	}

	left, right := s.Channel, s.Channel
	leftOpen := s.Col(nCols) > 0
	rightOpen := s.Col(nCols) < nCols-1
	var leftIdx, rightIdx []int

	extend := func(ch int) (int, bool, bool) {
		if i, ok := self.take(ch, s.Time, window); ok {
			return i, true, true
		}
		if i, ok := neighbor.take(ch, s.Time, window); ok {
			return i, true, false
		}
		return -1, false, false
	}

	for leftOpen || rightOpen {
		if leftOpen {
			leftOpen = false
			if i, ok, selfTrig := extend(left - 1); ok {
				left--
				leftIdx = append(leftIdx, i)
				leftOpen = selfTrig && left%nCols > 0
			}
		}
		if rightOpen {
			rightOpen = false
			if i, ok, selfTrig := extend(right + 1); ok {
				right++
				rightIdx = append(rightIdx, i)
				rightOpen = selfTrig && right%nCols < nCols-1
			}
		}
	}

	members := make([]int, 0, len(leftIdx)+1+len(rightIdx))
	for k := len(leftIdx) - 1; k >= 0; k-- {
		members = append(members, leftIdx[k])
	}
	members = append(members, seed)
	members = append(members, rightIdx...)

	cl := Cluster{
		Address:       c.mod.Address,
		StartChannel:  left,
		NCols:         right - left + 1,
		NRows:         1,
		StartTime:     s.Time,
		SampleIndices: make([]int32, len(members)),
		Samples:       make([]l1samples.ChannelSample, len(members)),
	}
	for k, i := range members {
		cl.SampleIndices[k] = arena.samples[i].Index
		cl.Samples[k] = arena.samples[i].Sample
		if t := arena.samples[i].Sample.Time; t < cl.StartTime {
			cl.StartTime = t
		}
	}
	return cl
}

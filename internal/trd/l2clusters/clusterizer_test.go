package l2clusters

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trd.reco/internal/testutil"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

const (
	testAddress  = 21
	testCols     = 144
	testRows     = 24
	permSpacing  = 3000.0
	selfCharge   = 1000.0
	neighbCharge = 500.0
)

func rectModule() *setup.Module {
	m := setup.NewGrid(testAddress, testRows, testCols, 0.666667, 12, false)
	return &m
}

func st(ch int, t float64) l1samples.ChannelSample {
	return l1samples.NewSpadicSample(testAddress, ch, selfCharge, t, l1samples.TriggerSelf)
}

func nt(ch int, t float64) l1samples.ChannelSample {
	return l1samples.NewSpadicSample(testAddress, ch, neighbCharge, t, l1samples.TriggerNeighbor)
}

// permuted lays every ordering of samples one after another in time,
// permSpacing ns apart, and sorts the result by time.
func permuted(samples ...l1samples.ChannelSample) []l1samples.IndexedSample {
	var all []l1samples.ChannelSample
	for k, p := range testutil.Permutations(samples) {
		for _, s := range p {
			s.Time += float64(k) * permSpacing
			all = append(all, s)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time < all[j].Time })
	return l1samples.Index(all)
}

func sizes(clusters []Cluster) map[int]int {
	out := map[int]int{}
	for _, c := range clusters {
		out[c.Size()]++
	}
	return out
}

func TestClusterizer_Topologies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		samples []l1samples.ChannelSample
		want    map[int]int
	}{
		{"three pad", []l1samples.ChannelSample{nt(15, 0), st(16, 0), nt(17, 0)}, map[int]int{3: 6}},
		{"single self trigger", []l1samples.ChannelSample{st(16, 0)}, map[int]int{1: 1}},
		{"single neighbour trigger", []l1samples.ChannelSample{nt(16, 0)}, map[int]int{}},
		{"two pad left", []l1samples.ChannelSample{nt(15, 0), st(16, 0)}, map[int]int{2: 2}},
		{"two pad right", []l1samples.ChannelSample{st(16, 0), nt(17, 0)}, map[int]int{2: 2}},
		{"self trigger on next row", []l1samples.ChannelSample{nt(142, 0), st(143, 0), st(144, 0)}, map[int]int{2: 6, 1: 6}},
		{"neighbour trigger on next row", []l1samples.ChannelSample{nt(142, 0), st(143, 0), nt(144, 0)}, map[int]int{2: 6}},
		{"self trigger on previous row", []l1samples.ChannelSample{st(143, 0), st(144, 0), nt(145, 0)}, map[int]int{2: 6, 1: 6}},
		{"neighbour trigger on previous row", []l1samples.ChannelSample{nt(143, 0), st(144, 0), nt(145, 0)}, map[int]int{2: 6}},
		{"three pad with lone neighbour", []l1samples.ChannelSample{nt(149, 0), st(150, 0), nt(151, 0), nt(152, 0)}, map[int]int{3: 24}},
		{"time distance within clock", []l1samples.ChannelSample{nt(503, 500), st(504, 500), st(505, 562), nt(506, 562)}, map[int]int{4: 24}},
		{"time distance beyond clock", []l1samples.ChannelSample{nt(503, 500), st(504, 500), st(505, 563), nt(506, 563)}, map[int]int{2: 48}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clusters := NewClusterizer(rectModule()).Build(permuted(tt.samples...))
			assert.Equal(t, tt.want, sizes(clusters))
		})
	}
}

func TestClusterizer_AdjacentThreePads(t *testing.T) {
	t.Parallel()
	in := permuted(nt(149, 0), st(150, 0), nt(151, 0), nt(152, 0), st(153, 0), nt(154, 0))

	clusters := NewClusterizer(rectModule()).Build(in)

	assert.Equal(t, map[int]int{3: 1440}, sizes(clusters))
}

func TestClusterizer_RowBorders(t *testing.T) {
	t.Parallel()
	var samples []l1samples.ChannelSample
	for row := 0; row < testRows; row++ {
		samples = append(samples, st(row*testCols, 0), st((row+1)*testCols-1, 0))
	}

	clusters := NewClusterizer(rectModule()).Build(l1samples.Index(samples))

	assert.Equal(t, map[int]int{1: 48}, sizes(clusters))
}

func TestClusterizer_ClusterLayout(t *testing.T) {
	t.Parallel()
	in := l1samples.Index([]l1samples.ChannelSample{nt(17, 10), st(16, 0), nt(15, 5)})

	clusters := NewClusterizer(rectModule()).Build(in)

	require.Len(t, clusters, 1)
	c := clusters[0]
	assert.Equal(t, testAddress, c.Address)
	assert.Equal(t, 15, c.StartChannel)
	assert.Equal(t, 17, c.EndChannel())
	assert.Equal(t, 3, c.NCols)
	assert.Equal(t, 1, c.NRows)
	assert.Equal(t, 0.0, c.StartTime)
	assert.Equal(t, []int32{2, 1, 0}, c.SampleIndices)
	assert.True(t, c.IsComplete(testCols))
}

func TestClusterizer_SamplesUsedOnce(t *testing.T) {
	t.Parallel()
	in := permuted(nt(149, 0), st(150, 0), nt(151, 0), st(152, 0), nt(153, 0))

	clusters := NewClusterizer(rectModule()).Build(in)

	seen := map[int32]bool{}
	for _, c := range clusters {
		for _, idx := range c.SampleIndices {
			assert.False(t, seen[idx], "sample %d used twice", idx)
			seen[idx] = true
		}
	}
}

func TestClusterizer_SkipsOutOfRangeChannel(t *testing.T) {
	t.Parallel()
	in := l1samples.Index([]l1samples.ChannelSample{st(testRows*testCols, 0), st(16, 0)})

	clusters := NewClusterizer(rectModule()).Build(in)

	require.Len(t, clusters, 1)
	assert.Equal(t, 16, clusters[0].StartChannel)
}

func TestCluster_IsComplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cluster Cluster
		want    bool
	}{
		{"bounded", Cluster{StartChannel: 15, NCols: 3, NRows: 1,
			Samples: []l1samples.ChannelSample{nt(15, 0), st(16, 0), nt(17, 0)}}, true},
		{"open right", Cluster{StartChannel: 142, NCols: 2, NRows: 1,
			Samples: []l1samples.ChannelSample{nt(142, 0), st(143, 0)}}, false},
		{"single pad", Cluster{StartChannel: 16, NCols: 1, NRows: 1,
			Samples: []l1samples.ChannelSample{st(16, 0)}}, false},
		{"duplicate pad", Cluster{StartChannel: 15, NCols: 3, NRows: 1,
			Samples: []l1samples.ChannelSample{nt(15, 0), nt(15, 0), nt(17, 0)}}, false},
		{"outside box", Cluster{StartChannel: 15, NCols: 2, NRows: 1,
			Samples: []l1samples.ChannelSample{nt(15, 0), nt(17, 0)}}, false},
		{"empty", Cluster{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cluster.IsComplete(testCols))
		})
	}
}

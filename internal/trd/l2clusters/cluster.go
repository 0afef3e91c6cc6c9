package l2clusters

import (
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
)

// Cluster is a group of adjacent rectangular pads that fired together.
// Samples are ordered by ascending channel.
type Cluster struct {
	Address       int
	StartChannel  int
	NCols         int
	NRows         int
	StartTime     float64
	SampleIndices []int32
	Samples       []l1samples.ChannelSample
}

// Size returns the number of samples in the cluster.
func (c *Cluster) Size() int { return len(c.Samples) }

// EndChannel returns the last channel covered by the cluster.
func (c *Cluster) EndChannel() int { return c.StartChannel + c.NCols - 1 }

// IsComplete reports whether every row of the cluster is bounded on both
// sides by neighbour-triggered pads and no pad appears twice. An
// incomplete cluster lost charge outside its edges.
func (c *Cluster) IsComplete(nCols int) bool {
	if len(c.Samples) == 0 || c.NCols <= 0 || c.NRows <= 0 || nCols <= 0 {
		return false
	}
	startRow, startCol := c.StartChannel/nCols, c.StartChannel%nCols
	grid := make([][]*l1samples.ChannelSample, c.NRows)
	for r := range grid {
		grid[r] = make([]*l1samples.ChannelSample, c.NCols)
	}
	for i := range c.Samples {
		s := &c.Samples[i]
		r, col := s.Row(nCols)-startRow, s.Col(nCols)-startCol
		if r < 0 || r >= c.NRows || col < 0 || col >= c.NCols {
			return false
		}
		if grid[r][col] != nil {
			return false
		}
		grid[r][col] = s
	}
	for _, row := range grid {
		var first, last *l1samples.ChannelSample
		for _, s := range row {
			if s == nil {
				continue
			}
			if first == nil {
				first = s
			}
			last = s
		}
		if first == nil || first.IsSelfTriggered() || last.IsSelfTriggered() {
			return false
		}
	}
	return true
}

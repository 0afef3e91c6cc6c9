package l2clusters

import (
	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
)

// Merge time limits in clock ticks.
const (
	mergeMaxDt        = 50
	mergeMaxDtWideCls = 20
)

// RowFlags describes the row extent of a Cluster2D and whether its edges
// are open. Start is set when the leftmost pad contributes only its rect
// half; Stop when the rightmost pad contributes only its tilt half.
type RowFlags struct {
	Count int
	Start bool
	Stop  bool
}

// TiltChannel returns the logical tilt channel of a triangular pad.
func TiltChannel(pad int) int { return pad << 1 }

// RectChannel returns the logical rect channel of a triangular pad.
func RectChannel(pad int) int { return pad<<1 + 1 }

// Cluster2D is a group of triangular pads in the interleaved tilt/rect
// channel space (tilt = 2*pad, rect = 2*pad+1). StartCh and NCols are
// counted in that space; StartTime is in clock ticks relative to the
// timeslice start.
type Cluster2D struct {
	Address       int
	StartCh       int
	NCols         int
	Rows          RowFlags
	StartTime     int64
	SampleIndices []int32
	Calibrated    []l1samples.CalibratedSample

	samples []l1samples.ChannelSample
}

// NewCluster2D opens a cluster with one sample covering channels [lo, hi].
func NewCluster2D(address int, in l1samples.IndexedSample, lo, hi int, t int64) *Cluster2D {
	c := &Cluster2D{
		Address:       address,
		StartCh:       lo,
		NCols:         hi - lo + 1,
		Rows:          RowFlags{Count: 1},
		StartTime:     t,
		SampleIndices: []int32{in.Index},
		samples:       []l1samples.ChannelSample{in.Sample},
	}
	c.updateFlags()
	return c
}

// EndCh returns the last logical channel of the cluster.
func (c *Cluster2D) EndCh() int { return c.StartCh + c.NCols - 1 }

// Size returns the number of raw samples held by the cluster.
func (c *Cluster2D) Size() int { return len(c.samples) }

// Pads returns the number of pads spanned by the cluster.
func (c *Cluster2D) Pads() int {
	if c.NCols <= 0 {
		return 0
	}
	return c.EndCh()>>1 - c.StartCh>>1 + 1
}

// Samples returns the raw samples in ascending channel order.
func (c *Cluster2D) Samples() []l1samples.ChannelSample { return c.samples }

// InRange locates channels [lo, hi] relative to the cluster: -1 when they
// lie left of it with a gap, 1 when right of it with a gap, 0 when they
// overlap or touch it.
func (c *Cluster2D) InRange(lo, hi int) int {
	if hi < c.StartCh-1 {
		return -1
	}
	if lo > c.EndCh()+1 {
		return 1
	}
	return 0
}

// Add inserts a sample covering [lo, hi] taken at tick t. It fails when
// the channels are not contiguous with the cluster.
func (c *Cluster2D) Add(in l1samples.IndexedSample, lo, hi int, t int64) bool {
	if c.InRange(lo, hi) != 0 {
		return false
	}
	pos := len(c.samples)
	for pos > 0 && c.samples[pos-1].Channel > in.Sample.Channel {
		pos--
	}
	c.samples = insertAt(c.samples, pos, in.Sample)
	c.SampleIndices = insertAt(c.SampleIndices, pos, in.Index)

	end := c.EndCh()
	if lo < c.StartCh {
		c.StartCh = lo
	}
	if hi > end {
		end = hi
	}
	c.NCols = end - c.StartCh + 1
	if t < c.StartTime {
		c.StartTime = t
	}
	c.updateFlags()
	return true
}

// Merge absorbs other when one cluster's channel range ends right where
// the other's begins and the two started close enough in time: 50 ticks,
// or 20 when both span more than one pad. Overlapping ranges never merge.
// Samples keep ascending channel order. other is left unchanged; the
// caller drops it on success.
func (c *Cluster2D) Merge(other *Cluster2D) bool {
	if other == nil || other == c {
		return false
	}
	if other.StartCh != c.EndCh()+1 && c.StartCh != other.EndCh()+1 {
		return false
	}
	dt := other.StartTime - c.StartTime
	if dt < 0 {
		dt = -dt
	}
	limit := int64(mergeMaxDt)
	if c.Pads() > 1 && other.Pads() > 1 {
		limit = mergeMaxDtWideCls
	}
	if dt > limit {
		return false
	}

	samples := make([]l1samples.ChannelSample, 0, len(c.samples)+len(other.samples))
	indices := make([]int32, 0, cap(samples))
	i, j := 0, 0
	for i < len(c.samples) || j < len(other.samples) {
		if j >= len(other.samples) || (i < len(c.samples) && c.samples[i].Channel <= other.samples[j].Channel) {
			samples = append(samples, c.samples[i])
			indices = append(indices, c.SampleIndices[i])
			i++
			continue
		}
		samples = append(samples, other.samples[j])
		indices = append(indices, other.SampleIndices[j])
		j++
	}
	c.samples, c.SampleIndices = samples, indices

	end := max(c.EndCh(), other.EndCh())
	c.StartCh = min(c.StartCh, other.StartCh)
	c.NCols = end - c.StartCh + 1
	c.StartTime = min(c.StartTime, other.StartTime)
	c.Rows.Count = max(c.Rows.Count, other.Rows.Count)
	c.updateFlags()
	return true
}

// Finalize pairs the raw samples into calibrated per-pad samples. Two
// consecutive samples of the same pad become one calibrated sample. It
// fails, leaving the cluster unusable, when samples are not in ascending
// pad order or span more than one row.
func (c *Cluster2D) Finalize(fee l1samples.FEECalibration, numCols int) bool {
	c.Calibrated = c.Calibrated[:0]
	if len(c.samples) == 0 || numCols <= 0 {
		return false
	}
	row := c.samples[0].Row(numCols)
	prev := -1
	for i := 0; i < len(c.samples); {
		s := c.samples[i]
		if s.Row(numCols) != row || s.Channel <= prev {
			trd.Opsf("module %d: cluster at channel %d has samples out of pad order (%d after %d), dropped",
				c.Address, c.StartCh, s.Channel, prev)
			c.Calibrated = nil
			return false
		}
		if i+1 < len(c.samples) && c.samples[i+1].Channel == s.Channel {
			c.Calibrated = append(c.Calibrated, l1samples.NewCalibratedPair(fee, s, c.samples[i+1]))
			i += 2
		} else {
			c.Calibrated = append(c.Calibrated, l1samples.NewCalibratedSample(fee, s))
			i++
		}
		prev = s.Channel
	}
	return true
}

func (c *Cluster2D) updateFlags() {
	c.Rows.Start = c.StartCh&1 == 1
	c.Rows.Stop = c.EndCh()&1 == 0
}

func insertAt[T any](s []T, pos int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

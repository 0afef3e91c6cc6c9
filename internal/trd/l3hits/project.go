package l3hits

import (
	"math"

	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
)

// Profile construction constants.
const (
	signalError      = 100.0
	pairedErrorScale = 0.707
	overflowError    = 150.0
	missingError     = 300.0
	tiltPosError     = 0.035
	anchorThreshold  = 1e-3
	biasErrorLevel   = 0.8 * signalError
)

// Project loads a cluster into the context as a signal profile and
// classifies it. primary holds the calibrated samples of the cluster in
// ascending pad order. secondary, when non-nil, holds the samples of a
// cluster on the adjacent row: its rect halves of the same column, and
// its tilt halves of the neighbouring column, are averaged into the
// profile and the row-cross bias flags are evaluated.
//
// The return value is the number of inner profile entries, negated when a
// contributing half overflowed, or 0 for an empty cluster.
func (c *HitBuildContext) Project(primary, secondary []l1samples.CalibratedSample) int {
	c.Reset()
	if len(primary) == 0 {
		trd.Tracef("module %d: projection requested for empty cluster", c.mod.Address)
		return 0
	}

	var (
		nsr, nR, nT int
		ovf         = 1
		dt0         int64
		xc          = -0.5
		maxSignal   float64
		firstCol    = -1
		step        int
		i1          int
	)

	for j, dg := range primary {
		row0, col0 := c.mod.RowCol(dg.Channel())
		if firstCol < 0 {
			c.MaxRow, firstCol = row0, col0
			c.T0 = dg.TimeDAQ()
		}

		nt, nr := 0, 0
		t, on := dg.TiltCharge()
		if on {
			nt = 1
		}
		r, on := dg.RectCharge()
		if on {
			nr = 1
		}

		if secondary != nil {
			matched := false
			if i1 < len(secondary) {
				row1, col1 := c.mod.RowCol(secondary[i1].Channel())
				if step == 0 {
					step = c.MaxRow - row1
				}
				if col1 == col0 {
					rr, on := secondary[i1].RectCharge()
					r += rr
					if on {
						nr++
					}
					matched = true
				}
			}
			if step == 1 && i1 > 0 && i1-1 < len(secondary) {
				if _, col1 := c.mod.RowCol(secondary[i1-1].Channel()); col1 == col0-1 {
					tt, on := secondary[i1-1].TiltCharge()
					t += tt
					if on {
						nt++
					}
				}
			}
			if step == -1 && i1+1 < len(secondary) {
				if _, col1 := c.mod.RowCol(secondary[i1+1].Channel()); col1 == col0+1 {
					tt, on := secondary[i1+1].TiltCharge()
					t += tt
					if on {
						nt++
					}
				}
			}
			if matched {
				i1++
			}
		}

		// tilt half
		ddt := dg.TiltTime() - c.T0
		if ddt < dt0 {
			dt0 = ddt
		}
		se := missingError
		if math.Abs(t) > 0 {
			if nt > 1 {
				t *= 0.5
			}
			se = signalError
			if nt > 1 {
				se *= pairedErrorScale
			}
			if dg.HasTiltOverflow() {
				ovf = -1
				se = overflowError
			}
			if t > maxSignal {
				maxSignal = t
				c.MaxCol = j
				c.Dominant = DominantTilt
				c.MaxIndex = len(c.Signals)
			}
		}
		c.Signals = append(c.Signals, Signal{S: t, SE: se, T: ddt, X: xc, XE: tiltPosError})
		xc += 0.5

		// rect half
		ddt = dg.RectTime() - c.T0
		if ddt < dt0 {
			dt0 = ddt
		}
		se = missingError
		if math.Abs(r) > 0 {
			nsr++
			if nr > 1 {
				r *= 0.5
			}
			se = signalError
			if nr > 1 {
				se *= pairedErrorScale
			}
			if dg.HasRectOverflow() {
				ovf = -1
				se = overflowError
			}
			if r > maxSignal {
				maxSignal = r
				c.MaxCol = j
				c.Dominant = DominantRect
				c.MaxIndex = len(c.Signals)
			}
		}
		c.Signals = append(c.Signals, Signal{S: r, SE: se, T: ddt, X: xc})
		xc += 0.5

		nR += nr
		nT += nt
	}

	// zero anchors close the profile on both ends
	if first := c.Signals[0]; math.Abs(first.S) > anchorThreshold {
		c.Signals = append(c.Signals, Signal{})
		copy(c.Signals[1:], c.Signals)
		c.Signals[0] = Signal{S: 0, SE: missingError, T: first.T, X: first.X - 0.5}
		c.MaxIndex++
	}
	if last := c.Signals[len(c.Signals)-1]; math.Abs(last.S) > anchorThreshold {
		c.Signals = append(c.Signals, Signal{S: 0, SE: missingError, T: last.T, X: last.X + 0.5, XE: tiltPosError})
	}

	n0 := len(c.Signals) - 2
	right := n0 + 1 - c.MaxIndex
	switch {
	case right == c.MaxIndex:
		c.Topology = TopologySymmetric
		if len(c.Signals)%2 == 1 {
			var ls, rs float64
			for idx := 0; idx < c.MaxIndex; idx++ {
				ls += c.Signals[idx].S
			}
			for idx := c.MaxIndex + 1; idx < len(c.Signals); idx++ {
				rs += c.Signals[idx].S
			}
			c.LeftSignalStronger = !(ls < rs)
		}
	case c.MaxIndex > right:
		c.Topology = TopologyLeftBiased
	default:
		c.Topology = TopologyRightBiased
	}

	// recentre time on the earliest half and space on the maximum
	c.T0 += dt0
	for i := range c.Signals {
		c.Signals[i].T -= dt0
		c.Signals[i].X -= float64(c.MaxCol)
	}
	c.MaxCol += firstCol

	if secondary != nil {
		c.evalBias(n0, nsr, nR, nT)
	}

	if ovf < 0 {
		c.Overflow = true
	}
	return ovf * n0
}

// evalBias flags row-cross profiles where the number of read-out halves
// differs from the number of non-zero entries.
func (c *HitBuildContext) evalBias(n0, nsr, nR, nT int) {
	last := len(c.Signals) - 1
	if 2*nsr-nR != 0 {
		c.Bias.X = true
		for idx := 1; idx < c.MaxIndex; idx++ {
			if !c.Signals[idx].IsTilt() && c.Signals[idx].SE > biasErrorLevel {
				c.Bias.XLeft = true
			}
		}
		if m := c.Signals[c.MaxIndex]; !m.IsTilt() && m.SE > biasErrorLevel {
			c.Bias.XMid = true
		}
		for idx := c.MaxIndex + 1; idx < last; idx++ {
			if !c.Signals[idx].IsTilt() && c.Signals[idx].SE > biasErrorLevel {
				c.Bias.XRight = true
			}
		}
	}
	if 2*n0-2*nsr-nT != 0 {
		c.Bias.Y = true
		for idx := 1; idx < c.MaxIndex; idx++ {
			if c.Signals[idx].IsTilt() && c.Signals[idx].SE > biasErrorLevel {
				c.Bias.YLeft = true
			}
		}
		if m := c.Signals[c.MaxIndex]; m.IsTilt() && m.SE > biasErrorLevel {
			c.Bias.YMid = true
		}
		for idx := c.MaxIndex + 1; idx < last; idx++ {
			if c.Signals[idx].IsTilt() && c.Signals[idx].SE > biasErrorLevel {
				c.Bias.YRight = true
			}
		}
	}
}

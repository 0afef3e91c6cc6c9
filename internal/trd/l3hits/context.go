package l3hits

import (
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

// Signal is one entry of the projected cluster profile, in the normal
// coordinate system of pad widths, clock ticks and ADC counts. Rect
// entries sit at integer X, tilt entries half way between them.
type Signal struct {
	S  float64 // charge
	SE float64 // charge error
	T  int64   // time offset from T0, ticks
	X  float64 // position, pad widths from the maximum
	XE float64 // position error; non-zero marks a tilt entry
}

// IsTilt reports whether the entry comes from a tilt half.
func (s Signal) IsTilt() bool { return s.XE > 0 }

// Topology describes where the maximum sits in the signal profile.
type Topology uint8

const (
	// TopologySymmetric has as many entries left of the maximum as right.
	TopologySymmetric Topology = iota
	// TopologyLeftBiased has more entries left of the maximum.
	TopologyLeftBiased
	// TopologyRightBiased has more entries right of the maximum.
	TopologyRightBiased
)

func (t Topology) String() string {
	switch t {
	case TopologyLeftBiased:
		return "left"
	case TopologyRightBiased:
		return "right"
	default:
		return "symmetric"
	}
}

// DominantSignal is the pad half that carries the profile maximum.
type DominantSignal uint8

const (
	DominantRect DominantSignal = iota
	DominantTilt
)

// BiasFlags mark row-cross profiles where some entries carry only one of
// the two rows. X flags look at rect entries, Y flags at tilt entries.
type BiasFlags struct {
	X, XLeft, XMid, XRight bool
	Y, YLeft, YMid, YRight bool
}

// HitBuildContext holds the signal profile of one cluster while a hit is
// built from it. A context is reused cluster after cluster: Project resets
// it, BuildHit (or a merger) consumes it. It is not safe for concurrent use.
type HitBuildContext struct {
	Signals []Signal
	// T0 is the reference tick of the profile.
	T0 int64
	// MaxRow and MaxCol locate the pad with the maximum signal.
	MaxRow int
	MaxCol int
	// MaxIndex is the position of the maximum in Signals.
	MaxIndex int

	Topology           Topology
	LeftSignalStronger bool
	Dominant           DominantSignal
	Bias               BiasFlags
	Overflow           bool
	// Anode is the anode wire nearest the last built hit.
	Anode int

	// TimeOffset is added to every hit time, ns.
	TimeOffset float64

	mod    *setup.Module
	frame  setup.Frame
	tables *setup.CorrectionTables
}

// NewHitBuildContext returns a context for clusters of the module.
func NewHitBuildContext(mod *setup.Module, timeOffset float64) *HitBuildContext {
	return &HitBuildContext{
		TimeOffset: timeOffset,
		mod:        mod,
		frame:      mod.Frame(),
		tables:     mod.CorrectionTable(),
	}
}

// Reset clears the profile and its classification.
func (c *HitBuildContext) Reset() {
	c.Signals = c.Signals[:0]
	c.T0 = 0
	c.MaxRow, c.MaxCol, c.MaxIndex = 0, 0, 0
	c.Topology = TopologySymmetric
	c.LeftSignalStronger = false
	c.Dominant = DominantRect
	c.Bias = BiasFlags{}
	c.Overflow = false
	c.Anode = 0
}

// Module returns the module the context builds hits for.
func (c *HitBuildContext) Module() *setup.Module { return c.mod }

// IsMaxTilt reports whether the maximum is a tilt entry.
func (c *HitBuildContext) IsMaxTilt() bool { return c.Dominant == DominantTilt }

// IsSymmetric reports a symmetric profile.
func (c *HitBuildContext) IsSymmetric() bool { return c.Topology == TopologySymmetric }

// IsLeftHit reports a profile with more entries left of the maximum.
func (c *HitBuildContext) IsLeftHit() bool { return c.Topology == TopologyLeftBiased }

// IsOpenLeft reports whether the profile starts with a rect entry
// relative to the parity of the maximum.
func (c *HitBuildContext) IsOpenLeft() bool {
	odd := c.MaxIndex%2 == 1
	return (odd && !c.IsMaxTilt()) || (!odd && c.IsMaxTilt())
}

// IsOpenRight is the mirror of IsOpenLeft for the right edge.
func (c *HitBuildContext) IsOpenRight() bool {
	nR := len(c.Signals) - 1 - c.MaxIndex
	odd := nR%2 == 1
	return (odd && c.IsMaxTilt()) || (!odd && !c.IsMaxTilt())
}

// TopologyCode packs the classification into the 8-bit key of the
// empirical row-cross exception lists.
func (c *HitBuildContext) TopologyCode() uint8 {
	var code uint8
	for bit, on := range [8]bool{
		c.IsMaxTilt(), c.IsSymmetric(), c.IsLeftHit(), c.LeftSignalStronger,
		c.Bias.X, c.Bias.XLeft, c.Bias.XMid, c.Bias.XRight,
	} {
		if on {
			code |= 1 << bit
		}
	}
	return code
}

package l3hits

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/units"
)

// Triangular-pad hit model constants. Times are in clock ticks unless
// marked ns; energies are in GeV per ADC count.
const (
	// wires 0..9; anodeIndex returns anodeCount above the last one
	anodeCount  = 10
	anodeFirstY = -1.35 // cm
	anodePitch  = 0.3   // cm
	edtResolved = 26.33 // ns
	edtFallback = 60    // ns

	// FallbackTime is the profile time used when no mean can be formed.
	FallbackTime = -21
	// DriftTime is the mean electron drift time, ns.
	DriftTime = 100

	// FallbackTimeError is the time error of hits with too few entries
	// for the resolved model, ns.
	FallbackTimeError = edtFallback

	timeOffsetNs  = 30.29
	energyScale2D = 1e-9
	maxErrorSize  = 7
)

var (
	edxPar = [3]float64{0.713724, -0.318667, 0.0366036}
	edyPar = [3]float64{0.0886413, 0, 0.0435141}
)

// BuildHit turns the projected profile into a hit: offset estimate, x and
// y corrections, errors, time-walk corrected mean time and energy. The
// hit keeps its Address and RefID.
func (c *HitBuildContext) BuildHit(h *Hit) {
	n0 := len(c.Signals) - 2
	dx, dy := c.DxDy(n0)
	xcorr := c.XCorr(dx, c.HitClass(), 0) / c.mod.PadSizeX
	dx, dy = c.CorrectPosition(dx, dy, xcorr)

	c.Anode = anodeIndex(dy)

	edx, edy, edt := 1.0, 1.0, float64(edtFallback)
	if n0 >= 3 {
		nex := float64(min(n0, maxErrorSize))
		edx = edxPar[0] + edxPar[1]*nex + edxPar[2]*nex*nex
		edy = edyPar[0] + edyPar[2]*dy*dy
		edt = edtResolved
	}

	clk := units.FaspClockNs
	var tSum float64
	for idx := 1; idx <= n0 && idx < len(c.Signals); idx++ {
		s := &c.Signals[idx]
		if s.IsTilt() {
			s.X += dy / c.mod.PadSizeY
		}
		tSum += float64(s.T) - c.mod.FEE.TimewalkClk(s.S, clk)
	}
	t := float64(FallbackTime)
	if n0 > 1 {
		t = tSum / float64(n0)
	}

	c.Calibrate(h, dx, dy, edx, edy, edt, t, DriftTime, c.Energy())
	if trd.TraceEnabled() {
		trd.Tracef("module %d: hit row=%d col=%d n0=%d topo=%s anode=%d dx=%.3f dy=%.3f",
			c.mod.Address, c.MaxRow, c.MaxCol, n0, c.Topology, c.Anode, dx, dy)
	}
}

// SignalSum returns the total charge of the profile.
func (c *HitBuildContext) SignalSum() float64 {
	var e float64
	for _, s := range c.Signals {
		e += s.S
	}
	return e
}

// Energy converts the profile charge to deposited energy, GeV.
func (c *HitBuildContext) Energy() float64 { return c.SignalSum() * energyScale2D }

// Calibrate places a hit at offset (dx, dy) cm from the maximum pad and
// fills errors, time (t in ticks relative to T0) and energy.
func (c *HitBuildContext) Calibrate(h *Hit, dx, dy, edx, edy, edt, t, tdrift, eloss float64) {
	pad, _ := c.mod.Pad(c.MaxRow, c.MaxCol)
	local := r3.Vec{X: pad.Position[0] + dx, Y: pad.Position[1] + dy, Z: pad.Position[2]}
	g := c.frame.ToGlobal(local)

	h.X, h.Y, h.Z = g.X, g.Y, g.Z
	h.Dx, h.Dy, h.Dz, h.Dxy = edx, edy, 0, 0
	h.Time = units.FaspClockNs*(float64(c.T0)+t) - tdrift + timeOffsetNs + c.TimeOffset
	h.TimeError = edt
	h.ELoss = eloss
	h.ClassType = true
	h.MaxType = c.IsMaxTilt()
	h.Overflow = c.Overflow
}

// anodeIndex returns the first anode wire at or above dy (cm).
func anodeIndex(dy float64) int {
	ia := 0
	for ; ia < anodeCount; ia++ {
		ya := anodeFirstY + float64(ia)*anodePitch
		if dy <= ya+0.5*anodePitch {
			break
		}
	}
	return ia
}

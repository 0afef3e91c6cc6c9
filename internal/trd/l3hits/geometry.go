package l3hits

import "math"

// DxDy returns the first estimate of the hit offset from the maximum pad
// for a profile with n0 inner entries, in pad units. dx is recentred so
// that it falls inside the maximum pad where the module edges allow.
func (c *HitBuildContext) DxDy(n0 int) (float64, float64) {
	var dx, dy float64
	switch n0 {
	case 1:
		if c.IsMaxTilt() {
			dx, dy = -0.5, 0
		} else {
			dx, dy = 0.5, 0
		}
	case 2:
		if c.IsOpenLeft() && c.IsOpenRight() {
			dx, dy = -1, -0.5
			if c.MaxIndex == 1 {
				dx = 0
			}
		} else {
			dx, dy = 0, 0.5
		}
	case 3:
		switch {
		case c.IsMaxTilt() && !c.IsSymmetric():
			dx, dy = -1, c.YOffset()
			if c.MaxIndex == 1 {
				dx = 0
			}
		case !c.IsMaxTilt() && c.IsSymmetric():
			dx, dy = 0, c.YOffset()
		case c.IsMaxTilt() && c.IsSymmetric():
			dx, dy = c.XOffset(), 0
		default:
			dx, dy = c.XOffset(), 0.5
			if c.MaxIndex == 1 {
				dy = -0.5
			}
		}
	default:
		dx, dy = c.XOffset(), c.YOffset()
	}
	return c.RecenterX(dx), dy
}

// XOffset is the charge-weighted mean position of the rect entries.
func (c *HitBuildContext) XOffset() float64 {
	var dx, sum float64
	for _, s := range c.Signals {
		if s.IsTilt() {
			continue
		}
		sum += s.S
		dx += s.S * s.X
	}
	if math.Abs(sum) > 0 {
		return dx / sum
	}
	return 0
}

// YOffset is the charge-weighted mean position of the tilt entries.
func (c *HitBuildContext) YOffset() float64 {
	var dy, sum float64
	for _, s := range c.Signals {
		if !s.IsTilt() {
			continue
		}
		sum += s.S
		dy += s.S * s.X
	}
	if math.Abs(sum) > 0 {
		return dy / sum
	}
	return 0
}

func recenterShift(d float64) int {
	shift := int(d - 0.5)
	if d > 0.5 {
		shift++
	}
	return shift
}

// RecenterX moves the reference pad so that dx falls in [-0.5, 0.5),
// never past the module edges, and shifts the profile with it.
func (c *HitBuildContext) RecenterX(dx float64) float64 {
	if dx >= -0.5 && dx < 0.5 {
		return dx
	}
	shift := recenterShift(dx)
	nCols := c.mod.NumCols()
	if c.MaxCol+shift < 0 {
		shift = -c.MaxCol
	} else if c.MaxCol+shift >= nCols {
		shift = nCols - c.MaxCol - 1
	}
	dx -= float64(shift)
	c.MaxCol += shift
	for i := range c.Signals {
		c.Signals[i].X -= float64(shift)
	}
	return dx
}

// RecenterY folds dy into [-0.5, 0.5) without touching the profile.
func (c *HitBuildContext) RecenterY(dy float64) float64 {
	if dy >= -0.5 && dy < 0.5 {
		return dy
	}
	return dy - float64(recenterShift(dy))
}

// HitClass selects the x-correction row: 1 for centre-type profiles,
// 2 for wide overflowing ones, 0 otherwise.
func (c *HitBuildContext) HitClass() int {
	n0 := len(c.Signals) - 2
	mt, sym := c.IsMaxTilt(), c.IsSymmetric()
	matched := (mt && sym) || (!mt && !sym)
	switch {
	case n0 == 5 && matched, n0 == 4, n0 == 3 && matched:
		return 1
	case n0 > 5 && c.Overflow:
		return 2
	}
	return 0
}

// Topology codes with a known row-cross class regardless of bias flags.
var (
	rcClass1Codes = []uint8{116, 149, 208}
	rcClass2Codes = []uint8{209, 212, 145}
	rcClass3Codes = []uint8{112, 117}
)

func hasCode(codes []uint8, code uint8) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// RowCrossClass classifies a two-row profile merged at anode a0. It
// returns -1 when no class applies.
func (c *HitBuildContext) RowCrossClass(a0 int) int {
	a0m := a0
	if a0m < 0 {
		a0m = -a0m
	}
	code := c.TopologyCode()
	b := c.Bias
	switch {
	case a0m == 2 && b.XLeft && b.XRight && !b.XMid:
		return 0
	case a0m == 3 && ((b.XLeft && b.XRight) || hasCode(rcClass1Codes, code)):
		return 1
	case !b.XLeft && (a0m == 2 || (a0m == 3 && ((!b.XRight && b.XMid) || hasCode(rcClass2Codes, code)))):
		return 2
	case !b.XRight && (a0m == 2 || (a0m == 3 && ((!b.XLeft && b.XMid) || hasCode(rcClass3Codes, code)))):
		return 3
	}
	return -1
}

// XCorr interpolates the systematic x correction for offset dxIn (pad
// units) from row typ of table class cls. The correction is odd in dxIn.
// Offsets beyond the table return 0.
func (c *HitBuildContext) XCorr(dxIn float64, typ, cls int) float64 {
	row, ok := c.tables.XRow(typ, cls)
	if !ok || len(row) < 2 {
		return 0
	}
	step := c.tables.XStep
	dx := math.Abs(dxIn)
	ii := max(0, int(math.Round(dx/step))-1)
	if ii > len(row) {
		return 0
	}
	i0 := ii
	if dx < step*float64(ii) {
		i0 = max(0, ii-1)
	}
	if i0 > len(row)-2 {
		i0 = len(row) - 2
	}
	ddx := row[i0+1] - row[i0]
	a := ddx / step
	b := row[i0] - ddx*(float64(i0)+0.5)
	sign := -1.0
	if dxIn > 0 {
		sign = 1
	}
	return sign*b + a*dxIn
}

// YCorr applies the systematic y correction to dy (pad units) according
// to the profile size and shape.
func (c *HitBuildContext) YCorr(dy float64) float64 {
	fdy, yoff := 1.0, 0.0
	mt := c.IsMaxTilt()
	flip := (!mt && c.IsLeftHit()) || (mt && !c.IsLeftHit())
	side := 1.0
	if dy > 0 {
		side = -1
	}
	switch n0 := len(c.Signals) - 2; n0 {
	case 3:
		switch {
		case mt && c.IsSymmetric():
			fdy, yoff = 0, side*1.56
		case !mt && !c.IsSymmetric():
			fdy, yoff = 0, side*1.06
		case !mt && c.IsSymmetric():
			fdy, yoff = 2.114532, -0.263
		default:
			fdy, yoff = 2.8016010, -1.38391
		}
	case 4:
		fdy, yoff = c.tables.Y[1][0], c.tables.Y[1][1]
		if flip {
			yoff = -yoff
		}
	case 5, 7, 9, 11:
		fdy, yoff = c.tables.Y[2][0], c.tables.Y[2][1]
	case 6, 8, 10:
		fdy, yoff = c.tables.Y[3][0], c.tables.Y[3][1]
		if flip {
			yoff = -yoff
		}
	}
	return dy*fdy + yoff
}

// CorrectPosition applies the x correction xcorr (pad units) and the y
// correction, and converts the offsets to cm.
func (c *HitBuildContext) CorrectPosition(dx, dy, xcorr float64) (float64, float64) {
	psx, psy := c.mod.PadSizeX, c.mod.PadSizeY
	dx = c.RecenterX(dx - xcorr)
	dy = c.RecenterY(dx - dy)
	dy += c.YCorr(dy) / psy
	dy = c.RecenterY(dy)
	return dx * psx, dy * psy
}

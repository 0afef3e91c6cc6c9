package l4merge

import (
	"math"

	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
)

// Piecewise linear acceptance of the row-cross check, as a function of
// the charge ratio between the weaker and the dominant row.
var (
	anodeRatioLimits = [3]float64{0.15, 0.5, 1}
	skewRatioNodes   = [3]float64{0, 0.28, 1}
	skewLimitNodes   = [3]float64{43, 27, 20}
)

// rowPeak is the strongest pair of halves found on one row.
type rowPeak struct {
	col    int  // column of the strongest single half
	rect   bool // strongest single half is a rect
	mid    float64
	skew   float64
	pairAt int // sample index of the strongest pair, -1 if none
}

// CheckMerge decides whether a cluster on the bottom row and one on the
// row above are two halves of one deposit. It returns the anode candidate
// near the row boundary: 1, 2 or 3 counted into the upper row, -1, -2 or
// -3 into the bottom row, or 0 when the pair does not match.
//
// On the bottom row the tilt and rect halves of each pad are paired, on
// the upper row a rect half is paired with the tilt half of the next pad.
func (m *HitMerger2D) CheckMerge(bottom, top []l1samples.CalibratedSample) int {
	rows := [2][]l1samples.CalibratedSample{bottom, top}
	var peaks [2]rowPeak
	for r, samples := range rows {
		peaks[r] = m.scanRow(samples, r == 1)
	}

	dc := peaks[1].col - peaks[0].col
	if dc < 0 || dc > 1 {
		return 0
	}

	rowMax := dominantRow(peaks)
	// both maxima on tilt halves: re-evaluate the weaker row one pad over
	if !peaks[0].rect && !peaks[1].rect {
		if rowMax == 0 {
			peaks[1].mid, peaks[1].skew = shiftedTopPair(top, peaks[1])
		} else {
			peaks[0].mid, peaks[0].skew = shiftedBottomPair(bottom, peaks[0])
		}
		rowMax = dominantRow(peaks)
	}
	if peaks[rowMax].mid <= 0 {
		return 0
	}

	ratio := peaks[1-rowMax].mid / peaks[rowMax].mid
	skew := math.Abs(peaks[rowMax].skew)
	seg := 1
	if ratio < skewRatioNodes[1] {
		seg = 0
	}
	slope := (skewLimitNodes[seg+1] - skewLimitNodes[seg]) / (skewRatioNodes[seg+1] - skewRatioNodes[seg])
	if skew > skewLimitNodes[seg]+slope*(ratio-skewRatioNodes[seg]) {
		return 0
	}

	sign := -1
	if rowMax == 1 {
		sign = 1
	}
	for ia, limit := range anodeRatioLimits {
		if ratio < limit {
			return sign * (3 - ia)
		}
	}
	return 0
}

func (m *HitMerger2D) scanRow(samples []l1samples.CalibratedSample, upper bool) rowPeak {
	p := rowPeak{col: -1, mid: -1, pairAt: -1}
	var halfMax, midMax float64
	for i, s := range samples {
		_, col := m.mod.RowCol(s.Channel())

		t, on := s.TiltCharge()
		if on && t > halfMax {
			p.col, p.rect, halfMax = col, false, t
		}
		r, on := s.RectCharge()
		if on && r > halfMax {
			p.col, p.rect, halfMax = col, true, r
		}

		mid, d := 0.5*(t+r), r-t
		if upper {
			var next float64
			if i+1 < len(samples) {
				next, _ = samples[i+1].TiltCharge()
			}
			mid, d = 0.5*(r+next), r-next
		}
		if math.Abs(mid) > 0 {
			d = 100 * d / mid
		}
		if mid > midMax {
			midMax = mid
			p.mid, p.skew, p.pairAt = mid, d, i
		}
	}
	return p
}

func dominantRow(peaks [2]rowPeak) int {
	if peaks[0].mid > peaks[1].mid {
		return 0
	}
	return 1
}

// shiftedTopPair is the RT pair of the upper row one pad right of its
// strongest pair. The skew is left unnormalised.
func shiftedTopPair(top []l1samples.CalibratedSample, p rowPeak) (float64, float64) {
	var r, t float64
	if p.mid >= 0 && p.pairAt >= 0 {
		if j := p.pairAt + 1; j < len(top) {
			r, _ = top[j].RectCharge()
			if j+1 < len(top) {
				t, _ = top[j+1].TiltCharge()
			}
		}
	}
	return 0.5 * (r + t), r - t
}

// shiftedBottomPair is the TR pair of the bottom row one pad left of its
// strongest pair. The first pad of the row is never used.
func shiftedBottomPair(bottom []l1samples.CalibratedSample, p rowPeak) (float64, float64) {
	var r, t float64
	if p.mid >= 0 && p.pairAt >= 0 {
		j := p.pairAt
		if j > 0 {
			j--
		}
		if j > 0 {
			r, _ = bottom[j].RectCharge()
			t, _ = bottom[j].TiltCharge()
		}
	}
	return 0.5 * (t + r), r - t
}

package l4merge

import (
	"math"
	"slices"

	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/l3hits"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

// Candidate window around the earlier hit, ns. The asymmetry is empirical.
const (
	windowBefore = 4000
	windowAfter  = 10000
)

// Bias corrections (pad widths) for row-cross profiles.
const (
	biasShiftWide   = 0.176
	biasShiftNarrow = 0.12
	biasClassShift  = 0.0813
	unbiasedShift   = 0.0293
)

// Topology codes with a dedicated bias treatment.
var (
	fourEntryRightCodes = []uint8{53, 80, 113, 117}
	oddEntryCodes       = []uint8{50, 58, 146, 154}
)

// OutcomeKind tells what happened to a hit in a merge pass.
type OutcomeKind uint8

const (
	// Kept hits survive, possibly after absorbing others.
	Kept OutcomeKind = iota
	// AbsorbedInto hits were merged into another hit and dropped.
	AbsorbedInto
)

func (k OutcomeKind) String() string {
	if k == AbsorbedInto {
		return "absorbed"
	}
	return "kept"
}

// Outcome is the fate of one input hit. Into indexes the absorbing hit in
// the combined input (row1 followed by row2) and is meaningful only for
// AbsorbedInto.
type Outcome struct {
	Kind OutcomeKind
	Into int
}

// Result holds the compacted rows and one outcome per input hit.
type Result struct {
	Row1     []l3hits.HitData
	Row2     []l3hits.HitData
	Outcomes []Outcome
	Merged   int
}

// HitMerger2D stitches hits of two neighbouring triangular-pad rows. It
// keeps one HitBuildContext and is not safe for concurrent use.
type HitMerger2D struct {
	mod *setup.Module
	ctx *l3hits.HitBuildContext
}

// NewHitMerger2D returns a merger for the module. timeOffset (ns) is added
// to the time of every merged hit.
func NewHitMerger2D(mod *setup.Module, timeOffset float64) *HitMerger2D {
	return &HitMerger2D{mod: mod, ctx: l3hits.NewHitBuildContext(mod, timeOffset)}
}

// Merge stitches hits of row1 (the lower row) with hits of row2. The
// inputs are not modified. A hit that absorbs others is rebuilt from the
// combined samples, flagged RowCross and lists the other row's samples in
// Absorbed.
func (m *HitMerger2D) Merge(row1, row2 []l3hits.HitData) Result {
	n1 := len(row1)
	work := slices.Concat(row1, row2)
	rows := make([]int, len(work))
	for i := n1; i < len(work); i++ {
		rows[i] = 1
	}

	out := Result{Row1: make([]l3hits.HitData, 0, n1), Row2: make([]l3hits.HitData, 0, len(row2))}
	out.Outcomes, out.Merged = m.stitch(work, rows)
	for i, hd := range compact(work, out.Outcomes) {
		if hd.Hit.IsUsed() {
			continue
		}
		if i < n1 {
			out.Row1 = append(out.Row1, hd)
		} else {
			out.Row2 = append(out.Row2, hd)
		}
	}
	return out
}

// MergeModule stitches hits from all rows of one module in a single pass.
// Any two hits on adjacent pad rows are candidates. It returns the
// surviving hits in input order and one outcome per input hit.
func (m *HitMerger2D) MergeModule(hits []l3hits.HitData) ([]l3hits.HitData, []Outcome) {
	work := slices.Clone(hits)
	rows := make([]int, len(work))
	for i, hd := range work {
		rows[i] = noRow
		if len(hd.Samples) > 0 {
			rows[i], _ = m.mod.RowCol(hd.Samples[0].Channel())
		}
	}

	outcomes, _ := m.stitch(work, rows)
	kept := make([]l3hits.HitData, 0, len(work))
	for _, hd := range compact(work, outcomes) {
		if !hd.Hit.IsUsed() {
			kept = append(kept, hd)
		}
	}
	return kept, outcomes
}

// noRow marks hits without samples; they are never adjacent to a row.
const noRow = -2

// stitch runs the pairwise merge over work, where rows[i] is the pad row
// of work[i]. Hits absorbed by an earlier hit get RefID -1.
func (m *HitMerger2D) stitch(work []l3hits.HitData, rows []int) ([]Outcome, int) {
	outcomes := make([]Outcome, len(work))
	merged := 0
	absorbed := func(i int) bool { return outcomes[i].Kind == AbsorbedInto || work[i].Hit.IsUsed() }

	for i := range work {
		if absorbed(i) || rows[i] == noRow {
			continue
		}
		h0 := &work[i]
		for j := i + 1; j < len(work); j++ {
			if absorbed(j) || (rows[j]-rows[i] != 1 && rows[i]-rows[j] != 1) {
				continue
			}
			h1 := &work[j]
			if !m.inWindow(&h0.Hit, &h1.Hit) {
				continue
			}
			bottom, top := h0.Samples, h1.Samples
			if rows[i] > rows[j] {
				bottom, top = top, bottom
			}
			a0 := m.CheckMerge(bottom, top)
			if a0 == 0 {
				continue
			}
			primary, secondary := bottom, top
			if a0 > 0 {
				primary, secondary = top, bottom
			}
			if len(secondary) == 0 || m.ctx.Project(primary, secondary) == 0 {
				continue
			}
			m.mergeHits(&h0.Hit, a0)
			h0.Hit.RowCross = true
			h1.Hit.RefID = -1
			outcomes[j] = Outcome{Kind: AbsorbedInto, Into: i}
			merged++
			trd.Tracef("module %d: hit %d absorbs hit %d, anode %d", m.mod.Address, i, j, a0)
		}
	}
	return outcomes, merged
}

// compact hands the samples of absorbed hits to their new owner and marks
// absorbed hits used. The owner's Samples stay row local; everything the
// absorbed hit carried goes to Absorbed. The returned slice is index
// aligned with work.
func compact(work []l3hits.HitData, outcomes []Outcome) []l3hits.HitData {
	extra := make(map[int][]l1samples.CalibratedSample)
	for j, o := range outcomes {
		if o.Kind == AbsorbedInto {
			extra[o.Into] = append(extra[o.Into], work[j].AllSamples()...)
			work[j].Hit.RefID = -1
		}
	}
	for i, s := range extra {
		work[i].Absorbed = slices.Concat(work[i].Absorbed, s)
	}
	return work
}

func (m *HitMerger2D) inWindow(h0, h1 *l3hits.Hit) bool {
	dt := h1.Time - h0.Time
	if dt < -windowBefore || dt > windowAfter {
		return false
	}
	if math.Abs(h1.X-h0.X) > 2*m.mod.PadSizeX {
		return false
	}
	return math.Abs(h1.Y-h0.Y) <= 2*m.mod.PadSizeY
}

// mergeHits rebuilds h from the two-row profile loaded in the context.
// Profiles with unequal row coverage get the bias aware x correction.
func (m *HitMerger2D) mergeHits(h *l3hits.Hit, a0 int) {
	c := m.ctx
	psx := m.mod.PadSizeX
	n0 := len(c.Signals) - 2
	dx, dy := c.DxDy(n0)

	typ := c.HitClass()
	xcorr := c.XCorr(dx, typ, 1) / psx
	xcorrBias := xcorr
	if c.Bias.X {
		typ = c.RowCrossClass(a0)
		code := c.TopologyCode()
		switch n0 {
		case 4:
			switch {
			case dx < 0 && c.Bias.XLeft:
				xcorrBias -= biasShiftNarrow
			case dx < 0:
				xcorrBias += biasShiftWide
			case slices.Contains(fourEntryRightCodes, code):
				xcorrBias -= biasShiftWide
			default:
				xcorrBias += biasShiftNarrow
			}
		case 5, 7:
			if typ < 0 {
				break
			}
			if slices.Contains(oddEntryCodes, code) {
				xcorr, typ = shiftByClass(xcorr, typ)
				dx = c.RecenterX(dx - xcorr)
				xcorrBias = c.XCorr(dx, typ, 2) / psx
				break
			}
			dx = c.RecenterX(dx - xcorr)
			switch typ {
			case 2:
				xcorrBias = biasShiftNarrow
			case 3:
				xcorrBias = -biasShiftNarrow
			default:
				xcorrBias = c.XCorr(dx, typ, 2) / psx
			}
		default:
			if typ < 0 {
				break
			}
			xcorr, typ = shiftByClass(xcorr, typ)
			dx = c.RecenterX(dx - xcorr)
			xcorrBias = c.XCorr(dx, typ, 2) / psx
		}
	} else if typ != 0 {
		if dx < 0 {
			xcorrBias += unbiasedShift
		} else {
			xcorrBias -= unbiasedShift
		}
	}
	dx, dy = c.CorrectPosition(dx, dy, xcorrBias)

	c.Calibrate(h, dx, dy, 1, 1, l3hits.FallbackTimeError, l3hits.FallbackTime, l3hits.DriftTime, c.Energy())
}

// shiftByClass moves the x correction for the one-sided row-cross classes
// and folds class 3 onto the class 2 table.
func shiftByClass(xcorr float64, typ int) (float64, int) {
	switch typ {
	case 2:
		xcorr += biasClassShift
	case 3:
		xcorr -= biasClassShift
		typ = 2
	}
	return xcorr, typ
}

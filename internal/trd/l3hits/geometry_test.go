package l3hits

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
)

func TestRecenterX(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		maxCol  int
		dx      float64
		wantDx  float64
		wantCol int
	}{
		{"inside", 10, 0.3, 0.3, 10},
		{"lower edge kept", 10, -0.5, -0.5, 10},
		{"right", 10, 1.2, 0.2, 11},
		{"left", 10, -1.7, 0.3, 8},
		{"clamped left", 0, -1.7, -1.7, 0},
		{"clamped right", 71, 1.2, 1.2, 71},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := NewHitBuildContext(faspModule(), 0)
			ctx.MaxCol = tt.maxCol
			ctx.Signals = []Signal{{X: 0}}

			got := ctx.RecenterX(tt.dx)

			assert.InDelta(t, tt.wantDx, got, 1e-12)
			assert.Equal(t, tt.wantCol, ctx.MaxCol)
			assert.InDelta(t, float64(tt.maxCol-tt.wantCol), ctx.Signals[0].X, 1e-12)
		})
	}
}

func TestRecenterY(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)
	ctx.MaxCol = 10
	assert.InDelta(t, 0.2, ctx.RecenterY(0.2), 1e-12)
	assert.InDelta(t, -0.3, ctx.RecenterY(0.7), 1e-12)
	assert.InDelta(t, 0.3, ctx.RecenterY(-0.7), 1e-12)
	assert.Equal(t, 10, ctx.MaxCol)
}

func TestXCorr(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)
	tables := faspModule().CorrectionTable()
	row := tables.X[1]

	t.Run("interpolates", func(t *testing.T) {
		dx := 0.103
		want := row[9] + (row[10]-row[9])/tables.XStep*(dx-9.5*tables.XStep)
		assert.InDelta(t, want, ctx.XCorr(dx, 1, 0), 1e-9)
	})
	t.Run("odd", func(t *testing.T) {
		for _, dx := range []float64{0.013, 0.2, 0.377, 0.49} {
			assert.InDelta(t, -ctx.XCorr(dx, 0, 0), ctx.XCorr(-dx, 0, 0), 1e-12)
			assert.InDelta(t, -ctx.XCorr(dx, 1, 1), ctx.XCorr(-dx, 1, 1), 1e-12)
		}
	})
	t.Run("beyond table", func(t *testing.T) {
		assert.Zero(t, ctx.XCorr(0.6, 1, 0))
		assert.Zero(t, ctx.XCorr(-0.6, 1, 0))
	})
	t.Run("unknown type", func(t *testing.T) {
		assert.Zero(t, ctx.XCorr(0.2, 3, 0))
	})
}

func TestHitClass(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)

	ctx.Signals = make([]Signal, 6)
	assert.Equal(t, 1, ctx.HitClass())

	ctx.Signals = make([]Signal, 5)
	ctx.Dominant, ctx.Topology = DominantRect, TopologyRightBiased
	assert.Equal(t, 1, ctx.HitClass())
	ctx.Topology = TopologySymmetric
	assert.Equal(t, 0, ctx.HitClass())

	ctx.Signals = make([]Signal, 9)
	assert.Equal(t, 0, ctx.HitClass())
	ctx.Overflow = true
	assert.Equal(t, 2, ctx.HitClass())
}

func TestYCorr(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)

	ctx.Signals = make([]Signal, 3)
	assert.Equal(t, 0.2, ctx.YCorr(0.2))

	ctx.Signals = make([]Signal, 5)
	ctx.Dominant, ctx.Topology = DominantTilt, TopologySymmetric
	assert.Equal(t, -1.56, ctx.YCorr(0.2))
	assert.Equal(t, 1.56, ctx.YCorr(-0.2))

	ctx.Dominant, ctx.Topology = DominantRect, TopologyLeftBiased
	assert.Equal(t, -1.06, ctx.YCorr(0.2))

	ctx.Signals = make([]Signal, 6)
	tables := faspModule().CorrectionTable()
	flipped := 0.2*tables.Y[1][0] - tables.Y[1][1]
	assert.InDelta(t, flipped, ctx.YCorr(0.2), 1e-12)
	ctx.Topology = TopologyRightBiased
	assert.InDelta(t, 0.2*tables.Y[1][0]+tables.Y[1][1], ctx.YCorr(0.2), 1e-12)
}

func TestDxDy_SinglePad(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)

	ctx.Project(oneRect(), nil)
	dx, dy := ctx.DxDy(1)
	assert.Equal(t, 0.5, dx)
	assert.Equal(t, 0.0, dy)
	assert.Equal(t, 10, ctx.MaxCol)

	ctx.Project([]l1samples.CalibratedSample{pad(10, 500, 0, 1000)}, nil)
	dx, dy = ctx.DxDy(1)
	assert.Equal(t, -0.5, dx)
	assert.Equal(t, 0.0, dy)
}

func TestRowCrossClass(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)

	ctx.Bias = BiasFlags{X: true, XLeft: true, XRight: true}
	assert.Equal(t, 0, ctx.RowCrossClass(2))
	assert.Equal(t, 1, ctx.RowCrossClass(-3))

	ctx.Bias = BiasFlags{X: true, XMid: true}
	assert.Equal(t, 2, ctx.RowCrossClass(3))

	ctx.Bias = BiasFlags{X: true, XLeft: true}
	assert.Equal(t, 3, ctx.RowCrossClass(2))

	ctx.Bias = BiasFlags{X: true, XLeft: true, XMid: true}
	assert.Equal(t, -1, ctx.RowCrossClass(3))
	ctx.Topology = TopologyRightBiased
	assert.Equal(t, uint8(112), ctx.TopologyCode())
	assert.Equal(t, 3, ctx.RowCrossClass(3))

	ctx.Bias = BiasFlags{}
	assert.Equal(t, -1, ctx.RowCrossClass(5))
}

func TestAnodeIndex(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, anodeIndex(-2))
	assert.Equal(t, 5, anodeIndex(0.1))
	assert.Equal(t, anodeCount, anodeIndex(5))

	// the last wire sits at +1.35 cm and still catches hits up to +1.5 cm
	assert.Equal(t, 0, anodeIndex(-1.25))
	assert.Equal(t, 1, anodeIndex(-1.15))
	assert.Equal(t, anodeCount-1, anodeIndex(1.45))
	assert.Equal(t, anodeCount, anodeIndex(1.55))
}

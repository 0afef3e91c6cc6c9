package l3hits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

const faspAddress = 5

func faspModule() *setup.Module {
	m := setup.NewGrid(faspAddress, 2, 72, 0.75, 2.7, true)
	return &m
}

// pad returns the calibrated view of pad ch read out at tick t.
func pad(ch int, tilt, rect float64, t int64) l1samples.CalibratedSample {
	return l1samples.NewCalibratedSample(l1samples.DefaultFEECalibration(),
		l1samples.NewFaspSample(faspAddress, ch, tilt, rect, t, 0))
}

func TestProject_Empty(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)
	assert.Equal(t, 0, ctx.Project(nil, nil))
	assert.Empty(t, ctx.Signals)
}

func TestProject_Classification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		pads         []l1samples.CalibratedSample
		n0           int
		maxIndex     int
		maxCol       int
		topology     Topology
		dominant     DominantSignal
		leftStronger bool
		openLeft     bool
	}{
		{
			name:     "single rect",
			pads:     []l1samples.CalibratedSample{pad(10, 0, 500, 1000)},
			n0:       1,
			maxIndex: 1,
			maxCol:   10,
			topology: TopologySymmetric,
			dominant: DominantRect,
			// both flanks empty compare equal
			leftStronger: true,
			openLeft:     true,
		},
		{
			name:         "symmetric rect",
			pads:         []l1samples.CalibratedSample{pad(10, 100, 300, 1000), pad(11, 50, 0, 1000)},
			n0:           3,
			maxIndex:     2,
			maxCol:       10,
			topology:     TopologySymmetric,
			dominant:     DominantRect,
			leftStronger: true,
		},
		{
			name:     "left biased",
			pads:     []l1samples.CalibratedSample{pad(10, 50, 80, 1000), pad(11, 100, 400, 1000)},
			n0:       4,
			maxIndex: 4,
			maxCol:   11,
			topology: TopologyLeftBiased,
			dominant: DominantRect,
			openLeft: false,
		},
		{
			name:     "tilt maximum",
			pads:     []l1samples.CalibratedSample{pad(10, 500, 100, 1000)},
			n0:       2,
			maxIndex: 1,
			maxCol:   10,
			topology: TopologyRightBiased,
			dominant: DominantTilt,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := NewHitBuildContext(faspModule(), 0)

			n0 := ctx.Project(tt.pads, nil)

			assert.Equal(t, tt.n0, n0)
			assert.Len(t, ctx.Signals, tt.n0+2)
			assert.Equal(t, tt.maxIndex, ctx.MaxIndex)
			assert.Equal(t, tt.maxCol, ctx.MaxCol)
			assert.Equal(t, 0, ctx.MaxRow)
			assert.Equal(t, tt.topology, ctx.Topology)
			assert.Equal(t, tt.dominant, ctx.Dominant)
			assert.Equal(t, tt.leftStronger, ctx.LeftSignalStronger)
			assert.Equal(t, tt.openLeft, ctx.IsOpenLeft())
			assert.False(t, ctx.Overflow)
			assert.Equal(t, BiasFlags{}, ctx.Bias)

			// anchors close the profile
			assert.Zero(t, ctx.Signals[0].S)
			assert.Zero(t, ctx.Signals[len(ctx.Signals)-1].S)
			// the maximum pad sits at the origin of the x axis
			wantX := 0.0
			if ctx.IsMaxTilt() {
				wantX = -0.5
			}
			assert.Equal(t, wantX, ctx.Signals[ctx.MaxIndex].X)
		})
	}
}

func TestProject_TopologyCode(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)
	ctx.Project([]l1samples.CalibratedSample{pad(10, 100, 300, 1000), pad(11, 50, 0, 1000)}, nil)
	// symmetric with a stronger left flank
	assert.Equal(t, uint8(0b1010), ctx.TopologyCode())
}

func TestProject_Overflow(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)

	n0 := ctx.Project([]l1samples.CalibratedSample{pad(10, 100, l1samples.FaspSaturationADC, 1000)}, nil)

	assert.Equal(t, -2, n0)
	assert.True(t, ctx.Overflow)
	assert.Equal(t, overflowError, ctx.Signals[ctx.MaxIndex].SE)
}

func TestProject_TimeReference(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)
	early := l1samples.NewCalibratedSample(l1samples.DefaultFEECalibration(),
		l1samples.NewFaspSample(faspAddress, 11, 200, 300, 1000, -3))

	ctx.Project([]l1samples.CalibratedSample{pad(10, 100, 100, 1000), early}, nil)

	assert.Equal(t, int64(997), ctx.T0)
	for _, s := range ctx.Signals {
		assert.GreaterOrEqual(t, s.T, int64(0))
	}
}

func TestProject_RowCross(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)
	primary := []l1samples.CalibratedSample{pad(10, 100, 300, 1000)}
	secondary := []l1samples.CalibratedSample{pad(72+10, 0, 100, 1000)}

	n0 := ctx.Project(primary, secondary)

	require.Equal(t, 2, n0)
	rect := ctx.Signals[ctx.MaxIndex]
	assert.False(t, rect.IsTilt())
	assert.Equal(t, 200.0, rect.S)
	assert.InDelta(t, signalError*pairedErrorScale, rect.SE, 1e-12)

	assert.False(t, ctx.Bias.X)
	assert.True(t, ctx.Bias.Y)
	assert.True(t, ctx.Bias.YLeft)
	assert.False(t, ctx.Bias.YMid)
	assert.False(t, ctx.Bias.YRight)
}

func TestProject_ResetsBetweenClusters(t *testing.T) {
	t.Parallel()
	ctx := NewHitBuildContext(faspModule(), 0)
	ctx.Project([]l1samples.CalibratedSample{pad(10, 100, l1samples.FaspSaturationADC, 1000)}, nil)
	require.True(t, ctx.Overflow)

	ctx.Project([]l1samples.CalibratedSample{pad(30, 0, 500, 2000)}, nil)

	assert.False(t, ctx.Overflow)
	assert.Equal(t, 30, ctx.MaxCol)
	assert.Equal(t, int64(2000), ctx.T0)
	assert.Len(t, ctx.Signals, 3)
}

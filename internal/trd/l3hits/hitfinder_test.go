package l3hits

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/l2clusters"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

const rectAddress = 21

func rectModule(orientation int) *setup.Module {
	m := setup.NewGrid(rectAddress, 24, 144, 0.666667, 12, false)
	m.Orientation = orientation
	m.Rotation = setup.OrientationRotation(orientation)
	m.Translation = [3]float64{1, 2, 300}
	return &m
}

func spadic(ch int, q float64, trig l1samples.TriggerKind, eventBased bool) l1samples.ChannelSample {
	s := l1samples.NewSpadicSample(rectAddress, ch, q, 1000, trig)
	s.EventBased = eventBased
	return s
}

func threePad(eventBased bool) l2clusters.Cluster {
	return l2clusters.Cluster{
		Address:      rectAddress,
		StartChannel: 15,
		NCols:        3,
		NRows:        1,
		Samples: []l1samples.ChannelSample{
			spadic(15, 500, l1samples.TriggerNeighbor, eventBased),
			spadic(16, 1000, l1samples.TriggerSelf, eventBased),
			spadic(17, 500, l1samples.TriggerNeighbor, eventBased),
		},
	}
}

func TestHitFinder_OrientationRoundTrip(t *testing.T) {
	t.Parallel()
	for o := 0; o < 4; o++ {
		mod := rectModule(o)
		c := threePad(true)

		h, ok := NewHitFinder(mod).MakeHit(7, &c)
		require.True(t, ok, "orientation %d", o)

		local := mod.Frame().ToLocal(r3.Vec{X: h.X, Y: h.Y, Z: h.Z})
		pad, _ := mod.Pad(0, 16)
		assert.InDelta(t, pad.Position[0], local.X, 1e-9, "orientation %d", o)
		assert.InDelta(t, pad.Position[1], local.Y, 1e-9, "orientation %d", o)

		if o%2 == 1 {
			assert.Equal(t, math.Sqrt(mod.PadSizeY), h.Dx, "orientation %d", o)
		} else {
			assert.Equal(t, math.Sqrt(mod.PadSizeY), h.Dy, "orientation %d", o)
		}
		assert.Equal(t, int32(7), h.RefID)
		assert.Equal(t, rectAddress, h.Address)
		assert.InDelta(t, 2000*1e-6, h.ELoss, 1e-12)
		assert.Equal(t, 8.5, h.TimeError)
		assert.Equal(t, 1000.0, h.Time)
		assert.False(t, h.ClassType)
	}
}

func TestHitFinder_TimeBasedAngleCorrection(t *testing.T) {
	t.Parallel()
	mod := rectModule(0)
	eb, tb := threePad(true), threePad(false)
	f := NewHitFinder(mod)

	hEB, ok := f.MakeHit(0, &eb)
	require.True(t, ok)
	hTB, ok := f.MakeHit(0, &tb)
	require.True(t, ok)

	assert.InDelta(t, hEB.X+0.00214788+hEB.X*0.000195394, hTB.X, 1e-12)
	assert.InDelta(t, hEB.Y+0.00370566+hEB.Y*0.000213235, hTB.Y, 1e-12)
}

func TestHitFinder_PreciseTimeShift(t *testing.T) {
	t.Parallel()
	c := threePad(true)
	c.Samples[2].EventBasedPrecise = true

	h, ok := NewHitFinder(rectModule(0)).MakeHit(0, &c)
	require.True(t, ok)
	assert.Equal(t, 1000.0-46, h.Time)
}

func TestHitFinder_IncompleteCluster(t *testing.T) {
	t.Parallel()
	c := l2clusters.Cluster{
		StartChannel: 16, NCols: 1, NRows: 1,
		Samples: []l1samples.ChannelSample{spadic(16, 1000, l1samples.TriggerSelf, true)},
	}

	h, ok := NewHitFinder(rectModule(0)).MakeHit(0, &c)
	require.True(t, ok)
	assert.Equal(t, float64(IncompleteELoss), h.ELoss)
}

func TestHitFinder_Find_DropsChargeless(t *testing.T) {
	t.Parallel()
	empty := threePad(true)
	for i := range empty.Samples {
		empty.Samples[i].Charge = 0.01
	}
	clusters := []l2clusters.Cluster{threePad(true), empty, {}}

	hits := NewHitFinder(rectModule(0)).Find(clusters)

	require.Len(t, hits, 1)
	assert.Equal(t, int32(0), hits[0].Hit.RefID)
	assert.Nil(t, hits[0].Samples)
}

func TestHitFinder_ErrorClassSelectsVariance(t *testing.T) {
	t.Parallel()
	mod := rectModule(0)
	c := threePad(false)
	c.Samples[2].ErrorClass = 2

	h, ok := NewHitFinder(mod).MakeHit(0, &c)
	require.True(t, ok)
	xErr, yErr := mod.ErrorTable().Variance(false, 2)
	assert.Equal(t, xErr, h.Dx)
	assert.NotEqual(t, yErr, h.Dy)
	assert.Equal(t, math.Sqrt(mod.PadSizeY), h.Dy)

	// quarter turns swap the table axes before the pad height override
	rot := rectModule(1)
	h, ok = NewHitFinder(rot).MakeHit(0, &c)
	require.True(t, ok)
	assert.Equal(t, xErr, h.Dy)
	assert.Equal(t, math.Sqrt(rot.PadSizeY), h.Dx)
}

func TestHitFinder_TimeAverageSkipsUnchargedPads(t *testing.T) {
	t.Parallel()
	c := threePad(true)
	c.Samples[0].Charge = 0.01
	c.Samples[0].Time = 400
	c.Samples[2].Time = 1300

	h, ok := NewHitFinder(rectModule(0)).MakeHit(0, &c)
	require.True(t, ok)
	// charged pads are summed, the full pad count divides
	assert.InDelta(t, (1000.0+1300.0)/3, h.Time, 1e-9)
	assert.InDelta(t, 1500*1e-6, h.ELoss, 1e-12)
}

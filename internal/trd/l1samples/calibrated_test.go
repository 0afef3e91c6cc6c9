package l1samples

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalibratedSample_AppliesGains(t *testing.T) {
	t.Parallel()
	fee := DefaultFEECalibration()
	fee.GainTilt = 2
	fee.GainRect = 0.5

	c := NewCalibratedSample(fee, NewFaspSample(5, 17, 100, 300, 40, -2))

	tilt, on := c.TiltCharge()
	require.True(t, on)
	assert.Equal(t, 200.0, tilt)
	rect, on := c.RectCharge()
	require.True(t, on)
	assert.Equal(t, 150.0, rect)
	assert.Equal(t, int64(40), c.TiltTime())
	assert.Equal(t, int64(38), c.RectTime())
	assert.Equal(t, int64(38), c.TimeDAQ())
	assert.Equal(t, 17, c.Channel())
}

func TestNewCalibratedSample_MissingHalf(t *testing.T) {
	t.Parallel()
	c := NewCalibratedSample(DefaultFEECalibration(), NewFaspSample(5, 3, 0, 250, 10, 0))

	tilt, on := c.TiltCharge()
	assert.False(t, on)
	assert.Zero(t, tilt)
	_, on = c.RectCharge()
	assert.True(t, on)
}

func TestNewCalibratedPair_CombinesHalves(t *testing.T) {
	t.Parallel()
	fee := DefaultFEECalibration()
	tiltOnly := NewFaspSample(5, 3, 120, 0, 12, 0)
	rectOnly := NewFaspSample(5, 3, 0, 4095, 11, 0)

	c := NewCalibratedPair(fee, tiltOnly, rectOnly)

	tilt, on := c.TiltCharge()
	assert.True(t, on)
	assert.Equal(t, 120.0, tilt)
	rect, on := c.RectCharge()
	assert.True(t, on)
	assert.Equal(t, 4095.0, rect)
	assert.True(t, c.HasRectOverflow())
	assert.False(t, c.HasTiltOverflow())
	assert.Equal(t, int64(12), c.TiltTime())
	assert.Equal(t, int64(11), c.RectTime())
	assert.Equal(t, int64(11), c.TimeDAQ())
}

func TestFEECalibration_Timewalk(t *testing.T) {
	t.Parallel()
	fee := DefaultFEECalibration()
	assert.Zero(t, fee.TimewalkClk(1586, 12.5))
	assert.InDelta(t, 4.181e-6*1000*1000/12.5, fee.TimewalkClk(586, 12.5), 1e-12)
	assert.Zero(t, fee.TimewalkClk(100, 0))
}

package l1samples

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSample_RowCol(t *testing.T) {
	t.Parallel()
	s := NewSpadicSample(21, 145, 1000, 500, TriggerSelf)
	assert.Equal(t, 1, s.Row(144))
	assert.Equal(t, 1, s.Col(144))
	assert.False(t, s.IsFasp())
	assert.True(t, s.IsSelfTriggered())
	assert.Equal(t, 62.5, s.ClockPeriod())
	assert.Equal(t, int64(8), s.TimeDAQ)
}

func TestChannelSample_JSONNames(t *testing.T) {
	t.Parallel()
	in := `{"module":5,"channel":7,"asic":"fasp","time_ns":125,"time_daq":10,"trigger":"neighbor","tilt_charge":80}`
	var s ChannelSample
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	assert.True(t, s.IsFasp())
	assert.Equal(t, TriggerNeighbor, s.Trigger)
	assert.Equal(t, 80.0, s.TiltCharge)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"asic":"fasp"`)

	err = json.Unmarshal([]byte(`{"asic":"vmm"}`), &s)
	assert.Error(t, err)
}

func TestEarliestTimeDAQ(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(7), NewFaspSample(1, 0, 1, 1, 10, -3).EarliestTimeDAQ())
	assert.Equal(t, int64(10), NewFaspSample(1, 0, 1, 1, 10, 3).EarliestTimeDAQ())
}

func TestIndex(t *testing.T) {
	t.Parallel()
	idx := Index([]ChannelSample{{Channel: 4}, {Channel: 9}})
	require.Len(t, idx, 2)
	assert.Equal(t, int32(1), idx[1].Index)
	assert.Equal(t, 9, idx[1].Sample.Channel)
}

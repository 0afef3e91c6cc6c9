package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trd.reco/internal/hitdb"
	"github.com/banshee-data/trd.reco/internal/testutil"
	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
)

const testSetup = `
modules:
  - address: 21
    pad_size_x: 0.666667
    pad_size_y: 12
    grid:
      rows: 4
      cols: 16
`

func writeSamples(t *testing.T) string {
	t.Helper()
	samples := []l1samples.ChannelSample{
		l1samples.NewSpadicSample(21, 4, 500, 1000, l1samples.TriggerNeighbor),
		l1samples.NewSpadicSample(21, 5, 1000, 1000, l1samples.TriggerSelf),
		l1samples.NewSpadicSample(21, 6, 500, 1000, l1samples.TriggerNeighbor),
		l1samples.NewSpadicSample(21, 37, 1000, 3000, l1samples.TriggerSelf),
		l1samples.NewSpadicSample(8, 1, 1000, 3000, l1samples.TriggerSelf),
	}
	data, err := json.Marshal(samples)
	require.NoError(t, err)
	return testutil.WriteTempFile(t, "samples.json", string(data))
}

func runCmd(t *testing.T, args ...string) (summary, string, error) {
	t.Helper()
	t.Cleanup(func() { trd.SetLogWriters(trd.LogWriters{}) })
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	var out summary
	if err == nil && stdout.Len() > 0 && stdout.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	}
	return out, stdout.String() + stderr.String(), err
}

func TestRun_Summary(t *testing.T) {
	setupPath := testutil.WriteTempFile(t, "setup.yaml", testSetup)

	out, logs, err := runCmd(t, "-setup", setupPath, "-samples", writeSamples(t))
	require.NoError(t, err)

	assert.Empty(t, out.RunID)
	assert.Equal(t, 5, out.Monitor.NumSamples)
	assert.Equal(t, 1, out.Monitor.NumDropped)
	assert.Equal(t, 2, out.Monitor.NumHits)
	require.Len(t, out.Partitions, 4)
	assert.Equal(t, 1, out.Partitions[0].Size)
	assert.Equal(t, 1, out.Partitions[2].Size)
	assert.Contains(t, logs, "unknown module 8")
}

func TestRun_StoresHits(t *testing.T) {
	setupPath := testutil.WriteTempFile(t, "setup.yaml", testSetup)
	configPath := testutil.WriteTempFile(t, "tuning.json", `{"workers": 2, "merge_mode": "module"}`)
	dbPath := filepath.Join(t.TempDir(), "hits.db")

	out, _, err := runCmd(t, "-setup", setupPath, "-config", configPath,
		"-samples", writeSamples(t), "-db", dbPath, "-v")
	require.NoError(t, err)
	require.NotEmpty(t, out.RunID)
	require.Len(t, out.Partitions, 1)

	db, err := hitdb.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	hits, err := db.Hits(out.RunID)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Less(t, hits[0].Time, hits[1].Time)

	r, err := db.GetRun(out.RunID)
	require.NoError(t, err)
	assert.Equal(t, 5, r.NSamples)
	assert.Equal(t, 2, r.NHits)
}

func TestRun_Version(t *testing.T) {
	_, logs, err := runCmd(t, "-version")
	require.NoError(t, err)
	assert.Contains(t, logs, "trd-hitfind dev")
}

func TestRun_Errors(t *testing.T) {
	setupPath := testutil.WriteTempFile(t, "setup.yaml", testSetup)
	samples := writeSamples(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing flags", nil},
		{"unknown flag", []string{"-bogus"}},
		{"missing setup", []string{"-setup", filepath.Join(t.TempDir(), "none.yaml"), "-samples", samples}},
		{"bad samples", []string{"-setup", setupPath, "-samples", testutil.WriteTempFile(t, "bad.json", "{")}},
		{"bad config", []string{"-setup", setupPath, "-samples", samples,
			"-config", testutil.WriteTempFile(t, "tuning.json", `{"merge_mode": "diagonal"}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCmd(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

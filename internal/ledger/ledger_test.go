package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertRunGeneratesID(t *testing.T) {
	s := openTestStore(t)

	run := &Run{Location: "antikythera", Interval: time.Hour}
	require.NoError(t, s.InsertRun(run))
	assert.NotEmpty(t, run.RunID)
	assert.False(t, run.StartedAt.IsZero())
}

func TestArtifactsAndSpan(t *testing.T) {
	s := openTestStore(t)
	run := &Run{Location: "antikythera", Interval: time.Hour}
	require.NoError(t, s.InsertRun(run))

	base := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertArtifact(&Artifact{
		RunID: run.RunID, Kind: "measurement", MeasurementID: "20240314aky0100",
		Path: "/out/20240314aky0100.json.gz", Start: base.Add(time.Hour), End: base.Add(2 * time.Hour),
	}))
	require.NoError(t, s.InsertArtifact(&Artifact{
		RunID: run.RunID, Kind: "calibration", MeasurementID: "20240314aky0253", Wavelength: 532,
		Path: "/out/calibration_20240314aky0253_532.json.gz", Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour),
	}))

	artifacts, err := s.ListArtifacts(run.RunID)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "20240314aky0100", artifacts[0].MeasurementID)
	assert.Equal(t, 532, artifacts[1].Wavelength)

	start, end, ok, err := s.RunSpan(run.RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Hour), start)
	assert.Equal(t, base.Add(3*time.Hour), end)
}

func TestRunSpanEmpty(t *testing.T) {
	s := openTestStore(t)
	run := &Run{Location: "finokalia", Interval: time.Hour}
	require.NoError(t, s.InsertRun(run))

	_, _, ok, err := s.RunSpan(run.RunID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWarningsAndCounts(t *testing.T) {
	s := openTestStore(t)
	run := &Run{Location: "antikythera", Interval: time.Hour}
	require.NoError(t, s.InsertRun(run))

	require.NoError(t, s.InsertWarning(run.RunID, 2, "degenerate calibration cycle"))
	require.NoError(t, s.InsertWarning(run.RunID, 0, "duplicate timestamps"))

	warnings, err := s.ListWarnings(run.RunID)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "window 0")
	assert.Contains(t, warnings[1], "window 2")

	require.NoError(t, s.UpdateRunCounts(run.RunID, 12, 2))
}

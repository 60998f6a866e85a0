package scc

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoslab/pollyxt.report/internal/depolcal"
	"github.com/atmoslab/pollyxt.report/internal/locations"
)

func readArtifactFile(t *testing.T, path string) artifactFile {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	var out artifactFile
	require.NoError(t, json.NewDecoder(gz).Decode(&out))
	return out
}

func TestDirWriter_Measurement(t *testing.T) {
	dir := t.TempDir()
	loc := testLocation()
	set := testSet(noon(), 6, 6, 4)

	a, err := BuildMeasurement(set, make([]bool, 6), loc, StandardAtmosphere)
	require.NoError(t, err)

	path, err := DirWriter{Dir: dir}.Write(a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240314tst1200.json.gz"), path)

	got := readArtifactFile(t, path)
	assert.Equal(t, "20240314tst1200", got.MeasurementID)
	assert.Equal(t, KindMeasurement, got.Kind)
	assert.Equal(t, []int{493, 494, 500, 501}, got.ChannelIDs)
	assert.Len(t, got.Data, 6)
	assert.Equal(t, a.Start.Unix(), got.Start)
	assert.Equal(t, int(StandardAtmosphere), got.MolecularCalc)
}

func TestDirWriter_CalibrationNaming(t *testing.T) {
	dir := t.TempDir()
	loc := testLocation()
	set := testSet(noon(), 20, 6, 4)
	period := depolcal.Period{
		First:  depolcal.Cycle{Orientation: depolcal.Plus45, Start: 2, End: 8},
		Second: depolcal.Cycle{Orientation: depolcal.Minus45, Start: 12, End: 18},
	}

	a, err := BuildCalibration(set, period, loc, locations.NM355)
	require.NoError(t, err)

	path, err := DirWriter{Dir: filepath.Join(dir, "out")}.Write(a)
	require.NoError(t, err)
	assert.Equal(t, "calibration_20240314tst1235_355.json.gz", filepath.Base(path))

	got := readArtifactFile(t, path)
	assert.Equal(t, 355, got.Wavelength)
	assert.Equal(t, float64(DefaultPolCalibRangeMin), got.PolCalibMin)
}

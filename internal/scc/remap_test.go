package scc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoslab/pollyxt.report/internal/depolcal"
	"github.com/atmoslab/pollyxt.report/internal/locations"
	"github.com/atmoslab/pollyxt.report/internal/polly"
)

func idx(i int) *int { return &i }

// testLocation configures 355nm and 532nm fully (calibration included) and
// 1064nm without a cross channel.
func testLocation() locations.Location {
	return locations.Location{
		Name:                   "testsite",
		SCCCode:                "tst",
		DaytimeConfiguration:   101,
		NighttimeConfiguration: 102,
		DepolZeroState:         0,
		Temperature:            20,
		Pressure:               1010,
		BackgroundLow:          []int{0, 0, 0, 0},
		BackgroundHigh:         []int{249, 249, 249, 249},
		LRInput:                []int{1, 1, 1, 1},
		Wavelengths: map[string]locations.WavelengthConfig{
			"355": {
				TotalIndex: idx(0), CrossIndex: idx(1),
				TotalChannelID: 493, CrossChannelID: 494,
				CalibrationChannelIDs:    []int{1266, 1268, 1267, 1269},
				CalibrationConfiguration: 499,
				Calibration: &locations.CalibrationIndices{
					Plus45Transmitted: idx(0), Plus45Reflected: idx(1),
					Minus45Transmitted: idx(0), Minus45Reflected: idx(1),
				},
			},
			"532": {
				TotalIndex: idx(2), CrossIndex: idx(3),
				TotalChannelID: 500, CrossChannelID: 501,
				CalibrationChannelIDs:    []int{1270, 1272, 1271, 1273},
				CalibrationConfiguration: 502,
				Calibration: &locations.CalibrationIndices{
					Plus45Transmitted: idx(2), Plus45Reflected: idx(3),
					Minus45Transmitted: idx(2), Minus45Reflected: idx(3),
				},
			},
			"1064": {
				TotalIndex: idx(4), // cross channel missing: excluded everywhere
			},
		},
	}
}

// testSet builds a sample set with n samples at 30s cadence from start.
// Channel c of sample i holds the value 100*c + i in every bin.
func testSet(start time.Time, n, channels, bins int) *polly.SampleSet {
	set := &polly.SampleSet{ZenithAngle: 5}
	for i := 0; i < n; i++ {
		set.Times = append(set.Times, start.Add(time.Duration(i)*30*time.Second))
		profile := make([][]float64, channels)
		shots := make([]int32, channels)
		for c := range profile {
			profile[c] = make([]float64, bins)
			for b := range profile[c] {
				profile[c][b] = float64(100*c + i)
			}
			shots[c] = 600
		}
		set.Signal = append(set.Signal, profile)
		set.Shots = append(set.Shots, shots)
		set.CalAngle = append(set.CalAngle, 0)
	}
	return set
}

func noon() time.Time { return time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC) }

func TestBuildMeasurement_ChannelSelection(t *testing.T) {
	loc := testLocation()
	set := testSet(noon(), 10, 6, 4)
	mask := make([]bool, 10)

	a, err := BuildMeasurement(set, mask, loc, StandardAtmosphere)
	require.NoError(t, err)
	require.NotNil(t, a)

	// 355 and 532 are fully mapped; 1064 lacks its cross index and is
	// omitted entirely.
	assert.Equal(t, []int{493, 494, 500, 501}, a.ChannelIDs)
	require.Len(t, a.Data, 10)
	require.Len(t, a.Data[0], 4)

	// Channel values are copied verbatim from the configured raw indices.
	assert.Equal(t, float64(0), a.Data[0][0][0], "dest 0 is raw channel 0")
	assert.Equal(t, float64(100), a.Data[0][1][0], "dest 1 is raw channel 1")
	assert.Equal(t, float64(200), a.Data[0][2][0], "dest 2 is raw channel 2")
	assert.Equal(t, float64(300), a.Data[0][3][0], "dest 3 is raw channel 3")

	assert.Equal(t, KindMeasurement, a.Kind)
	assert.Equal(t, "20240314tst1200", a.MeasurementID)
	assert.Equal(t, 101, a.ConfigurationID, "12:00 is daytime")
	assert.Equal(t, set.Times[0], a.Start)
	assert.Equal(t, set.Times[9], a.End)
}

func TestBuildMeasurement_RemovesCalibrationSamples(t *testing.T) {
	loc := testLocation()
	set := testSet(noon(), 10, 6, 4)
	mask := make([]bool, 10)
	mask[3], mask[4], mask[5] = true, true, true

	a, err := BuildMeasurement(set, mask, loc, StandardAtmosphere)
	require.NoError(t, err)
	require.Len(t, a.Times, 7, "masked samples are removed from the time axis")
	// Sample 3 is gone: its slot now holds sample 6's value.
	assert.Equal(t, float64(6), a.Data[3][0][0])
}

func TestBuildMeasurement_AllSamplesMasked(t *testing.T) {
	loc := testLocation()
	set := testSet(noon(), 5, 6, 4)
	mask := []bool{true, true, true, true, true}

	a, err := BuildMeasurement(set, mask, loc, StandardAtmosphere)
	require.NoError(t, err)
	assert.Nil(t, a, "a window holding only calibration samples produces no measurement artifact")
}

func TestBuildMeasurement_NighttimeConfiguration(t *testing.T) {
	loc := testLocation()
	night := time.Date(2024, 3, 14, 2, 0, 0, 0, time.UTC)
	set := testSet(night, 4, 6, 4)

	a, err := BuildMeasurement(set, make([]bool, 4), loc, StandardAtmosphere)
	require.NoError(t, err)
	assert.Equal(t, 102, a.ConfigurationID)
}

func TestBuildMeasurement_RadiosondeSoundingFile(t *testing.T) {
	loc := testLocation()
	set := testSet(noon(), 4, 6, 4)

	a, err := BuildMeasurement(set, make([]bool, 4), loc, Radiosonde)
	require.NoError(t, err)
	assert.Equal(t, Radiosonde, a.MolecularCalc)
	assert.Equal(t, "rs_20240314tst12.nc", a.SoundingFileName)
}

func TestBuildMeasurement_NoUsableWavelength(t *testing.T) {
	loc := locations.Location{Name: "bad", SCCCode: "bad", Wavelengths: map[string]locations.WavelengthConfig{}}
	set := testSet(noon(), 4, 6, 4)

	_, err := BuildMeasurement(set, make([]bool, 4), loc, StandardAtmosphere)
	require.Error(t, err)
}

func TestBuildCalibration_FourChannelLayout(t *testing.T) {
	loc := testLocation()
	set := testSet(noon(), 20, 6, 4)
	period := depolcal.Period{
		First:  depolcal.Cycle{Orientation: depolcal.Plus45, Start: 2, End: 8},
		Second: depolcal.Cycle{Orientation: depolcal.Minus45, Start: 12, End: 18},
	}

	a, err := BuildCalibration(set, period, loc, locations.NM532)
	require.NoError(t, err)

	assert.Equal(t, KindCalibration, a.Kind)
	assert.Equal(t, locations.NM532, a.Wavelength)
	assert.Equal(t, []int{1270, 1272, 1271, 1273}, a.ChannelIDs)
	assert.Equal(t, 502, a.ConfigurationID)
	require.Len(t, a.Data, 12, "6 +45 rows then 6 -45 rows")
	require.Len(t, a.Data[0], 4)

	// +45 rows fill channels 0 (transmitted, raw 2) and 1 (reflected,
	// raw 3); the -45 channels stay zero.
	assert.Equal(t, float64(202), a.Data[0][0][0])
	assert.Equal(t, float64(302), a.Data[0][1][0])
	assert.Equal(t, float64(0), a.Data[0][2][0])
	assert.Equal(t, float64(0), a.Data[0][3][0])

	// -45 rows fill channels 2 and 3.
	assert.Equal(t, float64(0), a.Data[6][0][0])
	assert.Equal(t, float64(0), a.Data[6][1][0])
	assert.Equal(t, float64(212), a.Data[6][2][0])
	assert.Equal(t, float64(312), a.Data[6][3][0])

	// The artifact's time range is the calibration period's, not the
	// enclosing window's.
	assert.Equal(t, set.Times[2], a.Start)
	assert.Equal(t, set.Times[17], a.End)
	assert.Equal(t, "20240314tst1253", a.MeasurementID)

	assert.Equal(t, float64(DefaultPolCalibRangeMin), a.PolCalibRangeMin)
	assert.Equal(t, float64(DefaultPolCalibRangeMax), a.PolCalibRangeMax)
}

func TestBuildCalibration_MissingConfigSkipped(t *testing.T) {
	loc := testLocation()
	set := testSet(noon(), 20, 6, 4)
	period := depolcal.Period{
		First:  depolcal.Cycle{Orientation: depolcal.Plus45, Start: 2, End: 8},
		Second: depolcal.Cycle{Orientation: depolcal.Minus45, Start: 12, End: 18},
	}

	_, err := BuildCalibration(set, period, loc, locations.NM1064)
	require.Error(t, err, "1064nm has no calibration configuration")
}

func TestBuildCalibration_UnreconciledCycles(t *testing.T) {
	loc := testLocation()
	set := testSet(noon(), 20, 6, 4)
	period := depolcal.Period{
		First:  depolcal.Cycle{Orientation: depolcal.Plus45, Start: 2, End: 8},
		Second: depolcal.Cycle{Orientation: depolcal.Minus45, Start: 12, End: 19},
	}

	_, err := BuildCalibration(set, period, loc, locations.NM532)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reconciled")
}

func TestParseAtmosphere(t *testing.T) {
	testCases := []struct {
		input     string
		expected  Atmosphere
		expectErr bool
	}{
		{"standard", StandardAtmosphere, false},
		{"automatic", Automatic, false},
		{"radiosonde", Radiosonde, false},
		{"cloudnet", Cloudnet, false},
		{" Standard ", StandardAtmosphere, false},
		{"martian", 0, true},
	}
	for _, tc := range testCases {
		got, err := ParseAtmosphere(tc.input)
		if tc.expectErr {
			assert.Error(t, err, "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.expected, got, "input %q", tc.input)
	}
}

func TestCalibrationMeasurementID_WavelengthSuffix(t *testing.T) {
	loc := testLocation()
	at := time.Date(2024, 3, 14, 7, 45, 0, 0, time.UTC)
	assert.Equal(t, "20240314tst0735", CalibrationMeasurementID(loc, at, locations.NM355))
	assert.Equal(t, "20240314tst0753", CalibrationMeasurementID(loc, at, locations.NM532))
}

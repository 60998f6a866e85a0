package scc

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists one artifact and returns the path it was written to.
// Implementations are the conversion core's output collaborators.
type Writer interface {
	Write(a *Artifact) (string, error)
}

// artifactFile is the serialised shape of an Artifact. Times are stored as
// Unix seconds (UTC); the 3-D data array keeps the [time][channel][bin]
// layout.
type artifactFile struct {
	MeasurementID   string      `json:"measurement_id"`
	Kind            Kind        `json:"kind"`
	ConfigurationID int         `json:"configuration_id"`
	Wavelength      int         `json:"wavelength,omitempty"`
	Start           int64       `json:"raw_data_start_time"`
	End             int64       `json:"raw_data_stop_time"`
	ChannelIDs      []int       `json:"channel_id"`
	Times           []int64     `json:"times"`
	Data            [][][]float64 `json:"raw_lidar_data"`
	Shots           [][]int32   `json:"laser_shots"`
	ZenithAngle     float64     `json:"laser_pointing_angle"`
	BackgroundLow   []int       `json:"background_low"`
	BackgroundHigh  []int       `json:"background_high"`
	LRInput         []int       `json:"lr_input,omitempty"`
	Temperature     int         `json:"temperature_at_lidar_station"`
	Pressure        int         `json:"pressure_at_lidar_station"`
	MolecularCalc   int         `json:"molecular_calc"`
	SoundingFile    string      `json:"sounding_file_name,omitempty"`
	PolCalibMin     float64     `json:"pol_calib_range_min,omitempty"`
	PolCalibMax     float64     `json:"pol_calib_range_max,omitempty"`
}

// DirWriter writes artifacts into a directory as gzipped JSON. Measurement
// artifacts are named after their measurement ID; calibration artifacts get
// a calibration_ prefix and wavelength suffix, mirroring the SCC upload
// naming convention.
type DirWriter struct {
	Dir string
}

// Write persists the artifact and returns its path.
func (w DirWriter) Write(a *Artifact) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	name := fmt.Sprintf("%s.json.gz", a.MeasurementID)
	if a.Kind == KindCalibration {
		name = fmt.Sprintf("calibration_%s_%d.json.gz", a.MeasurementID, int(a.Wavelength))
	}
	path := filepath.Join(w.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(encodeArtifact(a)); err != nil {
		gz.Close()
		return "", fmt.Errorf("encode artifact %s: %w", a.MeasurementID, err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("finish artifact %s: %w", a.MeasurementID, err)
	}
	return path, f.Close()
}

func encodeArtifact(a *Artifact) artifactFile {
	times := make([]int64, len(a.Times))
	for i, t := range a.Times {
		times[i] = t.UTC().Unix()
	}
	out := artifactFile{
		MeasurementID:   a.MeasurementID,
		Kind:            a.Kind,
		ConfigurationID: a.ConfigurationID,
		Start:           a.Start.UTC().Unix(),
		End:             a.End.UTC().Unix(),
		ChannelIDs:      a.ChannelIDs,
		Times:           times,
		Data:            a.Data,
		Shots:           a.Shots,
		ZenithAngle:     a.ZenithAngle,
		BackgroundLow:   a.BackgroundLow,
		BackgroundHigh:  a.BackgroundHigh,
		LRInput:         a.LRInput,
		Temperature:     a.Temperature,
		Pressure:        a.Pressure,
		MolecularCalc:   int(a.MolecularCalc),
		SoundingFile:    a.SoundingFileName,
		PolCalibMin:     a.PolCalibRangeMin,
		PolCalibMax:     a.PolCalibRangeMax,
	}
	if a.Kind == KindCalibration {
		out.Wavelength = int(a.Wavelength)
	}
	return out
}

var _ Writer = DirWriter{}

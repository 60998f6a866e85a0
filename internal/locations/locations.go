// Package locations holds per-station configuration for PollyXT
// installations: SCC identifiers, geography, the depolarisation zero state
// and the channel tables that drive the raw→SCC channel remapping. Built-in
// stations ship embedded; custom stations load from TOML files.
package locations

import (
	"fmt"
	"sort"
)

// Wavelength identifies a destination wavelength in nanometres.
type Wavelength int

const (
	NM355  Wavelength = 355
	NM532  Wavelength = 532
	NM1064 Wavelength = 1064
)

func (w Wavelength) String() string { return fmt.Sprintf("%dnm", int(w)) }

// CalibrationIndices names the raw channel index feeding each of the four
// destination calibration channels, in the fixed SCC order. All four must be
// configured for a wavelength to produce calibration output; a partial set
// silently excludes the wavelength (an expected configuration choice, not an
// error).
type CalibrationIndices struct {
	Plus45Transmitted  *int `toml:"plus45_transmitted_idx"`
	Plus45Reflected    *int `toml:"plus45_reflected_idx"`
	Minus45Transmitted *int `toml:"minus45_transmitted_idx"`
	Minus45Reflected   *int `toml:"minus45_reflected_idx"`
}

// Complete reports whether all four indices are configured.
func (c *CalibrationIndices) Complete() bool {
	return c != nil &&
		c.Plus45Transmitted != nil && c.Plus45Reflected != nil &&
		c.Minus45Transmitted != nil && c.Minus45Reflected != nil
}

// WavelengthConfig maps one destination wavelength onto raw instrument
// channels. TotalIndex/CrossIndex are raw channel indices; the channel ID
// fields are destination identifiers written into SCC artifacts.
type WavelengthConfig struct {
	TotalIndex *int `toml:"total_channel_idx"`
	CrossIndex *int `toml:"cross_channel_idx"`

	TotalChannelID int `toml:"total_channel_id"`
	CrossChannelID int `toml:"cross_channel_id"`

	// CalibrationChannelIDs holds the four destination channel IDs in the
	// order plus45-transmitted, plus45-reflected, minus45-transmitted,
	// minus45-reflected.
	CalibrationChannelIDs []int `toml:"calibration_channel_ids"`

	// CalibrationConfiguration is the SCC lidar configuration ID used for
	// this wavelength's calibration artifacts.
	CalibrationConfiguration int `toml:"calibration_configuration"`

	Calibration *CalibrationIndices `toml:"calibration"`
}

// mapped reports whether the wavelength can contribute to normal output.
func (c WavelengthConfig) mapped() bool {
	return c.TotalIndex != nil && c.CrossIndex != nil
}

// calibrationReady reports whether the wavelength can produce calibration
// output.
func (c WavelengthConfig) calibrationReady() bool {
	return c.mapped() && c.Calibration.Complete() && len(c.CalibrationChannelIDs) == 4
}

// Location describes one PollyXT installation.
type Location struct {
	Name string `toml:"-"`

	SCCCode     string  `toml:"scc_code"`
	Lat         float64 `toml:"lat"`
	Lon         float64 `toml:"lon"`
	AltitudeASL float64 `toml:"altitude_asl"`

	DaytimeConfiguration   int `toml:"daytime_configuration"`
	NighttimeConfiguration int `toml:"nighttime_configuration"`

	// DepolZeroState is the calibration-angle value meaning "no
	// calibration in progress".
	DepolZeroState float64 `toml:"depol_calibration_zero_state"`

	Temperature int `toml:"temperature"`
	Pressure    int `toml:"pressure"`

	BackgroundLow  []int `toml:"background_low"`
	BackgroundHigh []int `toml:"background_high"`
	LRInput        []int `toml:"lr_input"`

	SoundingProvider string `toml:"sounding_provider"`
	ProfileName      string `toml:"profile_name"`

	// Wavelengths is keyed by wavelength in nanometres ("355", "532",
	// "1064"). Absent or partially-configured entries are skipped, not
	// errors.
	Wavelengths map[string]WavelengthConfig `toml:"wavelengths"`
}

// Wavelength returns the configuration for w, if present.
func (l Location) Wavelength(w Wavelength) (WavelengthConfig, bool) {
	cfg, ok := l.Wavelengths[fmt.Sprintf("%d", int(w))]
	return cfg, ok
}

// Usable returns the wavelengths with a complete total/cross mapping, in
// ascending order. These are the wavelengths that appear in normal output.
func (l Location) Usable() []Wavelength {
	return l.filter(WavelengthConfig.mapped)
}

// CalibrationUsable returns the wavelengths with a complete four-channel
// calibration mapping, in ascending order.
func (l Location) CalibrationUsable() []Wavelength {
	return l.filter(WavelengthConfig.calibrationReady)
}

func (l Location) filter(keep func(WavelengthConfig) bool) []Wavelength {
	var out []Wavelength
	for key, cfg := range l.Wavelengths {
		var nm int
		if _, err := fmt.Sscanf(key, "%d", &nm); err != nil {
			continue
		}
		if keep(cfg) {
			out = append(out, Wavelength(nm))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that the location can drive a conversion at all. A
// location with no usable wavelength is a configuration error; individual
// missing wavelengths are not.
func (l Location) Validate() error {
	if l.SCCCode == "" {
		return fmt.Errorf("location %s: scc_code is required", l.Name)
	}
	if len(l.Usable()) == 0 {
		return fmt.Errorf("location %s: no wavelength has both total and cross channel indices configured", l.Name)
	}
	for key, cfg := range l.Wavelengths {
		if n := len(cfg.CalibrationChannelIDs); n != 0 && n != 4 {
			return fmt.Errorf("location %s: wavelength %s has %d calibration channel IDs, want 4", l.Name, key, n)
		}
	}
	return nil
}

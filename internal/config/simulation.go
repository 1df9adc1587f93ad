package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical simulation defaults file.
const DefaultConfigPath = "config/simulation.defaults.json"

// SimulationConfig is the root configuration of a simulated capture. Every
// field is optional; the Get* accessors supply defaults for omitted ones.
type SimulationConfig struct {
	// Observer
	LatitudeDeg  *float64 `json:"latitude_deg,omitempty" yaml:"latitude_deg,omitempty"`
	LongitudeDeg *float64 `json:"longitude_deg,omitempty" yaml:"longitude_deg,omitempty"`
	HeightM      *float64 `json:"height_m,omitempty" yaml:"height_m,omitempty"`

	// Observation times
	StartTime *string `json:"start_time,omitempty" yaml:"start_time,omitempty"` // RFC 3339 or "now"
	Frames    *int    `json:"frames,omitempty" yaml:"frames,omitempty"`
	Interval  *string `json:"interval,omitempty" yaml:"interval,omitempty"` // duration string like "10m"

	// Lens
	LensModel        *string  `json:"lens_model,omitempty" yaml:"lens_model,omitempty"`
	Rows             *int     `json:"rows,omitempty" yaml:"rows,omitempty"`
	Cols             *int     `json:"cols,omitempty" yaml:"cols,omitempty"`
	FocalLengthUM    *float64 `json:"focal_length_um,omitempty" yaml:"focal_length_um,omitempty"`
	PixelPitchUM     *float64 `json:"pixel_pitch_um,omitempty" yaml:"pixel_pitch_um,omitempty"`
	AltitudeFloorDeg *float64 `json:"altitude_floor_deg,omitempty" yaml:"altitude_floor_deg,omitempty"`

	// Sky
	SkyType      *int  `json:"sky_type,omitempty" yaml:"sky_type,omitempty"`
	HighAccuracy *bool `json:"high_accuracy,omitempty" yaml:"high_accuracy,omitempty"`

	// Micro-polarizer
	ExtinctionRatio *float64      `json:"extinction_ratio,omitempty" yaml:"extinction_ratio,omitempty"`
	ToleranceRad    *float64      `json:"tolerance_rad,omitempty" yaml:"tolerance_rad,omitempty"`
	Mosaic          []MosaicEntry `json:"mosaic,omitempty" yaml:"mosaic,omitempty"`

	// Sensor
	SaturationRatio *float64 `json:"saturation_ratio,omitempty" yaml:"saturation_ratio,omitempty"`
	ADCBits         *int     `json:"adc_bits,omitempty" yaml:"adc_bits,omitempty"`
	SNR             *float64 `json:"snr,omitempty" yaml:"snr,omitempty"`
	NoiseFree       *bool    `json:"noise_free,omitempty" yaml:"noise_free,omitempty"`

	// Run
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// MosaicEntry assigns a wire-grid angle to a strided pixel subset.
type MosaicEntry struct {
	AngleDeg    float64 `json:"angle_deg" yaml:"angle_deg"`
	StartRow    int     `json:"start_row" yaml:"start_row"`
	StartColumn int     `json:"start_column" yaml:"start_column"`
	Step        int     `json:"step" yaml:"step"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptySimulationConfig returns a SimulationConfig with all fields unset.
func EmptySimulationConfig() *SimulationConfig {
	return &SimulationConfig{}
}

// DefaultSimulationConfig returns a config with every field set to its
// default, matching DefaultConfigPath.
func DefaultSimulationConfig() *SimulationConfig {
	e := EmptySimulationConfig()
	return &SimulationConfig{
		LatitudeDeg:      ptrFloat64(e.GetLatitudeDeg()),
		LongitudeDeg:     ptrFloat64(e.GetLongitudeDeg()),
		HeightM:          ptrFloat64(e.GetHeightM()),
		StartTime:        ptrString(e.GetStartTime()),
		Frames:           ptrInt(e.GetFrames()),
		Interval:         ptrString("10m"),
		LensModel:        ptrString(e.GetLensModel()),
		Rows:             ptrInt(e.GetRows()),
		Cols:             ptrInt(e.GetCols()),
		FocalLengthUM:    ptrFloat64(e.GetFocalLengthUM()),
		PixelPitchUM:     ptrFloat64(e.GetPixelPitchUM()),
		AltitudeFloorDeg: ptrFloat64(0),
		SkyType:          ptrInt(e.GetSkyType()),
		HighAccuracy:     ptrBool(e.GetHighAccuracy()),
		ExtinctionRatio:  ptrFloat64(e.GetExtinctionRatio()),
		ToleranceRad:     ptrFloat64(e.GetToleranceRad()),
		Mosaic:           e.GetMosaic(),
		SaturationRatio:  ptrFloat64(e.GetSaturationRatio()),
		ADCBits:          ptrInt(e.GetADCBits()),
		SNR:              ptrFloat64(e.GetSNR()),
		NoiseFree:        ptrBool(false),
	}
}

// WithSeed returns a copy of c with the seed set.
func (c *SimulationConfig) WithSeed(seed int64) *SimulationConfig {
	cp := *c
	cp.Seed = ptrInt64(seed)
	return &cp
}

// LoadSimulationConfig loads a SimulationConfig from a .json, .yaml or .yml
// file. Fields omitted from the file fall back to the Get* defaults, so
// partial configs are safe.
func LoadSimulationConfig(path string) (*SimulationConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySimulationConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SimulationConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadSimulationConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the set fields hold usable values.
func (c *SimulationConfig) Validate() error {
	if c.LatitudeDeg != nil && (math.IsNaN(*c.LatitudeDeg) || *c.LatitudeDeg < -90 || *c.LatitudeDeg > 90) {
		return fmt.Errorf("latitude_deg must be between -90 and 90, got %f", *c.LatitudeDeg)
	}
	if c.LongitudeDeg != nil && (math.IsNaN(*c.LongitudeDeg) || *c.LongitudeDeg < -180 || *c.LongitudeDeg > 360) {
		return fmt.Errorf("longitude_deg must be between -180 and 360, got %f", *c.LongitudeDeg)
	}

	if c.StartTime != nil && *c.StartTime != "" && !strings.EqualFold(*c.StartTime, "now") {
		if _, err := time.Parse(time.RFC3339, *c.StartTime); err != nil {
			return fmt.Errorf("invalid start_time '%s': %w", *c.StartTime, err)
		}
	}
	if c.Frames != nil && *c.Frames < 1 {
		return fmt.Errorf("frames must be at least 1, got %d", *c.Frames)
	}
	if c.Interval != nil && *c.Interval != "" {
		if _, err := time.ParseDuration(*c.Interval); err != nil {
			return fmt.Errorf("invalid interval '%s': %w", *c.Interval, err)
		}
	}

	if c.Rows != nil && *c.Rows < 1 {
		return fmt.Errorf("rows must be at least 1, got %d", *c.Rows)
	}
	if c.Cols != nil && *c.Cols < 1 {
		return fmt.Errorf("cols must be at least 1, got %d", *c.Cols)
	}
	if c.FocalLengthUM != nil && !(*c.FocalLengthUM > 0) {
		return fmt.Errorf("focal_length_um must be positive, got %f", *c.FocalLengthUM)
	}
	if c.PixelPitchUM != nil && !(*c.PixelPitchUM > 0) {
		return fmt.Errorf("pixel_pitch_um must be positive, got %f", *c.PixelPitchUM)
	}

	if c.SkyType != nil && (*c.SkyType < 1 || *c.SkyType > 15) {
		return fmt.Errorf("sky_type must be between 1 and 15, got %d", *c.SkyType)
	}

	if c.ExtinctionRatio != nil && (*c.ExtinctionRatio < 0 || *c.ExtinctionRatio > 1) {
		return fmt.Errorf("extinction_ratio must be between 0 and 1, got %f", *c.ExtinctionRatio)
	}
	if c.ToleranceRad != nil && *c.ToleranceRad < 0 {
		return fmt.Errorf("tolerance_rad must be non-negative, got %f", *c.ToleranceRad)
	}
	for i, m := range c.Mosaic {
		if m.StartRow < 0 || m.StartColumn < 0 || m.Step < 1 {
			return fmt.Errorf("mosaic entry %d has invalid pattern (start_row=%d start_column=%d step=%d)",
				i, m.StartRow, m.StartColumn, m.Step)
		}
	}

	if c.SaturationRatio != nil && (*c.SaturationRatio <= 0 || *c.SaturationRatio > 1) {
		return fmt.Errorf("saturation_ratio must be in (0, 1], got %f", *c.SaturationRatio)
	}
	if c.ADCBits != nil && (*c.ADCBits < 1 || *c.ADCBits > 31) {
		return fmt.Errorf("adc_bits must be between 1 and 31, got %d", *c.ADCBits)
	}
	if c.SNR != nil && !(*c.SNR > 0) {
		return fmt.Errorf("snr must be positive, got %f", *c.SNR)
	}

	return nil
}

// GetLatitudeDeg returns the latitude_deg value or the default.
func (c *SimulationConfig) GetLatitudeDeg() float64 {
	if c.LatitudeDeg == nil {
		return 51.4769 // Greenwich
	}
	return *c.LatitudeDeg
}

// GetLongitudeDeg returns the longitude_deg value or the default.
func (c *SimulationConfig) GetLongitudeDeg() float64 {
	if c.LongitudeDeg == nil {
		return 0
	}
	return *c.LongitudeDeg
}

// GetHeightM returns the height_m value or the default.
func (c *SimulationConfig) GetHeightM() float64 {
	if c.HeightM == nil {
		return 0
	}
	return *c.HeightM
}

// GetStartTime returns the start_time string, "now" when unset.
func (c *SimulationConfig) GetStartTime() string {
	if c.StartTime == nil || *c.StartTime == "" {
		return "now"
	}
	return *c.StartTime
}

// GetFrames returns the frames value or the default.
func (c *SimulationConfig) GetFrames() int {
	if c.Frames == nil {
		return 1
	}
	return *c.Frames
}

// GetInterval parses and returns the Interval as a time.Duration.
func (c *SimulationConfig) GetInterval() time.Duration {
	if c.Interval == nil || *c.Interval == "" {
		return 10 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.Interval)
	if err != nil {
		return 10 * time.Minute // default on parse error
	}
	return d
}

// GetLensModel returns the lens_model value or the default.
func (c *SimulationConfig) GetLensModel() string {
	if c.LensModel == nil || *c.LensModel == "" {
		return "equi_angle"
	}
	return *c.LensModel
}

// GetRows returns the rows value or the default.
func (c *SimulationConfig) GetRows() int {
	if c.Rows == nil {
		return 256
	}
	return *c.Rows
}

// GetCols returns the cols value or the default.
func (c *SimulationConfig) GetCols() int {
	if c.Cols == nil {
		return 256
	}
	return *c.Cols
}

// GetFocalLengthUM returns the focal_length_um value or the default.
func (c *SimulationConfig) GetFocalLengthUM() float64 {
	if c.FocalLengthUM == nil {
		return 600
	}
	return *c.FocalLengthUM
}

// GetPixelPitchUM returns the pixel_pitch_um value or the default.
func (c *SimulationConfig) GetPixelPitchUM() float64 {
	if c.PixelPitchUM == nil {
		return 6.9
	}
	return *c.PixelPitchUM
}

// GetAltitudeFloorDeg returns the altitude floor, or nil when masking is
// disabled.
func (c *SimulationConfig) GetAltitudeFloorDeg() *float64 {
	if c.AltitudeFloorDeg == nil {
		return nil
	}
	v := *c.AltitudeFloorDeg
	return &v
}

// GetSkyType returns the sky_type value or the default CIE clear sky.
func (c *SimulationConfig) GetSkyType() int {
	if c.SkyType == nil {
		return 12
	}
	return *c.SkyType
}

// GetHighAccuracy returns the high_accuracy value or the default.
func (c *SimulationConfig) GetHighAccuracy() bool {
	if c.HighAccuracy == nil {
		return false
	}
	return *c.HighAccuracy
}

// GetExtinctionRatio returns the extinction_ratio value or the default.
func (c *SimulationConfig) GetExtinctionRatio() float64 {
	if c.ExtinctionRatio == nil {
		return 0.99
	}
	return *c.ExtinctionRatio
}

// GetToleranceRad returns the tolerance_rad value or the default.
func (c *SimulationConfig) GetToleranceRad() float64 {
	if c.ToleranceRad == nil {
		return 0.0017 // about 0.1 degrees
	}
	return *c.ToleranceRad
}

// GetMosaic returns the configured mosaic, or the 2x2 superpixel
// 90/45/135/0 layout when none is set.
func (c *SimulationConfig) GetMosaic() []MosaicEntry {
	if len(c.Mosaic) == 0 {
		return []MosaicEntry{
			{AngleDeg: 90, StartRow: 0, StartColumn: 0, Step: 2},
			{AngleDeg: 45, StartRow: 0, StartColumn: 1, Step: 2},
			{AngleDeg: 135, StartRow: 1, StartColumn: 0, Step: 2},
			{AngleDeg: 0, StartRow: 1, StartColumn: 1, Step: 2},
		}
	}
	return append([]MosaicEntry(nil), c.Mosaic...)
}

// GetSaturationRatio returns the saturation_ratio value or the default.
func (c *SimulationConfig) GetSaturationRatio() float64 {
	if c.SaturationRatio == nil {
		return 0.9
	}
	return *c.SaturationRatio
}

// GetADCBits returns the adc_bits value or the default.
func (c *SimulationConfig) GetADCBits() int {
	if c.ADCBits == nil {
		return 12
	}
	return *c.ADCBits
}

// GetSNR returns the signal-to-noise ratio. noise_free overrides snr and
// yields +Inf.
func (c *SimulationConfig) GetSNR() float64 {
	if c.NoiseFree != nil && *c.NoiseFree {
		return math.Inf(1)
	}
	if c.SNR == nil {
		return 100
	}
	return *c.SNR
}

// GetSeed returns the seed, or (0, false) when runs should be time-seeded.
func (c *SimulationConfig) GetSeed() (int64, bool) {
	if c.Seed == nil {
		return 0, false
	}
	return *c.Seed, true
}

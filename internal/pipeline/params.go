package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/polarsky/internal/config"
	"github.com/banshee-data/polarsky/internal/ephemeris"
	"github.com/banshee-data/polarsky/internal/lens"
	"github.com/banshee-data/polarsky/internal/polarizer"
	"github.com/banshee-data/polarsky/internal/sensor"
	"github.com/banshee-data/polarsky/internal/sky"
	"github.com/banshee-data/polarsky/internal/timeutil"
)

// Params fully describes one capture.
type Params struct {
	Lens             lens.Config
	AltitudeFloorDeg *float64
	// Custom is required when Lens.Model is lens.Custom.
	Custom lens.Conjugation

	Site         ephemeris.Site
	Times        []time.Time
	SkyType      int
	HighAccuracy bool

	Polarizer polarizer.Config
	Sensor    sensor.Config

	// Seed drives the polarizer defects and sensor noise.
	Seed uint64

	// Optional collaborators; nil selects the built-in models.
	Ephemeris sky.Ephemeris
	Radiance  sky.RadianceModel
}

// Validate checks everything that can be checked before running.
func (p Params) Validate() error {
	if err := p.Lens.Validate(); err != nil {
		return fmt.Errorf("lens: %w", err)
	}
	if p.Lens.Model == lens.Custom && p.Custom == nil {
		return lens.ErrMissingConjugation
	}
	if err := p.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if len(p.Times) == 0 {
		return errors.New("no observation times")
	}
	if err := p.Polarizer.Validate(); err != nil {
		return fmt.Errorf("polarizer: %w", err)
	}
	if err := p.Sensor.Validate(); err != nil {
		return fmt.Errorf("sensor: %w", err)
	}
	return nil
}

// FromConfig builds capture parameters from a configuration. The clock
// resolves a start_time of "now"; unseeded configs take their seed from it
// too.
func FromConfig(cfg *config.SimulationConfig, clock timeutil.Clock) (Params, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	model, err := lens.ParseModel(cfg.GetLensModel())
	if err != nil {
		return Params{}, err
	}
	if model == lens.Custom {
		return Params{}, fmt.Errorf("lens model %q needs a conjugation hook and cannot be configured from a file", model.String())
	}
	start, err := timeutil.ParseInstant(cfg.GetStartTime(), clock)
	if err != nil {
		return Params{}, fmt.Errorf("start_time: %w", err)
	}

	mosaic := make([]polarizer.Orientation, 0, len(cfg.GetMosaic()))
	for _, m := range cfg.GetMosaic() {
		mosaic = append(mosaic, polarizer.Orientation{
			AngleDeg: m.AngleDeg,
			Pattern:  polarizer.SlicingPattern{StartRow: m.StartRow, StartColumn: m.StartColumn, Step: m.Step},
		})
	}

	seed, ok := cfg.GetSeed()
	if !ok {
		seed = clock.Now().UnixNano()
	}

	p := Params{
		Lens: lens.Config{
			Model:         model,
			Rows:          cfg.GetRows(),
			Cols:          cfg.GetCols(),
			FocalLengthUM: cfg.GetFocalLengthUM(),
			PixelPitchUM:  cfg.GetPixelPitchUM(),
		},
		AltitudeFloorDeg: cfg.GetAltitudeFloorDeg(),
		Site: ephemeris.Site{
			LatitudeDeg:  cfg.GetLatitudeDeg(),
			LongitudeDeg: cfg.GetLongitudeDeg(),
			HeightM:      cfg.GetHeightM(),
		},
		Times:        timeutil.Series(start, cfg.GetInterval(), cfg.GetFrames()),
		SkyType:      cfg.GetSkyType(),
		HighAccuracy: cfg.GetHighAccuracy(),
		Polarizer: polarizer.Config{
			ExtinctionRatio: cfg.GetExtinctionRatio(),
			ToleranceRad:    cfg.GetToleranceRad(),
			Mosaic:          mosaic,
		},
		Sensor: sensor.Config{
			SaturationRatio: cfg.GetSaturationRatio(),
			ADCBits:         cfg.GetADCBits(),
			SNR:             cfg.GetSNR(),
		},
		Seed: uint64(seed),
	}
	return p, p.Validate()
}

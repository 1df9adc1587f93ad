// Package sky simulates the polarization state of the clear daytime sky as
// seen from a ground observer.
//
// The polarization pattern is described by the four atmospheric neutral
// points (Babinet and Brewster near the sun, Arago and a fourth point near
// the anti-sun). Their stereographic projections define a single complex
// field ω from which the degree and angle of polarization follow.
package sky

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/polarsky/internal/cie"
	"github.com/banshee-data/polarsky/internal/ephemeris"
	"github.com/banshee-data/polarsky/internal/lens"
	"github.com/banshee-data/polarsky/internal/raster"
)

// Ephemeris supplies the sun's horizontal position in degrees.
type Ephemeris interface {
	SunPositions(times []time.Time, site ephemeris.Site, highAccuracy bool) ([]ephemeris.Position, error)
}

// RadianceModel supplies sky radiance. Angles are radians; sunZenith holds
// one value per frame.
type RadianceModel interface {
	Radiance(skyType int, observedZenith *raster.Cube, sunZenith []float64, scattering *raster.Cube) (*raster.Cube, error)
}

// Model is implemented by sky simulators.
type Model interface {
	FieldNames() []string
	Simulate(opts SimulateOptions) (*Result, error)
}

// ObservationFrame is when and where the sky is observed.
type ObservationFrame struct {
	Times []time.Time
	Site  ephemeris.Site
}

// SimulateOptions controls one simulation.
type SimulateOptions struct {
	SkyType int
	// AltitudeFloorDeg masks radiance, DoP and AoP at or below this
	// altitude. Nil disables masking.
	AltitudeFloorDeg *float64
	HighAccuracy     bool
}

// Option configures a PolarizationModel.
type Option func(*PolarizationModel)

// WithEphemeris replaces the default solar ephemeris.
func WithEphemeris(e Ephemeris) Option {
	return func(m *PolarizationModel) { m.ephemeris = e }
}

// WithRadiance replaces the default CIE radiance model.
func WithRadiance(r RadianceModel) Option {
	return func(m *PolarizationModel) { m.radiance = r }
}

// PolarizationModel simulates sky polarization from neutral-point geometry.
type PolarizationModel struct {
	frame     ObservationFrame
	azimuth   *raster.Cube // degrees, [T,H,W]
	altitude  *raster.Cube // degrees, [T,H,W]
	ephemeris Ephemeris
	radiance  RadianceModel
}

var _ Model = (*PolarizationModel)(nil)

// NewPolarizationModel builds the time-indexed sky-direction map for the
// given observation frame and angular grid.
func NewPolarizationModel(frame ObservationFrame, grid *lens.AngularGrid, opts ...Option) (*PolarizationModel, error) {
	if grid == nil || grid.Azimuth == nil || grid.Altitude == nil {
		return nil, errors.New("angular grid is required")
	}
	if grid.Azimuth.Rows != grid.Altitude.Rows || grid.Azimuth.Cols != grid.Altitude.Cols {
		return nil, fmt.Errorf("azimuth grid is %dx%d but altitude grid is %dx%d",
			grid.Azimuth.Rows, grid.Azimuth.Cols, grid.Altitude.Rows, grid.Altitude.Cols)
	}
	if len(frame.Times) == 0 {
		return nil, errors.New("at least one observation time is required")
	}
	if err := frame.Site.Validate(); err != nil {
		return nil, fmt.Errorf("invalid site: %w", err)
	}

	m := &PolarizationModel{
		frame:     frame,
		azimuth:   raster.Broadcast(grid.Azimuth, len(frame.Times)),
		altitude:  raster.Broadcast(grid.Altitude, len(frame.Times)),
		ephemeris: ephemeris.Solar{},
		radiance:  cie.Sky{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Frame returns the observation frame.
func (m *PolarizationModel) Frame() ObservationFrame { return m.frame }

// FieldNames returns the names of the simulated fields in output order.
func (m *PolarizationModel) FieldNames() []string {
	return append([]string(nil), fieldNames...)
}

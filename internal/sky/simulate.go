package sky

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/banshee-data/polarsky/internal/raster"
	"github.com/banshee-data/polarsky/internal/units"
)

// solarGeometry is the per-instant state shared by every pixel of a frame.
type solarGeometry struct {
	sun, antiSun      Direction
	zenith            float64
	babinet, brewster float64 // separations, radians
	brewsterP, arago  complex128
	babinetP, fourth  complex128
	norm              float64
	rotation          complex128 // e^{-2i·az_s}
}

func newSolarGeometry(azDeg, altDeg float64) solarGeometry {
	g := solarGeometry{
		sun: Direction{
			Azimuth:  units.WrapRadians(units.DegToRad(azDeg)),
			Altitude: units.DegToRad(altDeg),
		},
		zenith:   units.DegToRad(90 - altDeg),
		babinet:  units.DegToRad(BabinetSeparationDeg(altDeg)),
		brewster: units.DegToRad(BrewsterSeparationDeg(altDeg)),
	}
	g.antiSun = OffsetDirection(g.sun, math.Pi)

	heading := cmplx.Exp(complex(0, g.sun.Azimuth))
	tz := math.Tan(g.zenith / 2)
	tbr := math.Tan(g.brewster / 4)
	tba := math.Tan(g.babinet / 4)

	g.brewsterP = heading * complex((tz+tbr)/(1-tz*tbr), 0)
	g.babinetP = heading * complex((tz-tba)/(1+tz*tba), 0)
	g.arago = antipode(g.brewsterP)
	g.fourth = antipode(g.babinetP)
	g.norm = cmplx.Abs(g.brewsterP-g.arago) * cmplx.Abs(g.babinetP-g.fourth)
	g.rotation = cmplx.Exp(complex(0, -2*g.sun.Azimuth))
	return g
}

// antipode maps a stereographic projection onto that of the opposite point
// of the sphere.
func antipode(p complex128) complex128 {
	return -1 / cmplx.Conj(p)
}

func (g *solarGeometry) neutralPoints() NeutralPoints {
	return NeutralPoints{
		AboveSun:     OffsetDirection(g.sun, g.babinet),
		BelowSun:     OffsetDirection(g.sun, -g.brewster),
		AboveAntiSun: OffsetDirection(g.antiSun, g.babinet),
		BelowAntiSun: OffsetDirection(g.antiSun, -g.brewster),
	}
}

// omega evaluates the polarization invariant at an observed projection.
func (g *solarGeometry) omega(zeta complex128) complex128 {
	num := -4 * (zeta - g.brewsterP) * (zeta - g.babinetP) * (zeta - g.arago) * (zeta - g.fourth)
	m := cmplx.Abs(zeta)
	d := (1 + m*m) * (1 + m*m) * g.norm
	return num / complex(d, 0)
}

// Simulate runs the polarization model over every frame.
func (m *PolarizationModel) Simulate(opts SimulateOptions) (*Result, error) {
	positions, err := m.ephemeris.SunPositions(m.frame.Times, m.frame.Site, opts.HighAccuracy)
	if err != nil {
		return nil, fmt.Errorf("sun positions: %w", err)
	}
	frames := len(m.frame.Times)
	if len(positions) != frames {
		return nil, fmt.Errorf("ephemeris returned %d positions for %d times", len(positions), frames)
	}

	rows, cols := m.azimuth.Rows, m.azimuth.Cols
	res := &Result{
		DoP:        raster.NewCube(frames, rows, cols),
		AoP:        raster.NewCube(frames, rows, cols),
		Scattering: raster.NewCube(frames, rows, cols),
		Sun:        make([]Direction, frames),
		AntiSun:    make([]Direction, frames),
		Neutral:    make([]NeutralPoints, frames),
	}
	observedZenith := raster.NewCube(frames, rows, cols)
	sunZenith := make([]float64, frames)

	n := rows * cols
	for t, pos := range positions {
		g := newSolarGeometry(pos.AzimuthDeg, pos.AltitudeDeg)
		res.Sun[t] = g.sun
		res.AntiSun[t] = g.antiSun
		res.Neutral[t] = g.neutralPoints()
		sunZenith[t] = g.zenith

		for i := t * n; i < (t+1)*n; i++ {
			az := units.DegToRad(float64(m.azimuth.Data[i]))
			alt := units.DegToRad(float64(m.altitude.Data[i]))
			z := math.Pi/2 - alt

			zeta := cmplx.Rect(math.Tan(z/2), az)
			w := g.omega(zeta)
			mag := cmplx.Abs(w)

			res.DoP.Data[i] = float32(mag / (2 - mag))
			res.AoP.Data[i] = float32(0.5 * cmplx.Phase(w*g.rotation))
			res.Scattering.Data[i] = float32(Separation(Direction{Azimuth: az, Altitude: alt}, g.sun))
			observedZenith.Data[i] = float32(z)

			// Masked directions stay masked.
			if math.IsNaN(az) || math.IsNaN(alt) {
				res.DoP.Data[i] = raster.Invalid()
				res.AoP.Data[i] = raster.Invalid()
				res.Scattering.Data[i] = raster.Invalid()
			}
		}
	}

	res.Radiance, err = m.radiance.Radiance(opts.SkyType, observedZenith, sunZenith, res.Scattering)
	if err != nil {
		return nil, fmt.Errorf("radiance: %w", err)
	}
	raster.MustMatch(res.DoP, res.Radiance)

	if opts.AltitudeFloorDeg != nil {
		floor := float32(*opts.AltitudeFloorDeg)
		for i, alt := range m.altitude.Data {
			if alt <= floor {
				res.Radiance.Data[i] = raster.Invalid()
				res.DoP.Data[i] = raster.Invalid()
				res.AoP.Data[i] = raster.Invalid()
			}
		}
	}

	return res, nil
}

package sky

import "github.com/banshee-data/polarsky/internal/raster"

// Field names in output order.
const (
	FieldDoP                        = "dop"
	FieldAoP                        = "aop"
	FieldRadiance                   = "radiance"
	FieldScatteringAngle            = "scattering_angle"
	FieldSunAzimuth                 = "sun_azimuth"
	FieldSunAltitude                = "sun_altitude"
	FieldAboveSunNeutralAzimuth     = "above_sun_neutral_azimuth"
	FieldAboveSunNeutralAltitude    = "above_sun_neutral_altitude"
	FieldBelowSunNeutralAzimuth     = "below_sun_neutral_azimuth"
	FieldBelowSunNeutralAltitude    = "below_sun_neutral_altitude"
	FieldAntiSunAzimuth             = "antisun_azimuth"
	FieldAntiSunAltitude            = "antisun_altitude"
	FieldAboveAntiSunNeutralAzimuth = "above_antisun_neutral_azimuth"
	FieldAboveAntiSunNeutralAlt     = "above_antisun_neutral_altitude"
	FieldBelowAntiSunNeutralAzimuth = "below_antisun_neutral_azimuth"
	FieldBelowAntiSunNeutralAlt     = "below_antisun_neutral_altitude"
)

var fieldNames = []string{
	FieldDoP,
	FieldAoP,
	FieldRadiance,
	FieldScatteringAngle,
	FieldSunAzimuth,
	FieldSunAltitude,
	FieldAboveSunNeutralAzimuth,
	FieldAboveSunNeutralAltitude,
	FieldBelowSunNeutralAzimuth,
	FieldBelowSunNeutralAltitude,
	FieldAntiSunAzimuth,
	FieldAntiSunAltitude,
	FieldAboveAntiSunNeutralAzimuth,
	FieldAboveAntiSunNeutralAlt,
	FieldBelowAntiSunNeutralAzimuth,
	FieldBelowAntiSunNeutralAlt,
}

// Field is one named output of a simulation.
type Field struct {
	Name string
	Data *raster.Cube
}

// Result holds a simulated polarization field. Angles are radians.
type Result struct {
	DoP        *raster.Cube
	AoP        *raster.Cube
	Radiance   *raster.Cube
	Scattering *raster.Cube

	Sun     []Direction
	AntiSun []Direction
	Neutral []NeutralPoints
}

// Frames returns the number of time frames.
func (r *Result) Frames() int { return len(r.Sun) }

// Fields returns every output in contract order. Per-instant quantities
// are [T,1,1] cubes.
func (r *Result) Fields() []Field {
	pick := func(f func(i int) float64) *raster.Cube {
		c := raster.NewCube(len(r.Sun), 1, 1)
		for i := range r.Sun {
			c.Data[i] = float32(f(i))
		}
		return c
	}

	data := []*raster.Cube{
		r.DoP,
		r.AoP,
		r.Radiance,
		r.Scattering,
		pick(func(i int) float64 { return r.Sun[i].Azimuth }),
		pick(func(i int) float64 { return r.Sun[i].Altitude }),
		pick(func(i int) float64 { return r.Neutral[i].AboveSun.Azimuth }),
		pick(func(i int) float64 { return r.Neutral[i].AboveSun.Altitude }),
		pick(func(i int) float64 { return r.Neutral[i].BelowSun.Azimuth }),
		pick(func(i int) float64 { return r.Neutral[i].BelowSun.Altitude }),
		pick(func(i int) float64 { return r.AntiSun[i].Azimuth }),
		pick(func(i int) float64 { return r.AntiSun[i].Altitude }),
		pick(func(i int) float64 { return r.Neutral[i].AboveAntiSun.Azimuth }),
		pick(func(i int) float64 { return r.Neutral[i].AboveAntiSun.Altitude }),
		pick(func(i int) float64 { return r.Neutral[i].BelowAntiSun.Azimuth }),
		pick(func(i int) float64 { return r.Neutral[i].BelowAntiSun.Altitude }),
	}

	out := make([]Field, len(fieldNames))
	for i, name := range fieldNames {
		out[i] = Field{Name: name, Data: data[i]}
	}
	return out
}

// Field returns the named output, or nil.
func (r *Result) Field(name string) *raster.Cube {
	for _, f := range r.Fields() {
		if f.Name == name {
			return f.Data
		}
	}
	return nil
}

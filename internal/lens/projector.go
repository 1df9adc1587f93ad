// Package lens maps sensor pixels onto sky directions for a zenith-pointing
// wide-field lens.
package lens

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/banshee-data/polarsky/internal/raster"
	"github.com/banshee-data/polarsky/internal/units"
)

// Config describes the lens and sensor geometry.
type Config struct {
	Model         Model
	Rows          int     // pixels, vertical
	Cols          int     // pixels, horizontal
	FocalLengthUM float64 // micrometres
	PixelPitchUM  float64 // micrometres, square pixels
}

// Validate checks that the geometry is usable.
func (c Config) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("sensor must have at least one pixel, got %dx%d", c.Rows, c.Cols)
	}
	if !(c.FocalLengthUM > 0) {
		return fmt.Errorf("focal length must be positive, got %g", c.FocalLengthUM)
	}
	if !(c.PixelPitchUM > 0) {
		return fmt.Errorf("pixel pitch must be positive, got %g", c.PixelPitchUM)
	}
	return nil
}

// AngularGrid holds the sky direction seen by every pixel, in degrees.
// Azimuth increases clockwise from North as seen on the image; altitude is
// 90 at the boresight.
type AngularGrid struct {
	Azimuth  *raster.Plane
	Altitude *raster.Plane
}

// Conjugation is a caller-supplied lens mapping. It receives the planar
// offset field (micrometres) and the focal length, and returns the altitude
// of every pixel in radians, with the same shape as offsets.
type Conjugation interface {
	Conjugate(offsets *raster.Offsets, focalLengthUM float64) (*raster.Plane, error)
}

// ConjugationFunc adapts an ordinary function to Conjugation.
type ConjugationFunc func(offsets *raster.Offsets, focalLengthUM float64) (*raster.Plane, error)

// Conjugate calls f.
func (f ConjugationFunc) Conjugate(offsets *raster.Offsets, focalLengthUM float64) (*raster.Plane, error) {
	return f(offsets, focalLengthUM)
}

// ProjectOptions are per-call options for Project.
type ProjectOptions struct {
	// AltitudeFloorDeg clamps altitude from below when set.
	AltitudeFloorDeg *float64
	// Custom is required when the projector uses the Custom model.
	Custom Conjugation
}

// Projector converts a pixel grid into an AngularGrid.
type Projector struct {
	cfg Config
}

// NewProjector validates cfg and returns a Projector.
func NewProjector(cfg Config) (*Projector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Projector{cfg: cfg}, nil
}

// Config returns the projector's configuration.
func (p *Projector) Config() Config { return p.cfg }

// Offsets builds the centred planar offset field. Column 0 carries the
// largest positive x and row 0 the largest positive y.
func (p *Projector) Offsets() *raster.Offsets {
	rows, cols := p.cfg.Rows, p.cfg.Cols
	cx := float64(cols-1) / 2
	cy := float64(rows-1) / 2
	out := &raster.Offsets{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
	for i := 0; i < rows; i++ {
		y := p.cfg.PixelPitchUM * (cy - float64(i))
		for j := 0; j < cols; j++ {
			x := p.cfg.PixelPitchUM * (cx - float64(j))
			out.Data[i*cols+j] = complex(x, y)
		}
	}
	return out
}

// Project computes azimuth and altitude for every pixel.
//
// Pixels outside the field of view of the asin-based models come out as
// NaN altitude. They are not an error.
func (p *Projector) Project(opts ProjectOptions) (*AngularGrid, error) {
	offsets := p.Offsets()
	rows, cols := offsets.Rows, offsets.Cols

	altRad, err := p.conjugate(offsets, opts.Custom)
	if err != nil {
		return nil, err
	}

	az := raster.NewPlane(rows, cols)
	alt := raster.NewPlane(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			// The image x-axis runs opposite to the compass bearing, so the
			// azimuth is read from the mirrored column.
			az.Set(i, j, float32(units.RadToDeg(cmplx.Phase(offsets.At(i, cols-1-j)))))

			a := units.RadToDeg(altRad[i*cols+j])
			if opts.AltitudeFloorDeg != nil && a < *opts.AltitudeFloorDeg {
				a = *opts.AltitudeFloorDeg
			}
			alt.Set(i, j, float32(a))
		}
	}
	return &AngularGrid{Azimuth: az, Altitude: alt}, nil
}

// conjugate returns altitude in radians for every pixel.
func (p *Projector) conjugate(offsets *raster.Offsets, custom Conjugation) ([]float64, error) {
	f := p.cfg.FocalLengthUM
	out := make([]float64, len(offsets.Data))

	if p.cfg.Model == Custom {
		if custom == nil {
			return nil, ErrMissingConjugation
		}
		plane, err := custom.Conjugate(offsets, f)
		if err != nil {
			return nil, fmt.Errorf("custom conjugation: %w", err)
		}
		if plane == nil || plane.Rows != offsets.Rows || plane.Cols != offsets.Cols || len(plane.Data) != len(out) {
			return nil, fmt.Errorf("custom conjugation returned wrong shape, want %dx%d", offsets.Rows, offsets.Cols)
		}
		for i, v := range plane.Data {
			out[i] = float64(v)
		}
		return out, nil
	}

	remap, err := p.remap()
	if err != nil {
		return nil, err
	}
	for i, z := range offsets.Data {
		out[i] = math.Pi/2 - remap(cmplx.Abs(z)/f)
	}
	return out, nil
}

// remap returns the zenith angle (radians) as a function of r/f.
func (p *Projector) remap() (func(float64) float64, error) {
	switch p.cfg.Model {
	case Thin:
		return math.Atan, nil
	case Stereographic:
		return func(u float64) float64 { return 2 * math.Atan(u/2) }, nil
	case EquiAngle:
		return func(u float64) float64 { return u }, nil
	case EquiSolidAngle:
		return func(u float64) float64 { return 2 * math.Asin(u/2) }, nil
	case Orthogonal:
		return math.Asin, nil
	default:
		return nil, &UnsupportedProjectionError{Name: p.cfg.Model.String()}
	}
}

// FieldOfViewDeg returns the full field of view across the sensor diagonal.
// It is NaN for the Custom model and when the corners lie outside the
// model's domain.
func (p *Projector) FieldOfViewDeg() float64 {
	remap, err := p.remap()
	if err != nil {
		return math.NaN()
	}
	r := p.cfg.PixelPitchUM * math.Hypot(float64(p.cfg.Cols-1)/2, float64(p.cfg.Rows-1)/2)
	return 2 * units.RadToDeg(remap(r/p.cfg.FocalLengthUM))
}

// Package cie implements the CIE standard general sky (ISO 15469:2004 /
// CIE S 011/E:2003) relative luminance distribution.
//
// The relative radiance of a sky element is
//
//	L/Lz = f(χ)·φ(Z) / (f(Zs)·φ(0))
//
// where φ is the gradation function of the element's zenith angle Z, f is
// the scattering indicatrix of its angular distance χ from the sun, and Zs
// is the solar zenith angle.
package cie

import (
	"fmt"
	"math"

	"github.com/banshee-data/polarsky/internal/raster"
)

// Parameters are the five coefficients of one standard sky type.
type Parameters struct {
	A, B float64 // gradation
	C, D float64 // indicatrix
	E    float64
}

// standardSkies lists the 15 CIE standard sky types, indexed from 1.
var standardSkies = [...]Parameters{
	1:  {A: 4.0, B: -0.70, C: 0, D: -1.0, E: 0.00},
	2:  {A: 4.0, B: -0.70, C: 2, D: -1.5, E: 0.15},
	3:  {A: 1.1, B: -0.80, C: 0, D: -1.0, E: 0.00},
	4:  {A: 1.1, B: -0.80, C: 2, D: -1.5, E: 0.15},
	5:  {A: 0.0, B: -1.00, C: 0, D: -1.0, E: 0.00},
	6:  {A: 0.0, B: -1.00, C: 2, D: -1.5, E: 0.15},
	7:  {A: 0.0, B: -1.00, C: 5, D: -2.5, E: 0.30},
	8:  {A: 0.0, B: -1.00, C: 10, D: -3.0, E: 0.45},
	9:  {A: -1.0, B: -0.55, C: 2, D: -1.5, E: 0.15},
	10: {A: -1.0, B: -0.55, C: 5, D: -2.5, E: 0.30},
	11: {A: -1.0, B: -0.55, C: 10, D: -3.0, E: 0.45},
	12: {A: -1.0, B: -0.32, C: 10, D: -3.0, E: 0.45},
	13: {A: -1.0, B: -0.32, C: 16, D: -3.0, E: 0.30},
	14: {A: -1.0, B: -0.15, C: 16, D: -3.0, E: 0.30},
	15: {A: -1.0, B: -0.15, C: 24, D: -2.8, E: 0.15},
}

// SkyTypes is the number of standard sky types.
const SkyTypes = len(standardSkies) - 1

// UnknownSkyTypeError reports a sky type outside 1..15.
type UnknownSkyTypeError struct {
	SkyType int
}

func (e *UnknownSkyTypeError) Error() string {
	return fmt.Sprintf("unknown CIE sky type %d (want 1-%d)", e.SkyType, SkyTypes)
}

// Lookup returns the coefficients of a standard sky type.
func Lookup(skyType int) (Parameters, error) {
	if skyType < 1 || skyType > SkyTypes {
		return Parameters{}, &UnknownSkyTypeError{SkyType: skyType}
	}
	return standardSkies[skyType], nil
}

// Gradation is φ(Z). It is 1 at the horizon and undefined below it, where
// NaN is returned.
func (p Parameters) Gradation(zenith float64) float64 {
	cz := math.Cos(zenith)
	switch {
	case zenith > math.Pi/2:
		return math.NaN()
	case cz <= 0:
		return 1
	}
	return 1 + p.A*math.Exp(p.B/cz)
}

// Indicatrix is f(χ).
func (p Parameters) Indicatrix(chi float64) float64 {
	c := math.Cos(chi)
	return 1 + p.C*(math.Exp(p.D*chi)-math.Exp(p.D*math.Pi/2)) + p.E*c*c
}

// Relative returns L/Lz for a single sky element.
func (p Parameters) Relative(zenith, sunZenith, scattering float64) float64 {
	if math.IsNaN(zenith) || math.IsNaN(scattering) {
		return math.NaN()
	}
	if zenith > math.Pi/2 {
		return 0
	}
	norm := p.Indicatrix(sunZenith) * p.Gradation(0)
	return p.Indicatrix(scattering) * p.Gradation(zenith) / norm
}

// Sky evaluates the standard general sky over whole fields. The zero value
// is ready to use.
type Sky struct{}

// Radiance returns relative radiance for every element of observedZenith.
// sunZenith holds one solar zenith angle per frame. All angles are radians.
func (Sky) Radiance(skyType int, observedZenith *raster.Cube, sunZenith []float64, scattering *raster.Cube) (*raster.Cube, error) {
	p, err := Lookup(skyType)
	if err != nil {
		return nil, err
	}
	raster.MustMatch(observedZenith, scattering)
	if len(sunZenith) != observedZenith.Frames {
		return nil, fmt.Errorf("got %d solar zenith angles for %d frames", len(sunZenith), observedZenith.Frames)
	}

	out := raster.NewCube(observedZenith.Frames, observedZenith.Rows, observedZenith.Cols)
	n := observedZenith.FrameSize()
	for t := 0; t < observedZenith.Frames; t++ {
		zs := sunZenith[t]
		base := t * n
		for i := base; i < base+n; i++ {
			out.Data[i] = float32(p.Relative(float64(observedZenith.Data[i]), zs, float64(scattering.Data[i])))
		}
	}
	return out, nil
}

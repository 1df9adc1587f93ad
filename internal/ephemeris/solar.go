// Package ephemeris computes the apparent position of the sun for a ground
// observer.
//
// Two algorithms are provided. The low-accuracy path uses the Astronomical
// Almanac's approximate solar coordinates (about 0.01° in declination over
// 1950-2050). The high-accuracy path follows Meeus, Astronomical
// Algorithms ch. 25, adding nutation and aberration to the apparent
// longitude, and corrects the altitude for atmospheric refraction.
package ephemeris

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/polarsky/internal/units"
)

// Site is a ground observer location.
type Site struct {
	LatitudeDeg  float64 `json:"latitude_deg"`
	LongitudeDeg float64 `json:"longitude_deg"` // east positive
	HeightM      float64 `json:"height_m"`
}

// Validate checks the site coordinates.
func (s Site) Validate() error {
	if math.IsNaN(s.LatitudeDeg) || s.LatitudeDeg < -90 || s.LatitudeDeg > 90 {
		return fmt.Errorf("latitude must be within [-90, 90], got %g", s.LatitudeDeg)
	}
	if math.IsNaN(s.LongitudeDeg) || s.LongitudeDeg < -180 || s.LongitudeDeg > 360 {
		return fmt.Errorf("longitude must be within [-180, 360], got %g", s.LongitudeDeg)
	}
	return nil
}

// Position is a horizontal-frame direction.
type Position struct {
	AzimuthDeg  float64 // 0 = North, clockwise, [0, 360)
	AltitudeDeg float64 // 0 = horizon, 90 = zenith
}

// Equatorial holds geocentric apparent right ascension and declination.
type Equatorial struct {
	RightAscensionRad float64
	DeclinationRad    float64
}

// Solar looks up sun positions. The zero value is ready to use.
type Solar struct{}

// SunPositions returns the sun's horizontal position at every instant.
func (Solar) SunPositions(times []time.Time, site Site, highAccuracy bool) ([]Position, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}
	out := make([]Position, len(times))
	for i, t := range times {
		out[i] = SunPosition(t, site, highAccuracy)
	}
	return out, nil
}

// SunPosition returns the sun's horizontal position at t.
func SunPosition(t time.Time, site Site, highAccuracy bool) Position {
	jd := JulianDate(t)
	var eq Equatorial
	if highAccuracy {
		eq = SunEquatorialMeeus(jd)
	} else {
		eq = SunEquatorialAlmanac(jd)
	}

	lst := GMST(t) + units.DegToRad(site.LongitudeDeg)
	pos := horizontal(eq, units.DegToRad(site.LatitudeDeg), lst-eq.RightAscensionRad)
	if highAccuracy {
		pos.AltitudeDeg += refractionDeg(pos.AltitudeDeg)
	}
	return pos
}

// SunEquatorialAlmanac implements the Astronomical Almanac's low-precision
// solar coordinates.
func SunEquatorialAlmanac(jd float64) Equatorial {
	n := jd - j2000
	L := units.WrapDegrees(280.460 + 0.9856474*n)
	g := units.DegToRad(units.WrapDegrees(357.528 + 0.9856003*n))
	lambda := units.DegToRad(L + 1.915*math.Sin(g) + 0.020*math.Sin(2*g))
	eps := units.DegToRad(23.439 - 0.0000004*n)
	return eclipticToEquatorial(lambda, eps)
}

// SunEquatorialMeeus implements Meeus ch. 25 apparent solar coordinates.
func SunEquatorialMeeus(jd float64) Equatorial {
	T := (jd - j2000) / 36525.0

	L0 := units.WrapDegrees(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := units.DegToRad(units.WrapDegrees(357.52911 + 35999.05029*T - 0.0001537*T*T))

	// Equation of centre.
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)

	omega := units.DegToRad(125.04 - 1934.136*T)
	lambda := units.DegToRad(L0 + C - 0.00569 - 0.00478*math.Sin(omega))

	eps0 := 23.0 + 26.0/60.0 + 21.448/3600.0 - (46.8150*T+0.00059*T*T-0.001813*T*T*T)/3600.0
	eps := units.DegToRad(eps0 + 0.00256*math.Cos(omega))

	return eclipticToEquatorial(lambda, eps)
}

func eclipticToEquatorial(lambda, eps float64) Equatorial {
	ra := math.Atan2(math.Cos(eps)*math.Sin(lambda), math.Cos(lambda))
	dec := math.Asin(math.Sin(eps) * math.Sin(lambda))
	return Equatorial{RightAscensionRad: units.WrapRadians(ra), DeclinationRad: dec}
}

// horizontal converts hour angle and declination to azimuth/altitude.
// Azimuth is measured clockwise from North.
func horizontal(eq Equatorial, lat, hourAngle float64) Position {
	sinDec, cosDec := math.Sincos(eq.DeclinationRad)
	sinLat, cosLat := math.Sincos(lat)
	sinH, cosH := math.Sincos(hourAngle)

	alt := math.Asin(sinLat*sinDec + cosLat*cosDec*cosH)
	az := math.Atan2(-cosDec*sinH, sinDec*cosLat-cosDec*cosH*sinLat)

	return Position{
		AzimuthDeg:  units.WrapDegrees(units.RadToDeg(az)),
		AltitudeDeg: units.RadToDeg(alt),
	}
}

// refractionDeg is Bennett's formula for standard atmospheric conditions,
// in degrees to add to the true altitude. Below -1° it is zero.
func refractionDeg(altDeg float64) float64 {
	if altDeg < -1 {
		return 0
	}
	arcmin := 1.0 / math.Tan(units.DegToRad(altDeg+7.31/(altDeg+4.4)))
	return arcmin / 60.0
}

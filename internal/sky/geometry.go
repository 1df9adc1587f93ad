package sky

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/polarsky/internal/units"
)

// Direction is a horizontal-frame direction in radians. Azimuth is
// measured clockwise from North.
type Direction struct {
	Azimuth  float64
	Altitude float64
}

// NeutralPoints are the four polarization neutral points.
type NeutralPoints struct {
	AboveSun     Direction // Babinet
	BelowSun     Direction // Brewster
	AboveAntiSun Direction
	BelowAntiSun Direction
}

// BabinetSeparationDeg is the angular distance of the Babinet point above
// the sun for a solar altitude in degrees.
func BabinetSeparationDeg(sunAltDeg float64) float64 {
	return 42.53 - 0.56*sunAltDeg
}

// BrewsterSeparationDeg is the angular distance of the Brewster point below
// the sun for a solar altitude in degrees.
func BrewsterSeparationDeg(sunAltDeg float64) float64 {
	if sunAltDeg <= 27 {
		return 37.34 + 0.49*sunAltDeg
	}
	return 56.84 - 0.25*sunAltDeg
}

// OffsetDirection moves d along the great circle through the zenith by
// separation radians. Positive separations move toward the zenith and may
// carry the point over it onto the opposite azimuth.
func OffsetDirection(d Direction, separation float64) Direction {
	sinA, cosA := math.Sincos(separation)
	cosC, sinC := math.Sincos(d.Altitude) // colatitude

	cosB := cosC*cosA + sinC*sinA
	var turn float64
	if sinC < 1e-12 {
		// At a pole the starting azimuth is undefined.
		turn = math.Pi/2 + cosC*math.Pi/2
	} else {
		turn = math.Atan2(0, cosA-cosB*cosC)
	}

	return Direction{
		Azimuth:  units.WrapRadians(d.Azimuth + turn),
		Altitude: math.Asin(math.Max(-1, math.Min(1, cosB))),
	}
}

// Separation is the great-circle angle between two directions in radians.
func Separation(a, b Direction) float64 {
	va, vb := unitVector(a), unitVector(b)
	return math.Atan2(r3.Norm(r3.Cross(va, vb)), r3.Dot(va, vb))
}

// unitVector places a direction in a North-East-Up frame.
func unitVector(d Direction) r3.Vec {
	sinAz, cosAz := math.Sincos(d.Azimuth)
	sinAlt, cosAlt := math.Sincos(d.Altitude)
	return r3.Vec{X: cosAlt * cosAz, Y: cosAlt * sinAz, Z: sinAlt}
}

package astrotime

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate reports a geographic coordinate outside its documented
// unit contract.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

const (
	degToRad = math.Pi / 180.0
	twoPi    = 2 * math.Pi
)

// GMST calculates Greenwich Mean Sidereal Time in radians, [0, 2*Pi), for a
// Julian Date in UTC. The JD is first shifted to UT1, then the IAU-82
// expression (Meeus Eq 12.4) is evaluated:
//
//	θ = 280.46061837 + 360.98564736629*(JD - J2000) + 0.000387933*T² - T³/38710000
//
// with T in Julian centuries of UT1 from J2000.0 and θ in degrees.
func GMST(jdUTC float64) float64 {
	jd := UTCToUT1(jdUTC)
	t := (jd - J2000) / 36525.0

	deg := 280.46061837 +
		360.98564736629*(jd-J2000) +
		0.000387933*t*t -
		t*t*t/38710000.0

	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg * degToRad
}

// LST returns local sidereal time in radians, [0, 2*Pi), for a GMST in
// radians and a geographic longitude in degrees, East positive. Longitudes
// with |lon| > 360 are rejected: they are almost certainly radians or a
// scaled value handed across the unit boundary by mistake.
func LST(gmst, longitudeDeg float64) (float64, error) {
	if math.Abs(longitudeDeg) > 360 {
		return 0, fmt.Errorf("%w: longitude %g out of range, want degrees East in [-360, 360]", ErrInvalidCoordinate, longitudeDeg)
	}
	lst := math.Mod(gmst+longitudeDeg*degToRad, twoPi)
	if lst < 0 {
		lst += twoPi
	}
	return lst, nil
}

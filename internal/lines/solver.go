package lines

import "math"

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
	twoPi    = 2 * math.Pi

	// horizonEps bounds the near-zero tests distinguishing the degenerate
	// horizon cases for bodies sitting on the celestial equator.
	horizonEps = 1e-9
)

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}

// normalizeSignedAngle wraps an angle into (-pi, pi].
func normalizeSignedAngle(a float64) float64 {
	a = normalizeAngle(a)
	if a > math.Pi {
		a -= twoPi
	}
	return a
}

// wrapLongitude maps a normalized angle in radians to degrees in
// (-180, 180].
func wrapLongitude(rad float64) float64 {
	deg := normalizeAngle(rad) * radToDeg
	if deg > 180.0 {
		deg -= 360.0
	}
	return deg
}

// MCLongitude is the geographic longitude where a body with the given
// right ascension culminates: the meridian where RA equals local sidereal
// time. Inputs are radians, result degrees in (-180, 180].
func MCLongitude(rightAscension, gmst float64) float64 {
	return wrapLongitude(rightAscension - gmst)
}

// ICLongitude is the anti-culmination meridian, opposite the MC.
func ICLongitude(rightAscension, gmst float64) float64 {
	return wrapLongitude(rightAscension + math.Pi - gmst)
}

// HorizonKind classifies the horizon equation's solution set at one
// longitude.
type HorizonKind int

const (
	// HorizonLatitude means a single latitude puts the body on the horizon.
	HorizonLatitude HorizonKind = iota
	// HorizonAllLatitudes means every latitude satisfies the horizon
	// equation. Occurs for equatorial bodies at hour angle +/-90 degrees.
	HorizonAllLatitudes
	// HorizonNone means no latitude works. Equatorial bodies only cross
	// the horizon at the cardinal east/west points, so gaps between those
	// are geometrically real.
	HorizonNone
)

// HorizonSolution is the outcome of SolveHorizon. Latitude is only
// meaningful when Kind is HorizonLatitude.
type HorizonSolution struct {
	Kind     HorizonKind
	Latitude float64
}

// SolveHorizon finds where a body with the given equatorial coordinates
// sits exactly on the horizon at a geographic longitude.
//
// Solves sin(phi)sin(delta) + cos(phi)cos(delta)cos(H) = 0 for latitude
// phi, with H the local hour angle. The general solution is
// phi = atan(-cos(delta)cos(H)/sin(delta)); atan rather than atan2 keeps
// the result in the latitude range. When sin(delta) vanishes the equation
// degenerates to cos(phi)cos(H) = 0: every latitude if cos(H) is also
// zero, no latitude otherwise.
//
// RA, declination and GMST are radians, longitude degrees east-positive.
func SolveHorizon(rightAscension, declination, gmst, longitudeDeg float64) HorizonSolution {
	hourAngle := normalizeSignedAngle(gmst + longitudeDeg*degToRad - rightAscension)

	sinDelta := math.Sin(declination)
	cosDelta := math.Cos(declination)
	cosH := math.Cos(hourAngle)

	if math.Abs(sinDelta) < horizonEps {
		if math.Abs(cosH) < horizonEps {
			return HorizonSolution{Kind: HorizonAllLatitudes}
		}
		return HorizonSolution{Kind: HorizonNone}
	}

	lat := math.Atan(-cosDelta*cosH/sinDelta) * radToDeg
	if lat > 90.0 {
		lat = 90.0
	} else if lat < -90.0 {
		lat = -90.0
	}
	return HorizonSolution{Kind: HorizonLatitude, Latitude: lat}
}

// IsRising reports whether a body on the horizon at this longitude is on
// its ascending side. Rising corresponds to the body east of the
// meridian, sin(H) < 0.
func IsRising(rightAscension, gmst, longitudeDeg float64) bool {
	hourAngle := normalizeSignedAngle(gmst + longitudeDeg*degToRad - rightAscension)
	return math.Sin(hourAngle) < 0.0
}

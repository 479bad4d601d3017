package ephemeris

import (
	"fmt"
	"math"

	"github.com/astro/astrogo/internal/astrotime"
)

// Position is an apparent geocentric equatorial position. RightAscension is
// radians in [0, 2*Pi), Declination radians in [-Pi/2, Pi/2],
// EclipticLongitude degrees in [0, 360).
type Position struct {
	Planet            Planet  `json:"planet"`
	RightAscension    float64 `json:"rightAscension"`
	Declination       float64 `json:"declination"`
	EclipticLongitude float64 `json:"eclipticLongitude"`
}

// Instant caches the per-moment quantities shared by all bodies: the TT
// Julian date, nutation, true obliquity and GMST. Computing them once and
// calling PositionAt per body is much cheaper than PositionOf in a loop.
type Instant struct {
	JDUTC         float64
	JDE           float64
	GMST          float64
	DeltaPsi      float64
	DeltaEps      float64
	TrueObliquity float64
}

// NewInstant prepares shared time-scale state for a Julian Date in UTC.
func NewInstant(jdUTC float64) Instant {
	jde := astrotime.TT(jdUTC)
	dPsi, dEps := Nutation(jde)
	return Instant{
		JDUTC:         jdUTC,
		JDE:           jde,
		GMST:          astrotime.GMST(jdUTC),
		DeltaPsi:      dPsi,
		DeltaEps:      dEps,
		TrueObliquity: MeanObliquity(jde) + dEps,
	}
}

// PositionAt computes a body's apparent position using the precomputed
// instant. The geocentric ecliptic position gets the nutation in longitude,
// conversion to equatorial with the true obliquity, and annual aberration
// for every body except the Moon.
func PositionAt(p Planet, inst Instant) (Position, error) {
	var eclLon, eclLat float64

	switch p {
	case Sun:
		// The Sun's geocentric position opposes Earth's heliocentric one.
		earthLon, earthLat, _ := earthHeliocentric(inst.JDE)
		eclLon = normalizeAngle(earthLon + math.Pi)
		eclLat = -earthLat
	case Moon:
		eclLon, eclLat = moonPosition(inst.JDE)
	case Pluto:
		eclLon, eclLat = plutoPosition(inst.JDE)
	case Chiron:
		eclLon, eclLat = chironPosition(inst.JDE)
	case NorthNode:
		eclLon, eclLat = nodePosition(inst.JDE)
	default:
		pLon, pLat, pR, ok := heliocentric(p, inst.JDE)
		if !ok {
			return Position{}, fmt.Errorf("%w: %v", ErrUnsupportedBody, p)
		}
		eLon, eLat, eR := earthHeliocentric(inst.JDE)
		eclLon, eclLat = helioToGeo(pLon, pLat, pR, eLon, eLat, eR)
	}

	eclLon = normalizeAngle(eclLon + inst.DeltaPsi)

	ra, dec := EclipticToEquatorial(eclLon, eclLat, inst.TrueObliquity)

	if p != Moon {
		ra, dec = aberration(ra, dec, inst.JDE, inst.TrueObliquity)
	}

	return Position{
		Planet:            p,
		RightAscension:    ra,
		Declination:       dec,
		EclipticLongitude: eclLon * radToDeg,
	}, nil
}

// PositionOf computes a body's apparent position for a Julian Date in UTC,
// performing the full UTC -> UT1 -> TT chain internally.
func PositionOf(p Planet, jdUTC float64) (Position, error) {
	if !p.Valid() {
		return Position{}, fmt.Errorf("%w: %v", ErrUnsupportedBody, p)
	}
	return PositionAt(p, NewInstant(jdUTC))
}

// AllPositions computes apparent positions for every supported body at one
// instant, in canonical order.
func AllPositions(inst Instant) ([]Position, error) {
	out := make([]Position, 0, int(numPlanets))
	for _, p := range Planets() {
		pos, err := PositionAt(p, inst)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

// helioToGeo converts heliocentric ecliptic spherical coordinates of a
// planet and Earth into the planet's geocentric ecliptic longitude and
// latitude via rectangular differencing.
func helioToGeo(pLon, pLat, pR, eLon, eLat, eR float64) (lon, lat float64) {
	sinPLon, cosPLon := math.Sincos(pLon)
	sinPLat, cosPLat := math.Sincos(pLat)
	sinELon, cosELon := math.Sincos(eLon)
	sinELat, cosELat := math.Sincos(eLat)

	x := pR*cosPLat*cosPLon - eR*cosELat*cosELon
	y := pR*cosPLat*sinPLon - eR*cosELat*sinELon
	z := pR*sinPLat - eR*sinELat

	lon = normalizeAngle(math.Atan2(y, x))
	lat = math.Atan2(z, math.Hypot(x, y))
	return lon, lat
}

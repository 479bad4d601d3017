package lines

import (
	"math"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/geo"
)

// Local space line defaults, kilometers.
const (
	DefaultLocalSpaceMaxKm  = 15000.0
	DefaultLocalSpaceStepKm = 200.0
)

// EquatorialToHorizontal converts equatorial coordinates to azimuth and
// altitude for an observer. All inputs and outputs are radians; azimuth is
// measured from north through east.
func EquatorialToHorizontal(ra, dec, lst, observerLat float64) (azimuth, altitude float64) {
	hourAngle := lst - ra

	sinAlt := math.Sin(dec)*math.Sin(observerLat) +
		math.Cos(dec)*math.Cos(observerLat)*math.Cos(hourAngle)
	altitude = math.Asin(sinAlt)

	y := math.Sin(hourAngle)
	x := math.Cos(hourAngle)*math.Sin(observerLat) - math.Tan(dec)*math.Cos(observerLat)
	azimuth = normalizeAngle(math.Atan2(y, x) + math.Pi)

	return azimuth, altitude
}

// CompassDirection buckets an azimuth in degrees into one of the eight
// cardinal and intercardinal points.
func CompassDirection(azimuthDeg float64) string {
	normalized := math.Mod(azimuthDeg, 360.0)
	if normalized < 0 {
		normalized += 360.0
	}
	switch {
	case normalized >= 337.5 || normalized < 22.5:
		return "N"
	case normalized < 67.5:
		return "NE"
	case normalized < 112.5:
		return "E"
	case normalized < 157.5:
		return "SE"
	case normalized < 202.5:
		return "S"
	case normalized < 247.5:
		return "SW"
	case normalized < 292.5:
		return "W"
	default:
		return "NW"
	}
}

// ComputeLocalSpace builds the direction line of one body from the birth
// place: the great circle leaving along the body's azimuth, sampled every
// stepKm out to maxKm. The first point is the birth place itself.
func ComputeLocalSpace(pos ephemeris.Position, gmst, birthLat, birthLng, maxKm, stepKm float64) LocalSpaceLine {
	if maxKm <= 0 {
		maxKm = DefaultLocalSpaceMaxKm
	}
	if stepKm <= 0 {
		stepKm = DefaultLocalSpaceStepKm
	}

	lst := gmst + birthLng*degToRad
	azRad, altRad := EquatorialToHorizontal(pos.RightAscension, pos.Declination, lst, birthLat*degToRad)
	azDeg := azRad * radToDeg

	points := []geo.Point{{Lat: birthLat, Lng: birthLng}}
	for distance := stepKm; distance <= maxKm; distance += stepKm {
		points = append(points, geo.Destination(birthLat, birthLng, azRad, distance))
	}

	return LocalSpaceLine{
		Planet:    pos.Planet,
		Azimuth:   azDeg,
		Altitude:  altRad * radToDeg,
		Direction: CompassDirection(azDeg),
		Points:    points,
	}
}

// ComputeAllLocalSpace builds direction lines for every body at a birth
// moment and place.
func ComputeAllLocalSpace(inst ephemeris.Instant, birthLat, birthLng, maxKm, stepKm float64) ([]LocalSpaceLine, error) {
	positions, err := ephemeris.AllPositions(inst)
	if err != nil {
		return nil, err
	}
	out := make([]LocalSpaceLine, 0, len(positions))
	for _, pos := range positions {
		out = append(out, ComputeLocalSpace(pos, inst.GMST, birthLat, birthLng, maxKm, stepKm))
	}
	return out, nil
}

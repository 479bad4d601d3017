// Package geo implements the spherical geodesy the ranking engine leans on:
// great-circle distances, point-to-polyline distances with dateline
// handling, bounding boxes and polyline simplification. Coordinates are
// decimal degrees, distances kilometers on the mean sphere.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for all spherical math.
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180.0

// Haversine computes the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * degToRad
	lat2Rad := lat2 * degToRad
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// EquirectDistance is a fast flat-projection estimate, accurate to about 1%
// below 500 km at mid latitudes. Used for cheap rejection before the exact
// great-circle math.
func EquirectDistance(lat1, lon1, lat2, lon2 float64) float64 {
	midLat := (lat1 + lat2) / 2
	cosLat := math.Cos(midLat * degToRad)

	dx := (lon2 - lon1) * cosLat
	dy := lat2 - lat1

	return 111.32 * math.Sqrt(dx*dx+dy*dy)
}

// CrossTrack returns the cross-track distance from a point to the great
// circle through a segment, and the signed along-track distance from the
// segment start, both in kilometers. A negative along-track means the
// projection falls before the start.
func CrossTrack(latPt, lonPt, lat1, lon1, lat2, lon2 float64) (cross, along float64) {
	latPtRad := latPt * degToRad
	lonPtRad := lonPt * degToRad
	lat1Rad := lat1 * degToRad
	lon1Rad := lon1 * degToRad
	lat2Rad := lat2 * degToRad
	lon2Rad := lon2 * degToRad

	// Angular distance start -> point.
	d13 := Haversine(latPt, lonPt, lat1, lon1) / EarthRadiusKm

	y13 := math.Sin(lonPtRad-lon1Rad) * math.Cos(latPtRad)
	x13 := math.Cos(lat1Rad)*math.Sin(latPtRad) -
		math.Sin(lat1Rad)*math.Cos(latPtRad)*math.Cos(lonPtRad-lon1Rad)
	bearing13 := math.Atan2(y13, x13)

	y12 := math.Sin(lon2Rad-lon1Rad) * math.Cos(lat2Rad)
	x12 := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lon2Rad-lon1Rad)
	bearing12 := math.Atan2(y12, x12)

	dxt := math.Asin(clamp(math.Sin(d13)*math.Sin(bearing13-bearing12), -1, 1))
	cross = math.Abs(dxt) * EarthRadiusKm

	// Along-track with the denominator guarded away from zero. cos(dxt)
	// near zero means the point sits a quarter circle off the path, far
	// outside any influence radius, but the guard keeps the math finite.
	const epsilon = 1e-10
	cosDxt := math.Cos(dxt)
	if math.Abs(cosDxt) < epsilon {
		if cosDxt >= 0 {
			cosDxt = epsilon
		} else {
			cosDxt = -epsilon
		}
	}
	datAbs := math.Acos(clamp(math.Cos(d13)/cosDxt, -1, 1))
	sign := 1.0
	if math.Cos(bearing13-bearing12) < 0 {
		sign = -1.0
	}
	if math.IsNaN(datAbs) {
		along = 0
	} else {
		along = sign * datAbs * EarthRadiusKm
	}

	return cross, along
}

// DistanceToSegment returns the minimum distance in kilometers from a point
// to a great-circle segment, falling back to the nearest endpoint when the
// projection lands outside the segment. Segments spanning more than 180
// degrees of longitude are split at the dateline first.
func DistanceToSegment(latPt, lonPt, lat1, lon1, lat2, lon2 float64) float64 {
	if math.Abs(lon2-lon1) > 180 {
		crossLat, crossLon1 := datelineCrossing(lat1, lon1, lat2, lon2)
		crossLon2 := 180.0
		if crossLon1 == 180.0 {
			crossLon2 = -180.0
		}

		d1 := segmentDistance(latPt, lonPt, lat1, lon1, crossLat, crossLon1)
		d2 := segmentDistance(latPt, lonPt, crossLat, crossLon2, lat2, lon2)
		return math.Min(d1, d2)
	}
	return segmentDistance(latPt, lonPt, lat1, lon1, lat2, lon2)
}

// unwrapLongitude shifts lon by whole turns until it is within 180 degrees
// of refLon.
func unwrapLongitude(lon, refLon float64) float64 {
	delta := lon - refLon
	for delta > 180 {
		delta -= 360
	}
	for delta < -180 {
		delta += 360
	}
	return refLon + delta
}

// datelineCrossing interpolates the latitude where a segment crosses the
// +/-180 meridian and reports which side it crosses on.
func datelineCrossing(lat1, lon1, lat2, lon2 float64) (lat, lon float64) {
	lon2Unwrapped := unwrapLongitude(lon2, lon1)

	crossingLon := -180.0
	if lon2Unwrapped > lon1 {
		crossingLon = 180.0
	}

	t := (crossingLon - lon1) / (lon2Unwrapped - lon1)
	return lat1 + t*(lat2-lat1), crossingLon
}

func segmentDistance(latPt, lonPt, lat1, lon1, lat2, lon2 float64) float64 {
	cross, along := CrossTrack(latPt, lonPt, lat1, lon1, lat2, lon2)
	segmentLength := Haversine(lat1, lon1, lat2, lon2)

	switch {
	case along < 0:
		return Haversine(latPt, lonPt, lat1, lon1)
	case along > segmentLength:
		return Haversine(latPt, lonPt, lat2, lon2)
	default:
		return cross
	}
}

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceToPolyline returns the minimum distance in kilometers from a
// point to the nearest segment of a polyline, not merely the nearest
// vertex. Empty polylines are infinitely far away.
func DistanceToPolyline(lat, lon float64, points []Point) float64 {
	if len(points) == 0 {
		return math.Inf(1)
	}
	if len(points) == 1 {
		return Haversine(lat, lon, points[0].Lat, points[0].Lng)
	}

	minDist := math.Inf(1)
	for i := 0; i < len(points)-1; i++ {
		d := DistanceToSegment(lat, lon, points[i].Lat, points[i].Lng, points[i+1].Lat, points[i+1].Lng)
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

// Destination returns the point reached by travelling a great-circle
// distance from a start point along an initial bearing in radians.
func Destination(lat, lon, bearingRad, distanceKm float64) Point {
	latRad := lat * degToRad
	lonRad := lon * degToRad
	angular := distanceKm / EarthRadiusKm

	sinLat, cosLat := math.Sincos(latRad)
	sinAng, cosAng := math.Sincos(angular)

	destLat := math.Asin(sinLat*cosAng + cosLat*sinAng*math.Cos(bearingRad))
	destLon := lonRad + math.Atan2(
		math.Sin(bearingRad)*sinAng*cosLat,
		cosAng-sinLat*math.Sin(destLat),
	)

	lonDeg := destLon / degToRad
	for lonDeg > 180 {
		lonDeg -= 360
	}
	for lonDeg < -180 {
		lonDeg += 360
	}

	return Point{Lat: destLat / degToRad, Lng: lonDeg}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

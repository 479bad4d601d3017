package geo

import "math"

// perpendicularDistance is the 2D point-to-line distance in degrees, used
// only for simplification where a flat approximation is sufficient.
func perpendicularDistance(p, a, b Point) float64 {
	dx := b.Lat - a.Lat
	dy := b.Lng - a.Lng

	if dx == 0 && dy == 0 {
		ddx := p.Lat - a.Lat
		ddy := p.Lng - a.Lng
		return math.Sqrt(ddx*ddx + ddy*ddy)
	}

	numerator := math.Abs(dy*p.Lat - dx*p.Lng + b.Lat*a.Lng - b.Lng*a.Lat)
	denominator := math.Sqrt(dx*dx + dy*dy)
	return numerator / denominator
}

// Simplify reduces a polyline with the Douglas-Peucker algorithm. The
// tolerance is in degrees; 0.1 keeps points within roughly 11 km of the
// original line.
func Simplify(points []Point, tolerance float64) []Point {
	if len(points) <= 2 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	first := points[0]
	last := points[len(points)-1]

	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < len(points)-1; i++ {
		d := perpendicularDistance(points[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist > tolerance {
		left := Simplify(points[:maxIdx+1], tolerance)
		right := Simplify(points[maxIdx:], tolerance)
		// Junction point appears in both halves.
		return append(left[:len(left)-1], right...)
	}
	return []Point{first, last}
}

// SimplifiedPolyline carries a simplified polyline with its bounding box
// and centroid precomputed for the tiered rejection in FastDistance.
type SimplifiedPolyline struct {
	Points   []Point
	BBox     BoundingBox
	Centroid Point
}

// NewSimplifiedPolyline simplifies points at the given tolerance (degrees)
// and buffers the bounding box by bufferKm. Tolerance <= 0 skips
// simplification.
func NewSimplifiedPolyline(points []Point, bufferKm, tolerance float64) SimplifiedPolyline {
	simplified := points
	if tolerance > 0 {
		simplified = Simplify(points, tolerance)
	}

	var centroid Point
	if n := len(simplified); n > 0 {
		var sumLat, sumLng float64
		for _, p := range simplified {
			sumLat += p.Lat
			sumLng += p.Lng
		}
		centroid = Point{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}
	}

	return SimplifiedPolyline{
		Points:   simplified,
		BBox:     NewBoundingBox(simplified, bufferKm),
		Centroid: centroid,
	}
}

// FastDistance returns the distance from a point to the polyline when it is
// within thresholdKm, and false otherwise. It rejects in three cheap tiers
// before touching the exact spherical math: centroid distance against the
// box diagonal, bounding box membership, then equirectangular segment
// distances with a 20% margin for approximation error.
func (l *SimplifiedPolyline) FastDistance(lat, lng, thresholdKm float64) (float64, bool) {
	centroidDist := EquirectDistance(lat, lng, l.Centroid.Lat, l.Centroid.Lng)

	dLat := l.BBox.MaxLat - l.BBox.MinLat
	dLng := l.BBox.MaxLng - l.BBox.MinLng
	bboxDiagonal := math.Sqrt(dLat*dLat+dLng*dLng) * 111.32
	if centroidDist > bboxDiagonal+thresholdKm+200.0 {
		return 0, false
	}

	if !l.BBox.MightContain(lat, lng) {
		return 0, false
	}

	minFast := math.Inf(1)
	for i := 0; i < len(l.Points)-1; i++ {
		d := equirectSegmentDistance(lat, lng, l.Points[i], l.Points[i+1])
		if d < minFast {
			minFast = d
		}
	}

	if minFast > thresholdKm*1.2 {
		return 0, false
	}

	accurate := DistanceToPolyline(lat, lng, l.Points)
	if accurate <= thresholdKm {
		return accurate, true
	}
	return 0, false
}

// equirectSegmentDistance is the flat-projection distance in kilometers
// from a point to a 2D segment. Segment endpoints alone are not enough
// here: simplification collapses straight polylines to two far-apart
// vertices, and a nearby point must still survive this tier.
func equirectSegmentDistance(lat, lng float64, a, b Point) float64 {
	cosLat := math.Cos(lat * degToRad)

	ax := (a.Lng - lng) * cosLat
	ay := a.Lat - lat
	bx := (b.Lng - lng) * cosLat
	by := b.Lat - lat

	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 111.32 * math.Sqrt(ax*ax+ay*ay)
	}

	t := clamp(-(ax*dx+ay*dy)/lenSq, 0, 1)
	px := ax + t*dx
	py := ay + t*dy
	return 111.32 * math.Sqrt(px*px+py*py)
}

package geo

// BoundingBox is an axis-aligned lat/lon box with a buffer, used to reject
// polylines before exact distance math. When MinLng > MaxLng the box spans
// the dateline.
type BoundingBox struct {
	MinLat    float64
	MaxLat    float64
	MinLng    float64
	MaxLng    float64
	BufferDeg float64
}

// NewBoundingBox builds the box enclosing points, expanded by bufferKm
// converted at 111.32 km per degree. An empty point set yields a
// whole-globe box so nothing is incorrectly rejected.
func NewBoundingBox(points []Point, bufferKm float64) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLng, maxLng := points[0].Lng, points[0].Lng
	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lng < minLng {
			minLng = p.Lng
		}
		if p.Lng > maxLng {
			maxLng = p.Lng
		}
	}

	return BoundingBox{
		MinLat:    minLat,
		MaxLat:    maxLat,
		MinLng:    minLng,
		MaxLng:    maxLng,
		BufferDeg: bufferKm / 111.32,
	}
}

// MightContain reports whether the point could be within the buffered box.
// False positives are fine, false negatives are not.
func (b BoundingBox) MightContain(lat, lng float64) bool {
	if lat < b.MinLat-b.BufferDeg || lat > b.MaxLat+b.BufferDeg {
		return false
	}
	if b.MinLng > b.MaxLng {
		// Dateline wrap: inside if beyond either edge.
		return lng >= b.MinLng-b.BufferDeg || lng <= b.MaxLng+b.BufferDeg
	}
	return lng >= b.MinLng-b.BufferDeg && lng <= b.MaxLng+b.BufferDeg
}

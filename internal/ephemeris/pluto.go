package ephemeris

import "math"

// Pluto's heliocentric position from the periodic expansion in Meeus Ch. 37,
// built on the near-resonant arguments J (Jupiter), S (Saturn), P (Pluto).
// Valid 1885-2099; drift outside that window grows slowly enough that line
// rendering stays usable for nearby decades.

type plutoTerm struct {
	j, s, p                        int
	lonSin, lonCos, latSin, latCos float64
}

var plutoTerms = []plutoTerm{
	{0, 0, 1, -19799805, 19850055, -5452852, -14974862},
	{0, 0, 2, 897144, -4954829, 3527812, 1672790},
	{0, 0, 3, 611149, 1211027, -1050748, 327647},
	{0, 0, 4, -341243, -189585, 178690, -292153},
	{0, 0, 5, 129027, -34863, 18650, 100340},
	{0, 0, 6, -38215, 31061, -30594, -25823},
	{0, 1, -1, 20349, -9886, 4965, 11263},
	{0, 1, 0, -4045, -4904, 310, -132},
	{0, 1, 1, -5885, -3238, 2036, -947},
	{0, 1, 2, -3812, 3011, -2, -674},
	{0, 1, 3, -601, 3468, -329, -563},
	{0, 2, -2, 1237, 463, -64, 39},
	{0, 2, -1, 1086, -911, -94, 210},
	{0, 2, 0, 595, -1229, -8, -160},
	{1, -1, 0, 2484, -485, -177, 259},
	{1, -1, 1, 839, -1414, 17, 234},
	{1, 0, -3, -964, 1059, 582, -285},
	{1, 0, -2, -2303, -1038, -298, 692},
	{1, 0, -1, 7049, 747, 157, 201},
	{1, 0, 0, 1179, -358, 304, 825},
	{1, 0, 1, 393, -63, -124, -29},
	{1, 0, 2, 111, -268, 15, 8},
	{1, 0, 3, -52, -154, 7, 15},
	{1, 0, 4, -78, -30, 2, 2},
	{1, 1, -3, -34, -26, 4, 2},
	{1, 1, -2, -43, 1, 3, 0},
	{1, 1, -1, -15, 21, 1, -1},
	{1, 1, 0, -1, 15, 0, -2},
	{1, 1, 1, 4, 7, 1, 0},
	{1, 1, 3, 1, 5, 1, -1},
	{2, 0, -6, 8, 3, -2, -3},
	{2, 0, -5, -3, 6, 1, 2},
	{2, 0, -4, 6, -13, -8, 2},
	{2, 0, -3, 10, 22, 10, -7},
	{2, 0, -2, -57, -32, 0, 21},
	{2, 0, -1, 157, -46, 8, 5},
	{2, 0, 0, 12, -18, 13, 16},
	{2, 0, 1, -4, 8, -2, -3},
	{2, 0, 2, -5, 0, 0, 0},
	{2, 0, 3, 3, 4, 0, 1},
	{3, 0, -2, -1, -1, 0, 1},
	{3, 0, -1, 6, -3, 0, 0},
	{3, 0, 0, -1, -2, 0, 1},
}

// plutoPosition returns Pluto's heliocentric ecliptic longitude and latitude
// in radians for a TT Julian date.
func plutoPosition(jde float64) (lon, lat float64) {
	t := (jde - 2451545.0) / 36525.0

	j := (34.35 + 3034.9057*t) * degToRad
	s := (50.08 + 1222.1138*t) * degToRad
	p := (238.96 + 144.96*t) * degToRad

	var sumLon, sumLat float64
	for _, term := range plutoTerms {
		arg := float64(term.j)*j + float64(term.s)*s + float64(term.p)*p
		sinA, cosA := math.Sincos(arg)
		sumLon += term.lonSin*sinA + term.lonCos*cosA
		sumLat += term.latSin*sinA + term.latCos*cosA
	}

	lonDeg := 238.958116 + 144.96*t + sumLon/1e6
	latDeg := -3.908239 + sumLat/1e6

	return normalizeAngle(lonDeg * degToRad), latDeg * degToRad
}

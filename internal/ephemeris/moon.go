package ephemeris

import "math"

// Abridged ELP2000-82 lunar theory as tabulated in Meeus Ch. 47: 60 periodic
// terms each for longitude and latitude driven by the four Delaunay-style
// arguments D, M, M', F, with the A1/A2/A3 planetary corrections. Positions
// are good to about 10 arcseconds in longitude and 4 in latitude.

// moonTerm holds the argument multipliers for D, M, M', F and the series
// coefficient in 1e-6 degrees.
type moonTerm struct {
	d, m, mp, f int
	coef        float64
}

var moonLonTerms = []moonTerm{
	{0, 0, 1, 0, 6288774}, {2, 0, -1, 0, 1274027}, {2, 0, 0, 0, 658314},
	{0, 0, 2, 0, 213618}, {0, 1, 0, 0, -185116}, {0, 0, 0, 2, -114332},
	{2, 0, -2, 0, 58793}, {2, -1, -1, 0, 57066}, {2, 0, 1, 0, 53322},
	{2, -1, 0, 0, 45758}, {0, 1, -1, 0, -40923}, {1, 0, 0, 0, -34720},
	{0, 1, 1, 0, -30383}, {2, 0, 0, -2, 15327}, {0, 0, 1, 2, -12528},
	{0, 0, 1, -2, 10980}, {4, 0, -1, 0, 10675}, {0, 0, 3, 0, 10034},
	{4, 0, -2, 0, 8548}, {2, 1, -1, 0, -7888}, {2, 1, 0, 0, -6766},
	{1, 0, -1, 0, -5163}, {1, 1, 0, 0, 4987}, {2, -1, 1, 0, 4036},
	{2, 0, 2, 0, 3994}, {4, 0, 0, 0, 3861}, {2, 0, -3, 0, 3665},
	{0, 1, -2, 0, -2689}, {2, 0, -1, 2, -2602}, {2, -1, -2, 0, 2390},
	{1, 0, 1, 0, -2348}, {2, -2, 0, 0, 2236}, {0, 1, 2, 0, -2120},
	{0, 2, 0, 0, -2069}, {2, -2, -1, 0, 2048}, {2, 0, 1, -2, -1773},
	{2, 0, 0, 2, -1595}, {4, -1, -1, 0, 1215}, {0, 0, 2, 2, -1110},
	{3, 0, -1, 0, -892}, {2, 1, 1, 0, -810}, {4, -1, -2, 0, 759},
	{0, 2, -1, 0, -713}, {2, 2, -1, 0, -700}, {2, 1, -2, 0, 691},
	{2, -1, 0, -2, 596}, {4, 0, 1, 0, 549}, {0, 0, 4, 0, 537},
	{4, -1, 0, 0, 520}, {1, 0, -2, 0, -487}, {2, 1, 0, -2, -399},
	{0, 0, 2, -2, -381}, {1, 1, 1, 0, 351}, {3, 0, -2, 0, -340},
	{4, 0, -3, 0, 330}, {2, -1, 2, 0, 327}, {0, 2, 1, 0, -323},
	{1, 1, -1, 0, 299}, {2, 0, 3, 0, 294}, {2, 0, -1, -2, 0},
}

var moonLatTerms = []moonTerm{
	{0, 0, 0, 1, 5128122}, {0, 0, 1, 1, 280602}, {0, 0, 1, -1, 277693},
	{2, 0, 0, -1, 173237}, {2, 0, -1, 1, 55413}, {2, 0, -1, -1, 46271},
	{2, 0, 0, 1, 32573}, {0, 0, 2, 1, 17198}, {2, 0, 1, -1, 9266},
	{0, 0, 2, -1, 8822}, {2, -1, 0, -1, 8216}, {2, 0, -2, -1, 4324},
	{2, 0, 1, 1, 4200}, {2, 1, 0, -1, -3359}, {2, -1, -1, 1, 2463},
	{2, -1, 0, 1, 2211}, {2, -1, -1, -1, 2065}, {0, 1, -1, -1, -1870},
	{4, 0, -1, -1, 1828}, {0, 1, 0, 1, -1794}, {0, 0, 0, 3, -1749},
	{0, 1, -1, 1, -1565}, {1, 0, 0, 1, -1491}, {0, 1, 1, 1, -1475},
	{0, 1, 1, -1, -1410}, {0, 1, 0, -1, -1344}, {1, 0, 0, -1, -1335},
	{0, 0, 3, 1, 1107}, {4, 0, 0, -1, 1021}, {4, 0, -1, 1, 833},
	{0, 0, 1, -3, 777}, {4, 0, -2, 1, 671}, {2, 0, 0, -3, 607},
	{2, 0, 2, -1, 596}, {2, -1, 1, -1, 491}, {2, 0, -2, 1, -451},
	{0, 0, 3, -1, 439}, {2, 0, 2, 1, 422}, {2, 0, -3, -1, 421},
	{2, 1, -1, 1, -366}, {2, 1, 0, 1, -351}, {4, 0, 0, 1, 331},
	{2, -1, 1, 1, 315}, {2, -2, 0, -1, 302}, {0, 0, 1, 3, -283},
	{2, 1, 1, -1, -229}, {1, 1, 0, -1, 223}, {1, 1, 0, 1, 223},
	{0, 1, -2, -1, -220}, {2, 1, -1, -1, -220}, {1, 0, 1, 1, -185},
	{2, -1, -2, -1, 181}, {0, 1, 2, 1, -177}, {4, 0, -2, -1, 176},
	{4, -1, -1, -1, 166}, {1, 0, 1, -1, -164}, {4, 0, 1, -1, 132},
	{1, 0, -1, -1, -119}, {4, -1, 0, -1, 115}, {2, -2, 0, 1, 107},
}

// moonPosition returns the Moon's geocentric ecliptic longitude and latitude
// in radians for a TT Julian date.
func moonPosition(jde float64) (lon, lat float64) {
	t := (jde - 2451545.0) / 36525.0

	// Mean elements, degrees.
	lp := 218.3164477 + 481267.88123421*t - 0.0015786*t*t + t*t*t/538841 - t*t*t*t/65194000
	d := 297.8501921 + 445267.1114034*t - 0.0018819*t*t + t*t*t/545868 - t*t*t*t/113065000
	m := 357.5291092 + 35999.0502909*t - 0.0001536*t*t + t*t*t/24490000
	mp := 134.9633964 + 477198.8675055*t + 0.0087414*t*t + t*t*t/69699 - t*t*t*t/14712000
	f := 93.2720950 + 483202.0175233*t - 0.0036539*t*t - t*t*t/3526000 + t*t*t*t/863310000

	a1 := (119.75 + 131.849*t) * degToRad
	a2 := (53.09 + 479264.290*t) * degToRad
	a3 := (313.45 + 481266.484*t) * degToRad

	dRad := d * degToRad
	mRad := m * degToRad
	mpRad := mp * degToRad
	fRad := f * degToRad
	lpRad := lp * degToRad

	// Eccentricity damping for terms involving M.
	e := 1 - 0.002516*t - 0.0000074*t*t
	e2 := e * e

	var sumL float64
	for _, term := range moonLonTerms {
		arg := float64(term.d)*dRad + float64(term.m)*mRad + float64(term.mp)*mpRad + float64(term.f)*fRad
		coef := term.coef
		switch term.m {
		case 1, -1:
			coef *= e
		case 2, -2:
			coef *= e2
		}
		sumL += coef * math.Sin(arg)
	}
	sumL += 3958*math.Sin(a1) + 1962*math.Sin(lpRad-fRad) + 318*math.Sin(a2)

	var sumB float64
	for _, term := range moonLatTerms {
		arg := float64(term.d)*dRad + float64(term.m)*mRad + float64(term.mp)*mpRad + float64(term.f)*fRad
		coef := term.coef
		switch term.m {
		case 1, -1:
			coef *= e
		case 2, -2:
			coef *= e2
		}
		sumB += coef * math.Sin(arg)
	}
	sumB += -2235*math.Sin(lpRad) + 382*math.Sin(a3) +
		175*math.Sin(a1-fRad) + 175*math.Sin(a1+fRad) +
		127*math.Sin(lpRad-mpRad) - 115*math.Sin(lpRad+mpRad)

	lon = normalizeAngle((lp + sumL/1e6) * degToRad)
	lat = (sumB / 1e6) * degToRad
	return lon, lat
}

// lunarFundamentals exposes the Delaunay arguments needed by the true-node
// correction, in radians.
func lunarFundamentals(jde float64) (d, m, mp, f float64) {
	t := (jde - 2451545.0) / 36525.0
	d = (297.8501921 + 445267.1114034*t - 0.0018819*t*t + t*t*t/545868 - t*t*t*t/113065000) * degToRad
	m = (357.5291092 + 35999.0502909*t - 0.0001536*t*t + t*t*t/24490000) * degToRad
	mp = (134.9633964 + 477198.8675055*t + 0.0087414*t*t + t*t*t/69699 - t*t*t*t/14712000) * degToRad
	f = (93.2720950 + 483202.0175233*t - 0.0036539*t*t - t*t*t/3526000 + t*t*t*t/863310000) * degToRad
	return d, m, mp, f
}

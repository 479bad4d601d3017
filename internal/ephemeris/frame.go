package ephemeris

import "math"

const (
	degToRad    = math.Pi / 180.0
	radToDeg    = 180.0 / math.Pi
	arcsecToRad = degToRad / 3600.0
	twoPi       = 2 * math.Pi

	// Constant of aberration, arcseconds.
	aberrationConst = 20.49552
)

// normalizeAngle wraps an angle in radians to [0, 2*Pi).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}

// MeanObliquity returns the mean obliquity of the ecliptic in radians for a
// TT Julian date, per the IAU 2006 polynomial.
func MeanObliquity(jde float64) float64 {
	t := (jde - 2451545.0) / 36525.0
	sec := 84381.406 -
		46.836769*t -
		0.0001831*t*t +
		0.00200340*t*t*t -
		0.000000576*t*t*t*t -
		0.0000000434*t*t*t*t*t
	return sec * arcsecToRad
}

// nutationTerm is one term of the abridged IAU 2000B series: multipliers of
// the five fundamental arguments, then sine/cosine coefficients (constant and
// t-proportional) in units of 0.0001 arcsec.
type nutationTerm struct {
	l, lp, f, d, om        float64
	sinC, sinT, cosC, cosT float64
}

var nutationTerms = []nutationTerm{
	{0, 0, 0, 0, 1, -171996, -174.2, 92025, 8.9},
	{0, 0, 2, -2, 2, -13187, -1.6, 5736, -3.1},
	{0, 0, 2, 0, 2, -2274, -0.2, 977, -0.5},
	{0, 0, 0, 0, 2, 2062, 0.2, -895, 0.5},
	{0, 1, 0, 0, 0, 1426, -3.4, 54, -0.1},
	{1, 0, 0, 0, 0, 712, 0.1, -7, 0},
	{0, 1, 2, -2, 2, -517, 1.2, 224, -0.6},
	{0, 0, 2, 0, 1, -386, -0.4, 200, 0},
	{1, 0, 2, 0, 2, -301, 0, 129, -0.1},
	{0, -1, 2, -2, 2, 217, -0.5, -95, 0.3},
	{1, 0, 0, -2, 0, -158, 0, -1, 0},
	{0, 0, 2, -2, 1, 129, 0.1, -70, 0},
	{-1, 0, 2, 0, 2, 123, 0, -53, 0},
}

// Nutation returns the nutation in longitude and obliquity, radians, for a
// TT Julian date. Abridged series with the 13 largest terms, good to a few
// milliarcseconds.
func Nutation(jde float64) (dPsi, dEps float64) {
	t := (jde - 2451545.0) / 36525.0

	// Fundamental arguments, arcseconds (Delaunay variables).
	l := 485868.249036 + 1717915923.2178*t + 31.8792*t*t + 0.051635*t*t*t - 0.00024470*t*t*t*t
	lp := 1287104.79305 + 129596581.0481*t - 0.5532*t*t + 0.000136*t*t*t - 0.00001149*t*t*t*t
	f := 335779.526232 + 1739527262.8478*t - 12.7512*t*t - 0.001037*t*t*t + 0.00000417*t*t*t*t
	d := 1072260.70369 + 1602961601.2090*t - 6.3706*t*t + 0.006593*t*t*t - 0.00003169*t*t*t*t
	om := 450160.398036 - 6962890.5431*t + 7.4722*t*t + 0.007702*t*t*t - 0.00005939*t*t*t*t

	l *= arcsecToRad
	lp *= arcsecToRad
	f *= arcsecToRad
	d *= arcsecToRad
	om *= arcsecToRad

	var sumPsi, sumEps float64
	for _, term := range nutationTerms {
		arg := term.l*l + term.lp*lp + term.f*f + term.d*d + term.om*om
		sumPsi += (term.sinC + term.sinT*t) * math.Sin(arg)
		sumEps += (term.cosC + term.cosT*t) * math.Cos(arg)
	}

	// Coefficients are 0.0001 arcsec.
	dPsi = sumPsi * 0.0001 * arcsecToRad
	dEps = sumEps * 0.0001 * arcsecToRad
	return dPsi, dEps
}

// TrueObliquity is the mean obliquity plus the nutation in obliquity.
func TrueObliquity(jde float64) float64 {
	_, dEps := Nutation(jde)
	return MeanObliquity(jde) + dEps
}

// EclipticToEquatorial converts ecliptic longitude/latitude to right
// ascension and declination, all radians, for a given obliquity. The
// atan2 numerator is multiplied through by cos(beta) so the conversion
// stays well conditioned near the ecliptic poles.
func EclipticToEquatorial(lon, lat, obliquity float64) (ra, dec float64) {
	sinLon, cosLon := math.Sincos(lon)
	sinLat, cosLat := math.Sincos(lat)
	sinEps, cosEps := math.Sincos(obliquity)

	y := sinLon*cosEps*cosLat - sinLat*sinEps
	x := cosLon * cosLat
	ra = normalizeAngle(math.Atan2(y, x))

	sinDec := sinLat*cosEps + cosLat*sinEps*sinLon
	dec = math.Asin(clamp(sinDec, -1, 1))
	return ra, dec
}

// aberration applies annual aberration to an equatorial position.
// Ra/dec, obliquity and the returned values are radians. Meeus Ch. 23,
// using the Sun's geometric longitude from the low-precision solar theory.
func aberration(ra, dec, jde, obliquity float64) (float64, float64) {
	t := (jde - 2451545.0) / 36525.0

	l0 := (280.46646 + 36000.76983*t + 0.0003032*t*t) * degToRad
	m := (357.52911 + 35999.05029*t - 0.0001537*t*t) * degToRad
	e := 0.016708634 - 0.000042037*t - 0.0000001267*t*t

	c := (1.914602-0.004817*t-0.000014*t*t)*math.Sin(m) +
		(0.019993-0.000101*t)*math.Sin(2*m) +
		0.000289*math.Sin(3*m)
	sunLon := l0 + c*degToRad

	// Longitude of perihelion.
	pi := (102.93735 + 1.71946*t + 0.00046*t*t) * degToRad

	k := aberrationConst * arcsecToRad

	sinRa, cosRa := math.Sincos(ra)
	sinSun, cosSun := math.Sincos(sunLon)
	sinPi, cosPi := math.Sincos(pi)
	sinEps, cosEps := math.Sincos(obliquity)
	cosDec := math.Cos(dec)
	tanDec := math.Tan(dec)

	dRa := -k*(cosRa*cosSun*cosEps+sinRa*sinSun)/cosDec +
		e*k*(cosRa*cosPi*cosEps+sinRa*sinPi)/cosDec
	dDec := -k*(cosSun*cosEps*(tanDec*cosEps-sinRa*sinEps)+cosRa*sinSun*sinEps) +
		e*k*(cosPi*cosEps*(tanDec*cosEps-sinRa*sinEps)+cosRa*sinPi*sinEps)

	ra = normalizeAngle(ra + dRa)
	dec = clamp(dec+dDec, -math.Pi/2, math.Pi/2)
	return ra, dec
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

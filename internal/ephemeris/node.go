package ephemeris

import "math"

// nodePosition returns the True North Node's ecliptic longitude in radians
// for a TT Julian date, latitude always zero. Mean node plus the Meeus
// Ch. 48 wobble corrections; the true node can differ from the mean node by
// up to 1.7 degrees and occasionally moves direct.
func nodePosition(jde float64) (lon, lat float64) {
	t := (jde - 2451545.0) / 36525.0

	omega := 125.04452 - 1934.136261*t + 0.0020708*t*t + t*t*t/450000

	d, m, mp, f := lunarFundamentals(jde)

	correction := -1.4979*math.Sin(2*(d-f)) -
		0.1500*math.Sin(mp) -
		0.1226*math.Sin(2*d) +
		0.1176*math.Sin(2*f) -
		0.0801*math.Sin(2*(mp-f)) -
		0.0616*math.Sin(2*d-m-2*f) +
		0.0490*math.Sin(2*d-mp-2*f) +
		0.0438*math.Sin(2*d-2*mp) -
		0.0393*math.Sin(2*mp) -
		0.0311*math.Sin(2*d-mp) +
		0.0227*math.Sin(mp-2*f) -
		0.0220*math.Sin(2*d+mp-2*f) +
		0.0181*math.Sin(m) -
		0.0149*math.Sin(2*d-2*mp-2*f)

	return normalizeAngle((omega + correction) * degToRad), 0
}

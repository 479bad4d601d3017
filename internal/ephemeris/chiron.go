package ephemeris

import "math"

// chironPosition returns Chiron's heliocentric ecliptic longitude and
// latitude in radians for a TT Julian date. Osculating elements at J2000.0
// (JPL Horizons) with linear secular drift, a Newton-Raphson Kepler solution
// for the high eccentricity, and first-order perturbation terms for the
// giant planets.
func chironPosition(jde float64) (lon, lat float64) {
	t := (jde - 2451545.0) / 36525.0
	days := jde - 2451545.0

	a := 13.648 + 0.0001*t
	ecc := 0.3814 + 0.00001*t
	incl := (6.930 + 0.0001*t) * degToRad
	node := (209.379 - 0.0094*t) * degToRad
	omegaPeri := (339.557 + 0.0085*t) * degToRad

	// Mean motion in degrees per day, Kepler's third law.
	n := 0.9856076686 / (a * math.Sqrt(a))
	meanAnomaly := normalizeAngle(12.49*degToRad + n*days*degToRad)

	// Kepler's equation, Newton-Raphson. Start at Pi for very eccentric
	// orbits where M is a poor initial guess.
	eccAnomaly := meanAnomaly
	if ecc > 0.8 {
		eccAnomaly = math.Pi
	}
	for i := 0; i < 15; i++ {
		delta := (eccAnomaly - ecc*math.Sin(eccAnomaly) - meanAnomaly) /
			(1 - ecc*math.Cos(eccAnomaly))
		eccAnomaly -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}

	trueAnomaly := 2 * math.Atan2(
		math.Sqrt(1+ecc)*math.Tan(eccAnomaly/2),
		math.Sqrt(1-ecc),
	)
	r := a * (1 - ecc*math.Cos(eccAnomaly))

	xOrb := r * math.Cos(trueAnomaly)
	yOrb := r * math.Sin(trueAnomaly)

	sinNode, cosNode := math.Sincos(node)
	sinIncl, cosIncl := math.Sincos(incl)
	sinOmega, cosOmega := math.Sincos(omegaPeri)

	xEcl := (cosNode*cosOmega-sinNode*sinOmega*cosIncl)*xOrb +
		(-cosNode*sinOmega-sinNode*cosOmega*cosIncl)*yOrb
	yEcl := (sinNode*cosOmega+cosNode*sinOmega*cosIncl)*xOrb +
		(-sinNode*sinOmega+cosNode*cosOmega*cosIncl)*yOrb
	zEcl := sinIncl*sinOmega*xOrb + sinIncl*cosOmega*yOrb

	lon = math.Atan2(yEcl, xEcl)
	lat = math.Asin(zEcl / r)

	// First-order giant-planet perturbations in longitude.
	lJup := (34.35 + 3034.9057*t) * degToRad
	lSat := (50.08 + 1222.1138*t) * degToRad
	lUra := (314.055 + 429.8640*t) * degToRad

	pert := 0.12*math.Sin(lon-lJup) +
		0.35*math.Sin(lon-lSat) + 0.08*math.Sin(2*(lon-lSat)) +
		0.18*math.Sin(lon-lUra)

	return normalizeAngle(lon + pert*degToRad), lat
}

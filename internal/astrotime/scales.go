package astrotime

import "math"

// dut1Epoch is the JD of 2020.0, the reference epoch of the UT1-UTC fit.
const dut1Epoch = 2458849.5

// DUT1 estimates UT1-UTC in seconds for a given Julian Date (UTC).
// Polynomial trend plus annual, semiannual and Chandler-wobble periodic
// terms fitted around 2020.0. IERS bulletins bound |UT1-UTC| below 0.9 s,
// so the estimate is clamped there.
func DUT1(jd float64) float64 {
	y := (jd - dut1Epoch) / 365.25

	dut1 := -0.177 + 0.0001*y - 0.00002*y*y
	dut1 += 0.022*math.Sin(2*math.Pi*y) + 0.012*math.Cos(2*math.Pi*y)
	dut1 += 0.006*math.Sin(4*math.Pi*y) + 0.007*math.Cos(4*math.Pi*y)
	dut1 += 0.003 * math.Sin(2*math.Pi*y/(433.0/365.25))

	if dut1 > 0.9 {
		return 0.9
	}
	if dut1 < -0.9 {
		return -0.9
	}
	return dut1
}

// DeltaT returns TT-UT1 in seconds for a given calendar year and month,
// using the Espenak-Meeus piecewise polynomial fits. Each regime is a
// published least-squares fit to historical records or, past 2050, an
// extrapolation toward the long-term parabola.
func DeltaT(year, month int) float64 {
	y := float64(year) + (float64(month)-0.5)/12.0

	switch {
	case y < -500:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	case y < 500:
		u := y / 100
		return 10583.6 - 1014.41*u + 33.78311*u*u - 5.952053*u*u*u -
			0.1798452*math.Pow(u, 4) + 0.022174192*math.Pow(u, 5) + 0.0090316521*math.Pow(u, 6)
	case y < 1600:
		u := (y - 1000) / 100
		return 1574.2 - 556.01*u + 71.23472*u*u + 0.319781*u*u*u -
			0.8503463*math.Pow(u, 4) - 0.005050998*math.Pow(u, 5) + 0.0083572073*math.Pow(u, 6)
	case y < 1700:
		t := y - 1600
		return 120 - 0.9808*t - 0.01532*t*t + t*t*t/7129
	case y < 1800:
		t := y - 1700
		return 8.83 + 0.1603*t - 0.0059285*t*t + 0.00013336*t*t*t - math.Pow(t, 4)/1174000
	case y < 1860:
		t := y - 1800
		return 13.72 - 0.332447*t + 0.0068612*t*t + 0.0041116*t*t*t - 0.00037436*math.Pow(t, 4) +
			0.0000121272*math.Pow(t, 5) - 0.0000001699*math.Pow(t, 6) + 0.000000000875*math.Pow(t, 7)
	case y < 1900:
		t := y - 1860
		return 7.62 + 0.5737*t - 0.251754*t*t + 0.01680668*t*t*t -
			0.0004473624*math.Pow(t, 4) + math.Pow(t, 5)/233174
	case y < 1920:
		t := y - 1900
		return -2.79 + 1.494119*t - 0.0598939*t*t + 0.0061966*t*t*t - 0.000197*math.Pow(t, 4)
	case y < 1941:
		t := y - 1920
		return 21.20 + 0.84493*t - 0.076100*t*t + 0.0020936*t*t*t
	case y < 1961:
		t := y - 1950
		return 29.07 + 0.407*t - t*t/233 + t*t*t/2547
	case y < 1986:
		t := y - 1975
		return 45.45 + 1.067*t - t*t/260 - t*t*t/718
	case y < 2005:
		t := y - 2000
		return 63.86 + 0.3345*t - 0.060374*t*t + 0.0017275*t*t*t +
			0.000651814*math.Pow(t, 4) + 0.00002373599*math.Pow(t, 5)
	case y < 2050:
		t := y - 2000
		return 62.92 + 0.32217*t + 0.005589*t*t
	case y < 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}

// UTCToUT1 applies the UT1-UTC estimate to a Julian Date in UTC.
func UTCToUT1(jdUTC float64) float64 {
	return jdUTC + DUT1(jdUTC)/86400.0
}

// UTToTT converts a Julian Date in UTC to Terrestrial Time: UTC -> UT1 via
// DUT1, then UT1 -> TT via Delta-T for the given calendar year and month.
func UTToTT(jdUTC float64, year, month int) float64 {
	return UTCToUT1(jdUTC) + DeltaT(year, month)/86400.0
}

// TT converts a Julian Date in UTC to Terrestrial Time, deriving the
// calendar year and month from the JD itself.
func TT(jdUTC float64) float64 {
	year, month, _ := JulianToCalendar(jdUTC)
	return UTToTT(jdUTC, year, month)
}

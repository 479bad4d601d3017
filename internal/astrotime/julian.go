// Package astrotime converts civil UTC instants into the time scales and
// angles the ephemeris needs: Julian Date, UT1, Terrestrial Time, and
// Greenwich/local sidereal time.
package astrotime

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// J2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const J2000 = 2451545.0

// ErrInvalidDate reports calendar or clock fields outside their valid ranges.
var ErrInvalidDate = errors.New("invalid date")

// ToJulianDate converts a UTC calendar date and clock time to Julian Date.
// Uses the standard astronomical algorithm (Meeus, "Astronomical Algorithms",
// Ch. 7) with the Gregorian calendar correction for dates from 1582-10-15 on.
// Out-of-range fields are rejected, never clamped.
func ToJulianDate(year, month, day, hour, minute int, second float64) (float64, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	if day < 1 || day > 31 {
		return 0, fmt.Errorf("%w: day %d", ErrInvalidDate, day)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: hour %d", ErrInvalidDate, hour)
	}
	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: minute %d", ErrInvalidDate, minute)
	}
	if second < 0 || second >= 60 {
		return 0, fmt.Errorf("%w: second %g", ErrInvalidDate, second)
	}

	y := float64(year)
	m := float64(month)

	// Treat Jan/Feb as months 13/14 of the previous year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + float64(day) + b - 1524.5
	jd += (float64(hour) + float64(minute)/60.0 + second/3600.0) / 24.0

	return jd, nil
}

// FromTime converts a time.Time (taken as UTC) to Julian Date.
func FromTime(t time.Time) float64 {
	t = t.UTC()
	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
	jd, _ := ToJulianDate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), sec)
	return jd
}

// JulianToCalendar converts a Julian Date back to a calendar date.
// Inverse of ToJulianDate, handling both Julian and Gregorian calendars
// (Meeus Ch. 7). The returned day carries the time of day as a fraction.
func JulianToCalendar(jd float64) (year, month int, day float64) {
	jd += 0.5
	z := math.Floor(jd)
	f := jd - z

	var a float64
	if z < 2299161 {
		a = z
	} else {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}

	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day = b - d - math.Floor(30.6001*e) + f

	if e < 14 {
		month = int(e - 1)
	} else {
		month = int(e - 13)
	}
	if month > 2 {
		year = int(c - 4716)
	} else {
		year = int(c - 4715)
	}
	return year, month, day
}

package ephemeris

import (
	"errors"
	"math"
	"testing"
)

// Reference positions below are from Meeus, "Astronomical Algorithms",
// worked examples. Inputs are fed as UTC Julian Dates, so the comparisons
// allow for the roughly one minute separating UTC from the TT instants the
// book uses, plus series truncation.

func TestSunPosition(t *testing.T) {
	// Meeus Example 25.a: 1992 October 13.0 TD.
	pos, err := PositionOf(Sun, 2448908.5)
	if err != nil {
		t.Fatalf("PositionOf(Sun): %v", err)
	}

	wantLon := 199.90605
	if diff := math.Abs(pos.EclipticLongitude - wantLon); diff > 0.05 {
		t.Errorf("Sun ecliptic longitude = %.5f, want %.5f ± 0.05", pos.EclipticLongitude, wantLon)
	}

	wantRA := 198.38083
	wantDec := -7.78500
	if diff := math.Abs(pos.RightAscension*radToDeg - wantRA); diff > 0.05 {
		t.Errorf("Sun RA = %.5f deg, want %.5f ± 0.05", pos.RightAscension*radToDeg, wantRA)
	}
	if diff := math.Abs(pos.Declination*radToDeg - wantDec); diff > 0.05 {
		t.Errorf("Sun dec = %.5f deg, want %.5f ± 0.05", pos.Declination*radToDeg, wantDec)
	}
}

func TestMoonPosition(t *testing.T) {
	// Meeus Example 47.a: 1992 April 12.0 TD, apparent longitude 133.167265.
	pos, err := PositionOf(Moon, 2448724.5)
	if err != nil {
		t.Fatalf("PositionOf(Moon): %v", err)
	}

	wantLon := 133.167265
	if diff := math.Abs(pos.EclipticLongitude - wantLon); diff > 0.05 {
		t.Errorf("Moon ecliptic longitude = %.6f, want %.6f ± 0.05", pos.EclipticLongitude, wantLon)
	}

	wantDec := 13.768368
	if diff := math.Abs(pos.Declination*radToDeg - wantDec); diff > 0.05 {
		t.Errorf("Moon dec = %.6f deg, want %.6f ± 0.05", pos.Declination*radToDeg, wantDec)
	}
}

func TestVenusPosition(t *testing.T) {
	// Meeus Example 33.a: 1992 December 20.0 TD.
	pos, err := PositionOf(Venus, 2448976.5)
	if err != nil {
		t.Fatalf("PositionOf(Venus): %v", err)
	}

	wantRA := 316.17271
	wantDec := -18.88800
	if diff := math.Abs(pos.RightAscension*radToDeg - wantRA); diff > 0.1 {
		t.Errorf("Venus RA = %.5f deg, want %.5f ± 0.1", pos.RightAscension*radToDeg, wantRA)
	}
	if diff := math.Abs(pos.Declination*radToDeg - wantDec); diff > 0.1 {
		t.Errorf("Venus dec = %.5f deg, want %.5f ± 0.1", pos.Declination*radToDeg, wantDec)
	}
}

func TestPositionRanges(t *testing.T) {
	dates := []float64{2448908.5, 2451545.0, 2458849.5, 2436116.31}
	for _, jd := range dates {
		inst := NewInstant(jd)
		for _, p := range Planets() {
			pos, err := PositionAt(p, inst)
			if err != nil {
				t.Fatalf("PositionAt(%v, %.2f): %v", p, jd, err)
			}
			if pos.RightAscension < 0 || pos.RightAscension >= 2*math.Pi {
				t.Errorf("%v at %.2f: RA %.6f out of [0, 2π)", p, jd, pos.RightAscension)
			}
			if pos.Declination < -math.Pi/2 || pos.Declination > math.Pi/2 {
				t.Errorf("%v at %.2f: dec %.6f out of [-π/2, π/2]", p, jd, pos.Declination)
			}
			if pos.EclipticLongitude < 0 || pos.EclipticLongitude >= 360 {
				t.Errorf("%v at %.2f: ecliptic longitude %.6f out of [0, 360)", p, jd, pos.EclipticLongitude)
			}
		}
	}
}

func TestNodeStaysOnEcliptic(t *testing.T) {
	for _, jd := range []float64{2448724.5, 2451545.0, 2458849.5} {
		_, lat := nodePosition(jd)
		if lat != 0 {
			t.Errorf("node latitude at %.1f = %g, want 0", jd, lat)
		}
	}
}

func TestUnsupportedBody(t *testing.T) {
	if _, err := PositionOf(Planet(99), 2451545.0); !errors.Is(err, ErrUnsupportedBody) {
		t.Errorf("want ErrUnsupportedBody, got %v", err)
	}
	if _, err := PositionOf(Planet(-1), 2451545.0); !errors.Is(err, ErrUnsupportedBody) {
		t.Errorf("want ErrUnsupportedBody for negative id, got %v", err)
	}
}

func TestParsePlanet(t *testing.T) {
	tests := []struct {
		in   string
		want Planet
	}{
		{"Sun", Sun},
		{"sun", Sun},
		{" jupiter ", Jupiter},
		{"NorthNode", NorthNode},
		{"north node", NorthNode},
		{"true node", NorthNode},
	}
	for _, tt := range tests {
		got, err := ParsePlanet(tt.in)
		if err != nil {
			t.Errorf("ParsePlanet(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePlanet(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParsePlanet("Vulcan"); !errors.Is(err, ErrUnsupportedBody) {
		t.Errorf("ParsePlanet(Vulcan): want ErrUnsupportedBody, got %v", err)
	}
}

func TestMeanObliquity(t *testing.T) {
	// 23.4392911 deg at J2000.0.
	got := MeanObliquity(2451545.0) * radToDeg
	if diff := math.Abs(got - 23.4392911); diff > 1e-6 {
		t.Errorf("MeanObliquity(J2000) = %.7f deg, want 23.4392911", got)
	}
}

func TestNutation(t *testing.T) {
	// Meeus Example 22.a: 1987 April 10.0 TD, dPsi = -3.788", dEps = +9.443".
	dPsi, dEps := Nutation(2446895.5)
	dPsiArcsec := dPsi / arcsecToRad
	dEpsArcsec := dEps / arcsecToRad
	if diff := math.Abs(dPsiArcsec - (-3.788)); diff > 0.5 {
		t.Errorf("nutation in longitude = %.3f arcsec, want -3.788 ± 0.5", dPsiArcsec)
	}
	if diff := math.Abs(dEpsArcsec - 9.443); diff > 0.5 {
		t.Errorf("nutation in obliquity = %.3f arcsec, want 9.443 ± 0.5", dEpsArcsec)
	}
}

func TestInstantMatchesPositionOf(t *testing.T) {
	jd := 2448908.5
	inst := NewInstant(jd)
	for _, p := range Planets() {
		batch, err := PositionAt(p, inst)
		if err != nil {
			t.Fatalf("PositionAt(%v): %v", p, err)
		}
		single, err := PositionOf(p, jd)
		if err != nil {
			t.Fatalf("PositionOf(%v): %v", p, err)
		}
		if batch != single {
			t.Errorf("%v: batch and single paths disagree: %+v vs %+v", p, batch, single)
		}
	}
}

func TestAllPositionsOrder(t *testing.T) {
	positions, err := AllPositions(NewInstant(2451545.0))
	if err != nil {
		t.Fatalf("AllPositions: %v", err)
	}
	if len(positions) != int(numPlanets) {
		t.Fatalf("got %d positions, want %d", len(positions), numPlanets)
	}
	for i, pos := range positions {
		if pos.Planet != Planet(i) {
			t.Errorf("position %d is %v, want %v", i, pos.Planet, Planet(i))
		}
	}
}

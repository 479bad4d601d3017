package lines

import (
	"math"
	"testing"

	"github.com/astro/astrogo/internal/astrotime"
	"github.com/astro/astrogo/internal/ephemeris"
)

// TestMCICOpposite verifies the IC meridian sits exactly opposite the MC.
func TestMCICOpposite(t *testing.T) {
	tests := []struct {
		name     string
		ra, gmst float64
	}{
		{"zero", 0.0, 0.0},
		{"quarter turn", math.Pi / 2, 0.3},
		{"wrap", 6.1, 0.2},
		{"negative difference", 0.1, 5.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := MCLongitude(tt.ra, tt.gmst)
			ic := ICLongitude(tt.ra, tt.gmst)

			diff := math.Abs(mc - ic)
			if diff > 180.0 {
				diff = 360.0 - diff
			}
			if math.Abs(diff-180.0) > 1e-9 {
				t.Errorf("MC %.4f and IC %.4f not opposite", mc, ic)
			}
			for _, lng := range []float64{mc, ic} {
				if lng <= -180.0 || lng > 180.0 {
					t.Errorf("longitude %.4f out of (-180, 180]", lng)
				}
			}
		})
	}
}

// TestSolveHorizonStandard checks the closed-form latitude for a body at
// solstice declination on its culmination meridian.
func TestSolveHorizonStandard(t *testing.T) {
	dec := 23.44 * degToRad
	sol := SolveHorizon(0.0, dec, 0.0, 0.0)
	if sol.Kind != HorizonLatitude {
		t.Fatalf("kind = %v, want HorizonLatitude", sol.Kind)
	}
	// cos(H) = 1 there, so phi = atan(-cot(dec)) = dec - 90.
	want := 23.44 - 90.0
	if math.Abs(sol.Latitude-want) > 1e-6 {
		t.Errorf("latitude = %.6f, want %.6f", sol.Latitude, want)
	}
}

// TestSolveHorizonDegenerate covers the two equatorial-body outcomes: all
// latitudes at the cardinal hour angles, none elsewhere. The cases are
// mutually exclusive across longitudes.
func TestSolveHorizonDegenerate(t *testing.T) {
	tests := []struct {
		name string
		lng  float64
		want HorizonKind
	}{
		{"east cardinal", -90.0, HorizonAllLatitudes},
		{"west cardinal", 90.0, HorizonAllLatitudes},
		{"on meridian", 0.0, HorizonNone},
		{"off cardinal", 45.0, HorizonNone},
		{"anti meridian", 180.0, HorizonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := SolveHorizon(0.0, 0.0, 0.0, tt.lng)
			if sol.Kind != tt.want {
				t.Errorf("kind = %v, want %v", sol.Kind, tt.want)
			}
		})
	}

	// An ordinary declination never hits a degenerate branch.
	for lng := -180.0; lng <= 180.0; lng += 7.0 {
		sol := SolveHorizon(1.0, 0.3, 0.5, lng)
		if sol.Kind != HorizonLatitude {
			t.Fatalf("ordinary body degenerate at lng %.1f", lng)
		}
		if sol.Latitude < -90.0 || sol.Latitude > 90.0 {
			t.Fatalf("latitude %.4f out of range at lng %.1f", sol.Latitude, lng)
		}
	}
}

// TestIsRising checks the east-of-meridian convention.
func TestIsRising(t *testing.T) {
	if !IsRising(0.0, 0.0, -90.0) {
		t.Error("body east of meridian not rising")
	}
	if IsRising(0.0, 0.0, 90.0) {
		t.Error("body west of meridian rising")
	}
}

// TestComputePlanetShape verifies the structural contract of a planet's
// line bundle: vertical meridian lines, opposite MC/IC, zenith at the
// declination latitude.
func TestComputePlanetShape(t *testing.T) {
	pos := ephemeris.Position{
		Planet:         ephemeris.Mars,
		RightAscension: 1.2,
		Declination:    0.35,
	}
	pr := ComputePlanet(pos, 0.7, 1.0)

	for _, line := range []PlanetaryLine{pr.MC, pr.IC} {
		if len(line.Points) != 90 {
			t.Fatalf("%v line has %d points, want 90", line.Type, len(line.Points))
		}
		if line.Longitude == nil {
			t.Fatalf("%v line missing longitude", line.Type)
		}
		for _, p := range line.Points {
			if p.Lng != *line.Longitude {
				t.Fatalf("%v line not vertical: %.4f vs %.4f", line.Type, p.Lng, *line.Longitude)
			}
		}
	}
	if *pr.MC.Longitude == *pr.IC.Longitude {
		t.Error("MC and IC share a longitude")
	}

	if len(pr.Asc.Points) == 0 || len(pr.Dsc.Points) == 0 {
		t.Error("horizon lines empty for ordinary declination")
	}
	for i := 1; i < len(pr.Asc.Points); i++ {
		if pr.Asc.Points[i].Lng < pr.Asc.Points[i-1].Lng {
			t.Fatal("ASC points not ordered by longitude")
		}
	}

	wantZenith := 0.35 * radToDeg
	if math.Abs(pr.Zenith.Latitude-wantZenith) > 1e-9 {
		t.Errorf("zenith latitude = %.4f, want %.4f", pr.Zenith.Latitude, wantZenith)
	}
	if pr.Zenith.Longitude != *pr.MC.Longitude {
		t.Error("zenith not on the MC meridian")
	}

	if pr.MC.Rating < 1 || pr.MC.Rating > 5 {
		t.Errorf("rating %d out of 1-5", pr.MC.Rating)
	}
}

// TestEquatorialBodyHorizonGaps verifies a body on the celestial equator
// produces vertical segments only at the cardinal crossings.
func TestEquatorialBodyHorizonGaps(t *testing.T) {
	pos := ephemeris.Position{
		Planet:         ephemeris.NorthNode,
		RightAscension: 0.0,
		Declination:    0.0,
	}
	pr := ComputePlanet(pos, 0.0, 1.0)

	// Rising branch collapses to the vertical segment at -90 degrees.
	if len(pr.Asc.Points) != 90 {
		t.Fatalf("ASC has %d points, want 90", len(pr.Asc.Points))
	}
	for _, p := range pr.Asc.Points {
		if p.Lng != -90.0 {
			t.Fatalf("ASC point at lng %.4f, want -90", p.Lng)
		}
	}
	for _, p := range pr.Dsc.Points {
		if p.Lng != 90.0 {
			t.Fatalf("DSC point at lng %.4f, want 90", p.Lng)
		}
	}
}

// TestComputeAspects checks that meridian aspect lines always appear for
// every kind and direction, and that harmonious flags follow the kind.
func TestComputeAspects(t *testing.T) {
	pos := ephemeris.Position{
		Planet:            ephemeris.Venus,
		RightAscension:    2.0,
		Declination:       0.2,
		EclipticLongitude: 111.0,
	}
	obliquity := 23.44 * degToRad
	aspects := ComputeAspects(pos, 0.9, obliquity, 1.0)

	counts := make(map[LineType]int)
	for _, a := range aspects {
		counts[a.Angle]++
		if a.Harmonious != a.Kind.Harmonious() {
			t.Errorf("%s marked harmonious=%v", a.Kind, a.Harmonious)
		}
		if a.Direction != 1 && a.Direction != -1 {
			t.Errorf("direction %d", a.Direction)
		}
		if len(a.Points) == 0 {
			t.Errorf("empty aspect line %s %s", a.Kind, a.Angle)
		}
	}
	// 3 kinds x 2 directions on each meridian angle.
	if counts[MC] != 6 || counts[IC] != 6 {
		t.Errorf("meridian aspect counts MC=%d IC=%d, want 6 each", counts[MC], counts[IC])
	}
}

// TestComputeParans checks the coinciding-verticals case and the output
// bounds of the curved-line search.
func TestComputeParans(t *testing.T) {
	// pos1's MC meridian equals pos2's IC meridian when their right
	// ascensions differ by pi.
	pos1 := ephemeris.Position{Planet: ephemeris.Sun, RightAscension: math.Pi, Declination: 0.4}
	pos2 := ephemeris.Position{Planet: ephemeris.Moon, RightAscension: 0.0, Declination: 0.2}

	parans := ComputeParans([]ephemeris.Position{pos1, pos2}, 0.0)
	if len(parans) == 0 {
		t.Fatal("no parans found")
	}

	foundVertical := false
	for _, p := range parans {
		if p.Latitude < -66.0 || p.Latitude > 66.0 {
			t.Errorf("paran latitude %.2f outside search band", p.Latitude)
		}
		if p.Angle1 == MC && p.Angle2 == IC && p.Planet1 == ephemeris.Sun {
			foundVertical = true
			if p.Latitude != 0.0 {
				t.Errorf("coinciding verticals marked at lat %.2f, want 0", p.Latitude)
			}
		}
	}
	if !foundVertical {
		t.Error("coinciding MC/IC paran not detected")
	}
}

// TestEquatorialToHorizontal checks a body at upper culmination.
func TestEquatorialToHorizontal(t *testing.T) {
	// Observer at 40N, body at dec 20N on the meridian: altitude 70, due
	// south.
	az, alt := EquatorialToHorizontal(1.5, 20.0*degToRad, 1.5, 40.0*degToRad)
	if math.Abs(alt*radToDeg-70.0) > 1e-6 {
		t.Errorf("altitude = %.4f, want 70", alt*radToDeg)
	}
	if math.Abs(az*radToDeg-180.0) > 1e-6 {
		t.Errorf("azimuth = %.4f, want 180", az*radToDeg)
	}
}

// TestCompassDirection checks the bucket edges.
func TestCompassDirection(t *testing.T) {
	tests := []struct {
		az   float64
		want string
	}{
		{0, "N"}, {22.4, "N"}, {22.5, "NE"}, {90, "E"},
		{135, "SE"}, {180, "S"}, {225, "SW"}, {270, "W"},
		{315, "NW"}, {337.5, "N"}, {359.9, "N"}, {-45, "NW"},
	}
	for _, tt := range tests {
		if got := CompassDirection(tt.az); got != tt.want {
			t.Errorf("CompassDirection(%.1f) = %s, want %s", tt.az, got, tt.want)
		}
	}
}

// TestComputeLocalSpace checks the ray leaves the birth place and honors
// the step and range settings.
func TestComputeLocalSpace(t *testing.T) {
	pos := ephemeris.Position{Planet: ephemeris.Jupiter, RightAscension: 3.0, Declination: 0.1}
	line := ComputeLocalSpace(pos, 1.0, 48.8566, 2.3522, 1000, 200)

	if line.Points[0].Lat != 48.8566 || line.Points[0].Lng != 2.3522 {
		t.Error("ray does not start at birth place")
	}
	if len(line.Points) != 6 {
		t.Errorf("got %d points, want 6", len(line.Points))
	}
	if line.Azimuth < 0 || line.Azimuth >= 360 {
		t.Errorf("azimuth %.2f out of range", line.Azimuth)
	}
	if line.Direction == "" {
		t.Error("missing compass direction")
	}
}

// TestSunMCLineAtEpoch compares the Sun's MC meridian at J2000.0 against
// the almanac value. Sun RA 281.29 deg, GMST 280.46 deg puts the line
// near 0.83 E.
func TestSunMCLineAtEpoch(t *testing.T) {
	inst := ephemeris.NewInstant(astrotime.J2000)
	pos, err := ephemeris.PositionAt(ephemeris.Sun, inst)
	if err != nil {
		t.Fatal(err)
	}
	mc := MCLongitude(pos.RightAscension, inst.GMST)
	if math.Abs(mc-0.83) > 0.5 {
		t.Errorf("Sun MC longitude = %.3f, want 0.83 +/- 0.5", mc)
	}
}

// TestComputeAllBirthChart runs a full chart for 1990-06-15 14:30 UTC and
// checks the Sun MC meridian against a hand-computed reference, plus the
// structural totals.
func TestComputeAllBirthChart(t *testing.T) {
	jd, err := astrotime.ToJulianDate(1990, 6, 15, 14, 30, 0)
	if err != nil {
		t.Fatal(err)
	}
	set, err := ComputeAll(ephemeris.NewInstant(jd), 1.0)
	if err != nil {
		t.Fatal(err)
	}

	if got := len(set.Positions); got != 12 {
		t.Errorf("positions = %d, want 12", got)
	}
	if got := len(set.Planetary); got != 48 {
		t.Errorf("planetary lines = %d, want 48", got)
	}
	if got := len(set.Zeniths); got != 12 {
		t.Errorf("zenith points = %d, want 12", got)
	}
	if len(set.Aspects) == 0 {
		t.Error("no aspect lines")
	}
	if len(set.Parans) == 0 {
		t.Error("no paran lines")
	}

	var sunMC *PlanetaryLine
	for i := range set.Planetary {
		l := &set.Planetary[i]
		if l.Planet == ephemeris.Sun && l.Type == MC {
			sunMC = l
		}
		if l.Type == Asc || l.Type == Dsc {
			if l.Planet != ephemeris.NorthNode && len(l.Points) == 0 {
				t.Errorf("%v %v line empty", l.Planet, l.Type)
			}
		}
	}
	if sunMC == nil || sunMC.Longitude == nil {
		t.Fatal("Sun MC line missing")
	}
	// Sun RA about 83.6 deg, GMST about 122.1 deg at that moment.
	if math.Abs(*sunMC.Longitude-(-38.5)) > 1.0 {
		t.Errorf("Sun MC longitude = %.3f, want -38.5 +/- 1.0", *sunMC.Longitude)
	}
}

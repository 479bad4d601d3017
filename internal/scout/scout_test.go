package scout

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/geo"
	"github.com/astro/astrogo/internal/lines"
	"github.com/astro/astrogo/internal/scoring"
)

func meridianLine(p ephemeris.Planet, t lines.LineType, lng float64) Line {
	var pts []geo.Point
	for lat := -89.0; lat <= 89.0; lat += 2.0 {
		pts = append(pts, geo.Point{Lat: lat, Lng: lng})
	}
	return NewLine(lines.PlanetaryLine{
		Planet: p,
		Type:   t,
		Points: pts,
		Rating: lines.Rating(p, t),
	}, scoring.DefaultMaxDistanceKm)
}

func TestInfluences(t *testing.T) {
	cfg := scoring.Balanced()
	scoutLines := []Line{
		meridianLine(ephemeris.Venus, lines.Dsc, 2.35),
		meridianLine(ephemeris.Saturn, lines.MC, -120.0),
	}

	paris := City{Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522}
	set := Influences(paris, scoutLines, cfg)
	if len(set.Influences) != 1 {
		t.Fatalf("Paris influences = %d, want 1", len(set.Influences))
	}
	inf := set.Influences[0]
	if inf.Planet != ephemeris.Venus || inf.Angle != lines.Dsc {
		t.Errorf("influence = %v/%v, want Venus/Dsc", inf.Planet, inf.Angle)
	}
	if inf.DistanceKm > 5.0 {
		t.Errorf("distance = %.1f km, want < 5", inf.DistanceKm)
	}
	if inf.Rating != 5 {
		t.Errorf("rating = %d, want 5", inf.Rating)
	}

	sydney := City{Name: "Sydney", Country: "Australia", Lat: -33.87, Lng: 151.21}
	if got := Influences(sydney, scoutLines, cfg); len(got.Influences) != 0 {
		t.Errorf("Sydney influences = %d, want 0", len(got.Influences))
	}
}

func TestRankByCategory(t *testing.T) {
	cfg := scoring.Balanced()
	scoutLines := []Line{meridianLine(ephemeris.Venus, lines.Dsc, 2.35)}

	sets := []scoring.CityInfluences{
		Influences(City{Name: "London", Country: "United Kingdom", Lat: 51.5074, Lng: -0.1278}, scoutLines, cfg),
		Influences(City{Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522}, scoutLines, cfg),
		Influences(City{Name: "Sydney", Country: "Australia", Lat: -33.87, Lng: 151.21}, scoutLines, cfg),
	}

	rankings := RankByCategory(sets, scoring.Love, cfg, scoring.BenefitFirst)
	if len(rankings) != 2 {
		t.Fatalf("rankings = %d, want 2 (no-influence cities dropped)", len(rankings))
	}
	if rankings[0].CityName != "Paris" {
		t.Errorf("top city = %s, want Paris (closer to the line)", rankings[0].CityName)
	}
	for _, r := range rankings {
		if r.Nature != "beneficial" {
			t.Errorf("%s nature = %s, want beneficial", r.CityName, r.Nature)
		}
		if r.BenefitScore <= 52 {
			t.Errorf("%s benefit = %.1f, want > 52", r.CityName, r.BenefitScore)
		}
		for i := 1; i < len(r.TopInfluences); i++ {
			if r.TopInfluences[i].DistanceKm < r.TopInfluences[i-1].DistanceKm {
				t.Errorf("%s top influences not in ascending distance order", r.CityName)
			}
		}
	}
}

func TestRankByCategoryChallenging(t *testing.T) {
	cfg := scoring.Balanced()
	scoutLines := []Line{meridianLine(ephemeris.Saturn, lines.Dsc, 2.35)}

	sets := []scoring.CityInfluences{
		Influences(City{Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522}, scoutLines, cfg),
	}
	rankings := RankByCategory(sets, scoring.Love, cfg, scoring.BenefitFirst)
	if len(rankings) != 1 {
		t.Fatalf("rankings = %d, want 1", len(rankings))
	}
	if rankings[0].Nature != "challenging" {
		t.Errorf("nature = %s, want challenging", rankings[0].Nature)
	}
	if rankings[0].BenefitScore >= 48 {
		t.Errorf("benefit = %.1f, want < 48", rankings[0].BenefitScore)
	}
}

func TestRankOverall(t *testing.T) {
	cfg := scoring.Balanced()

	t.Run("beneficial only", func(t *testing.T) {
		scoutLines := []Line{meridianLine(ephemeris.Venus, lines.Dsc, 2.35)}
		sets := []scoring.CityInfluences{
			Influences(City{Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522}, scoutLines, cfg),
		}
		overall := RankOverall(sets, cfg)
		if len(overall) != 1 {
			t.Fatalf("overall = %d, want 1", len(overall))
		}
		o := overall[0]
		// Venus descendant counts for love and wellbeing only.
		if len(o.Categories) != 2 {
			t.Fatalf("categories = %d, want 2", len(o.Categories))
		}
		if o.BeneficialCount != 2 || o.ChallengingCount != 0 {
			t.Errorf("counts = %d/%d, want 2/0", o.BeneficialCount, o.ChallengingCount)
		}
		var sum float64
		for _, c := range o.Categories {
			sum += c.Score
		}
		if math.Abs(o.Total-sum) > 1e-9 {
			t.Errorf("total = %.3f, want sum of category scores %.3f", o.Total, sum)
		}
		if math.Abs(o.Average-o.Total/2) > 1e-9 {
			t.Errorf("average = %.3f, want %.3f", o.Average, o.Total/2)
		}
	})

	t.Run("challenging subtracts half", func(t *testing.T) {
		scoutLines := []Line{meridianLine(ephemeris.Saturn, lines.Dsc, 2.35)}
		sets := []scoring.CityInfluences{
			Influences(City{Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522}, scoutLines, cfg),
		}
		overall := RankOverall(sets, cfg)
		if len(overall) != 1 {
			t.Fatalf("overall = %d, want 1", len(overall))
		}
		o := overall[0]
		// Saturn descendant counts for love only, as challenging.
		if len(o.Categories) != 1 || o.ChallengingCount != 1 {
			t.Fatalf("categories = %d challenging = %d, want 1/1", len(o.Categories), o.ChallengingCount)
		}
		want := o.Categories[0].Score * -0.5
		if math.Abs(o.Total-want) > 1e-9 {
			t.Errorf("total = %.3f, want %.3f", o.Total, want)
		}
	})

	if got := RankOverall(nil, cfg); len(got) != 0 {
		t.Errorf("empty input overall = %d, want 0", len(got))
	}
}

func TestGroupCountries(t *testing.T) {
	rankings := []CityRanking{
		{CityName: "Lyon", Country: "France", BenefitScore: 60, Nature: "beneficial"},
		{CityName: "Paris", Country: "France", BenefitScore: 70, Nature: "beneficial"},
		{CityName: "Berlin", Country: "Germany", BenefitScore: 65, Nature: "beneficial"},
		{CityName: "Hamburg", Country: "Germany", BenefitScore: 40, Nature: "challenging"},
	}
	countries := GroupCountries(rankings)
	if len(countries) != 2 {
		t.Fatalf("countries = %d, want 2", len(countries))
	}
	if countries[0].Country != "France" {
		t.Errorf("top country = %s, want France (best city 70)", countries[0].Country)
	}
	fr := countries[0]
	if fr.Cities[0].CityName != "Paris" {
		t.Errorf("top French city = %s, want Paris", fr.Cities[0].CityName)
	}
	if math.Abs(fr.Score-65) > 1e-9 {
		t.Errorf("France score = %.1f, want 65", fr.Score)
	}
	de := countries[1]
	if de.BeneficialCount != 1 || de.ChallengingCount != 1 {
		t.Errorf("Germany counts = %d/%d, want 1/1", de.BeneficialCount, de.ChallengingCount)
	}

	if got := GroupCountries(nil); got != nil {
		t.Errorf("GroupCountries(nil) = %v, want nil", got)
	}
}

func gridTestCities(n int) []City {
	cities := make([]City, 0, n)
	for i := 0; i < n; i++ {
		lat := -50.0 + float64(i)*2.0
		cities = append(cities, City{
			Name:    "City" + string(rune('A'+i%26)) + string(rune('0'+i/26)),
			Country: "Testland",
			Lat:     lat,
			Lng:     2.0,
		})
	}
	return cities
}

func TestInfluenceSetsWorkerIndependence(t *testing.T) {
	cfg := scoring.Balanced()
	scoutLines := []Line{
		meridianLine(ephemeris.Venus, lines.Dsc, 2.35),
		meridianLine(ephemeris.Jupiter, lines.MC, 3.1),
		meridianLine(ephemeris.Saturn, lines.Asc, 1.0),
	}
	cities := gridTestCities(40)
	ctx := context.Background()

	single, err := NewWorkerPool(1, nil).InfluenceSets(ctx, cities, scoutLines, cfg, nil)
	if err != nil {
		t.Fatalf("single worker: %v", err)
	}
	many, err := NewWorkerPool(8, nil).InfluenceSets(ctx, cities, scoutLines, cfg, nil)
	if err != nil {
		t.Fatalf("eight workers: %v", err)
	}
	if !reflect.DeepEqual(single, many) {
		t.Fatal("influence sets differ between worker counts")
	}

	r1 := RankByCategory(single, scoring.Love, cfg, scoring.BenefitFirst)
	r8 := RankByCategory(many, scoring.Love, cfg, scoring.BenefitFirst)
	if !reflect.DeepEqual(r1, r8) {
		t.Fatal("rankings differ between worker counts")
	}
}

func TestInfluenceSetsEmpty(t *testing.T) {
	pool := NewWorkerPool(4, nil)
	sets, err := pool.InfluenceSets(context.Background(), nil, nil, scoring.Balanced(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("sets = %d, want 0", len(sets))
	}

	rankings, err := pool.RankCities(context.Background(), nil, nil, scoring.Love, scoring.Balanced(), scoring.BenefitFirst, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rankings) != 0 {
		t.Errorf("rankings = %d, want 0", len(rankings))
	}
}

func TestInfluenceSetsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := NewWorkerPool(2, nil)
	_, err := pool.InfluenceSets(ctx, gridTestCities(40), []Line{meridianLine(ephemeris.Sun, lines.MC, 2.0)}, scoring.Balanced(), nil)
	if err == nil {
		t.Fatal("expected context error after cancellation")
	}
}

func TestRankCitiesProgress(t *testing.T) {
	cfg := scoring.Balanced()
	scoutLines := []Line{meridianLine(ephemeris.Venus, lines.Dsc, 2.35)}
	cities := gridTestCities(60)

	var reports []Progress
	pool := NewWorkerPool(4, nil)
	_, err := pool.RankCities(context.Background(), cities, scoutLines, scoring.Love, cfg, scoring.BenefitFirst, func(p Progress) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) < 4 {
		t.Fatalf("reports = %d, want at least 4", len(reports))
	}
	if reports[0].Percent != 5 || reports[0].Phase != PhaseInitializing {
		t.Errorf("first report = %+v, want 5%% initializing", reports[0])
	}
	last := reports[len(reports)-1]
	if last.Percent != 95 || last.Phase != PhaseAggregating {
		t.Errorf("last report = %+v, want 95%% aggregating", last)
	}
	seen := map[string]bool{}
	for i, p := range reports {
		seen[p.Phase] = true
		if i > 0 && p.Percent < reports[i-1].Percent {
			t.Errorf("report %d percent %d < previous %d", i, p.Percent, reports[i-1].Percent)
		}
		if p.Percent < 0 || p.Percent > 100 {
			t.Errorf("report %d percent %d out of range", i, p.Percent)
		}
	}
	for _, phase := range []string{PhaseInitializing, PhaseComputing, PhaseAggregating} {
		if !seen[phase] {
			t.Errorf("phase %q never reported", phase)
		}
	}
}

func TestIdentifyHotZones(t *testing.T) {
	points := make([]GridPoint, 10)
	for i := range points {
		points[i] = GridPoint{Lat: float64(i), Score: float64((i + 1) * 10), InfluenceCount: 1}
	}
	zones := identifyHotZones(points, 0.2)
	// Threshold index ceil(10*0.2)=2 over descending scores lands on 80.
	if len(zones) != 3 {
		t.Fatalf("zones = %d, want 3", len(zones))
	}
	for _, z := range zones {
		if z.RadiusDeg != hotZoneRadiusDeg {
			t.Errorf("zone radius = %.1f, want %.1f", z.RadiusDeg, hotZoneRadiusDeg)
		}
	}

	flat := []GridPoint{{Score: 90}, {Score: 80}}
	if got := identifyHotZones(flat, 0.2); got != nil {
		t.Errorf("zones without influences = %v, want nil", got)
	}
}

func TestGenerateGrid(t *testing.T) {
	points := generateGrid(coarseResolutionDeg)
	want := 27 * 72
	if len(points) != want {
		t.Fatalf("coarse grid = %d points, want %d", len(points), want)
	}
	for _, p := range points {
		if p.Lat < gridLatMin || p.Lat > gridLatMax {
			t.Fatalf("lat %.1f outside scan band", p.Lat)
		}
		if p.Lon < -180 || p.Lon >= 180 {
			t.Fatalf("lon %.1f outside range", p.Lon)
		}
	}
}

func TestGenerateZoneGridDedup(t *testing.T) {
	zones := []HotZone{
		{Lat: 10, Lon: 10, RadiusDeg: hotZoneRadiusDeg},
		{Lat: 12, Lon: 12, RadiusDeg: hotZoneRadiusDeg},
	}
	points := generateZoneGrid(zones, regionalResolutionDeg, regionalDedupDeg)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if math.Abs(cur.Lat-prev.Lat) < regionalDedupDeg && math.Abs(cur.Lon-prev.Lon) < regionalDedupDeg {
			t.Fatalf("near-duplicate points %v and %v survived dedup", prev, cur)
		}
	}
}

func TestScoutGrid(t *testing.T) {
	cfg := scoring.Balanced()
	scoutLines := []Line{meridianLine(ephemeris.Venus, lines.Dsc, 0.0)}
	pool := NewWorkerPool(4, nil)

	var reports []Progress
	result, err := pool.ScoutGrid(context.Background(), scoutLines, scoring.Love, cfg, func(p Progress) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Points) == 0 {
		t.Fatal("no grid points returned")
	}
	if len(result.HotZones) == 0 {
		t.Fatal("no hot zones despite an influencing line")
	}
	foundNearLine := false
	for _, p := range result.Points {
		if p.Score < 0 || p.Score > 100 {
			t.Fatalf("score %.1f out of range at %.2f/%.2f", p.Score, p.Lat, p.Lon)
		}
		if p.InfluenceCount > 0 && math.Abs(p.Lon) < 1.0 {
			foundNearLine = true
			if p.Score <= 50 {
				t.Errorf("beneficial point at %.2f/%.2f scored %.1f, want > 50", p.Lat, p.Lon, p.Score)
			}
		}
	}
	if !foundNearLine {
		t.Error("no influenced points near the line meridian")
	}
	for _, z := range result.HotZones {
		if math.Abs(z.Lon) > hotZoneRadiusDeg+regionalResolutionDeg {
			t.Errorf("hot zone at lon %.1f, want near the meridian", z.Lon)
		}
	}
	if len(reports) == 0 || reports[len(reports)-1].Percent != 95 {
		t.Errorf("final progress = %+v, want 95%%", reports[len(reports)-1])
	}

	noLines, err := pool.ScoutGrid(context.Background(), nil, scoring.Love, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(noLines.HotZones) != 0 {
		t.Errorf("hot zones without lines = %d, want 0", len(noLines.HotZones))
	}
	if len(noLines.Points) != 27*72 {
		t.Errorf("no-line result = %d points, want the coarse grid", len(noLines.Points))
	}
}

func TestScoreGridPoint(t *testing.T) {
	cfg := scoring.Balanced()
	simplified := SimplifyLines([]Line{meridianLine(ephemeris.Venus, lines.Dsc, 0.0)}, cfg)

	onLine, count := scoreGridPoint(20.0, 0.0, simplified, scoring.Love, cfg)
	if count != 1 {
		t.Fatalf("influence count = %d, want 1", count)
	}
	// Rating 5 at zero distance: 50 + 2*10.5.
	if math.Abs(onLine-71.0) > 0.5 {
		t.Errorf("on-line score = %.2f, want 71", onLine)
	}

	far, count := scoreGridPoint(20.0, 90.0, simplified, scoring.Love, cfg)
	if count != 0 || far != 50.0 {
		t.Errorf("far point = %.1f/%d, want 50/0", far, count)
	}

	// Career has no use for a Venus descendant.
	career, count := scoreGridPoint(20.0, 0.0, simplified, scoring.Career, cfg)
	if count != 0 || career != 50.0 {
		t.Errorf("irrelevant category = %.1f/%d, want 50/0", career, count)
	}
}

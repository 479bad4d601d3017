package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/lines"
)

// TestKernelShape checks every kernel peaks at zero distance and decays
// monotonically.
func TestKernelShape(t *testing.T) {
	for _, k := range []Kernel{Linear, Gaussian, Exponential} {
		t.Run(k.String(), func(t *testing.T) {
			if got := k.Apply(0, 200); math.Abs(got-1.0) > 1e-12 {
				t.Errorf("kernel at 0 = %f, want 1", got)
			}
			prev := 1.0
			for d := 50.0; d <= 1000.0; d += 50.0 {
				v := k.Apply(d, 200)
				if v > prev {
					t.Fatalf("kernel not monotonic at %.0f km: %f > %f", d, v, prev)
				}
				if v < 0 || v > 1 {
					t.Fatalf("kernel out of [0,1] at %.0f km: %f", d, v)
				}
				prev = v
			}
		})
	}

	if got := Linear.Apply(500, 500); got != 0 {
		t.Errorf("linear kernel at bandwidth = %f, want 0", got)
	}
	if got := Linear.Apply(800, 500); got != 0 {
		t.Errorf("linear kernel beyond bandwidth = %f, want 0", got)
	}
	want := math.Exp(-0.5)
	if got := Gaussian.Apply(180, 180); math.Abs(got-want) > 1e-12 {
		t.Errorf("gaussian at sigma = %f, want %f", got, want)
	}
}

// TestConfigValidate verifies presets pass and broken configs fail with
// the sentinel.
func TestConfigValidate(t *testing.T) {
	for name, preset := range Presets {
		if err := preset().Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}

	bad := []Config{
		{Kernel: Gaussian, KernelParameterKm: 0, MaxDistanceKm: 500},
		{Kernel: Gaussian, KernelParameterKm: 180, MaxDistanceKm: 0},
		{Kernel: Gaussian, KernelParameterKm: 180, MaxDistanceKm: -5},
		{Kernel: Kernel(9), KernelParameterKm: 180, MaxDistanceKm: 500},
		{Kernel: Linear, KernelParameterKm: 500, MaxDistanceKm: 500, VolatilityPenalty: -1},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("config %d: got %v, want ErrInvalidConfig", i, err)
		}
	}
}

// TestScoreInfluence checks the base contribution and the aspect flip.
func TestScoreInfluence(t *testing.T) {
	cfg := Balanced()

	t.Run("strong line at zero distance", func(t *testing.T) {
		c := ScoreInfluence(Influence{Planet: ephemeris.Jupiter, Angle: lines.MC, Rating: 5}, cfg)
		if math.Abs(c.Benefit-2.0) > 1e-12 {
			t.Errorf("benefit = %f, want 2", c.Benefit)
		}
		if math.Abs(c.Intensity-2.0) > 1e-12 {
			t.Errorf("intensity = %f, want 2", c.Intensity)
		}
		if c.Volatility != 0 {
			t.Errorf("volatility = %f, want 0", c.Volatility)
		}
	})

	t.Run("square flips polarity and records volatility", func(t *testing.T) {
		sq := Square
		c := ScoreInfluence(Influence{Planet: ephemeris.Jupiter, Angle: lines.MC, Rating: 5, Aspect: &sq}, cfg)
		if c.Benefit >= 0 {
			t.Errorf("benefit = %f, want negative", c.Benefit)
		}
		if math.Abs(c.Benefit-(-1.2)) > 1e-12 {
			t.Errorf("benefit = %f, want -1.2", c.Benefit)
		}
		if math.Abs(c.Volatility-2.0) > 1e-12 {
			t.Errorf("volatility = %f, want 2", c.Volatility)
		}
	})

	t.Run("neutral rating has no volatility even when flipped", func(t *testing.T) {
		sq := Square
		c := ScoreInfluence(Influence{Planet: ephemeris.Moon, Angle: lines.IC, Rating: 3, Aspect: &sq}, cfg)
		if c.Benefit != 0 || c.Volatility != 0 {
			t.Errorf("got benefit %f volatility %f, want 0 0", c.Benefit, c.Volatility)
		}
	})

	t.Run("distance decays the contribution", func(t *testing.T) {
		near := ScoreInfluence(Influence{Rating: 5, DistanceKm: 50}, cfg)
		far := ScoreInfluence(Influence{Rating: 5, DistanceKm: 400}, cfg)
		if far.Benefit >= near.Benefit {
			t.Errorf("far benefit %f not below near %f", far.Benefit, near.Benefit)
		}
	})
}

// TestScoreCityEmpty verifies the neutral score for untouched cities.
func TestScoreCityEmpty(t *testing.T) {
	s := ScoreCity(CityInfluences{CityName: "Ushuaia", Country: "AR"}, Balanced())
	if s.BenefitScore != 50.0 || s.IntensityScore != 0 || s.Volatility != 0 {
		t.Errorf("scores = %.1f/%.1f/%.1f, want 50/0/0", s.BenefitScore, s.IntensityScore, s.Volatility)
	}
	if s.Mixed {
		t.Error("empty city flagged mixed")
	}
	if !math.IsInf(s.MinDistanceKm, 1) {
		t.Errorf("min distance = %f, want +Inf", s.MinDistanceKm)
	}
}

// TestScoreCity checks the weighted aggregation and its bounds.
func TestScoreCity(t *testing.T) {
	cfg := Balanced()

	t.Run("single strong line", func(t *testing.T) {
		s := ScoreCity(CityInfluences{
			Influences: []Influence{{Planet: ephemeris.Jupiter, Angle: lines.MC, Rating: 5}},
		}, cfg)
		if math.Abs(s.BenefitScore-71.0) > 1e-9 {
			t.Errorf("benefit = %f, want 71", s.BenefitScore)
		}
		if s.Mixed {
			t.Error("single positive influence flagged mixed")
		}
		if s.MinDistanceKm != 0 {
			t.Errorf("min distance = %f, want 0", s.MinDistanceKm)
		}
	})

	t.Run("scores stay bounded under many influences", func(t *testing.T) {
		var infs []Influence
		for i := 0; i < 40; i++ {
			infs = append(infs, Influence{Rating: 5, DistanceKm: 0})
		}
		s := ScoreCity(CityInfluences{Influences: infs}, cfg)
		if s.BenefitScore < 0 || s.BenefitScore > 100 {
			t.Errorf("benefit %f out of [0,100]", s.BenefitScore)
		}
		if s.IntensityScore < 0 || s.IntensityScore > 100 {
			t.Errorf("intensity %f out of [0,100]", s.IntensityScore)
		}
		// Exactly 2 * weight sum * 10.5 over 50.
		want := 50.0 + 2.0*2.38*10.5
		if math.Abs(s.BenefitScore-want) > 1e-9 {
			t.Errorf("benefit = %f, want %f", s.BenefitScore, want)
		}
	})

	t.Run("opposing lines flag mixed", func(t *testing.T) {
		s := ScoreCity(CityInfluences{
			Influences: []Influence{
				{Planet: ephemeris.Jupiter, Angle: lines.MC, Rating: 5},
				{Planet: ephemeris.Saturn, Angle: lines.Asc, Rating: 1},
			},
		}, cfg)
		if !s.Mixed {
			t.Error("strong opposing influences not flagged mixed")
		}
		if s.Volatility <= 0 {
			t.Errorf("volatility = %f, want positive", s.Volatility)
		}
	})

	t.Run("stronger influences weighted first", func(t *testing.T) {
		weak := ScoreCity(CityInfluences{
			Influences: []Influence{
				{Rating: 4, DistanceKm: 0},
				{Rating: 5, DistanceKm: 0},
			},
		}, cfg)
		// Rating 5 carries weight 1.0, rating 4 weight 0.6 regardless of
		// input order.
		want := 50.0 + (2.0*1.0+1.0*0.6)*10.5
		if math.Abs(weak.BenefitScore-want) > 1e-9 {
			t.Errorf("benefit = %f, want %f", weak.BenefitScore, want)
		}
	})
}

// TestCategoryTables spot-checks the placement tables and neutrality.
func TestCategoryTables(t *testing.T) {
	tests := []struct {
		planet   ephemeris.Planet
		angle    lines.LineType
		category Category
		benef    bool
		chall    bool
	}{
		{ephemeris.Sun, lines.MC, Career, true, false},
		{ephemeris.Pluto, lines.MC, Career, true, false},
		{ephemeris.Neptune, lines.MC, Career, false, true},
		{ephemeris.Venus, lines.Dsc, Love, true, false},
		{ephemeris.Saturn, lines.Dsc, Love, false, true},
		{ephemeris.Moon, lines.IC, Home, true, false},
		{ephemeris.Mars, lines.IC, Home, false, true},
		{ephemeris.Jupiter, lines.Dsc, Wellbeing, true, false},
		{ephemeris.Saturn, lines.Asc, Wealth, false, true},
		{ephemeris.Moon, lines.Dsc, Career, false, false},
		{ephemeris.Chiron, lines.MC, Career, false, false},
	}

	for _, tt := range tests {
		if got := BeneficialFor(tt.planet, tt.angle, tt.category); got != tt.benef {
			t.Errorf("BeneficialFor(%v, %v, %v) = %v", tt.planet, tt.angle, tt.category, got)
		}
		if got := ChallengingFor(tt.planet, tt.angle, tt.category); got != tt.chall {
			t.Errorf("ChallengingFor(%v, %v, %v) = %v", tt.planet, tt.angle, tt.category, got)
		}
		if got := RelevantFor(tt.planet, tt.angle, tt.category); got != (tt.benef || tt.chall) {
			t.Errorf("RelevantFor(%v, %v, %v) = %v", tt.planet, tt.angle, tt.category, got)
		}
	}
}

// TestAspectMultipliers verifies the sign conventions.
func TestAspectMultipliers(t *testing.T) {
	harmonious := []Aspect{Conjunction, Trine, Sextile, Quincunx}
	for _, a := range harmonious {
		if a.BenefitMultiplier() <= 0 {
			t.Errorf("%s benefit multiplier %f not positive", a, a.BenefitMultiplier())
		}
	}
	flipping := []Aspect{Square, Opposition, Sesquisquare}
	for _, a := range flipping {
		if a.BenefitMultiplier() >= 0 {
			t.Errorf("%s benefit multiplier %f not negative", a, a.BenefitMultiplier())
		}
	}
	for a := Conjunction; a <= Sesquisquare; a++ {
		if m := a.IntensityMultiplier(); m <= 0 || m > 1 {
			t.Errorf("%s intensity multiplier %f out of (0,1]", a, m)
		}
	}
}

// TestParseRoundTrips covers the string mappings.
func TestParseRoundTrips(t *testing.T) {
	for _, k := range []Kernel{Linear, Gaussian, Exponential} {
		got, err := ParseKernel(k.String())
		if err != nil || got != k {
			t.Errorf("kernel %v round trip failed: %v %v", k, got, err)
		}
	}
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		if err != nil || got != c {
			t.Errorf("category %v round trip failed: %v %v", c, got, err)
		}
	}
	if _, err := ParseCategory("fortune"); err == nil {
		t.Error("unknown category accepted")
	}
	if _, err := ParseSortMode("benefit"); err != nil {
		t.Error("benefit sort mode rejected")
	}
}

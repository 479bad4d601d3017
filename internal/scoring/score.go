package scoring

import (
	"math"
	"sort"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/lines"
)

// diminishingWeights caps city scores at K=7 influences. The weight sum
// is 2.38, which with the per-influence bound of 2 pins the raw benefit
// inside [-4.76, 4.76] and makes the 0-100 mapping exact.
var diminishingWeights = [...]float64{1.0, 0.6, 0.35, 0.2, 0.1, 0.08, 0.05}

// Influence is one planetary line within cutoff distance of a city.
type Influence struct {
	Planet     ephemeris.Planet `json:"planet"`
	Angle      lines.LineType   `json:"angle"`
	Rating     int              `json:"rating"`
	Aspect     *Aspect          `json:"aspect,omitempty"`
	DistanceKm float64          `json:"distanceKm"`
}

// Contribution is the scored effect of a single influence.
type Contribution struct {
	Benefit    float64 `json:"benefit"`
	Intensity  float64 `json:"intensity"`
	Volatility float64 `json:"volatility"`
}

// CityInfluences is a city with every line influence found for it.
type CityInfluences struct {
	CityName   string      `json:"cityName"`
	Country    string      `json:"country"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	Influences []Influence `json:"influences"`
}

// CityScore is the aggregate score of a city. All three scores live in
// [0, 100]; benefit is centered at 50.
type CityScore struct {
	CityName       string  `json:"cityName"`
	Country        string  `json:"country"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	BenefitScore   float64 `json:"benefitScore"`
	IntensityScore float64 `json:"intensityScore"`
	Volatility     float64 `json:"volatilityScore"`
	Mixed          bool    `json:"mixedFlag"`
	InfluenceCount int     `json:"influenceCount"`
	MinDistanceKm  float64 `json:"minDistanceKm"`
}

// RatingToBenefit maps the 1-5 rating onto a signed scale centered at 3.
func RatingToBenefit(rating int) float64 {
	return float64(rating) - 3.0
}

// RatingToIntensity is the unsigned strength of a rating.
func RatingToIntensity(rating int) float64 {
	return math.Abs(float64(rating) - 3.0)
}

// ScoreInfluence computes one influence's contribution. Volatility only
// accumulates when an aspect flips the line's polarity: a supportive line
// made challenging or the reverse both signal instability.
func ScoreInfluence(inf Influence, cfg Config) Contribution {
	kernel := cfg.Apply(inf.DistanceKm)

	baseBenefit := RatingToBenefit(inf.Rating)
	baseIntensity := RatingToIntensity(inf.Rating)

	benefitMult, intensityMult := 1.0, 1.0
	if inf.Aspect != nil {
		benefitMult = inf.Aspect.BenefitMultiplier()
		intensityMult = inf.Aspect.IntensityMultiplier()
	}

	volatility := 0.0
	if benefitMult < 0.0 && baseBenefit != 0.0 {
		volatility = math.Abs(baseBenefit) * kernel
	}

	return Contribution{
		Benefit:    baseBenefit * benefitMult * kernel,
		Intensity:  baseIntensity * intensityMult * kernel,
		Volatility: volatility,
	}
}

// ScoreCity aggregates a city's influences into its bounded scores. A
// city without influences scores the neutral 50 with infinite minimum
// distance.
func ScoreCity(city CityInfluences, cfg Config) CityScore {
	score := CityScore{
		CityName:       city.CityName,
		Country:        city.Country,
		Latitude:       city.Latitude,
		Longitude:      city.Longitude,
		InfluenceCount: len(city.Influences),
		MinDistanceKm:  math.Inf(1),
	}
	if len(city.Influences) == 0 {
		score.BenefitScore = 50.0
		return score
	}

	type scored struct {
		contrib    Contribution
		distanceKm float64
	}
	contributions := make([]scored, 0, len(city.Influences))
	for _, inf := range city.Influences {
		contributions = append(contributions, scored{ScoreInfluence(inf, cfg), inf.DistanceKm})
		if inf.DistanceKm < score.MinDistanceKm {
			score.MinDistanceKm = inf.DistanceKm
		}
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return math.Abs(contributions[i].contrib.Benefit) > math.Abs(contributions[j].contrib.Benefit)
	})

	k := len(diminishingWeights)
	if len(contributions) < k {
		k = len(contributions)
	}

	var benefitRaw, intensityRaw, weightedPos, weightedNeg float64
	for i := 0; i < k; i++ {
		w := diminishingWeights[i]
		b := contributions[i].contrib.Benefit
		benefitRaw += b * w
		intensityRaw += contributions[i].contrib.Intensity * w
		weightedPos += math.Max(b, 0.0) * w
		weightedNeg += math.Max(-b, 0.0) * w
	}

	volatilityRaw := math.Sqrt(weightedPos * weightedNeg)

	score.BenefitScore = clamp(50.0+benefitRaw*10.5, 0.0, 100.0)
	score.IntensityScore = clamp(intensityRaw*21.0, 0.0, 100.0)
	score.Volatility = clamp(volatilityRaw*42.0, 0.0, 100.0)
	score.Mixed = weightedPos > 0.5 && weightedNeg > 0.5
	return score
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

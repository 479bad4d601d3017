// Package scout matches planetary lines against candidate locations and
// produces ranked, category-tagged results: per-category city rankings,
// cross-category overall rankings, country aggregates and hierarchical
// grid scans.
package scout

import (
	"math"
	"sort"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/geo"
	"github.com/astro/astrogo/internal/lines"
	"github.com/astro/astrogo/internal/scoring"
)

// City is one candidate location.
type City struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lon"`
}

// Line is a planetary or aspect line prepared for scouting, with its
// bounding box precomputed for spatial rejection.
type Line struct {
	Planet ephemeris.Planet
	Angle  lines.LineType
	Rating int
	Aspect *scoring.Aspect
	Points []geo.Point

	bbox geo.BoundingBox
}

// NewLine wraps a base planetary line for scouting.
func NewLine(l lines.PlanetaryLine, maxDistanceKm float64) Line {
	return Line{
		Planet: l.Planet,
		Angle:  l.Type,
		Rating: l.Rating,
		Points: l.Points,
		bbox:   geo.NewBoundingBox(l.Points, maxDistanceKm),
	}
}

// NewAspectLine wraps an aspect line for scouting. Aspect lines inherit
// the base rating of their planet and angle; the aspect multiplier does
// the rest during scoring.
func NewAspectLine(l lines.AspectLine, maxDistanceKm float64) Line {
	aspect := scoring.AspectFromLine(l.Kind)
	return Line{
		Planet: l.Planet,
		Angle:  l.Angle,
		Rating: lines.Rating(l.Planet, l.Angle),
		Aspect: &aspect,
		Points: l.Points,
		bbox:   geo.NewBoundingBox(l.Points, maxDistanceKm),
	}
}

// PrepareLines wraps a computed line set for scouting against the cutoff
// in the config.
func PrepareLines(set *lines.Set, cfg scoring.Config) []Line {
	out := make([]Line, 0, len(set.Planetary)+len(set.Aspects))
	for _, l := range set.Planetary {
		out = append(out, NewLine(l, cfg.MaxDistanceKm))
	}
	for _, l := range set.Aspects {
		out = append(out, NewAspectLine(l, cfg.MaxDistanceKm))
	}
	return out
}

// Influences collects every line within the cutoff of one city. The
// bounding box check rejects far lines before the exact spherical
// distance runs.
func Influences(city City, scoutLines []Line, cfg scoring.Config) scoring.CityInfluences {
	set := scoring.CityInfluences{
		CityName:  city.Name,
		Country:   city.Country,
		Latitude:  city.Lat,
		Longitude: city.Lng,
	}
	for i := range scoutLines {
		line := &scoutLines[i]
		if !line.bbox.MightContain(city.Lat, city.Lng) {
			continue
		}
		distance := geo.DistanceToPolyline(city.Lat, city.Lng, line.Points)
		if distance <= cfg.MaxDistanceKm {
			set.Influences = append(set.Influences, scoring.Influence{
				Planet:     line.Planet,
				Angle:      line.Angle,
				Rating:     line.Rating,
				Aspect:     line.Aspect,
				DistanceKm: distance,
			})
		}
	}
	return set
}

// TopInfluence is one of the strongest lines reported with a ranking.
type TopInfluence struct {
	Planet     ephemeris.Planet `json:"planet"`
	Angle      lines.LineType   `json:"angle"`
	DistanceKm float64          `json:"distanceKm"`
}

// CityRanking is a scored city within one category.
type CityRanking struct {
	CityName      string         `json:"cityName"`
	Country       string         `json:"country"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	BenefitScore  float64        `json:"benefitScore"`
	Intensity     float64        `json:"intensityScore"`
	Volatility    float64        `json:"volatilityScore"`
	Mixed         bool           `json:"mixedFlag"`
	Nature        string         `json:"nature"`
	TopInfluences []TopInfluence `json:"topInfluences"`
	MinDistanceKm float64        `json:"minDistanceKm"`
}

// filterCategory keeps only the influences either category table names.
func filterCategory(set scoring.CityInfluences, category scoring.Category) scoring.CityInfluences {
	filtered := scoring.CityInfluences{
		CityName:  set.CityName,
		Country:   set.Country,
		Latitude:  set.Latitude,
		Longitude: set.Longitude,
	}
	for _, inf := range set.Influences {
		if scoring.RelevantFor(inf.Planet, inf.Angle, category) {
			filtered.Influences = append(filtered.Influences, inf)
		}
	}
	return filtered
}

// natureOf derives the overall nature from the aggregated benefit rather
// than influence counts, so aspect polarity flips are respected. Benefit
// is centered at 50.
func natureOf(score scoring.CityScore) string {
	switch {
	case score.Mixed:
		return "mixed"
	case score.BenefitScore > 52.0:
		return "beneficial"
	case score.BenefitScore < 48.0:
		return "challenging"
	default:
		return "mixed"
	}
}

// RankByCategory scores every city for one category and sorts by the
// requested mode. Cities with no qualifying influences are dropped, never
// emitted as neutral rows. Sorting is stable so thread count upstream
// cannot reorder ties.
func RankByCategory(sets []scoring.CityInfluences, category scoring.Category, cfg scoring.Config, mode scoring.SortMode) []CityRanking {
	rankings := make([]CityRanking, 0, len(sets))
	for _, set := range sets {
		filtered := filterCategory(set, category)
		if len(filtered.Influences) == 0 {
			continue
		}
		score := scoring.ScoreCity(filtered, cfg)

		top := make([]TopInfluence, 0, 3)
		byDistance := make([]scoring.Influence, len(filtered.Influences))
		copy(byDistance, filtered.Influences)
		sort.SliceStable(byDistance, func(i, j int) bool {
			return byDistance[i].DistanceKm < byDistance[j].DistanceKm
		})
		for _, inf := range byDistance {
			if len(top) == 3 {
				break
			}
			top = append(top, TopInfluence{Planet: inf.Planet, Angle: inf.Angle, DistanceKm: inf.DistanceKm})
		}

		rankings = append(rankings, CityRanking{
			CityName:      score.CityName,
			Country:       score.Country,
			Latitude:      score.Latitude,
			Longitude:     score.Longitude,
			BenefitScore:  score.BenefitScore,
			Intensity:     score.IntensityScore,
			Volatility:    score.Volatility,
			Mixed:         score.Mixed,
			Nature:        natureOf(score),
			TopInfluences: top,
			MinDistanceKm: score.MinDistanceKm,
		})
	}

	sortRankings(rankings, cfg, mode)
	return rankings
}

func sortRankings(rankings []CityRanking, cfg scoring.Config, mode scoring.SortMode) {
	switch mode {
	case scoring.IntensityFirst:
		sort.SliceStable(rankings, func(i, j int) bool {
			return rankings[i].Intensity > rankings[j].Intensity
		})
	case scoring.BalancedBenefit:
		sort.SliceStable(rankings, func(i, j int) bool {
			a := rankings[i].BenefitScore - rankings[i].Volatility*cfg.VolatilityPenalty
			b := rankings[j].BenefitScore - rankings[j].Volatility*cfg.VolatilityPenalty
			return a > b
		})
	default:
		sort.SliceStable(rankings, func(i, j int) bool {
			return rankings[i].BenefitScore > rankings[j].BenefitScore
		})
	}
}

// CategoryScore is one category's contribution to an overall ranking.
type CategoryScore struct {
	Category scoring.Category `json:"category"`
	Score    float64          `json:"score"`
	Nature   string           `json:"nature"`
}

// OverallRanking aggregates a city across all six categories.
type OverallRanking struct {
	CityName         string          `json:"cityName"`
	Country          string          `json:"country"`
	Latitude         float64         `json:"latitude"`
	Longitude        float64         `json:"longitude"`
	Categories       []CategoryScore `json:"categories"`
	Total            float64         `json:"totalScore"`
	Average          float64         `json:"averageScore"`
	BeneficialCount  int             `json:"beneficialCount"`
	ChallengingCount int             `json:"challengingCount"`
	MinDistanceKm    float64         `json:"minDistanceKm"`
}

// challengingCategoryWeight down-weights categories that come out
// challenging for a city. The constant has no documented derivation; it
// is kept for output parity with prior releases.
const challengingCategoryWeight = -0.5

// RankOverall runs every category and aggregates per city: beneficial and
// mixed categories add their score, challenging ones subtract half
// theirs. Cities with no qualifying influence in any category are
// dropped.
func RankOverall(sets []scoring.CityInfluences, cfg scoring.Config) []OverallRanking {
	byCity := make(map[string]*OverallRanking)
	var order []string

	for _, category := range scoring.Categories() {
		rankings := RankByCategory(sets, category, cfg, scoring.BenefitFirst)
		for _, r := range rankings {
			key := r.CityName + "\x00" + r.Country
			overall, ok := byCity[key]
			if !ok {
				overall = &OverallRanking{
					CityName:      r.CityName,
					Country:       r.Country,
					Latitude:      r.Latitude,
					Longitude:     r.Longitude,
					MinDistanceKm: math.Inf(1),
				}
				byCity[key] = overall
				order = append(order, key)
			}

			overall.Categories = append(overall.Categories, CategoryScore{
				Category: category,
				Score:    r.BenefitScore,
				Nature:   r.Nature,
			})
			switch r.Nature {
			case "challenging":
				overall.Total += r.BenefitScore * challengingCategoryWeight
				overall.ChallengingCount++
			default:
				overall.Total += r.BenefitScore
				if r.Nature == "beneficial" {
					overall.BeneficialCount++
				}
			}
			if r.MinDistanceKm < overall.MinDistanceKm {
				overall.MinDistanceKm = r.MinDistanceKm
			}
		}
	}

	out := make([]OverallRanking, 0, len(order))
	for _, key := range order {
		overall := byCity[key]
		if n := len(overall.Categories); n > 0 {
			overall.Average = overall.Total / float64(n)
		}
		out = append(out, *overall)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// RankedCountry groups a country's ranked cities with summary counts and
// a normalized score, the mean benefit of its cities.
type RankedCountry struct {
	Country          string        `json:"country"`
	Cities           []CityRanking `json:"cities"`
	Score            float64       `json:"score"`
	BeneficialCount  int           `json:"beneficialCount"`
	ChallengingCount int           `json:"challengingCount"`
}

// GroupCountries folds city rankings into per-country groups. Countries
// are ordered by their best city; cities within a country by benefit.
func GroupCountries(rankings []CityRanking) []RankedCountry {
	if len(rankings) == 0 {
		return nil
	}

	byCountry := make(map[string][]CityRanking)
	var order []string
	for _, r := range rankings {
		if _, ok := byCountry[r.Country]; !ok {
			order = append(order, r.Country)
		}
		byCountry[r.Country] = append(byCountry[r.Country], r)
	}

	out := make([]RankedCountry, 0, len(order))
	for _, country := range order {
		cities := byCountry[country]
		sort.SliceStable(cities, func(i, j int) bool {
			return cities[i].BenefitScore > cities[j].BenefitScore
		})

		rc := RankedCountry{Country: country, Cities: cities}
		var sum float64
		for _, c := range cities {
			sum += c.BenefitScore
			switch c.Nature {
			case "beneficial":
				rc.BeneficialCount++
			case "challenging":
				rc.ChallengingCount++
			}
		}
		rc.Score = sum / float64(len(cities))
		out = append(out, rc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cities[0].BenefitScore > out[j].Cities[0].BenefitScore
	})
	return out
}

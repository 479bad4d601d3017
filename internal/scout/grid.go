package scout

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/geo"
	"github.com/astro/astrogo/internal/lines"
	"github.com/astro/astrogo/internal/scoring"
)

// Grid coverage excludes the polar caps; no ranked city lives there.
const (
	gridLatMin = -60.0
	gridLatMax = 70.0

	coarseResolutionDeg   = 5.0
	regionalResolutionDeg = 1.0
	fineResolutionDeg     = 0.25

	simplifyToleranceDeg = 0.1
	hotZoneRadiusDeg     = 5.0

	coarsePercentile = 0.2
	refinePercentile = 0.1

	regionalDedupDeg = 0.1
	fineDedupDeg     = 0.05
)

// GridPoint is one scored location of the exploratory grid.
type GridPoint struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Score          float64 `json:"score"`
	InfluenceCount int     `json:"influenceCount"`
}

// HotZone marks a region worth refining at a finer resolution.
type HotZone struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	RadiusDeg float64 `json:"radiusDeg"`
}

// GridResult is the outcome of a hierarchical grid scout: the points of
// the finest pass that ran, plus the zones that pass refined.
type GridResult struct {
	Points   []GridPoint `json:"points"`
	HotZones []HotZone   `json:"hotZones"`
}

// SimplifiedLine pairs a line's identity with a reduced polyline for
// fast grid scoring.
type SimplifiedLine struct {
	Planet ephemeris.Planet
	Angle  lines.LineType
	Rating int
	Aspect *scoring.Aspect
	Poly   geo.SimplifiedPolyline
}

// SimplifyLines reduces every line to a simplified polyline sized for
// cfg.MaxDistanceKm lookups.
func SimplifyLines(scoutLines []Line, cfg scoring.Config) []SimplifiedLine {
	out := make([]SimplifiedLine, 0, len(scoutLines))
	for _, ln := range scoutLines {
		out = append(out, SimplifiedLine{
			Planet: ln.Planet,
			Angle:  ln.Angle,
			Rating: ln.Rating,
			Aspect: ln.Aspect,
			Poly:   geo.NewSimplifiedPolyline(ln.Points, cfg.MaxDistanceKm, simplifyToleranceDeg),
		})
	}
	return out
}

// scoreGridPoint scores one location against the category's relevant
// lines. The scale matches city benefit scores: 50 is neutral.
func scoreGridPoint(lat, lon float64, simplified []SimplifiedLine, category scoring.Category, cfg scoring.Config) (float64, int) {
	total := 0.0
	count := 0
	for _, ln := range simplified {
		if !scoring.RelevantFor(ln.Planet, ln.Angle, category) {
			continue
		}
		dist, ok := ln.Poly.FastDistance(lat, lon, cfg.MaxDistanceKm)
		if !ok {
			continue
		}
		benefit := scoring.RatingToBenefit(ln.Rating) * cfg.Apply(dist)
		if ln.Aspect != nil {
			benefit *= ln.Aspect.BenefitMultiplier()
		}
		total += benefit
		count++
	}
	score := 50.0 + total*10.5
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return score, count
}

// generateGrid lays out a global grid at the given resolution.
func generateGrid(resolutionDeg float64) []GridPoint {
	var points []GridPoint
	for lat := gridLatMin; lat <= gridLatMax; lat += resolutionDeg {
		for lon := -180.0; lon < 180.0; lon += resolutionDeg {
			points = append(points, GridPoint{Lat: lat, Lon: lon})
		}
	}
	return points
}

// generateZoneGrid lays out points covering each zone at the given
// resolution, deduplicating overlap between neighboring zones.
func generateZoneGrid(zones []HotZone, resolutionDeg, dedupDeg float64) []GridPoint {
	var points []GridPoint
	for _, z := range zones {
		for lat := z.Lat - z.RadiusDeg; lat <= z.Lat+z.RadiusDeg; lat += resolutionDeg {
			if lat < -90 || lat > 90 {
				continue
			}
			for lon := z.Lon - z.RadiusDeg; lon <= z.Lon+z.RadiusDeg; lon += resolutionDeg {
				normLon := lon
				for normLon >= 180 {
					normLon -= 360
				}
				for normLon < -180 {
					normLon += 360
				}
				points = append(points, GridPoint{Lat: lat, Lon: normLon})
			}
		}
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Lat != points[j].Lat {
			return points[i].Lat < points[j].Lat
		}
		return points[i].Lon < points[j].Lon
	})
	deduped := points[:0]
	for _, p := range points {
		if len(deduped) > 0 {
			prev := deduped[len(deduped)-1]
			if math.Abs(p.Lat-prev.Lat) < dedupDeg && math.Abs(p.Lon-prev.Lon) < dedupDeg {
				continue
			}
		}
		deduped = append(deduped, p)
	}
	return deduped
}

// identifyHotZones picks the zones whose score reaches the top
// percentile among points that saw at least one influence.
func identifyHotZones(points []GridPoint, percentile float64) []HotZone {
	var scores []float64
	for _, p := range points {
		if p.InfluenceCount > 0 {
			scores = append(scores, p.Score)
		}
	}
	if len(scores) == 0 {
		return nil
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	idx := int(math.Ceil(float64(len(scores)) * percentile))
	if idx >= len(scores) {
		idx = len(scores) - 1
	}
	threshold := scores[idx]

	var zones []HotZone
	for _, p := range points {
		if p.InfluenceCount > 0 && p.Score >= threshold {
			zones = append(zones, HotZone{Lat: p.Lat, Lon: p.Lon, RadiusDeg: hotZoneRadiusDeg})
		}
	}
	return zones
}

// scoreGrid fills in scores for every point, concurrently on the pool.
// Output order equals input order.
func (wp *WorkerPool) scoreGrid(ctx context.Context, points []GridPoint, simplified []SimplifiedLine, category scoring.Category, cfg scoring.Config) ([]GridPoint, error) {
	jobs := make(chan int, wp.workers*2)
	out := make([]GridPoint, len(points))
	copy(out, points)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				score, count := scoreGridPoint(out[idx].Lat, out[idx].Lon, simplified, category, cfg)
				out[idx].Score = score
				out[idx].InfluenceCount = count
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range points {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScoutGrid runs the three-level hierarchical grid scout for one
// category: a coarse global pass, a regional pass over its hot zones,
// and a fine pass over the regional hot zones. Each level returns early
// when no zone stands out.
func (wp *WorkerPool) ScoutGrid(ctx context.Context, scoutLines []Line, category scoring.Category, cfg scoring.Config, report ProgressFunc) (*GridResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	emit := func(p Progress) {
		if report != nil {
			report(p)
		}
	}
	emit(Progress{Percent: 5, Phase: PhaseInitializing, Detail: "Preparing data..."})
	simplified := SimplifyLines(scoutLines, cfg)
	emit(Progress{Percent: 8, Phase: PhaseInitializing, Detail: "Spatial index ready..."})

	coarse, err := wp.scoreGrid(ctx, generateGrid(coarseResolutionDeg), simplified, category, cfg)
	if err != nil {
		return nil, err
	}
	emit(Progress{Percent: 35, Phase: PhaseComputing, Detail: "Coarse scan complete..."})

	hotZones := identifyHotZones(coarse, coarsePercentile)
	if len(hotZones) == 0 {
		emit(Progress{Percent: 95, Phase: PhaseAggregating, Detail: "Finalizing..."})
		return &GridResult{Points: coarse}, nil
	}

	regional, err := wp.scoreGrid(ctx, generateZoneGrid(hotZones, regionalResolutionDeg, regionalDedupDeg), simplified, category, cfg)
	if err != nil {
		return nil, err
	}
	emit(Progress{Percent: 65, Phase: PhaseComputing, Detail: "Regional scan complete..."})

	topZones := identifyHotZones(regional, refinePercentile)
	if len(topZones) == 0 {
		emit(Progress{Percent: 95, Phase: PhaseAggregating, Detail: "Finalizing..."})
		return &GridResult{Points: regional, HotZones: hotZones}, nil
	}

	fine, err := wp.scoreGrid(ctx, generateZoneGrid(topZones, fineResolutionDeg, fineDedupDeg), simplified, category, cfg)
	if err != nil {
		return nil, err
	}
	emit(Progress{Percent: 85, Phase: PhaseAggregating, Detail: "Ranking locations..."})
	emit(Progress{Percent: 95, Phase: PhaseAggregating, Detail: "Finalizing..."})
	return &GridResult{Points: fine, HotZones: topZones}, nil
}

package scout

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/astro/astrogo/internal/scoring"
)

// Progress phases, reported in monotonic order.
const (
	PhaseInitializing = "initializing"
	PhaseComputing    = "computing"
	PhaseAggregating  = "aggregating"
)

// Progress is one progress report from a batch scout.
type Progress struct {
	Percent int    `json:"percent"`
	Phase   string `json:"phase"`
	Detail  string `json:"detail"`
}

// ProgressFunc receives progress reports. It must not block for long; a
// nil func disables reporting.
type ProgressFunc func(Progress)

// influenceJob is a unit of work for the worker pool.
type influenceJob struct {
	index int
	city  City
}

// influenceResult carries a scored city back with its input position so
// output ordering never depends on worker scheduling.
type influenceResult struct {
	index int
	set   scoring.CityInfluences
}

// WorkerPool matches cities against lines on a fixed number of
// goroutines.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a pool. Workers <= 0 uses the machine's CPU
// count.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{workers: workers, logger: logger}
}

// Workers reports the pool size.
func (wp *WorkerPool) Workers() int { return wp.workers }

// InfluenceSets computes the influence set of every city concurrently.
// Results are index-addressed: the output order equals the input order
// regardless of worker count. Progress covers the 10-80 percent band in
// steps of roughly five percent of cities.
func (wp *WorkerPool) InfluenceSets(ctx context.Context, cities []City, scoutLines []Line, cfg scoring.Config, report ProgressFunc) ([]scoring.CityInfluences, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cities) == 0 {
		return nil, nil
	}

	jobs := make(chan influenceJob, wp.workers*2)
	results := make(chan influenceResult, wp.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res := influenceResult{
					index: job.index,
					set:   Influences(job.city, scoutLines, cfg),
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, city := range cities {
			select {
			case jobs <- influenceJob{index: i, city: city}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	total := len(cities)
	interval := total / 20
	if interval < 1 {
		interval = 1
	}

	sets := make([]scoring.CityInfluences, total)
	done := 0
	for res := range results {
		sets[res.index] = res.set
		done++
		if report != nil && done > 0 && done%interval == 0 {
			percent := 10 + done*70/total
			if percent > 80 {
				percent = 80
			}
			report(Progress{
				Percent: percent,
				Phase:   PhaseComputing,
				Detail:  fmt.Sprintf("Analyzing cities... (%d%%)", done*100/total),
			})
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// RankCities is the full batch pipeline: prepare lines, compute influence
// sets on the pool, rank for the category. Progress runs through the
// three phases with fixed milestones around the computing band.
func (wp *WorkerPool) RankCities(ctx context.Context, cities []City, scoutLines []Line, category scoring.Category, cfg scoring.Config, mode scoring.SortMode, report ProgressFunc) ([]CityRanking, error) {
	emit := func(p Progress) {
		if report != nil {
			report(p)
		}
	}

	emit(Progress{Percent: 5, Phase: PhaseInitializing, Detail: "Preparing data..."})
	emit(Progress{Percent: 8, Phase: PhaseInitializing, Detail: "Spatial index ready..."})

	sets, err := wp.InfluenceSets(ctx, cities, scoutLines, cfg, report)
	if err != nil {
		return nil, err
	}

	emit(Progress{Percent: 85, Phase: PhaseAggregating, Detail: "Ranking locations..."})
	rankings := RankByCategory(sets, category, cfg, mode)
	emit(Progress{Percent: 95, Phase: PhaseAggregating, Detail: "Finalizing..."})

	if wp.logger != nil {
		wp.logger.Debug("scout batch complete",
			"cities", len(cities),
			"lines", len(scoutLines),
			"ranked", len(rankings),
			"category", category.String(),
		)
	}
	return rankings, nil
}

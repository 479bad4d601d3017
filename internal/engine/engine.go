package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/lines"
)

// ErrSuperseded reports that a newer request replaced this one before
// it finished; its result was discarded.
var ErrSuperseded = errors.New("engine: request superseded")

// Config selects backends.
type Config struct {
	// Workers sizes the accelerated backend; <= 0 means the CPU count.
	Workers int
	// ForceInterpreted skips the accelerated backend even when the
	// probe passes.
	ForceInterpreted bool
}

// Engine dispatches chart computations to the best available backend
// and tracks request freshness so superseded results are dropped.
type Engine struct {
	preferred Backend
	fallback  Backend
	logger    *slog.Logger

	latest atomic.Int64
}

// New probes the accelerated backend and wires the fallback chain.
func New(cfg Config, logger *slog.Logger) *Engine {
	e := &Engine{fallback: Interpreted{}, logger: logger}

	accelerated := NewAccelerated(cfg.Workers)
	if cfg.ForceInterpreted {
		e.preferred = e.fallback
	} else if err := accelerated.Probe(); err != nil {
		logger.Warn("accelerated backend unavailable, using interpreted",
			"workers", cfg.Workers, "err", err)
		e.preferred = e.fallback
	} else {
		e.preferred = accelerated
	}
	logger.Info("engine ready", "backend", e.preferred.Name())
	return e
}

// Backend reports the active backend's name.
func (e *Engine) Backend() string { return e.preferred.Name() }

// StartRequest registers a new request and invalidates all earlier
// ones. A computation whose id is no longer current returns
// ErrSuperseded instead of its result.
func (e *Engine) StartRequest() int64 { return e.latest.Add(1) }

func (e *Engine) stale(id int64) bool { return id != e.latest.Load() }

// ComputeLines builds the full line set. Only backend unavailability
// falls back to the interpreted path; any other error propagates.
func (e *Engine) ComputeLines(ctx context.Context, id int64, inst ephemeris.Instant, longitudeStep float64) (*lines.Set, error) {
	set, err := e.preferred.ComputeLines(ctx, inst, longitudeStep)
	if errors.Is(err, ErrBackendUnavailable) {
		e.logger.Warn("backend refused request, falling back",
			"backend", e.preferred.Name())
		set, err = e.fallback.ComputeLines(ctx, inst, longitudeStep)
	}
	if err != nil {
		return nil, err
	}
	if e.stale(id) {
		return nil, ErrSuperseded
	}
	return set, nil
}

// ComputeLocalSpace builds local-space lines from the observer's
// birthplace. The work is light enough that no backend split exists.
func (e *Engine) ComputeLocalSpace(ctx context.Context, id int64, inst ephemeris.Instant, birthLat, birthLng, maxKm, stepKm float64) ([]lines.LocalSpaceLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := lines.ComputeAllLocalSpace(inst, birthLat, birthLng, maxKm, stepKm)
	if err != nil {
		return nil, err
	}
	if e.stale(id) {
		return nil, ErrSuperseded
	}
	return out, nil
}

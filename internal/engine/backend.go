// Package engine runs chart computations behind a backend abstraction:
// an accelerated concurrent backend when the host can use it, and an
// interpreted sequential backend that is always available. Both produce
// identical output for the same instant.
package engine

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/lines"
)

// ErrBackendUnavailable reports that a backend cannot run on this host.
// It is the only error that triggers a fallback; computation errors
// propagate unchanged.
var ErrBackendUnavailable = errors.New("engine: backend unavailable")

// Backend computes the full line set for one chart moment.
type Backend interface {
	Name() string
	ComputeLines(ctx context.Context, inst ephemeris.Instant, longitudeStep float64) (*lines.Set, error)
}

// Interpreted is the sequential reference backend.
type Interpreted struct{}

func (Interpreted) Name() string { return "interpreted" }

func (Interpreted) ComputeLines(ctx context.Context, inst ephemeris.Instant, longitudeStep float64) (*lines.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return lines.ComputeAll(inst, longitudeStep)
}

// Accelerated computes bodies concurrently on a fixed worker count.
// Assembly is index-addressed, so its output matches Interpreted
// byte for byte regardless of worker count.
type Accelerated struct {
	workers int
}

// NewAccelerated builds the concurrent backend. Workers <= 0 uses the
// machine's CPU count.
func NewAccelerated(workers int) *Accelerated {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Accelerated{workers: workers}
}

func (a *Accelerated) Name() string { return "accelerated" }

// Probe reports whether this host gains anything from the backend.
func (a *Accelerated) Probe() error {
	if a.workers < 2 {
		return ErrBackendUnavailable
	}
	return nil
}

type planetOutput struct {
	pos     ephemeris.Position
	result  lines.PlanetResult
	aspects []lines.AspectLine
	err     error
}

func (a *Accelerated) ComputeLines(ctx context.Context, inst ephemeris.Instant, longitudeStep float64) (*lines.Set, error) {
	if err := a.Probe(); err != nil {
		return nil, err
	}
	if longitudeStep <= 0 {
		longitudeStep = lines.DefaultLongitudeStep
	}

	planets := ephemeris.Planets()
	outputs := make([]planetOutput, len(planets))

	jobs := make(chan int, a.workers*2)
	var wg sync.WaitGroup
	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				pos, err := ephemeris.PositionAt(planets[idx], inst)
				if err != nil {
					outputs[idx].err = err
					continue
				}
				outputs[idx] = planetOutput{
					pos:     pos,
					result:  lines.ComputePlanet(pos, inst.GMST, longitudeStep),
					aspects: lines.ComputeAspects(pos, inst.GMST, inst.TrueObliquity, longitudeStep),
				}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range planets {
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

	set := &lines.Set{JulianDate: inst.JDUTC, GMST: inst.GMST}
	for i := range outputs {
		if outputs[i].err != nil {
			return nil, outputs[i].err
		}
		pr := outputs[i].result
		set.Positions = append(set.Positions, outputs[i].pos)
		set.Planetary = append(set.Planetary, pr.MC, pr.IC, pr.Asc, pr.Dsc)
		set.Zeniths = append(set.Zeniths, pr.Zenith)
		set.Aspects = append(set.Aspects, outputs[i].aspects...)
	}
	set.Parans = lines.ComputeParans(set.Positions, inst.GMST)
	return set, nil
}

package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/astro/astrogo/internal/astrotime"
	"github.com/astro/astrogo/internal/ephemeris"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testInstant(t *testing.T) ephemeris.Instant {
	t.Helper()
	jd, err := astrotime.ToJulianDate(1990, 6, 15, 14, 30, 0)
	if err != nil {
		t.Fatalf("julian date: %v", err)
	}
	return ephemeris.NewInstant(jd)
}

func TestBackendsAgree(t *testing.T) {
	inst := testInstant(t)
	ctx := context.Background()

	serial, err := Interpreted{}.ComputeLines(ctx, inst, 1.0)
	if err != nil {
		t.Fatalf("interpreted: %v", err)
	}
	for _, workers := range []int{2, 8} {
		parallel, err := NewAccelerated(workers).ComputeLines(ctx, inst, 1.0)
		if err != nil {
			t.Fatalf("accelerated(%d): %v", workers, err)
		}
		if !reflect.DeepEqual(serial, parallel) {
			t.Fatalf("accelerated(%d) output differs from interpreted", workers)
		}
	}
}

func TestAcceleratedProbe(t *testing.T) {
	if err := NewAccelerated(1).Probe(); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("single-worker probe = %v, want ErrBackendUnavailable", err)
	}
	if err := NewAccelerated(2).Probe(); err != nil {
		t.Errorf("two-worker probe = %v, want nil", err)
	}
	if _, err := NewAccelerated(1).ComputeLines(context.Background(), testInstant(t), 1.0); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("compute on unavailable backend = %v, want ErrBackendUnavailable", err)
	}
}

func TestEngineFallback(t *testing.T) {
	e := New(Config{Workers: 1}, testLogger())
	if e.Backend() != "interpreted" {
		t.Errorf("backend = %s, want interpreted when the probe fails", e.Backend())
	}

	forced := New(Config{Workers: 8, ForceInterpreted: true}, testLogger())
	if forced.Backend() != "interpreted" {
		t.Errorf("backend = %s, want interpreted when forced", forced.Backend())
	}

	fast := New(Config{Workers: 4}, testLogger())
	if fast.Backend() != "accelerated" {
		t.Errorf("backend = %s, want accelerated", fast.Backend())
	}

	id := e.StartRequest()
	set, err := e.ComputeLines(context.Background(), id, testInstant(t), 1.0)
	if err != nil {
		t.Fatalf("fallback compute: %v", err)
	}
	if len(set.Planetary) == 0 {
		t.Fatal("fallback compute returned no lines")
	}
}

func TestEngineSupersededRequest(t *testing.T) {
	e := New(Config{Workers: 4}, testLogger())
	inst := testInstant(t)

	stale := e.StartRequest()
	e.StartRequest()

	if _, err := e.ComputeLines(context.Background(), stale, inst, 1.0); !errors.Is(err, ErrSuperseded) {
		t.Errorf("stale lines request = %v, want ErrSuperseded", err)
	}
	if _, err := e.ComputeLocalSpace(context.Background(), stale, inst, 40.7, -74.0, 0, 0); !errors.Is(err, ErrSuperseded) {
		t.Errorf("stale local-space request = %v, want ErrSuperseded", err)
	}

	current := e.StartRequest()
	out, err := e.ComputeLocalSpace(context.Background(), current, inst, 40.7, -74.0, 0, 0)
	if err != nil {
		t.Fatalf("current request: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("no local-space lines")
	}
}

func TestEngineCancellation(t *testing.T) {
	e := New(Config{Workers: 4}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.ComputeLines(ctx, e.StartRequest(), testInstant(t), 1.0); err == nil {
		t.Fatal("expected error after cancellation")
	}
}

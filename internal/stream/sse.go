// Package stream implements Server-Sent Events (SSE) streaming for
// scout runs. Clients connect via GET /api/v1/stream/scout and receive
// progress events while the city batch computes, then the final
// rankings.
//
// SSE message format:
//
//	data: {"type":"progress","percent":42,"phase":"computing","detail":"..."}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","cities":12000,"dataset_age_seconds":1800}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to
// prevent proxy timeouts.
package stream

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/astro/astrogo/internal/astrotime"
	"github.com/astro/astrogo/internal/cities"
	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/httputil"
	"github.com/astro/astrogo/internal/lines"
	"github.com/astro/astrogo/internal/metrics"
	"github.com/astro/astrogo/internal/scoring"
	"github.com/astro/astrogo/internal/scout"
)

// Config holds streaming configuration loaded from environment
// variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Trust X-Forwarded-For headers.

	// The SSE endpoint authorizes via query token because EventSource
	// cannot set request headers.
	AuthEnabled bool
	AuthToken   string
}

// LineSource computes or retrieves the line set for a chart moment.
type LineSource func(ctx context.Context, inst ephemeris.Instant) (*lines.Set, error)

// Handler manages SSE scout connections.
type Handler struct {
	pool    *scout.WorkerPool
	store   *cities.Store
	source  LineSource
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(pool *scout.WorkerPool, store *cities.Store, source LineSource, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		pool:    pool,
		store:   store,
		source:  source,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// julianDate converts a civil UTC time to a julian date.
func julianDate(t time.Time) (float64, error) {
	t = t.UTC()
	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
	return astrotime.ToJulianDate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), sec)
}

// HandleScout serves the SSE scout stream.
// GET /api/v1/stream/scout?t=1990-06-15T14:30:00Z&category=love&preset=balanced&sort=benefit
func (h *Handler) HandleScout(w http.ResponseWriter, r *http.Request) {
	if h.config.AuthEnabled {
		token := r.URL.Query().Get("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.config.AuthToken)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
	}

	birth, err := time.Parse(time.RFC3339, r.URL.Query().Get("t"))
	if err != nil {
		badRequest(w, "invalid t parameter, must be RFC3339")
		return
	}

	category, err := scoring.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		badRequest(w, "invalid category parameter")
		return
	}

	preset := r.URL.Query().Get("preset")
	if preset == "" {
		preset = "balanced"
	}
	mkConfig, ok := scoring.Presets[preset]
	if !ok {
		badRequest(w, "unknown preset")
		return
	}
	cfg := mkConfig()

	mode := scoring.BenefitFirst
	if v := r.URL.Query().Get("sort"); v != "" {
		mode, err = scoring.ParseSortMode(v)
		if err != nil {
			badRequest(w, "invalid sort parameter")
			return
		}
	}

	ds := h.store.Get()
	if ds == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "city dataset not loaded"})
		return
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"category", category.String(),
		"preset", preset,
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's default WriteTimeout for this connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:       w,
		flusher: flusher,
		rc:      rc,
		ip:      ip,
		logger:  h.logger,
	}

	// Jittered retry interval (3-7s) to spread reconnection storms
	// after a restart.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	meta := metadataMessage{
		Type:       "metadata",
		Cities:     len(ds.Cities),
		DatasetAge: int(time.Since(ds.LoadedAt).Seconds()),
	}
	if err := c.sendJSON(meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	ctx := r.Context()

	jd, err := julianDate(birth)
	if err != nil {
		c.sendJSON(errorMessage{Type: "error", Error: err.Error()})
		return
	}
	inst := ephemeris.NewInstant(jd)

	set, err := h.source(ctx, inst)
	if err != nil {
		metrics.IncStreamErrors("compute_error")
		c.sendJSON(errorMessage{Type: "error", Error: "chart computation failed"})
		return
	}
	scoutLines := scout.PrepareLines(set, cfg)

	progressCh := make(chan scout.Progress, 16)
	type rankOutcome struct {
		rankings []scout.CityRanking
		err      error
	}
	resultCh := make(chan rankOutcome, 1)

	go func() {
		rankings, err := h.pool.RankCities(ctx, ds.Cities, scoutLines, category, cfg, mode, func(p scout.Progress) {
			select {
			case progressCh <- p:
			case <-ctx.Done():
			}
		})
		resultCh <- rankOutcome{rankings: rankings, err: err}
	}()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case p := <-progressCh:
			if err := c.sendJSON(progressMessage{Type: "progress", Percent: p.Percent, Phase: p.Phase, Detail: p.Detail}); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case res := <-resultCh:
			// Flush progress that raced ahead of the result.
			for drained := false; !drained; {
				select {
				case p := <-progressCh:
					c.sendJSON(progressMessage{Type: "progress", Percent: p.Percent, Phase: p.Phase, Detail: p.Detail})
				default:
					drained = true
				}
			}
			if res.err != nil {
				metrics.IncStreamErrors("compute_error")
				c.sendJSON(errorMessage{Type: "error", Error: "scout failed"})
				return
			}
			metrics.IncScoutRuns(category.String())
			metrics.AddScoutCitiesRanked(len(ds.Cities))
			if err := c.sendJSON(resultMessage{Type: "result", Category: category.String(), Rankings: res.rankings}); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error (result)", "remote_ip", ip, "error", err)
			}
			return

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// SSE message payload types.

type metadataMessage struct {
	Type       string `json:"type"`
	Cities     int    `json:"cities"`
	DatasetAge int    `json:"dataset_age_seconds"`
}

type progressMessage struct {
	Type    string `json:"type"`
	Percent int    `json:"percent"`
	Phase   string `json:"phase"`
	Detail  string `json:"detail"`
}

type resultMessage struct {
	Type     string              `json:"type"`
	Category string              `json:"category"`
	Rankings []scout.CityRanking `json:"rankings"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

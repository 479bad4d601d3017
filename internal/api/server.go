// Package api exposes the chart and ranking engine over HTTP. All
// endpoints speak JSON; the SSE scout stream lives in the stream
// package and is mounted here.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/astro/astrogo/internal/astrotime"
	"github.com/astro/astrogo/internal/auth"
	"github.com/astro/astrogo/internal/cache"
	"github.com/astro/astrogo/internal/cities"
	"github.com/astro/astrogo/internal/engine"
	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/health"
	"github.com/astro/astrogo/internal/lines"
	"github.com/astro/astrogo/internal/metrics"
	"github.com/astro/astrogo/internal/scoring"
	"github.com/astro/astrogo/internal/scout"
	"github.com/astro/astrogo/internal/stream"
)

// defaultLongitudeStep is the sampling step for line polylines when a
// request does not specify one.
const defaultLongitudeStep = 0.5

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	eng    *engine.Engine
	pool   *scout.WorkerPool
	store  *cities.Store
	charts *cache.Tiered
}

// NewServer creates a configured HTTP server. The SSE scout stream is
// constructed here so it resolves line sets through the same cache as
// the JSON endpoints.
func NewServer(addr string, eng *engine.Engine, pool *scout.WorkerPool, store *cities.Store, charts *cache.Tiered, streamCfg stream.Config, authCfg auth.Config, logger *slog.Logger) *Server {
	s := &Server{
		logger: logger,
		eng:    eng,
		pool:   pool,
		store:  store,
		charts: charts,
	}
	scoutStream := stream.NewHandler(pool, store, func(ctx context.Context, inst ephemeris.Instant) (*lines.Set, error) {
		return s.LineSet(ctx, inst, defaultLongitudeStep)
	}, streamCfg, logger)

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool { return store.Get() != nil }))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/meta", s.handleMeta)
	mux.HandleFunc("GET /api/v1/cities/metadata", s.handleCitiesMetadata)
	mux.HandleFunc("GET /api/v1/cache/stats", s.handleCacheStats)
	mux.HandleFunc("POST /api/v1/lines", s.handleLines)
	mux.HandleFunc("POST /api/v1/localspace", s.handleLocalSpace)
	mux.HandleFunc("POST /api/v1/rank", s.handleRank)
	mux.HandleFunc("POST /api/v1/rank/overall", s.handleRankOverall)
	mux.HandleFunc("POST /api/v1/rank/countries", s.handleRankCountries)
	mux.HandleFunc("POST /api/v1/scout/grid", s.handleScoutGrid)
	mux.HandleFunc("GET /api/v1/stream/scout", scoutStream.HandleScout)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// The SSE handler clears this per connection via
		// http.ResponseController.
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseBirthTime converts an RFC3339 timestamp to a chart instant.
func parseBirthTime(s string) (ephemeris.Instant, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ephemeris.Instant{}, err
	}
	t = t.UTC()
	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
	jd, err := astrotime.ToJulianDate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), sec)
	if err != nil {
		return ephemeris.Instant{}, err
	}
	return ephemeris.NewInstant(jd), nil
}

// decodeBody decodes a JSON request body, writing 422 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "unprocessable request body: "+err.Error())
		return false
	}
	return true
}

// scoringConfig resolves the effective scoring config from a preset
// name and an optional explicit override.
func scoringConfig(preset string, override *scoring.Config) (scoring.Config, error) {
	if override != nil {
		if err := override.Validate(); err != nil {
			return scoring.Config{}, err
		}
		return *override, nil
	}
	if preset == "" {
		preset = "balanced"
	}
	mk, ok := scoring.Presets[preset]
	if !ok {
		return scoring.Config{}, errors.New("unknown preset " + strconv.Quote(preset))
	}
	return mk(), nil
}

// lineSet resolves a line set through the tiered cache, computing on
// miss. LineSource for the SSE stream wraps this same method.
func (s *Server) LineSet(ctx context.Context, inst ephemeris.Instant, step float64) (*lines.Set, error) {
	if step <= 0 {
		step = defaultLongitudeStep
	}
	if set, tier := s.charts.Get(ctx, inst.JDUTC, step); set != nil {
		s.logger.Debug("chart cache hit", "tier", tier, "jd", inst.JDUTC, "step", step)
		return set, nil
	}

	id := s.eng.StartRequest()
	start := time.Now()
	set, err := s.eng.ComputeLines(ctx, id, inst, step)
	if err != nil {
		return nil, err
	}
	metrics.IncChartComputations(s.eng.Backend())
	metrics.ObserveChartDuration(s.eng.Backend(), time.Since(start))
	s.charts.Put(ctx, inst.JDUTC, step, set)
	return set, nil
}

func (s *Server) computeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSuperseded):
		writeError(w, http.StatusConflict, "request superseded")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		s.logger.Error("chart computation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "computation failed")
	}
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	meta := map[string]any{
		"backend": s.eng.Backend(),
		"workers": s.pool.Workers(),
		"cities":  s.store.Count(),
	}
	if ds := s.store.Get(); ds != nil {
		meta["dataset_source"] = ds.Source
		meta["dataset_age_seconds"] = int(time.Since(ds.LoadedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleCitiesMetadata(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "city dataset not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(ds.Cities),
		"source":    ds.Source,
		"loaded_at": ds.LoadedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.charts.Memory.Stats())
}

type chartRequest struct {
	T    string  `json:"t"`
	Step float64 `json:"step,omitempty"`
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inst, err := parseBirthTime(req.T)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid t: "+err.Error())
		return
	}
	set, err := s.LineSet(r.Context(), inst, req.Step)
	if err != nil {
		s.computeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

type localSpaceRequest struct {
	T      string  `json:"t"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lon"`
	MaxKm  float64 `json:"maxKm,omitempty"`
	StepKm float64 `json:"stepKm,omitempty"`
}

func (s *Server) handleLocalSpace(w http.ResponseWriter, r *http.Request) {
	var req localSpaceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inst, err := parseBirthTime(req.T)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid t: "+err.Error())
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	id := s.eng.StartRequest()
	rays, err := s.eng.ComputeLocalSpace(r.Context(), id, inst, req.Lat, req.Lng, req.MaxKm, req.StepKm)
	if err != nil {
		s.computeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"localSpaceLines": rays})
}

type rankRequest struct {
	T        string          `json:"t"`
	Category string          `json:"category"`
	Preset   string          `json:"preset,omitempty"`
	Sort     string          `json:"sort,omitempty"`
	Config   *scoring.Config `json:"config,omitempty"`
}

// rankInputs resolves the shared inputs of the ranking endpoints.
func (s *Server) rankInputs(w http.ResponseWriter, r *http.Request, req rankRequest) (*cities.Dataset, []scout.Line, scoring.Config, bool) {
	inst, err := parseBirthTime(req.T)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid t: "+err.Error())
		return nil, nil, scoring.Config{}, false
	}
	cfg, err := scoringConfig(req.Preset, req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, scoring.Config{}, false
	}
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "city dataset not loaded")
		return nil, nil, scoring.Config{}, false
	}
	set, err := s.LineSet(r.Context(), inst, defaultLongitudeStep)
	if err != nil {
		s.computeError(w, err)
		return nil, nil, scoring.Config{}, false
	}
	return ds, scout.PrepareLines(set, cfg), cfg, true
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	category, err := scoring.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	mode := scoring.BenefitFirst
	if req.Sort != "" {
		mode, err = scoring.ParseSortMode(req.Sort)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid sort")
			return
		}
	}
	ds, scoutLines, cfg, ok := s.rankInputs(w, r, req)
	if !ok {
		return
	}

	rankings, err := s.pool.RankCities(r.Context(), ds.Cities, scoutLines, category, cfg, mode, nil)
	if err != nil {
		s.computeError(w, err)
		return
	}
	metrics.IncScoutRuns(category.String())
	metrics.AddScoutCitiesRanked(len(ds.Cities))
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category.String(),
		"rankings": rankings,
	})
}

func (s *Server) handleRankOverall(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ds, scoutLines, cfg, ok := s.rankInputs(w, r, req)
	if !ok {
		return
	}

	sets, err := s.pool.InfluenceSets(r.Context(), ds.Cities, scoutLines, cfg, nil)
	if err != nil {
		s.computeError(w, err)
		return
	}
	metrics.IncScoutRuns("overall")
	metrics.AddScoutCitiesRanked(len(ds.Cities))
	writeJSON(w, http.StatusOK, map[string]any{
		"rankings": scout.RankOverall(sets, cfg),
	})
}

func (s *Server) handleRankCountries(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	category, err := scoring.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	mode := scoring.BenefitFirst
	if req.Sort != "" {
		mode, err = scoring.ParseSortMode(req.Sort)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid sort")
			return
		}
	}
	ds, scoutLines, cfg, ok := s.rankInputs(w, r, req)
	if !ok {
		return
	}

	rankings, err := s.pool.RankCities(r.Context(), ds.Cities, scoutLines, category, cfg, mode, nil)
	if err != nil {
		s.computeError(w, err)
		return
	}
	metrics.IncScoutRuns(category.String())
	metrics.AddScoutCitiesRanked(len(ds.Cities))
	writeJSON(w, http.StatusOK, map[string]any{
		"category":  category.String(),
		"countries": scout.GroupCountries(rankings),
	})
}

func (s *Server) handleScoutGrid(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	category, err := scoring.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	inst, err := parseBirthTime(req.T)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid t: "+err.Error())
		return
	}
	cfg, err := scoringConfig(req.Preset, req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	set, err := s.LineSet(r.Context(), inst, defaultLongitudeStep)
	if err != nil {
		s.computeError(w, err)
		return
	}

	result, err := s.pool.ScoutGrid(r.Context(), scout.PrepareLines(set, cfg), category, cfg, nil)
	if err != nil {
		s.computeError(w, err)
		return
	}
	metrics.IncScoutRuns("grid")
	writeJSON(w, http.StatusOK, result)
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE streaming keeps working
// through the middleware chain.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}

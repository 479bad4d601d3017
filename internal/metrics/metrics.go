package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astro_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	chartComputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_chart_computations_total",
			Help: "Total chart line computations by backend.",
		},
		[]string{"backend"},
	)

	chartComputeSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astro_chart_compute_seconds",
			Help:    "Chart line computation duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	scoutRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_scout_runs_total",
			Help: "Total scout runs by kind.",
		},
		[]string{"kind"},
	)

	scoutCitiesRankedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astro_scout_cities_ranked_total",
			Help: "Total cities scored across all scout runs.",
		},
	)

	citiesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astro_cities_loaded",
			Help: "Number of cities in the active dataset.",
		},
	)

	cityDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astro_city_dataset_age_seconds",
			Help: "Age of the active city dataset in seconds.",
		},
	)

	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_cache_hits_total",
			Help: "Chart cache hits by tier.",
		},
		[]string{"tier"},
	)

	cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_cache_misses_total",
			Help: "Chart cache misses by tier.",
		},
		[]string{"tier"},
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astro_cache_entries",
			Help: "Entries in the in-memory chart cache.",
		},
	)

	cacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astro_cache_evictions_total",
			Help: "Chart cache entries evicted.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_stream_connections_total",
			Help: "SSE stream connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astro_streams_active",
			Help: "Currently open SSE streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astro_stream_messages_total",
			Help: "SSE messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astro_stream_bytes_total",
			Help: "SSE bytes sent.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_stream_errors_total",
			Help: "SSE stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		chartComputationsTotal,
		chartComputeSeconds,
		scoutRunsTotal,
		scoutCitiesRankedTotal,
		citiesLoaded,
		cityDatasetAgeSeconds,
		cacheHitsTotal,
		cacheMissesTotal,
		cacheEntries,
		cacheEvictionsTotal,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncChartComputations records one chart computation on a backend.
func IncChartComputations(backend string) {
	chartComputationsTotal.WithLabelValues(backend).Inc()
}

// ObserveChartDuration records the duration of one chart computation.
func ObserveChartDuration(backend string, d time.Duration) {
	chartComputeSeconds.WithLabelValues(backend).Observe(d.Seconds())
}

// IncScoutRuns records one scout run of the given kind (a category
// name, "overall", "countries" or "grid").
func IncScoutRuns(kind string) {
	scoutRunsTotal.WithLabelValues(kind).Inc()
}

// AddScoutCitiesRanked adds to the total of cities scored.
func AddScoutCitiesRanked(n int) {
	scoutCitiesRankedTotal.Add(float64(n))
}

// SetCitiesLoaded publishes the active dataset size.
func SetCitiesLoaded(n int) {
	citiesLoaded.Set(float64(n))
}

// SetCityDatasetAge publishes the active dataset age.
func SetCityDatasetAge(seconds float64) {
	cityDatasetAgeSeconds.Set(seconds)
}

// IncCacheHits records a chart cache hit on a tier ("memory" or "redis").
func IncCacheHits(tier string) {
	cacheHitsTotal.WithLabelValues(tier).Inc()
}

// IncCacheMisses records a chart cache miss on a tier.
func IncCacheMisses(tier string) {
	cacheMissesTotal.WithLabelValues(tier).Inc()
}

// SetCacheEntries publishes the in-memory chart cache size.
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// AddCacheEvictions records evicted chart cache entries.
func AddCacheEvictions(n int) {
	cacheEvictionsTotal.Add(float64(n))
}

// IncStreamConnections records a stream lifecycle event ("connect" or
// "disconnect").
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive increments the active stream gauge.
func IncStreamsActive() {
	streamsActive.Inc()
}

// DecStreamsActive decrements the active stream gauge.
func DecStreamsActive() {
	streamsActive.Dec()
}

// IncStreamMessages records one SSE message sent.
func IncStreamMessages() {
	streamMessagesTotal.Inc()
}

// AddStreamBytes records SSE payload bytes sent.
func AddStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

// IncStreamErrors records a stream error by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// normalizeRoute collapses unknown paths into a single label so bots and
// scanners cannot inflate metric cardinality.
func normalizeRoute(path string) string {
	switch path {
	case "/healthz", "/readyz", "/metrics",
		"/api/v1/meta", "/api/v1/lines", "/api/v1/localspace",
		"/api/v1/rank", "/api/v1/rank/overall", "/api/v1/rank/countries",
		"/api/v1/scout/grid", "/api/v1/stream/scout",
		"/api/v1/cities/metadata", "/api/v1/cache/stats":
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE responses stream through.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}

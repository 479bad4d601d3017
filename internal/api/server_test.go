package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/astro/astrogo/internal/auth"
	"github.com/astro/astrogo/internal/cache"
	"github.com/astro/astrogo/internal/cities"
	"github.com/astro/astrogo/internal/engine"
	"github.com/astro/astrogo/internal/scout"
	"github.com/astro/astrogo/internal/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testStore() *cities.Store {
	store := cities.NewStore()
	store.Set(&cities.Dataset{
		Source:   "test",
		LoadedAt: time.Now(),
		Cities: []scout.City{
			{Name: "London", Country: "United Kingdom", Lat: 51.5074, Lng: -0.1278},
			{Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522},
			{Name: "Berlin", Country: "Germany", Lat: 52.52, Lng: 13.405},
			{Name: "Tokyo", Country: "Japan", Lat: 35.6762, Lng: 139.6503},
		},
	})
	return store
}

func testServer(t *testing.T, store *cities.Store, authCfg auth.Config) http.Handler {
	t.Helper()
	logger := testLogger()
	eng := engine.New(engine.Config{ForceInterpreted: true}, logger)
	pool := scout.NewWorkerPool(2, logger)
	charts := &cache.Tiered{Memory: cache.NewChartCache(cache.Config{}, logger)}

	streamCfg := stream.Config{MaxConcurrentPerIP: 4, KeepaliveInterval: 30 * time.Second}
	s := NewServer("127.0.0.1:0", eng, pool, store, charts, streamCfg, authCfg, logger)
	return s.HTTPServer().Handler
}

const birthBody = `{"t":"1990-06-15T14:30:00Z"`

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func getJSON(handler http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// TestHealthEndpoints verifies liveness and readiness behavior around
// the city dataset.
func TestHealthEndpoints(t *testing.T) {
	empty := cities.NewStore()
	handler := testServer(t, empty, auth.Config{})

	if w := getJSON(handler, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", w.Code)
	}
	if w := getJSON(handler, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before load status = %d, want 503", w.Code)
	}

	handler = testServer(t, testStore(), auth.Config{})
	if w := getJSON(handler, "/readyz"); w.Code != http.StatusOK {
		t.Errorf("readyz after load status = %d, want 200", w.Code)
	}
}

// TestLinesEndpoint verifies chart computation, caching, and input
// validation.
func TestLinesEndpoint(t *testing.T) {
	handler := testServer(t, testStore(), auth.Config{})

	w := postJSON(handler, "/api/v1/lines", birthBody+`,"step":2.0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var set map[string]any
	if err := json.NewDecoder(w.Body).Decode(&set); err != nil {
		t.Fatal(err)
	}
	planetary, ok := set["planetaryLines"].([]any)
	if !ok || len(planetary) == 0 {
		t.Error("expected non-empty planetaryLines")
	}
	if _, ok := set["paranLines"]; !ok {
		t.Error("expected paranLines field")
	}

	// Identical request should be a cache hit.
	postJSON(handler, "/api/v1/lines", birthBody+`,"step":2.0}`)
	w = getJSON(handler, "/api/v1/cache/stats")
	var stats cache.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Hits == 0 {
		t.Errorf("cache hits = 0, want > 0")
	}

	if w := postJSON(handler, "/api/v1/lines", `{"t":"yesterday"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad t status = %d, want 400", w.Code)
	}
	if w := postJSON(handler, "/api/v1/lines", `not json`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad body status = %d, want 422", w.Code)
	}
	if w := getJSON(handler, "/api/v1/lines"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", w.Code)
	}
}

// TestLocalSpaceEndpoint verifies local-space rays and coordinate
// validation.
func TestLocalSpaceEndpoint(t *testing.T) {
	handler := testServer(t, testStore(), auth.Config{})

	w := postJSON(handler, "/api/v1/localspace", birthBody+`,"lat":40.7128,"lon":-74.006}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	rays, ok := resp["localSpaceLines"].([]any)
	if !ok || len(rays) == 0 {
		t.Error("expected non-empty localSpaceLines")
	}

	if w := postJSON(handler, "/api/v1/localspace", birthBody+`,"lat":91.0,"lon":0.0}`); w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range lat status = %d, want 400", w.Code)
	}
}

// TestRankEndpoint verifies category ranking and config validation.
func TestRankEndpoint(t *testing.T) {
	handler := testServer(t, testStore(), auth.Config{})

	w := postJSON(handler, "/api/v1/rank", birthBody+`,"category":"love"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["category"] != "love" {
		t.Errorf("category = %v, want love", resp["category"])
	}
	if _, ok := resp["rankings"].([]any); !ok {
		t.Error("expected rankings array")
	}

	if w := postJSON(handler, "/api/v1/rank", birthBody+`,"category":"fortune"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad category status = %d, want 400", w.Code)
	}
	if w := postJSON(handler, "/api/v1/rank", birthBody+`,"category":"love","preset":"ultra"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad preset status = %d, want 400", w.Code)
	}

	badConfig := birthBody + `,"category":"love","config":{"kernelType":"gaussian","kernelParameter":180,"maxDistanceKm":-1,"volatilityPenalty":0.3}}`
	if w := postJSON(handler, "/api/v1/rank", badConfig); w.Code != http.StatusBadRequest {
		t.Errorf("bad config status = %d, want 400", w.Code)
	}
}

// TestRankEndpointNoDataset verifies 503 before the catalog loads.
func TestRankEndpointNoDataset(t *testing.T) {
	handler := testServer(t, cities.NewStore(), auth.Config{})

	w := postJSON(handler, "/api/v1/rank", birthBody+`,"category":"love"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

// TestRankOverallEndpoint verifies the cross-category ranking.
func TestRankOverallEndpoint(t *testing.T) {
	handler := testServer(t, testStore(), auth.Config{})

	w := postJSON(handler, "/api/v1/rank/overall", birthBody+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if _, ok := resp["rankings"].([]any); !ok {
		t.Error("expected rankings array")
	}
}

// TestRankCountriesEndpoint verifies the country grouping.
func TestRankCountriesEndpoint(t *testing.T) {
	handler := testServer(t, testStore(), auth.Config{})

	w := postJSON(handler, "/api/v1/rank/countries", birthBody+`,"category":"career"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if _, ok := resp["countries"].([]any); !ok {
		t.Error("expected countries array")
	}
}

// TestScoutGridEndpoint verifies the hierarchical grid response.
func TestScoutGridEndpoint(t *testing.T) {
	handler := testServer(t, testStore(), auth.Config{})

	w := postJSON(handler, "/api/v1/scout/grid", birthBody+`,"category":"career"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	points, ok := resp["points"].([]any)
	if !ok || len(points) == 0 {
		t.Error("expected non-empty points")
	}
}

// TestMetaEndpoint verifies service metadata.
func TestMetaEndpoint(t *testing.T) {
	handler := testServer(t, testStore(), auth.Config{})

	w := getJSON(handler, "/api/v1/meta")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var meta map[string]any
	if err := json.NewDecoder(w.Body).Decode(&meta); err != nil {
		t.Fatal(err)
	}
	if meta["backend"] != "interpreted" {
		t.Errorf("backend = %v, want interpreted", meta["backend"])
	}
	if meta["cities"].(float64) != 4 {
		t.Errorf("cities = %v, want 4", meta["cities"])
	}
}

// TestAuthRequired verifies bearer-token enforcement and exempt paths.
func TestAuthRequired(t *testing.T) {
	handler := testServer(t, testStore(), auth.Config{Enabled: true, Token: "s3cret"})

	if w := getJSON(handler, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", w.Code)
	}

	if w := postJSON(handler, "/api/v1/rank", birthBody+`,"category":"love"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest("POST", "/api/v1/rank", strings.NewReader(birthBody+`,"category":"love"}`))
	req.Header.Set("Authorization", "Bearer s3cret")
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

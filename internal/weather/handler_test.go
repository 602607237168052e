package weather_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklist-app/stocklist/internal/weather"
)

func newUpstream(t *testing.T, calls *atomic.Int64, status int, payload string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func newRouter(t *testing.T, client *weather.Client, cache *weather.Cache) *chi.Mux {
	t.Helper()
	handler := weather.NewHandler(slog.Default(), client, cache, true)
	router := chi.NewRouter()
	router.Route("/api/weather", handler.MountRoutes)
	return router
}

func get(t *testing.T, router *chi.Mux, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestCurrentCachesUpstreamPayload(t *testing.T) {
	var calls atomic.Int64
	upstream := newUpstream(t, &calls, http.StatusOK, `{"main":{"temp":21.5}}`)

	mini := miniredis.RunT(t)
	cache := weather.NewCache(redis.NewClient(&redis.Options{Addr: mini.Addr()}), 5*time.Minute)
	router := newRouter(t, weather.NewClient(upstream.URL, "test-key"), cache)

	rec := get(t, router, "/api/weather/current?lat=51.5&lon=-0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"main":{"temp":21.5}}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, int64(1), calls.Load())

	// Second identical lookup is served from the cache.
	rec = get(t, router, "/api/weather/current?lat=51.5&lon=-0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"main":{"temp":21.5}}`, rec.Body.String())
	assert.Equal(t, int64(1), calls.Load())

	// Different coordinates miss the cache.
	rec = get(t, router, "/api/weather/current?lat=48.8&lon=2.3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCurrentWithoutCacheAlwaysHitsUpstream(t *testing.T) {
	var calls atomic.Int64
	upstream := newUpstream(t, &calls, http.StatusOK, `{"main":{"temp":3}}`)
	router := newRouter(t, weather.NewClient(upstream.URL, "test-key"), nil)

	for i := 0; i < 2; i++ {
		rec := get(t, router, "/api/weather/current?lat=1&lon=2")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, int64(2), calls.Load())
}

func TestCurrentUpstreamFailure(t *testing.T) {
	var calls atomic.Int64
	upstream := newUpstream(t, &calls, http.StatusUnauthorized, `{"cod":401}`)
	router := newRouter(t, weather.NewClient(upstream.URL, "test-key"), nil)

	rec := get(t, router, "/api/weather/current?lat=1&lon=2")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error fetching weather data")
}

func TestCurrentUpstreamUnreachable(t *testing.T) {
	router := newRouter(t, weather.NewClient("http://127.0.0.1:1", "test-key"), nil)

	rec := get(t, router, "/api/weather/current?lat=1&lon=2")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error fetching weather data")
}

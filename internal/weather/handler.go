package weather

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/stocklist-app/stocklist/internal/platform/httpx"
)

// Handler proxies weather lookups for the front end.
type Handler struct {
	logger       *slog.Logger
	client       *Client
	cache        *Cache
	group        singleflight.Group
	includeStack bool
}

// NewHandler constructs a Handler. cache may be nil; lookups then always
// hit the upstream.
func NewHandler(logger *slog.Logger, client *Client, cache *Cache, includeStack bool) *Handler {
	return &Handler{
		logger:       logger,
		client:       client,
		cache:        cache,
		includeStack: includeStack,
	}
}

// MountRoutes registers weather routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/current", h.current)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	lat := r.URL.Query().Get("lat")
	lon := r.URL.Query().Get("lon")

	if payload, err := h.cache.Get(r.Context(), lat, lon); err != nil {
		h.logger.Warn("weather cache read", slog.Any("error", err))
	} else if payload != nil {
		writePayload(w, payload)
		return
	}

	// Concurrent misses for the same coordinates share one upstream call.
	result, err, _ := h.group.Do(cacheKey(lat, lon), func() (any, error) {
		payload, err := h.client.Current(r.Context(), lat, lon)
		if err != nil {
			return nil, err
		}
		if err := h.cache.Set(r.Context(), lat, lon, payload); err != nil {
			h.logger.Warn("weather cache write", slog.Any("error", err))
		}
		return payload, nil
	})
	if err != nil {
		h.logger.Error("fetch weather", slog.Any("error", err))
		httpx.RespondError(w, httpx.Internal("Error fetching weather data"), h.includeStack)
		return
	}
	writePayload(w, result.([]byte))
}

func writePayload(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

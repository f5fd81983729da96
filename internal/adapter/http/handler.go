package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"adtech-etl/internal/core/port"
)

// Handler is the inbound adapter for the analytics read API. It holds the
// analytics usecase, a logger for structured logging and a response cache.
// Routes are registered on a chi.Router for convenient method handling.
type Handler struct {
	svc    port.AnalyticsUseCase
	logger *slog.Logger
	cache  *ResponseCache
	router chi.Router
}

// NewHandler creates a handler with all routes configured. Projection
// lookups are cheap point reads, but the dashboards poll them aggressively;
// the cache absorbs that.
func NewHandler(svc port.AnalyticsUseCase, cache *ResponseCache, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger, cache: cache}
	r := chi.NewRouter()

	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Get("/campaigns/{id}/daily", h.handleCampaignDaily)
		r.Get("/users/top-clicks", h.handleTopUsers)
		r.Get("/users/{id}/engagement", h.handleUserEngagement)
		r.Get("/advertisers/top-spend", h.handleTopAdvertisers)
		r.Get("/advertisers/spend-by-region", h.handleSpendByRegion)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

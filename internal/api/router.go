package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ravenholt/lorekeep/internal/cache"
	"github.com/ravenholt/lorekeep/internal/campaign"
	"github.com/ravenholt/lorekeep/internal/content"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(mgr *content.Manager, campaigns *campaign.Registry, c *cache.Cache, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(mgr, campaigns, c)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Content-type registry.
	r.Get("/types", h.ListTypes)

	// Content CRUD.
	r.Get("/content/{type}", h.FindContent)
	r.Post("/content/{type}", h.CreateContent)
	r.Get("/content/{type}/{slug}", h.GetContent)
	r.Put("/content/{type}/{slug}", h.UpdateContent)
	r.Delete("/content/{type}/{slug}", h.DeleteContent)

	// Campaign registry.
	r.Get("/campaigns", h.ListCampaigns)
	r.Post("/campaigns", h.CreateCampaign)
	r.Delete("/campaigns/{id}", h.DeleteCampaign)

	// Admin cache reset.
	r.Post("/cache/refresh", h.RefreshCache)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

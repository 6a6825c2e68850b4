package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/starford/wanderlog/internal/postservice"
)

// Forced rebuilds rescan every root; allow a short burst, then one per second.
const (
	refreshRate  = rate.Limit(1)
	refreshBurst = 5
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether the Bearer token is required on the index
// admin routes; reads are always public. events, if non-nil, is mounted at
// GET /events.
func NewRouter(svc *postservice.Service, authEnabled bool, token string, events http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.Get("/{slug}", h.GetPost)
	})

	r.Get("/featured", h.Featured)

	r.Get("/search", h.Search)
	r.Get("/search/fulltext", h.FullText)

	r.Get("/tags", h.Tags)
	r.Get("/tags/{tag}/posts", h.PostsByTag)

	r.Get("/categories", h.Categories)
	r.Get("/categories/{category}/posts", h.PostsByCategory)
	r.Get("/categories/{category}/{subcategory}/posts", h.PostsByCategory)

	r.Route("/index", func(r chi.Router) {
		r.Get("/status", h.IndexStatus)
		r.With(
			AuthMiddleware(authEnabled, token),
			RateLimit(rate.NewLimiter(refreshRate, refreshBurst)),
		).Post("/refresh", h.RefreshIndex)
	})

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}

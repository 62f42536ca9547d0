package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/starford/handoff/internal/rpc"
)

// NewRouter creates the HTTP transport router.
// authEnabled controls whether Bearer token auth is enforced on /mcp and /events.
// events, if non-nil, is mounted at GET /events.
func NewRouter(d *rpc.Dispatcher, authEnabled bool, token string, events http.Handler) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Any origin may call the API; preflights are answered before auth.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Post("/mcp", h.Call)
		if events != nil {
			r.Get("/events", events.ServeHTTP)
		}
	})

	return r
}

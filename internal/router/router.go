// Package router maps the HTTP surface onto the handlers.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ripple-app/ripple/internal/setup"
	mw "github.com/ripple-app/ripple/shared/middleware"
	"github.com/ripple-app/ripple/shared/middleware/metrics"
)

// New creates and configures the router with all the routes.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(mw.SecurityHeaders(strings.HasPrefix(deps.Config.Public.BaseURL, "https://")))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h := deps.Handler
	auth := deps.Auth

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Everything else is for signed-in viewers only.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireViewer())

			r.Get("/timeline", h.Timeline)
			r.Post("/posts", h.CreatePost)
			r.Get("/posts/{post}", h.GetPost)
			r.Post("/posts/{post}/likes", h.ToggleLike)
			r.Get("/posts/{post}/comments", h.GetComments)
			r.Post("/posts/{post}/comments", h.CreateComment)
			r.Get("/ripples/{ripple}", h.GetRipple)
			r.Post("/ripples/{ripple}/posts", h.ContinueRipple)
		})
	})

	return r
}

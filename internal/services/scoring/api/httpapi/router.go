// Package httpapi exposes the scoring service over JSON HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/louisbranch/courtside/internal/platform/timeouts"
	"github.com/louisbranch/courtside/internal/services/scoring/service"
)

// Options tunes the router middleware.
type Options struct {
	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
	// RequestTimeout bounds each request. Zero uses timeouts.Request.
	RequestTimeout time.Duration
	// Logger enables chi's access log middleware.
	Logger bool
}

// NewRouter builds the full HTTP handler for svc.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	h := NewHandler(svc)

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = timeouts.Request
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if opts.Logger {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(negotiateLocale)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Put("/ui", h.SetActiveTab)

		r.Get("/snapshot", h.ExportSnapshot)
		r.Put("/snapshot", h.ImportSnapshot)

		r.Post("/players", h.AddPlayer)
		r.Delete("/players/{playerID}", h.RemovePlayer)
		r.Get("/players/{playerID}/history", h.PlayerHistory)

		r.Post("/match", h.CommitMatch)

		r.Route("/modes/{mode}", func(r chi.Router) {
			r.Get("/standings", h.Standings)
			r.Get("/layout", h.Layout)
			r.Post("/layout", h.Reshuffle)
			r.Put("/courts", h.SetCourts)
			r.Post("/rounds", h.CommitRound)
			r.Post("/reset", h.ResetTotals)
			r.Delete("/history", h.ClearHistory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, errNotFound)
	})
	return r
}

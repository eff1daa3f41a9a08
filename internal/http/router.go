// Package http wires the session API routes.
package http

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/MezriHC/Better-Ads-sub000/internal/http/handlers"
	"github.com/MezriHC/Better-Ads-sub000/internal/middleware"
)

// RouterConfig tunes the middleware chain.
type RouterConfig struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

// NewRouter builds the chi router for the session API.
func NewRouter(app *handlers.App, log zerolog.Logger, cfg RouterConfig) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.I18N(cfg.DefaultLocale, cfg.CountryLookup))
	if cfg.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/voices", app.VoicesList)
	r.Get("/v1/tasks/{task_id}", app.TaskGet)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", app.SessionGet)
			r.Delete("/", app.SessionDelete)
			r.Post("/method", app.SessionSelectMethod)
			r.Put("/prompt", app.SessionSetPrompt)
			r.Post("/rounds", app.SessionSubmitRound)
			r.Post("/rounds/{round_id}/candidates/{candidate_id}/select", app.SessionSelectCandidate)
			r.Post("/upload", app.SessionUpload)
			r.Put("/voice", app.SessionSetVoice)
			r.Post("/advance", app.SessionAdvance)
			r.Post("/back", app.SessionBack)
			r.Post("/launch", app.SessionLaunch)
			r.Post("/retry", app.SessionRetry)
		})
	})

	if app.Files != nil {
		r.Get("/static/*", app.AssetGet)
	}

	return r
}

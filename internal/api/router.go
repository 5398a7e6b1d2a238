package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tubescript/backend/internal/api/handlers"
	"github.com/tubescript/backend/internal/api/middleware"
	"github.com/tubescript/backend/internal/auth"
	"github.com/tubescript/backend/internal/config"
	"github.com/tubescript/backend/internal/db"
	"github.com/tubescript/backend/internal/job"
	"github.com/tubescript/backend/internal/locale"
	"github.com/tubescript/backend/internal/pages"
)

// maxBodyBytes caps JSON request bodies. Segment lists of long videos fit.
const maxBodyBytes = 2 << 20

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Config      *config.Config
	DB          *db.Database
	JWT         *auth.JWTService
	Locale      *locale.Router
	Pages       *pages.Renderer
	Transcripts handlers.TranscriptFetcher
	Translator  handlers.Translator
	Jobs        *job.JobQueue
	Limiter     *middleware.RateLimiter
	Logger      *slog.Logger
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(d.Locale.Handler)

	// Handlers
	authHandler := handlers.NewAuthHandler(d.DB, d.JWT)
	transcriptHandler := handlers.NewTranscriptHandler(d.Transcripts)
	translateHandler := handlers.NewTranslateHandler(d.Translator)
	jobHandler := handlers.NewJobHandler(d.Jobs)
	settingsHandler := handlers.NewSettingsHandler(d.DB)
	healthHandler := handlers.NewHealthHandler(d.DB.DB())

	r.Handle("/assets/*", http.StripPrefix("/assets", pages.Static()))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(middleware.CORSHandler(d.Config.CORSOrigins)))
		r.Use(middleware.MaxBodySize(maxBodyBytes))

		r.Get("/health", healthHandler.Health)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/translate/engines", translateHandler.Engines)
		r.Get("/transcript/{videoID}", transcriptHandler.Get)
		r.Get("/transcript/{videoID}/download", transcriptHandler.Download)

		// Upstream-bound endpoints
		r.Group(func(r chi.Router) {
			r.Use(d.Limiter.Handler)
			r.Post("/transcript", transcriptHandler.Fetch)
			r.Post("/translate", translateHandler.Translate)
			r.Post("/jobs/translate", jobHandler.EnqueueTranslate)
		})

		r.Get("/jobs/active", jobHandler.ActiveJobs)
		r.Get("/jobs/{id}", jobHandler.GetJob)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(d.JWT))

			r.Get("/auth/me", authHandler.Me)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))

				r.Get("/jobs", jobHandler.ListJobs)
				r.Delete("/jobs/{id}", jobHandler.CancelJob)
				r.Post("/jobs/{id}/retry", jobHandler.RetryJob)

				r.Get("/settings", settingsHandler.GetSettings)
				r.Put("/settings", settingsHandler.UpdateSettings)
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
		})
	})

	// Pages, once unprefixed for the fallback locale and once per prefix.
	cfg := d.Locale.Config()
	pageRoutes := func(r chi.Router) {
		r.Get("/", d.Pages.Home)
		r.Get(cfg.TranscriptPrefix+"/{videoID}", d.Pages.Transcript)
		r.Get("/{page}", d.Pages.Page)
	}
	r.Group(pageRoutes)
	for _, l := range cfg.Alternates() {
		r.Route("/"+l.String(), pageRoutes)
	}
	r.NotFound(d.Pages.NotFound)

	return r
}

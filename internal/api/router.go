package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/immuse/tourwizard/internal/api/handlers"
	"github.com/immuse/tourwizard/internal/api/middleware"
	"github.com/immuse/tourwizard/internal/archive"
	"github.com/immuse/tourwizard/internal/auth"
	"github.com/immuse/tourwizard/internal/config"
	"github.com/immuse/tourwizard/internal/content"
	"github.com/immuse/tourwizard/internal/ingest"
	"github.com/immuse/tourwizard/internal/museum"
	"github.com/immuse/tourwizard/internal/tour"
)

// Services are the domain services the router exposes.
type Services struct {
	Museums  *museum.Service
	Archives *archive.Service
	Ingest   *ingest.Pipeline
	Tours    *tour.Service
	Content  *content.Service

	// Queue enables ?async=true ingestion. Optional.
	Queue handlers.Enqueuer
	// Checks are probed by /readyz.
	Checks map[string]handlers.Pinger
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	svc  Services
	rl   *middleware.RateLimiter
	jwt  *auth.JWTMiddleware
	done chan struct{}
	once sync.Once
}

func NewRouter(cfg *config.Config, svc Services) *Router {
	rt := &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		svc:  svc,
		rl:   middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		done: make(chan struct{}),
	}
	if cfg.Auth.JWTSecret != "" {
		rt.jwt = auth.NewJWTMiddleware(cfg.Auth.JWTSecret)
	}
	return rt
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	go rt.rl.Run(rt.done)
	r.Use(rt.rl.Limit)

	health := handlers.NewHealthHandler(rt.svc.Checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	museumH := handlers.NewMuseumHandler(rt.svc.Museums)
	archiveH := handlers.NewArchiveHandler(rt.svc.Archives)
	ingestH := handlers.NewIngestHandler(rt.svc.Ingest, rt.svc.Queue)
	tourH := handlers.NewTourHandler(rt.svc.Tours)
	contentH := handlers.NewContentHandler(rt.svc.Content)

	r.Route("/api/v1", func(r chi.Router) {
		// Operator routes, guarded when a signing secret is configured.
		r.Group(func(r chi.Router) {
			if rt.jwt != nil {
				r.Use(rt.jwt.Authenticate)
				r.Use(auth.RequireRole(auth.RoleOperator, auth.RoleAdmin))
			}
			r.Post("/museums", museumH.Create)
			r.Route("/museums/{id}", func(r chi.Router) {
				r.Get("/", museumH.Get)
				r.Post("/floorplan", museumH.SaveFloorplan)
				r.Post("/archives", archiveH.Add)
				r.Post("/ingest", ingestH.Trigger)
				r.Get("/ingest/status", ingestH.Status)
			})
		})

		r.Route("/tours", func(r chi.Router) {
			r.Post("/", tourH.Create)
			r.Post("/preview", tourH.Preview)
			r.Get("/{id}", tourH.Get)
		})

		r.Post("/dynamic-chips", contentH.Chips)
		r.Post("/preview", contentH.Preview)
		r.Post("/story-intro", contentH.StoryIntro)
	})

	return r
}

// Close stops the rate limiter's sweeper.
func (rt *Router) Close() {
	rt.once.Do(func() { close(rt.done) })
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/threew1h/converter/pkg/httpserver"
	"github.com/threew1h/converter/svc/analyzer"
	"github.com/threew1h/converter/svc/auth"
	"github.com/threew1h/converter/svc/subscription"
)

// RouterOptions configures the API router. Auth and Subscription are
// required; Analyzer is optional and its routes are only mounted when
// provided.
type RouterOptions struct {
	Auth         *auth.Service
	Subscription *subscription.Service
	Analyzer     analyzer.Analyzer
	Logger       *slog.Logger

	// AllowedOrigins configures CORS for browser clients.
	AllowedOrigins []string

	// ReadinessChecks are executed by GET /health. With none supplied the
	// endpoint acts as a plain liveness probe.
	ReadinessChecks []func(context.Context) error
}

// Router builds the HTTP surface: a public health probe, the unauthenticated
// signature-checked billing webhook, and the bearer-token API group.
func Router(opts RouterOptions) chi.Router {
	if opts.Auth == nil {
		panic("api: auth service is required")
	}
	if opts.Subscription == nil {
		panic("api: subscription service is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	subs := &subscriptionHandler{svc: opts.Subscription, log: log}
	hooks := &webhookHandler{svc: opts.Subscription, log: log}
	users := &userHandler{subs: opts.Subscription, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", httpserver.HealthCheckHandler(context.Background(), log, opts.ReadinessChecks...))

	r.Route("/api", func(r chi.Router) {
		// The webhook authenticates by payload signature, not bearer token.
		r.Post("/webhook/razorpay", hooks.handle)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(opts.Auth, log))

			r.Route("/subscription", func(r chi.Router) {
				r.Post("/create", subs.create)
				r.Post("/activate", subs.activate)
				r.Get("/status", subs.status)
				r.Post("/pause", subs.pause)
				r.Post("/resume", subs.resume)
				r.Post("/cancel", subs.cancel)
				r.Post("/deduct-credits", subs.deductCredits)
			})

			if opts.Analyzer != nil {
				texts := &analyzeHandler{svc: opts.Analyzer, log: log}
				r.Post("/analyze/text", texts.analyzeText)
			}

			r.Get("/user/export-data", users.exportData)
		})
	})

	return r
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/Moustapha1997/paytech-webhook-server/internal/http/middleware"
	"github.com/Moustapha1997/paytech-webhook-server/internal/webhook"
	"github.com/Moustapha1997/paytech-webhook-server/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	WebhookHandler     *webhook.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.WebhookHandler.Health)

	// Some deployments configure the provider with the bare /webhook/ path,
	// so the IPN handler answers on both.
	r.Route("/webhook", func(r chi.Router) {
		r.Post("/", cfg.WebhookHandler.HandleIPN)
		r.Post("/ipn", cfg.WebhookHandler.HandleIPN)
		r.Get("/health", cfg.WebhookHandler.Health)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

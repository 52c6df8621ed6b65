// Package router assembles the HTTP surface of the bot.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/andeshealth/citabot/internal/http/middleware"
	"github.com/andeshealth/citabot/internal/messaging"
	"github.com/andeshealth/citabot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger           *logging.Logger
	MessagingHandler *messaging.Handler
	MetricsHandler   http.Handler

	// WebhookRateLimit caps requests/sec per sender on the webhook. Zero
	// disables throttling.
	WebhookRateLimit float64
	WebhookRateBurst int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.MessagingHandler.HealthCheck)

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(httpmiddleware.Throttle(httpmiddleware.ThrottleConfig{
			RequestsPerSecond: cfg.WebhookRateLimit,
			Burst:             cfg.WebhookRateBurst,
			Key:               senderKey,
		}))
		r.Post("/whatsapp", cfg.MessagingHandler.WhatsAppWebhook)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

// senderKey throttles per WhatsApp sender so one chatty patient cannot starve
// the rest. Requests without a sender fall back to the client IP inside the
// middleware.
func senderKey(r *http.Request) string {
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return messaging.NormalizeWhatsApp(r.PostFormValue("From"))
}

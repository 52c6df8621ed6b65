package messaging

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/andeshealth/citabot/internal/observability/metrics"
	"github.com/andeshealth/citabot/pkg/logging"
)

var whatsappTracer = otel.Tracer("citabot.internal.messaging.whatsapp")

// replyApology is sent when handling a turn panics. The webhook still
// answers 200 so Twilio does not retry the same poisoned message.
const replyApology = "⚠️ Lo sentimos, ocurrió un problema. Intenta nuevamente en unos minutos."

// A DialogueEngine turns one inbound message into one reply.
type DialogueEngine interface {
	HandleMessage(ctx context.Context, userID, body string) string
}

// Handler handles Twilio WhatsApp webhook requests.
type Handler struct {
	authToken     string
	publicBaseURL string
	engine        DialogueEngine
	metrics       *metrics.ConversationMetrics
	logger        *logging.Logger
}

// NewHandler creates a webhook handler. An empty authToken disables
// signature validation, which is only appropriate for local development.
// publicBaseURL, when set, anchors the signed URL instead of proxy headers.
func NewHandler(authToken, publicBaseURL string, engine DialogueEngine, m *metrics.ConversationMetrics, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("messaging: dialogue engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		authToken:     authToken,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		engine:        engine,
		metrics:       m,
		logger:        logger,
	}
}

// WhatsAppWebhook handles POST /webhooks/whatsapp requests.
func (h *Handler) WhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := whatsappTracer.Start(r.Context(), "messaging.whatsapp.webhook")
	defer span.End()

	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency("whatsapp", time.Since(start).Seconds())
	}()

	if h.authToken != "" {
		webhookURL := h.webhookURL(r)
		if !ValidateTwilioSignature(r, h.authToken, webhookURL) {
			h.logger.Warn("invalid twilio signature")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			span.RecordError(errors.New("invalid twilio signature"))
			return
		}
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	userID := NormalizeWhatsApp(webhook.From)
	span.SetAttributes(
		attribute.String("citabot.twilio.message_sid", webhook.MessageSid),
		attribute.String("citabot.twilio.from", userID),
	)

	if userID == "" || webhook.Body == "" {
		err := errors.New("missing required twilio fields")
		h.logger.Error("invalid twilio payload", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	reply := h.handleTurn(ctx, userID, webhook.Body)

	twiml, err := RenderTwiML(reply)
	if err != nil {
		h.logger.Error("failed to render twiml", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		span.RecordError(err)
		return
	}

	h.logger.Info("whatsapp webhook handled",
		"message_sid", webhook.MessageSid,
		"from", userID,
		"profile_name", webhook.ProfileName,
	)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(twiml))
}

// webhookURL reconstructs the URL Twilio signed. The configured public base
// wins; proxies that strip or rewrite Forwarded headers otherwise break
// validation.
func (h *Handler) webhookURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL + r.URL.RequestURI()
	}
	return buildAbsoluteURL(r)
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleTurn invokes the engine, converting a panic into an apology reply.
// One misbehaving message must not take the webhook down.
func (h *Handler) handleTurn(ctx context.Context, userID, body string) (reply string) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic while handling turn", "panic", rec, "user_id", userID)
			reply = replyApology
		}
	}()
	return h.engine.HandleMessage(ctx, userID, body)
}

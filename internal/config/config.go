package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	// PublicBaseURL is the externally visible base URL of this service.
	// When set, Twilio signature validation uses it instead of trusting
	// proxy headers.
	PublicBaseURL string

	// Reference timezone for "today" and calendar links.
	Timezone string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string

	// FAQFile points at a JSON document with question/answer/keyword records.
	// When empty and DatabaseURL is set, entries are loaded from Postgres.
	FAQFile string

	// Dialogue tunables, adjustable per deployment.
	SlotLimit           int
	FAQThreshold        int
	FAQQuestionWeight   float64
	FAQConfidenceMargin int
	SessionTTL          time.Duration

	CalendarLocation string

	// WebhookRateLimit caps webhook requests/sec per sender; zero disables.
	WebhookRateLimit float64
	WebhookRateBurst int

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	// Staff notification email (optional).
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	StaffEmail        string

	// Broadcast recipient for cmd/broadcast.
	BroadcastTo string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		Timezone: getEnv("TIMEZONE", "America/Santiago"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		FAQFile: getEnv("FAQ_FILE", ""),

		SlotLimit:           getEnvAsInt("SLOT_LIMIT", 3),
		FAQThreshold:        getEnvAsInt("FAQ_THRESHOLD", 60),
		FAQQuestionWeight:   getEnvAsFloat("FAQ_QUESTION_WEIGHT", 0.75),
		FAQConfidenceMargin: getEnvAsInt("FAQ_CONFIDENCE_MARGIN", 15),
		SessionTTL:          getEnvAsDuration("SESSION_TTL", 15*time.Minute),

		CalendarLocation: getEnv("CALENDAR_LOCATION", "Hospital DIPRECA"),

		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 5),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 10),

		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CitaBot"),
		StaffEmail:        getEnv("STAFF_EMAIL", ""),

		BroadcastTo: getEnv("BROADCAST_TO", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

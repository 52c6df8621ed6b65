package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/andeshealth/citabot/internal/api/router"
	"github.com/andeshealth/citabot/internal/appointments"
	appconfig "github.com/andeshealth/citabot/internal/config"
	"github.com/andeshealth/citabot/internal/dialogue"
	"github.com/andeshealth/citabot/internal/faq"
	"github.com/andeshealth/citabot/internal/messaging"
	"github.com/andeshealth/citabot/internal/notify"
	"github.com/andeshealth/citabot/internal/observability/metrics"
	"github.com/andeshealth/citabot/pkg/logging"
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting citabot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	conversationMetrics := metrics.NewConversationMetrics(registry)

	// Slot storage: Postgres when configured, otherwise an in-memory demo
	// store so the bot still runs locally.
	var slotStore appointments.Store
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}
		slotStore = appointments.NewPostgresStore(pool, loc)
		logger.Info("using postgres slot store")
	} else {
		slotStore = appointments.NewMemoryStore(demoSlots(loc), loc)
		logger.Warn("DATABASE_URL not set, using in-memory demo slots")
	}

	// Session storage: Redis when configured, otherwise in-memory.
	var sessionStore dialogue.SessionStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to ping redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
		sessionStore = dialogue.NewRedisSessionStore(rdb, cfg.SessionTTL)
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		sessionStore = dialogue.NewMemorySessionStore()
		logger.Warn("REDIS_ADDR not set, sessions are in-memory only")
	}

	index := loadFAQIndex(ctx, cfg, pool, logger)
	matcher := faq.NewMatcher(index, faq.MatcherConfig{
		Threshold:        cfg.FAQThreshold,
		QuestionWeight:   cfg.FAQQuestionWeight,
		ConfidenceMargin: cfg.FAQConfidenceMargin,
	})

	var notifier dialogue.BookingNotifier
	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if emailSender != nil && cfg.StaffEmail != "" {
		notifier = notify.NewService(emailSender, cfg.StaffEmail, loc, logger)
		logger.Info("staff booking notifications enabled", "to", cfg.StaffEmail)
	} else {
		logger.Warn("staff booking notifications disabled")
	}

	engine := dialogue.NewEngine(dialogue.Config{
		Sessions:         sessionStore,
		Slots:            slotStore,
		Matcher:          matcher,
		SlotLimit:        cfg.SlotLimit,
		SessionTTL:       cfg.SessionTTL,
		Location:         loc,
		CalendarLocation: cfg.CalendarLocation,
		Notifier:         notifier,
		Metrics:          conversationMetrics,
		Logger:           logger.Named("dialogue"),
	})

	messagingHandler := messaging.NewHandler(cfg.TwilioAuthToken, cfg.PublicBaseURL, engine, conversationMetrics, logger.Named("messaging"))

	r := router.New(&router.Config{
		Logger:           logger,
		MessagingHandler: messagingHandler,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		WebhookRateLimit: cfg.WebhookRateLimit,
		WebhookRateBurst: cfg.WebhookRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadFAQIndex prefers the JSON file, then the database. FAQ trouble never
// stops the bot: a failed load degrades to an empty index so booking keeps
// working while questions get the guidance reply.
func loadFAQIndex(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) *faq.Index {
	if cfg.FAQFile != "" {
		index, err := faq.LoadFile(cfg.FAQFile)
		if err != nil {
			logger.Error("failed to load FAQ file, continuing without FAQ entries", "error", err, "path", cfg.FAQFile)
			return faq.NewIndex(nil)
		}
		logger.Info("loaded FAQ entries from file", "path", cfg.FAQFile, "count", index.Len())
		return index
	}
	if pool != nil {
		index, err := faq.LoadPostgres(ctx, pool)
		if err != nil {
			logger.Error("failed to load FAQ entries from postgres, continuing without FAQ entries", "error", err)
			return faq.NewIndex(nil)
		}
		logger.Info("loaded FAQ entries from postgres", "count", index.Len())
		return index
	}
	logger.Warn("no FAQ source configured, matcher will never answer questions")
	return faq.NewIndex(nil)
}

// demoSlots seeds today's schedule for local runs without a database.
func demoSlots(loc *time.Location) []appointments.Slot {
	today := time.Now().In(loc).Format(appointments.DateLayout)
	return []appointments.Slot{
		{Date: today, Time: "09:00", Provider: "Dr. Soto", Specialty: "Medicina General", Available: true},
		{Date: today, Time: "10:30", Provider: "Dra. Rojas", Specialty: "Pediatría", Available: true},
		{Date: today, Time: "12:00", Provider: "Dr. Fuentes", Specialty: "Traumatología", Available: true},
	}
}

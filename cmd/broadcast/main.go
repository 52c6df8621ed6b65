// Command broadcast pushes today's open slots to a list of WhatsApp numbers.
// Intended for a morning cron run so regulars hear about availability without
// asking first.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/andeshealth/citabot/internal/appointments"
	appconfig "github.com/andeshealth/citabot/internal/config"
	"github.com/andeshealth/citabot/internal/messaging"
	"github.com/andeshealth/citabot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	recipients := splitRecipients(cfg.BroadcastTo)
	if len(recipients) == 0 {
		logger.Error("BROADCAST_TO is required (comma-separated numbers)")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := appointments.NewPostgresStore(pool, loc)
	slots, err := store.ListAvailableToday(ctx, cfg.SlotLimit)
	if err != nil {
		logger.Error("failed to list available slots", "error", err)
		os.Exit(1)
	}
	if len(slots) == 0 {
		logger.Info("no slots available today, nothing to broadcast")
		return
	}

	sender := messaging.NewSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom, logger)
	body := broadcastBody(slots)

	var failed int
	for _, to := range recipients {
		if err := sender.Send(ctx, to, body); err != nil {
			logger.Error("failed to send broadcast", "error", err, "to", to)
			failed++
		}
	}

	logger.Info("broadcast finished", "recipients", len(recipients), "failed", failed, "slots", len(slots))
	if failed > 0 {
		os.Exit(1)
	}
}

func splitRecipients(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func broadcastBody(slots []appointments.Slot) string {
	var b strings.Builder
	b.WriteString("📅 *Horas disponibles hoy:*\n\n")
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, slot.Time, slot.Provider, slot.Specialty)
	}
	b.WriteString("\nResponde *'agendar'* para reservar tu hora ✅")
	return b.String()
}

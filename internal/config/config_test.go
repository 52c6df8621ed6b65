package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Timezone != "America/Santiago" {
		t.Errorf("expected default timezone America/Santiago, got %s", cfg.Timezone)
	}
	if cfg.SlotLimit != 3 {
		t.Errorf("expected default slot limit 3, got %d", cfg.SlotLimit)
	}
	if cfg.FAQThreshold != 60 {
		t.Errorf("expected default threshold 60, got %d", cfg.FAQThreshold)
	}
	if cfg.FAQQuestionWeight != 0.75 {
		t.Errorf("expected default question weight 0.75, got %f", cfg.FAQQuestionWeight)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("expected default session TTL 15m, got %s", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SLOT_LIMIT", "5")
	t.Setenv("FAQ_THRESHOLD", "70")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("FAQ_QUESTION_WEIGHT", "0.7")

	cfg := Load()

	if cfg.SlotLimit != 5 {
		t.Errorf("expected slot limit 5, got %d", cfg.SlotLimit)
	}
	if cfg.FAQThreshold != 70 {
		t.Errorf("expected threshold 70, got %d", cfg.FAQThreshold)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected session TTL 30m, got %s", cfg.SessionTTL)
	}
	if cfg.FAQQuestionWeight != 0.7 {
		t.Errorf("expected question weight 0.7, got %f", cfg.FAQQuestionWeight)
	}
}

func TestLoadIgnoresGarbageNumbers(t *testing.T) {
	t.Setenv("SLOT_LIMIT", "lots")
	t.Setenv("SESSION_TTL", "soon")

	cfg := Load()

	if cfg.SlotLimit != 3 {
		t.Errorf("expected fallback slot limit 3, got %d", cfg.SlotLimit)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("expected fallback session TTL 15m, got %s", cfg.SessionTTL)
	}
}

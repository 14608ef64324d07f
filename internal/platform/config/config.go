// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	// Addr is the HTTP listen address for the webhook, health and admin
	// endpoints.
	Addr string

	// BotToken authenticates against the Telegram Bot API.
	BotToken string
	// WebhookURL is the public URL Telegram delivers updates to. Empty
	// disables webhook registration (useful for local runs behind a tunnel
	// that registers its own).
	WebhookURL string
	// WebhookSecret is echoed back by Telegram in the
	// X-Telegram-Bot-Api-Secret-Token header on every update.
	WebhookSecret string

	// AdminChatID is the privileged recipient for mirrored sweep notices.
	AdminChatID int64

	// SweepInterval is the pause between sweep passes.
	SweepInterval time.Duration
	// SweepErrorBackoff replaces the interval after a failed pass.
	SweepErrorBackoff time.Duration

	// DatabaseURL selects the PostgreSQL roster store; empty falls back to
	// the in-memory store.
	DatabaseURL string
	// RedisURL selects Redis-backed dialogue sessions; empty falls back to
	// in-memory sessions.
	RedisURL string
	// KafkaBrokers enables the Kafka audit stream when non-empty
	// (comma-separated broker list).
	KafkaBrokers string
	// AuditTopic is the Kafka topic audit events are produced to.
	AuditTopic string

	// JWTSigningKey signs and verifies admin API tokens.
	JWTSigningKey string
}

// FromEnv builds a Config from environment variables, applying defaults
// where the variable is unset.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:              envOr("AIRCREW_ADDR", ":8080"),
		BotToken:          os.Getenv("BOT_TOKEN"),
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		AuditTopic:        envOr("AUDIT_TOPIC", "aircrew.audit"),
		JWTSigningKey:     envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SweepErrorBackoff: time.Hour,
	}

	if raw := os.Getenv("ADMIN_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse ADMIN_CHAT_ID: %w", err)
		}
		cfg.AdminChatID = id
	}

	hours := 24
	if raw := os.Getenv("SWEEP_INTERVAL_HOURS"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h <= 0 {
			return Config{}, fmt.Errorf("parse SWEEP_INTERVAL_HOURS: %q is not a positive integer", raw)
		}
		hours = h
	}
	cfg.SweepInterval = time.Duration(hours) * time.Hour

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

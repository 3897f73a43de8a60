// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver      string `env:"STUDIO_DB_DRIVER" envDefault:"sqlite"`
	DBDSN         string `env:"STUDIO_DB_DSN" envDefault:"./data/studio.db"`
	SessionSecret string `env:"STUDIO_SESSION_SECRET,required"`
	ServerHost    string `env:"STUDIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"STUDIO_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"STUDIO_ENV" envDefault:"development"`
	LogLevel      string `env:"STUDIO_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"STUDIO_UPLOADS_DIR" envDefault:"./uploads"`

	// Mirror configuration. The mirror holds the local snapshot served
	// when the database is unreachable, plus the pending-write queue.
	MirrorDir string `env:"STUDIO_MIRROR_DIR" envDefault:"./data/mirror"`

	// Redis configuration. When set, the mirror moves to Redis and
	// change notifications are bridged across processes.
	RedisURL      string `env:"STUDIO_REDIS_URL"`
	RedisPrefix   string `env:"STUDIO_REDIS_PREFIX" envDefault:"studio:"`
	NotifyChannel string `env:"STUDIO_NOTIFY_CHANNEL" envDefault:"studio:changes"`

	// Outbox replay interval in seconds.
	ReplayInterval int `env:"STUDIO_REPLAY_INTERVAL" envDefault:"60"`

	// Audit retention in days; older entries are pruned nightly.
	AuditRetentionDays int `env:"STUDIO_AUDIT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed bool `env:"STUDIO_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if Redis is configured for the mirror and
// notification bridging.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("STUDIO_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("STUDIO_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("STUDIO_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.DBDriver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("STUDIO_DB_DRIVER must be sqlite or mysql, got %q", cfg.DBDriver)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}

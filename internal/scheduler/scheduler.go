// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background jobs of the studio site: outbox
// replay when connectivity returns, and nightly audit log pruning.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaktiyoga/studio/internal/entity"
	"github.com/shaktiyoga/studio/internal/store"
)

// Config holds scheduler settings.
type Config struct {
	// ReplayInterval is how often queued writes are replayed against
	// the remote store.
	ReplayInterval time.Duration

	// AuditRetention is how long audit entries are kept.
	AuditRetention time.Duration
}

// DefaultConfig returns the standard job cadence.
func DefaultConfig() Config {
	return Config{
		ReplayInterval: time.Minute,
		AuditRetention: 90 * 24 * time.Hour,
	}
}

// Scheduler handles periodic background jobs.
type Scheduler struct {
	db     *sql.DB
	outbox *entity.Outbox
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a new scheduler instance.
func New(db *sql.DB, outbox *entity.Outbox, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReplayInterval <= 0 {
		cfg.ReplayInterval = time.Minute
	}
	if cfg.AuditRetention <= 0 {
		cfg.AuditRetention = 90 * 24 * time.Hour
	}
	return &Scheduler{
		db:     db,
		outbox: outbox,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	replaySpec := fmt.Sprintf("@every %s", s.cfg.ReplayInterval)
	if _, err := s.cron.AddFunc(replaySpec, s.replayOutbox); err != nil {
		return fmt.Errorf("registering replay job: %w", err)
	}

	// Nightly, off-peak
	if _, err := s.cron.AddFunc("0 3 * * *", s.pruneAuditLog); err != nil {
		return fmt.Errorf("registering audit prune job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// replayOutbox pushes queued mirror-only writes back to the remote.
func (s *Scheduler) replayOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending := s.outbox.Count(ctx)
	if pending == 0 {
		return
	}

	replayed := s.outbox.Replay(ctx)
	s.logger.Info("outbox replay job finished",
		"pending_before", pending, "replayed", replayed)
}

// pruneAuditLog removes audit entries older than the retention window.
func (s *Scheduler) pruneAuditLog() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg.AuditRetention)
	if err := store.New(s.db).DeleteOldAuditEntries(ctx, cutoff); err != nil {
		s.logger.Error("audit prune job failed", "error", err)
		return
	}
	s.logger.Info("audit log pruned", "cutoff", cutoff.Format(time.RFC3339))
}

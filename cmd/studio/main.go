// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shaktiyoga/studio/internal/config"
	"github.com/shaktiyoga/studio/internal/content"
	"github.com/shaktiyoga/studio/internal/entity"
	"github.com/shaktiyoga/studio/internal/handler"
	"github.com/shaktiyoga/studio/internal/logging"
	"github.com/shaktiyoga/studio/internal/media"
	"github.com/shaktiyoga/studio/internal/middleware"
	"github.com/shaktiyoga/studio/internal/mirror"
	"github.com/shaktiyoga/studio/internal/notify"
	"github.com/shaktiyoga/studio/internal/scheduler"
	"github.com/shaktiyoga/studio/internal/session"
	"github.com/shaktiyoga/studio/internal/store"
	"github.com/shaktiyoga/studio/internal/version"
	"github.com/shaktiyoga/studio/internal/visits"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "studio - Shakti Yoga content backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_DB_DRIVER         Database driver: sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_DB_DSN            Database DSN (default: ./data/studio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_MIRROR_DIR        Local mirror directory (default: ./data/mirror)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  STUDIO_REDIS_URL         Redis URL for shared mirror and notifications (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := version.Get()
		_, _ = fmt.Printf("studio %s (commit: %s, built: %s)\n",
			info.Version, info.GitCommit, info.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure local directories exist
	for _, dir := range []string{filepath.Dir(cfg.DBDSN), cfg.MirrorDir, cfg.UploadsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.NewDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the audit log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewAuditLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("audit log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Local mirror: file-backed by default, Redis when configured.
	// The mirror serves every read the database misses and holds the
	// queue of writes waiting for replay.
	bus := notify.NewBus(logger)
	var notifier entity.Notifier = bus
	var m mirror.Store
	var bridge *notify.RedisBridge

	if cfg.UseRedis() {
		opts := mirror.DefaultRedisStoreOptions()
		opts.URL = cfg.RedisURL
		opts.Prefix = cfg.RedisPrefix
		redisStore, err := mirror.NewRedisStore(opts)
		if err != nil {
			return fmt.Errorf("connecting mirror to redis: %w", err)
		}
		m = redisStore

		bridge = notify.NewRedisBridge(bus, redisStore.Client(), cfg.NotifyChannel, logger)
		bridge.Start(ctx)
		defer bridge.Stop()
		notifier = notify.BridgedNotifier{Bus: bus, Bridge: bridge}

		slog.Info("mirror initialized", "backend", "redis", "channel", cfg.NotifyChannel)
	} else {
		fileStore, err := mirror.NewFileStore(cfg.MirrorDir)
		if err != nil {
			return fmt.Errorf("initializing file mirror: %w", err)
		}
		m = fileStore
		slog.Info("mirror initialized", "backend", "file", "dir", cfg.MirrorDir)
	}
	defer func() {
		if err := m.Close(); err != nil {
			slog.Error("error closing mirror", "error", err)
		}
	}()

	queries := store.New(db)
	registry := content.NewRegistry(queries, m, notifier, logger)

	sched := scheduler.New(db, registry.Outbox, scheduler.Config{
		ReplayInterval: time.Duration(cfg.ReplayInterval) * time.Second,
		AuditRetention: time.Duration(cfg.AuditRetentionDays) * 24 * time.Hour,
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	router := handler.NewRouter(handler.RouterConfig{
		DB:              db,
		Registry:        registry,
		SessionManager:  sessionManager,
		LoginProtection: middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
		Tracker:         visits.NewTracker(queries, logger),
		Media:           media.NewProcessor(cfg.UploadsDir),
		UploadsDir:      cfg.UploadsDir,
		CSRFKey:         []byte(cfg.SessionSecret)[:32],
		IsDevelopment:   cfg.IsDevelopment(),
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // room for large gallery uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

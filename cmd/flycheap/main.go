// Package main is the entry point for the flycheap fare watcher.
// Its sole responsibility is wiring dependencies together and running the
// watcher and its status API until a signal arrives. No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/lipanski/flycheap/internal/config"
	"github.com/lipanski/flycheap/internal/handler"
	"github.com/lipanski/flycheap/internal/middleware"
	"github.com/lipanski/flycheap/internal/qpx"
	"github.com/lipanski/flycheap/internal/repo"
	"github.com/lipanski/flycheap/internal/report"
	"github.com/lipanski/flycheap/internal/service"
	"github.com/lipanski/flycheap/migrations"
	"github.com/lipanski/flycheap/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// Logs go to stderr as JSON; stdout carries the offer report.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Schedule ---------------------------------------------------------
	// An infeasible budget is fatal before anything touches the network.
	plan := service.Plan(cfg.Session.TripSpecs(), cfg.Session.RequestName, cfg.Session.SaleCountry)
	schedule, err := service.NewSchedule(cfg.Session.RequestsPerDay, len(plan))
	if err != nil {
		slog.Error("cannot schedule requests", "error", err,
			"requests_per_day", cfg.Session.RequestsPerDay, "requests_per_round", len(plan))
		os.Exit(1)
	}

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	sqlDB := stdlib.OpenDBFromPool(pool)
	applied, err := migrations.Up(ctx, sqlDB)
	_ = sqlDB.Close()
	if err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", applied)

	// --- Watcher ----------------------------------------------------------
	noColor := cfg.NoColor || !term.IsTerminal(int(os.Stdout.Fd()))
	watcher := service.NewWatcher(plan, schedule, service.Dependency{
		Searcher:    qpx.NewClient(cfg.Session.GoogleAPIKey, cfg.SearchURL, cfg.Timeout),
		Requests:    repo.NewRequestRepo(pool),
		Offers:      repo.NewOfferRepo(pool),
		Reporter:    report.NewPrinter(os.Stdout, noColor),
		Logger:      logger,
		Concurrency: cfg.Concurrency,
	})

	// --- Status API -------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Mount("/", handler.NewServer(watcher, pool, spec.OpenAPI).Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("status server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("status server error", "error", err)
			stop()
		}
	}()

	// Run blocks until the signal context is cancelled.
	if err := watcher.Run(ctx); err != nil {
		slog.Error("watcher error", "error", err)
	}

	slog.Info("shutting down status server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}

// Encounter tracker daemon - captures the screen, recognizes encounter
// text, and serves the live tally over HTTP/WebSocket
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

	"github.com/shinyhunt/encounterd/internal/config"
	"github.com/shinyhunt/encounterd/internal/engine"
	"github.com/shinyhunt/encounterd/internal/ocr"
	"github.com/shinyhunt/encounterd/internal/screen"
	"github.com/shinyhunt/encounterd/internal/server"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg := config.Load()

	// Recognition engine
	tess, err := ocr.NewTesseract(cfg.TesseractLang)
	if err != nil {
		slog.Error("failed to initialize recognition engine", "lang", cfg.TesseractLang, "error", err)
		os.Exit(1)
	}
	defer func() { _ = tess.Close() }()

	// Capture session for the primary display
	session, err := screen.Acquire()
	if err != nil {
		slog.Error("failed to acquire capture session", "error", err)
		os.Exit(1)
	}
	defer func() { _ = session.Close() }()

	// Session state: resume from the state file, or start fresh when
	// permitted and the file does not exist. A malformed file is fatal
	// either way so a corrupt tally is never silently zeroed.
	store := engine.NewFileStore(cfg.StatePath)
	state, err := store.Load()
	if err != nil {
		if cfg.AllowFreshState && errors.Is(err, os.ErrNotExist) {
			slog.Info("state file missing, starting fresh session", "path", cfg.StatePath)
			state = engine.NewState()
		} else {
			slog.Error("failed to load state", "path", cfg.StatePath, "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("resumed session", "path", cfg.StatePath,
			"encounters", state.Encounters, "mode", state.Mode)
	}

	pipeline := engine.NewPipeline(session, tess, cfg.CaptureFPS)
	history := engine.NewHistory(server.HistoryLimit)
	alerter := engine.NewAlerter(cfg.TargetSpecies, time.Duration(cfg.AlertCooldown*float64(time.Second)))

	eng := engine.New(state, pipeline, store, history, alerter, engine.Options{
		DetectFrames: cfg.DetectFrames,
		CycleDelay:   cfg.CycleDelay,
	})

	srv := server.New(eng, pipeline, history, alerter, cfg.PreviewWidth)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Start(ctx)

	// Run the detect loop in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- eng.Run(ctx)
	}()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("encounter tracker starting", "http", cfg.HTTPAddr, "state", cfg.StatePath)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal or a fatal loop error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down...", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("detect loop failed", "error", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	// The loop saves after every cycle, but a cancel can land mid-cycle;
	// one last save pins the final tally.
	if err := store.Save(eng.Snapshot()); err != nil {
		slog.Error("final state save failed", "error", err)
	}

	slog.Info("shutdown complete")
}

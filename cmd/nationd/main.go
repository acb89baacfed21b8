// Command nationd runs the nation simulation backend: the election
// scheduler and the HTTP API over a shared SQLite store.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/nationsim/internal/api"
	"github.com/talgya/nationsim/internal/config"
	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Warn("NATIONSIM_JWT_SECRET not set — player endpoints will reject all tokens")
	}
	if cfg.AdminKey == "" {
		slog.Warn("NATIONSIM_ADMIN_KEY not set — admin endpoints disabled")
	}

	// ── Store ─────────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("store opened", "path", cfg.DBPath)

	// ── Services ──────────────────────────────────────────────────────
	scheduler := engine.NewScheduler(st)

	server := &api.Server{
		Store:     st,
		Scheduler: scheduler,
		Votes:     engine.NewVotes(st),
		Travel:    engine.NewTravel(st),
		Candidacy: engine.NewCandidacy(st),
		Port:      cfg.Port,
		JWTSecret: cfg.JWTSecret,
		AdminKey:  cfg.AdminKey,
	}
	server.Start()

	// ── Scheduler ─────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	if cfg.Scheduler {
		go func() {
			scheduler.Run(ctx)
			close(done)
		}()
	} else {
		slog.Info("election scheduler disabled")
		close(done)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	cancel()
	<-done
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"kvartal/internal/api"
	"kvartal/internal/config"
	"kvartal/internal/notify"
	"kvartal/internal/progression"
	"kvartal/internal/rules"
	"kvartal/internal/session"
	"kvartal/internal/sim"
	"kvartal/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ruleSet, err := rules.Load(cfg.RulesPath)
	if err != nil {
		logger.Error("load rules failed", "err", err)
		os.Exit(1)
	}

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		logger.Error("store open failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	notifier, err := notify.FromConfig(cfg.DiscordToken, cfg.DiscordChannel)
	if err != nil {
		logger.Error("notifier init failed", "err", err)
		os.Exit(1)
	}
	defer notifier.Close()

	rnd := sim.NewSource(time.Now().UnixNano())
	proc := sim.NewProcessor(ruleSet, rnd, logger)
	tracker := progression.NewTracker(ruleSet)
	sessions := session.NewManager(proc, tracker, st, logger)

	// The in-process scheduler drives live ticks and autosave.
	sched := cron.New()
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", cfg.TickEvery), func() {
		sessions.TickAll(time.Now().UnixMilli())
	}); err != nil {
		logger.Error("schedule tick failed", "err", err)
		os.Exit(1)
	}
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", cfg.AutosaveEvery), func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sessions.SaveAll(saveCtx)
	}); err != nil {
		logger.Error("schedule autosave failed", "err", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	server := api.New(cfg, logger, sessions, rnd)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sessions.SaveAll(shutdownCtx)
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("kvartal api listening", "addr", cfg.Addr, "store", cfg.StoreDriver)
	_ = notify.SendWithRetry(ctx, notifier, "kvartal api up", 0)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

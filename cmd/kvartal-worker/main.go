package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

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

	cfg, err := config.LoadWorkerFromEnv()
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

	proc := sim.NewProcessor(ruleSet, sim.NewSource(time.Now().UnixNano()), logger)
	tracker := progression.NewTracker(ruleSet)
	reconciler := session.NewReconciler(proc, tracker, st, logger)

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		done, failed := reconciler.Sweep(sweepCtx, time.Now().UnixMilli())
		logger.Info("reconcile sweep complete", "reconciled", done, "failed", failed)
		if failed > 0 {
			_ = notify.SendWithRetry(ctx, notifier,
				fmt.Sprintf("kvartal worker: %d snapshots failed to reconcile", failed), 2)
		}
	}

	if cfg.RunOnce {
		sweep()
		logger.Info("worker run-once completed")
		return
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.ReconcileSpec, sweep); err != nil {
		logger.Error("schedule sweep failed", "spec", cfg.ReconcileSpec, "err", err)
		os.Exit(1)
	}
	sched.Start()

	logger.Info("worker started", "reconcile_spec", cfg.ReconcileSpec, "store", cfg.StoreDriver)
	<-ctx.Done()
	sched.Stop()
	logger.Info("worker shutdown")
}

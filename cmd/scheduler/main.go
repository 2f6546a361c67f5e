package main

// Long-running scheduler daemon. Each tick enqueues due prompts as jobs and
// drains a batch of the queue:
//   go run ./cmd/scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcalaing/gpt-rank-sub000/internal/bootstrap"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/config"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildScheduler(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "scheduler"
	}
	app.Scheduler.LockedBy = fmt.Sprintf("%s-%d", hostname, os.Getpid())

	tick := cfg.SchedulerTick
	if tick <= 0 {
		tick = time.Minute
	}

	g, gctx := errgroup.WithContext(ctx)

	if strings.TrimSpace(cfg.TiersPath) != "" {
		g.Go(func() error {
			return app.Tiers.Watch(gctx, cfg.TiersPath)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		log.Printf("scheduler started tick=%s locked_by=%s", tick, app.Scheduler.LockedBy)
		for {
			stats, err := app.Scheduler.Tick(gctx)
			if err != nil {
				telemetry.Error("scheduler.tick_failed", map[string]any{"error": err.Error()})
			}
			if stats.Enqueued+stats.Processed+stats.Failed+stats.Retried+stats.SkippedBudget+stats.SkippedConcurrency > 0 {
				telemetry.Info("scheduler.tick", map[string]any{
					"enqueued":            stats.Enqueued,
					"processed":           stats.Processed,
					"failed":              stats.Failed,
					"retried":             stats.Retried,
					"skipped_budget":      stats.SkippedBudget,
					"skipped_concurrency": stats.SkippedConcurrency,
				})
			}

			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("scheduler stopped: %v", err)
	}
	log.Printf("scheduler stopped")
}

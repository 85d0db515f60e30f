package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inventorypro/inventorypro-backend/internal/bootstrap"
	"github.com/inventorypro/inventorypro-backend/internal/cron"
	"github.com/inventorypro/inventorypro-backend/pkg/metrics"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox"
)

var once = flag.Bool("once", false, "run a single cycle and exit")

func main() {
	flag.Parse()
	bootstrap.Main("cron-worker", run)
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg, logg := rt.Config, rt.Logger

	dbClient, err := rt.OpenDB(ctx)
	if err != nil {
		return err
	}
	redisClient, err := rt.OpenRedis(ctx)
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, cron.LockKey(cfg.App.Env), 0)
	if err != nil {
		return fmt.Errorf("create cron lock: %w", err)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		DLQ:        outbox.NewDLQRepository(dbClient.DB()),
		Config:     cfg.Outbox,
	})
	if err != nil {
		return fmt.Errorf("create outbox retention job: %w", err)
	}
	stockJob, err := cron.NewStockStatusJob(cron.StockStatusJobParams{Logger: logg, DB: dbClient})
	if err != nil {
		return fmt.Errorf("create stock status job: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(retentionJob, stockJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return fmt.Errorf("create cron service: %w", err)
	}

	if *once {
		logg.Info(ctx, "running single cron cycle")
		return service.RunOnce(ctx)
	}
	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

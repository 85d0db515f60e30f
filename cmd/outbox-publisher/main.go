package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inventorypro/inventorypro-backend/internal/bootstrap"
	"github.com/inventorypro/inventorypro-backend/pkg/metrics"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox/registry"
	"github.com/inventorypro/inventorypro-backend/pkg/pubsub"
)

func main() {
	bootstrap.Main("outbox-publisher", run)
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	dbClient, err := rt.OpenDB(ctx)
	if err != nil {
		return err
	}
	pubsubClient, err := rt.OpenPubSub(ctx, pubsub.RolePublisher)
	if err != nil {
		return err
	}

	eventRegistry, err := registry.NewEventRegistry(rt.Config.PubSub)
	if err != nil {
		return fmt.Errorf("build event registry: %w", err)
	}
	service, err := NewService(ServiceParams{
		Config:        rt.Config,
		Logger:        rt.Logger,
		DB:            dbClient,
		PubSub:        pubsubClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return fmt.Errorf("create outbox publisher: %w", err)
	}

	rt.Logger.Info(rt.Logger.WithField(ctx, "topics", eventRegistry.Topics()), "starting outbox publisher")
	return service.Run(ctx)
}

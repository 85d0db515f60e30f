package main

import (
	"context"
	"fmt"

	"github.com/inventorypro/inventorypro-backend/internal/bootstrap"
	"github.com/inventorypro/inventorypro-backend/internal/notifications"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox/idempotency"
	"github.com/inventorypro/inventorypro-backend/pkg/pubsub"
)

func main() {
	bootstrap.Main("notification-worker", run)
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
	pubsubClient, err := rt.OpenPubSub(ctx, pubsub.RoleSubscriber)
	if err != nil {
		return err
	}

	tracker, err := idempotency.NewTracker(redisClient, notifications.ConsumerName, cfg.Eventing.ConsumerIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("create idempotency tracker: %w", err)
	}
	sender := notifications.NewSender(cfg.Email, cfg.App.PublicURL, logg)
	consumer, err := notifications.NewConsumer(pubsubClient.NotificationSubscription(), sender, tracker, logg)
	if err != nil {
		return fmt.Errorf("create notification consumer: %w", err)
	}

	service, err := NewService(ServiceParams{
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	if err != nil {
		return fmt.Errorf("create worker service: %w", err)
	}

	logg.Info(ctx, "starting notification worker")
	return service.Run(ctx)
}

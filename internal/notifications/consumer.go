package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox/payloads"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox/registry"
)

// ConsumerName scopes the idempotency claims of this consumer.
const ConsumerName = "low-stock-email"

type claimTracker interface {
	Claim(ctx context.Context, eventID uuid.UUID) (bool, error)
	ClaimedAt(ctx context.Context, eventID uuid.UUID) (time.Time, bool, error)
	Release(ctx context.Context, eventID uuid.UUID) error
}

// Consumer turns low-stock alert events into emails.
type Consumer struct {
	subscription *pubsub.Subscriber
	sender       Sender
	idempotency  claimTracker
	logg         *logger.Logger
}

// NewConsumer builds a low-stock email consumer.
func NewConsumer(subscription *pubsub.Subscriber, sender Sender, tracker claimTracker, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		sender:       sender,
		idempotency:  tracker,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventLowStockAlertRequested) {
		c.logg.Info(logCtx, "skipping unrelated event")
		return processResult{ack: true}
	}

	envelope, eventID, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	claimed, err := c.idempotency.Claim(ctx, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		if at, ok, err := c.idempotency.ClaimedAt(ctx, eventID); err == nil && ok {
			logCtx = c.logg.WithField(logCtx, "claimed_at", at.Format(time.RFC3339))
		}
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	decoded, err := registry.DecodePayload(enums.EventLowStockAlertRequested, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	payload, ok := decoded.(*payloads.LowStockAlertRequested)
	if !ok {
		c.logg.Error(logCtx, "unexpected payload type", fmt.Errorf("got %T", decoded))
		return processResult{ack: true}
	}
	logCtx = c.logg.WithProductID(logCtx, payload.ProductID.String())

	err = c.sender.SendLowStock(ctx, LowStockEmail{
		To:           payload.OwnerEmail,
		ProductName:  payload.ProductName,
		CurrentStock: payload.CurrentStock,
		Threshold:    payload.Threshold,
	})
	if errors.Is(err, ErrPermanent) {
		c.logg.Error(logCtx, "low stock email rejected, dropping", err)
		return processResult{ack: true}
	}
	if err != nil {
		c.logg.Error(logCtx, "low stock email failed", err)
		if delErr := c.idempotency.Release(ctx, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to clear idempotency mark", delErr)
		}
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "low stock alert delivered")
	return processResult{ack: true}
}

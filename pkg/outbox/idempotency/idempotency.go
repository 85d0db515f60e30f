// Package idempotency deduplicates at-least-once event deliveries. A consumer
// claims an event id before doing its side effect and releases the claim if
// the side effect fails, so the redelivery can try again.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/inventorypro/inventorypro-backend/pkg/redis"
)

// Tracker holds claims for one consumer under
// `inv:idempotency:evt:<consumer>:<event_id>`.
type Tracker struct {
	store    redis.IdempotencyStore
	consumer string
	ttl      time.Duration
	now      func() time.Time
}

func NewTracker(store redis.IdempotencyStore, consumer string, ttl time.Duration) (*Tracker, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case consumer == "":
		return nil, errors.New("consumer name is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Tracker{store: store, consumer: consumer, ttl: ttl, now: time.Now}, nil
}

// Claim reports whether this call took the claim for eventID. False means an
// earlier delivery already holds it.
func (t *Tracker) Claim(ctx context.Context, eventID uuid.UUID) (bool, error) {
	key, err := t.key(eventID)
	if err != nil {
		return false, err
	}
	return t.store.SetNX(ctx, key, t.now().UTC().Format(time.RFC3339), t.ttl)
}

// ClaimedAt returns when eventID was claimed. ok is false when no claim exists.
func (t *Tracker) ClaimedAt(ctx context.Context, eventID uuid.UUID) (claimed time.Time, ok bool, err error) {
	key, err := t.key(eventID)
	if err != nil {
		return time.Time{}, false, err
	}
	raw, err := t.store.Get(ctx, key)
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	claimed, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, true, nil
	}
	return claimed, true, nil
}

// Release drops the claim so a redelivery is processed again.
func (t *Tracker) Release(ctx context.Context, eventID uuid.UUID) error {
	key, err := t.key(eventID)
	if err != nil {
		return err
	}
	return t.store.Del(ctx, key)
}

func (t *Tracker) key(eventID uuid.UUID) (string, error) {
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return t.store.IdempotencyKey("evt:"+t.consumer, eventID.String()), nil
}

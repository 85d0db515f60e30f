package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failSet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.failSet != nil {
		return false, m.failSet
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "inv:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestTrackerClaimOnce(t *testing.T) {
	store := newMemoryStore()
	tracker, err := NewTracker(store, "low-stock-email", 24*time.Hour)
	require.NoError(t, err)
	claimedAt := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	tracker.now = func() time.Time { return claimedAt }
	eventID := uuid.New()
	ctx := context.Background()

	first, err := tracker.Claim(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := tracker.Claim(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, second)

	key := "inv:idempotency:evt:low-stock-email:" + eventID.String()
	assert.Equal(t, 24*time.Hour, store.ttls[key])

	at, ok, err := tracker.ClaimedAt(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(claimedAt))
}

func TestTrackerReleaseAllowsReclaim(t *testing.T) {
	store := newMemoryStore()
	tracker, err := NewTracker(store, "low-stock-email", time.Hour)
	require.NoError(t, err)
	eventID := uuid.New()
	ctx := context.Background()

	_, err = tracker.Claim(ctx, eventID)
	require.NoError(t, err)
	require.NoError(t, tracker.Release(ctx, eventID))

	_, ok, err := tracker.ClaimedAt(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := tracker.Claim(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestTrackerErrors(t *testing.T) {
	_, err := NewTracker(nil, "c", time.Hour)
	assert.Error(t, err)
	_, err = NewTracker(newMemoryStore(), "", time.Hour)
	assert.Error(t, err)

	store := newMemoryStore()
	store.failSet = errors.New("redis down")
	tracker, err := NewTracker(store, "c", time.Hour)
	require.NoError(t, err)

	_, err = tracker.Claim(context.Background(), uuid.New())
	assert.EqualError(t, err, "redis down")
	_, err = tracker.Claim(context.Background(), uuid.Nil)
	assert.EqualError(t, err, "event id is required")
}

package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox/payloads"
)

type stubSender struct {
	sent []LowStockEmail
	err  error
}

func (s *stubSender) SendLowStock(_ context.Context, email LowStockEmail) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

type stubTracker struct {
	seen    map[uuid.UUID]bool
	deleted []uuid.UUID
	err     error
}

func (s *stubTracker) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[id] {
		return false, nil
	}
	s.seen[id] = true
	return true, nil
}

func (s *stubTracker) ClaimedAt(_ context.Context, id uuid.UUID) (time.Time, bool, error) {
	return time.Time{}, s.seen[id], nil
}

func (s *stubTracker) Release(_ context.Context, id uuid.UUID) error {
	delete(s.seen, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func newTestConsumer(sender Sender, tracker *stubTracker) *Consumer {
	return &Consumer{
		sender:      sender,
		idempotency: tracker,
		logg:        logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
	}
}

func lowStockMessage(t *testing.T, eventID uuid.UUID) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payloads.LowStockAlertRequested{
		ProductID:    uuid.New(),
		ProductName:  "Hex Bolt",
		OwnerEmail:   "owner@example.com",
		CurrentStock: 4,
		Threshold:    5,
	})
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       body,
		Attributes: map[string]string{"event_type": string(enums.EventLowStockAlertRequested)},
	}
}

func TestConsumerSendsOncePerEvent(t *testing.T) {
	sender := &stubSender{}
	tracker := &stubTracker{seen: map[uuid.UUID]bool{}}
	c := newTestConsumer(sender, tracker)
	msg := lowStockMessage(t, uuid.New())

	assert.Equal(t, processResult{ack: true}, c.process(context.Background(), msg))
	assert.Equal(t, processResult{ack: true}, c.process(context.Background(), msg))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, LowStockEmail{To: "owner@example.com", ProductName: "Hex Bolt", CurrentStock: 4, Threshold: 5}, sender.sent[0])
}

func TestConsumerNacksAndClearsMarkOnSendFailure(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	tracker := &stubTracker{seen: map[uuid.UUID]bool{}}
	c := newTestConsumer(sender, tracker)
	eventID := uuid.New()

	assert.Equal(t, processResult{nack: true}, c.process(context.Background(), lowStockMessage(t, eventID)))
	assert.Equal(t, []uuid.UUID{eventID}, tracker.deleted)
	assert.False(t, tracker.seen[eventID])
}

func TestConsumerAcksPermanentSendFailure(t *testing.T) {
	sender := &stubSender{err: fmt.Errorf("%w: resend status 422", ErrPermanent)}
	tracker := &stubTracker{seen: map[uuid.UUID]bool{}}
	c := newTestConsumer(sender, tracker)
	eventID := uuid.New()

	assert.Equal(t, processResult{ack: true}, c.process(context.Background(), lowStockMessage(t, eventID)))
	assert.Empty(t, tracker.deleted)
	assert.True(t, tracker.seen[eventID])
}

func TestConsumerSkipsOtherEventsAndBadPayloads(t *testing.T) {
	sender := &stubSender{}
	tracker := &stubTracker{seen: map[uuid.UUID]bool{}}
	c := newTestConsumer(sender, tracker)

	other := &pubsub.Message{ID: "m", Attributes: map[string]string{"event_type": "something.else"}}
	assert.Equal(t, processResult{ack: true}, c.process(context.Background(), other))

	garbage := &pubsub.Message{ID: "g", Data: []byte("{"), Attributes: map[string]string{"event_type": string(enums.EventLowStockAlertRequested)}}
	assert.Equal(t, processResult{ack: true}, c.process(context.Background(), garbage))
	assert.Empty(t, sender.sent)
}

func TestConsumerNacksWhenIdempotencyUnavailable(t *testing.T) {
	sender := &stubSender{}
	tracker := &stubTracker{seen: map[uuid.UUID]bool{}, err: errors.New("redis down")}
	c := newTestConsumer(sender, tracker)

	assert.Equal(t, processResult{nack: true}, c.process(context.Background(), lowStockMessage(t, uuid.New())))
	assert.Empty(t, sender.sent)
}

func TestLowStockEmailRendering(t *testing.T) {
	email := LowStockEmail{To: "a@example.com", ProductName: "Bolts <M6>", CurrentStock: 3, Threshold: 5}
	assert.Equal(t, "Low Stock Alert: Bolts <M6>", email.Subject())

	html, err := email.RenderHTML("https://app.example.com/")
	require.NoError(t, err)
	assert.Contains(t, html, "Bolts &lt;M6&gt;")
	assert.Contains(t, html, "<strong>3 units</strong>")
	assert.Contains(t, html, "<strong>5 units</strong>")
	assert.Contains(t, html, `href="https://app.example.com/dashboard/products"`)

	text := email.RenderText("https://app.example.com")
	assert.True(t, strings.HasPrefix(text, "Bolts <M6> has dropped to 3 units."))
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	sender := NewSender(configWithoutKey(), "http://localhost:3000", nil)
	_, ok := sender.(*LogSender)
	assert.True(t, ok)
	assert.NoError(t, sender.SendLowStock(context.Background(), LowStockEmail{To: "x@example.com"}))
}

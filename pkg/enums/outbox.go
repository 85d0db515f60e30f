package enums

import "slices"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const AggregateProduct OutboxAggregateType = "product"

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateProduct
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const EventLowStockAlertRequested OutboxEventType = "low_stock.alert_requested"

var outboxEventTypes = []OutboxEventType{EventLowStockAlertRequested}

func (e OutboxEventType) IsValid() bool {
	return slices.Contains(outboxEventTypes, e)
}

// OutboxDLQErrorReason records why a row was moved to outbox_dlq.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

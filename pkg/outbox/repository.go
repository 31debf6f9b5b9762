package outbox

import (
	"context"
	"time"
)

// Repository persists outbox events
type Repository interface {
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns retryable events, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry bumps the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// DeletePublished removes published events older than the given age
	DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error)

	FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error)
}

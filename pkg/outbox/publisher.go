package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/business-rules-service/pkg/kafka"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
)

// Publisher relays outbox events to Kafka
type Publisher struct {
	repo      Repository
	producer  kafka.EventPublisher
	logger    *logging.Logger
	metrics   *metrics.Metrics
	config    *PublisherConfig
	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
	published int
	failed    int
}

// PublisherConfig holds configuration for the outbox publisher
type PublisherConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	CleanupInterval time.Duration
	Retention       time.Duration
}

// DefaultPublisherConfig returns default configuration
func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		PollInterval:    1 * time.Second,
		BatchSize:       100,
		CleanupInterval: 1 * time.Hour,
		Retention:       7 * 24 * time.Hour,
	}
}

// NewPublisher creates a new outbox publisher
func NewPublisher(
	repo Repository,
	producer kafka.EventPublisher,
	logger *logging.Logger,
	m *metrics.Metrics,
	config *PublisherConfig,
) *Publisher {
	if config == nil {
		config = DefaultPublisherConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Publisher{
		repo:      repo,
		producer:  producer,
		logger:    logger.WithComponent("outbox-publisher"),
		metrics:   m,
		config:    config,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start launches the polling loop. A publisher can be started once.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("publisher already running")
	}
	p.running = true

	p.logger.Info("Starting outbox publisher", "interval", p.config.PollInterval, "batchSize", p.config.BatchSize)
	go p.run(ctx)
	return nil
}

// Stop signals the loop and waits for the in-flight batch to finish
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("publisher not running")
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	<-p.stoppedCh

	stats := p.Stats()
	p.logger.Info("Outbox publisher stopped", "published", stats["published"], "failed", stats["failed"])
	return nil
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.stoppedCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(p.config.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ticker.C:
			p.ProcessBatch(ctx)
		case <-cleanup.C:
			p.cleanup(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			p.logger.Info("Publisher context cancelled")
			return
		}
	}
}

// ProcessBatch relays one batch of unpublished events and returns how many succeeded
func (p *Publisher) ProcessBatch(ctx context.Context) int {
	events, err := p.repo.FindUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.WithError(err).Error("Failed to find unpublished events")
		return 0
	}

	if p.metrics != nil {
		p.metrics.SetOutboxPending(len(events))
	}
	if len(events) == 0 {
		return 0
	}

	sent := 0
	for _, event := range events {
		if err := p.publishEvent(ctx, event); err != nil {
			p.recordResult(false)
			p.logger.WithError(err).Error("Failed to publish event",
				"eventId", event.ID,
				"eventType", event.EventType,
				"aggregateId", event.AggregateID,
			)
			if p.metrics != nil {
				p.metrics.RecordOutboxPublish(event.EventType, false)
			}

			if err := p.repo.IncrementRetry(ctx, event.ID, err.Error()); err != nil {
				p.logger.WithError(err).Error("Failed to increment retry count", "eventId", event.ID)
				continue
			}
			if p.metrics != nil {
				p.metrics.RecordOutboxRetry(event.EventType)
			}
			continue
		}

		sent++
		p.recordResult(true)
		if p.metrics != nil {
			p.metrics.RecordOutboxPublish(event.EventType, true)
		}
		if err := p.repo.MarkPublished(ctx, event.ID); err != nil {
			p.logger.WithError(err).Error("Failed to mark event as published", "eventId", event.ID)
		}
	}
	return sent
}

func (p *Publisher) publishEvent(ctx context.Context, event *OutboxEvent) error {
	cloudEvent, err := event.ToCloudEvent()
	if err != nil {
		return fmt.Errorf("failed to decode CloudEvent: %w", err)
	}

	if err := p.producer.PublishEvent(ctx, event.Topic, cloudEvent); err != nil {
		return fmt.Errorf("failed to publish to Kafka: %w", err)
	}

	p.logger.Debug("Published event from outbox",
		"eventId", event.ID,
		"eventType", event.EventType,
		"topic", event.Topic,
		"aggregateId", event.AggregateID,
	)
	return nil
}

func (p *Publisher) cleanup(ctx context.Context) {
	deleted, err := p.repo.DeletePublished(ctx, p.config.Retention)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to delete published outbox events")
		return
	}
	if deleted > 0 {
		p.logger.Info("Deleted published outbox events", "count", deleted)
	}
}

func (p *Publisher) recordResult(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok {
		p.published++
	} else {
		p.failed++
	}
}

// IsRunning returns whether the publisher is running
func (p *Publisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns publisher statistics
func (p *Publisher) Stats() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]int{
		"published": p.published,
		"failed":    p.failed,
	}
}

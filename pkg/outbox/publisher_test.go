package outbox

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/business-rules-service/pkg/cloudevents"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"go.uber.org/goleak"
)

type memoryRepository struct {
	mu      sync.Mutex
	events  map[string]*OutboxEvent
	findErr error
}

func newMemoryRepository(events ...*OutboxEvent) *memoryRepository {
	r := &memoryRepository{events: make(map[string]*OutboxEvent)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *memoryRepository) SaveAll(_ context.Context, events []*OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.events[e.ID] = e
	}
	return nil
}

func (r *memoryRepository) FindUnpublished(_ context.Context, limit int) ([]*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*OutboxEvent
	for _, e := range r.events {
		if e.ShouldRetry() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) MarkPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.events[id].PublishedAt = &now
	return nil
}

func (r *memoryRepository) IncrementRetry(_ context.Context, id, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id].RetryCount++
	r.events[id].LastError = msg
	return nil
}

func (r *memoryRepository) DeletePublished(_ context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	cutoff := time.Now().Add(-olderThan)
	for id, e := range r.events {
		if e.PublishedAt != nil && e.PublishedAt.Before(cutoff) {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) FindByAggregateID(_ context.Context, aggregateID string) ([]*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*OutboxEvent
	for _, e := range r.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingProducer struct {
	mu     sync.Mutex
	failOn map[string]bool
	topics []string
	types  []string
}

func (p *recordingProducer) PublishEvent(_ context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn[event.OrderID] {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.types = append(p.types, event.Type)
	return nil
}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.types)
}

func newTestEvent(t *testing.T, orderID string) *OutboxEvent {
	t.Helper()
	ce := cloudevents.NewEventFactory(cloudevents.SourceBusinessRules).
		CreateOrderEvent(context.Background(), cloudevents.OrderBusinessRulesEvaluated, orderID, "", nil)
	event, err := NewOutboxEventFromCloudEvent(orderID, "OrderRuleFlags", "wms.business-rules.events", ce)
	require.NoError(t, err)
	return event
}

func TestOutboxEvent_ShouldRetry(t *testing.T) {
	event := newTestEvent(t, "ORD-1")
	assert.True(t, event.ShouldRetry())

	event.RetryCount = event.MaxRetries
	assert.False(t, event.ShouldRetry())

	event.RetryCount = 0
	now := time.Now()
	event.PublishedAt = &now
	assert.False(t, event.ShouldRetry())
}

func TestOutboxEvent_ToCloudEvent(t *testing.T) {
	event := newTestEvent(t, "ORD-7")

	ce, err := event.ToCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, cloudevents.OrderBusinessRulesEvaluated, ce.Type)
	assert.Equal(t, "ORD-7", ce.OrderID)
	assert.Equal(t, "order/ORD-7", ce.Subject)
}

func TestPublisher_ProcessBatch(t *testing.T) {
	ok := newTestEvent(t, "ORD-1")
	bad := newTestEvent(t, "ORD-2")
	repo := newMemoryRepository(ok, bad)
	producer := &recordingProducer{failOn: map[string]bool{"ORD-2": true}}
	m := metrics.New(metrics.DefaultConfig("business-rules-service"))

	p := NewPublisher(repo, producer, logging.NewNop(), m, nil)
	sent := p.ProcessBatch(context.Background())

	assert.Equal(t, 1, sent)
	assert.True(t, ok.IsPublished())
	assert.False(t, bad.IsPublished())
	assert.Equal(t, 1, bad.RetryCount)
	assert.Contains(t, bad.LastError, "broker unavailable")
	assert.Equal(t, []string{"wms.business-rules.events"}, producer.topics)
	assert.Equal(t, map[string]int{"published": 1, "failed": 1}, p.Stats())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxRetries.WithLabelValues("business-rules-service", cloudevents.OrderBusinessRulesEvaluated)))
}

func TestPublisher_ProcessBatchFindError(t *testing.T) {
	repo := newMemoryRepository()
	repo.findErr = errors.New("mongo down")

	p := NewPublisher(repo, &recordingProducer{}, nil, nil, nil)
	assert.Zero(t, p.ProcessBatch(context.Background()))
}

func TestPublisher_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := newMemoryRepository(newTestEvent(t, "ORD-1"))
	producer := &recordingProducer{}
	p := NewPublisher(repo, producer, logging.NewNop(), nil, &PublisherConfig{
		PollInterval:    5 * time.Millisecond,
		BatchSize:       10,
		CleanupInterval: time.Hour,
		Retention:       time.Hour,
	})

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())

	assert.Eventually(t, func() bool { return producer.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
	assert.Error(t, p.Stop())
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rule evaluation outcomes
const (
	OutcomePassed  = "passed"
	OutcomeFlagged = "flagged"
	OutcomeInvalid = "invalid"
)

// Metrics holds the business-rules service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Rule metrics
	RuleEvaluationsTotal   *prometheus.CounterVec
	RuleEvaluationDuration *prometheus.HistogramVec
	RuleFlagsRaised        *prometheus.CounterVec
	ShipmentCBM            prometheus.Histogram
	OrdersFlagsApplied     *prometheus.CounterVec

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec
	OutboxPending            prometheus.Gauge
	OutboxPublished          *prometheus.CounterVec
	OutboxRetries            *prometheus.CounterVec

	// Temporal metrics
	ActivitiesCompleted *prometheus.CounterVec
	ActivityDuration    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"service", "method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "http_requests_in_flight",
		Help:        "Number of HTTP requests currently being processed",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.RuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "rule_evaluations_total", Help: "Business rule evaluations by rule set and outcome"},
		[]string{"service", "rule_set", "outcome"},
	)
	m.RuleEvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "rule_evaluation_duration_seconds",
			Help:      "Business rule evaluation duration in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
		[]string{"service", "rule_set"},
	)
	m.RuleFlagsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "rule_flags_raised_total", Help: "Business rule flags raised by flag name"},
		[]string{"service", "flag"},
	)
	m.ShipmentCBM = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   ns,
		Name:        "shipment_cbm",
		Help:        "Total shipment volume in cubic metres",
		Buckets:     []float64{0.5, 1, 5, 10, 20, 25, 29, 35, 50, 100},
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})
	m.OrdersFlagsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "order_flags_applied_total", Help: "Rule flag writes to order records by shipping type and status"},
		[]string{"service", "shipping_type", "status"},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "mongodb_operations_total", Help: "Total number of MongoDB operations"},
		[]string{"service", "collection", "operation", "status"},
	)
	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "collection", "operation"},
	)
	m.OutboxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "outbox_pending_events",
		Help:        "Outbox events fetched but not yet published in the last poll",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})
	m.OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "outbox_events_published_total", Help: "Outbox events relayed to Kafka"},
		[]string{"service", "event_type", "status"},
	)
	m.OutboxRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "outbox_retries_total", Help: "Outbox publish retries"},
		[]string{"service", "event_type"},
	)

	m.ActivitiesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "temporal_activities_completed_total", Help: "Total number of Temporal activities completed"},
		[]string{"service", "activity_type", "status"},
	)
	m.ActivityDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "temporal_activity_duration_seconds",
			Help:      "Temporal activity duration in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"service", "activity_type"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)"},
		[]string{"service", "name"},
	)
	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "circuit_breaker_trips_total", Help: "Total number of circuit breaker trips"},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RuleEvaluationsTotal,
		m.RuleEvaluationDuration,
		m.RuleFlagsRaised,
		m.ShipmentCBM,
		m.OrdersFlagsApplied,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.OutboxPending,
		m.OutboxPublished,
		m.OutboxRetries,
		m.ActivitiesCompleted,
		m.ActivityDuration,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordRuleEvaluation records one evaluation of a rule set and the flags it raised
func (m *Metrics) RecordRuleEvaluation(ruleSet, outcome string, duration time.Duration, flags ...string) {
	m.RuleEvaluationsTotal.WithLabelValues(m.serviceName, ruleSet, outcome).Inc()
	m.RuleEvaluationDuration.WithLabelValues(m.serviceName, ruleSet).Observe(duration.Seconds())
	for _, flag := range flags {
		m.RuleFlagsRaised.WithLabelValues(m.serviceName, flag).Inc()
	}
}

// ObserveShipmentCBM records a total shipment volume
func (m *Metrics) ObserveShipmentCBM(cbm float64) {
	m.ShipmentCBM.Observe(cbm)
}

// RecordOrderFlagsApplied records a write of rule flags to an order
func (m *Metrics) RecordOrderFlagsApplied(shippingType string, success bool) {
	m.OrdersFlagsApplied.WithLabelValues(m.serviceName, shippingType, statusLabel(success)).Inc()
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, statusLabel(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of outbox events awaiting publication
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxPublish records a relay attempt of one outbox event
func (m *Metrics) RecordOutboxPublish(eventType string, success bool) {
	m.OutboxPublished.WithLabelValues(m.serviceName, eventType, statusLabel(success)).Inc()
}

// RecordOutboxRetry records a retry scheduled for an outbox event
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

// RecordActivityCompleted records an activity completion
func (m *Metrics) RecordActivityCompleted(activityType string, success bool, duration time.Duration) {
	m.ActivitiesCompleted.WithLabelValues(m.serviceName, activityType, statusLabel(success)).Inc()
	m.ActivityDuration.WithLabelValues(m.serviceName, activityType).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}

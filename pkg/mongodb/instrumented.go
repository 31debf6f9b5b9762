package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/tracing"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedCollection wraps the collection calls the order store makes
// with a span, a metric and a debug log line.
type InstrumentedCollection struct {
	collection *mongo.Collection
	name       string
	database   string
	metrics    *metrics.Metrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

// NewInstrumentedCollection wraps a collection handle
func NewInstrumentedCollection(collection *mongo.Collection, m *metrics.Metrics, logger *logging.Logger) *InstrumentedCollection {
	return &InstrumentedCollection{
		collection: collection,
		name:       collection.Name(),
		database:   collection.Database().Name(),
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("mongodb"),
	}
}

func (c *InstrumentedCollection) Name() string {
	return c.name
}

func (c *InstrumentedCollection) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.DatabaseSpanAttributes(c.database, operation, c.name)...),
	)
}

func (c *InstrumentedCollection) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error, rows int64) {
	duration := time.Since(start)
	success := err == nil

	if c.metrics != nil {
		c.metrics.RecordMongoDBOperation(c.name, operation, success, duration)
	}
	if c.logger != nil {
		c.logger.DatabaseQuery(ctx, c.name, operation, duration, success, rows)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int64("db.rows_affected", rows))
}

// FindOne treats ErrNoDocuments as a successful lookup
func (c *InstrumentedCollection) FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "findOne")
	defer span.End()

	result := c.collection.FindOne(ctx, filter, opts...)

	err := result.Err()
	var rows int64
	if err == nil {
		rows = 1
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = nil
	}
	c.finish(ctx, span, "findOne", start, err, rows)
	return result
}

func (c *InstrumentedCollection) UpdateOne(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "updateOne")
	defer span.End()

	result, err := c.collection.UpdateOne(ctx, filter, update, opts...)

	var rows int64
	if result != nil {
		rows = result.ModifiedCount
		span.SetAttributes(attribute.Int64("db.matched_count", result.MatchedCount))
	}
	c.finish(ctx, span, "updateOne", start, err, rows)
	return result, err
}

func (c *InstrumentedCollection) InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "insertOne")
	defer span.End()

	result, err := c.collection.InsertOne(ctx, document, opts...)

	var rows int64
	if err == nil {
		rows = 1
	}
	c.finish(ctx, span, "insertOne", start, err, rows)
	return result, err
}

// CreateIndexes creates indexes and returns their names
func (c *InstrumentedCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) ([]string, error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, "createIndexes")
	defer span.End()

	names, err := c.collection.Indexes().CreateMany(ctx, models)
	c.finish(ctx, span, "createIndexes", start, err, int64(len(names)))
	return names, err
}

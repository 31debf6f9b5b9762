package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/business-rules-service/internal/domain"
	"github.com/wms-platform/business-rules-service/pkg/cloudevents"
	"github.com/wms-platform/business-rules-service/pkg/kafka"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	pkgmongo "github.com/wms-platform/business-rules-service/pkg/mongodb"
	"github.com/wms-platform/business-rules-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/business-rules-service/pkg/outbox/mongodb"
)

// DefaultOrdersCollection is the order store collection owned by the order service
const DefaultOrdersCollection = "orders"

// aggregateType tags outbox events written by this repository
const aggregateType = "OrderBusinessRules"

// EventValidator checks outgoing events against the event contract
type EventValidator interface {
	ValidateEvent(event *cloudevents.WMSCloudEvent) error
}

// RepositoryConfig configures OrderFlagsRepository
type RepositoryConfig struct {
	OrdersCollection string
	EventFactory     *cloudevents.EventFactory
	// EventValidator is optional; events are not checked when nil
	EventValidator EventValidator
	Metrics        *metrics.Metrics
	Logger         *logging.Logger
}

// OrderFlagsRepository implements domain.OrderFlagsRepository on the shared
// order store. It only ever updates existing orders.
type OrderFlagsRepository struct {
	client       *pkgmongo.Client
	orders       *pkgmongo.InstrumentedCollection
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
	validator    EventValidator
	logger       *logging.Logger
}

// flagsDocument is the projection FindFlags reads
type flagsDocument struct {
	OrderID       string                 `bson:"orderId"`
	BusinessRules *domain.OrderRuleFlags `bson:"businessRules"`
}

// NewOrderFlagsRepository creates the repository
func NewOrderFlagsRepository(client *pkgmongo.Client, config RepositoryConfig) *OrderFlagsRepository {
	name := config.OrdersCollection
	if name == "" {
		name = DefaultOrdersCollection
	}
	factory := config.EventFactory
	if factory == nil {
		factory = cloudevents.NewEventFactory(cloudevents.SourceBusinessRules)
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &OrderFlagsRepository{
		client:       client,
		orders:       pkgmongo.NewInstrumentedCollection(client.Collection(name), config.Metrics, logger),
		outboxRepo:   outboxMongo.NewOutboxRepository(client.Database()),
		eventFactory: factory,
		validator:    config.EventValidator,
		logger:       logger.WithComponent("order-flags-repository"),
	}
}

// Outbox returns the outbox repository events are written to
func (r *OrderFlagsRepository) Outbox() *outboxMongo.OutboxRepository {
	return r.outboxRepo
}

// EnsureIndexes creates the orderId lookup index and the outbox indexes
func (r *OrderFlagsRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.orders.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
		{Keys: bson.D{{Key: "shippingType", Value: 1}, {Key: "updatedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return r.outboxRepo.EnsureIndexes(ctx)
}

// ApplyFlags writes the flags onto the order and stores the pending domain
// events in the outbox within one transaction. Events are cleared once the
// transaction commits.
func (r *OrderFlagsRepository) ApplyFlags(ctx context.Context, flags *domain.OrderRuleFlags) error {
	events, err := r.toOutboxEvents(ctx, flags)
	if err != nil {
		return err
	}

	update := pkgmongo.BuildUpdateWithTimestamp(bson.M{
		"businessRules":          flags,
		"shippingType":           flags.ShippingType,
		"requiresExtraRecipient": flags.RequiresExtraRecipient,
		"memberCodeDelayed":      flags.MemberCodeDelayed,
	})

	err = r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, err := r.orders.UpdateOne(sessCtx, bson.M{"orderId": flags.OrderID}, update)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if result.MatchedCount == 0 {
			return domain.ErrOrderNotFound
		}

		if err := r.outboxRepo.SaveAll(sessCtx, events); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	r.logger.WithContext(ctx).Debug("Order rule flags applied",
		"orderId", flags.OrderID,
		"outboxEvents", len(events),
	)
	flags.ClearDomainEvents()
	return nil
}

// FindFlags reads the flags last written to an order
func (r *OrderFlagsRepository) FindFlags(ctx context.Context, orderID string) (*domain.OrderRuleFlags, error) {
	opts := options.FindOne().SetProjection(bson.M{"orderId": 1, "businessRules": 1})

	var doc flagsDocument
	err := r.orders.FindOne(ctx, bson.M{"orderId": orderID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if doc.BusinessRules == nil {
		return nil, fmt.Errorf("%w: no business rule flags recorded", domain.ErrOrderNotFound)
	}
	return doc.BusinessRules, nil
}

func (r *OrderFlagsRepository) toOutboxEvents(ctx context.Context, flags *domain.OrderRuleFlags) ([]*outbox.OutboxEvent, error) {
	correlationID, _ := ctx.Value(logging.CorrelationIDKey).(string)

	events := make([]*outbox.OutboxEvent, 0, len(flags.GetDomainEvents()))
	for _, event := range flags.GetDomainEvents() {
		data, err := eventData(event)
		if err != nil {
			return nil, err
		}

		cloudEvent := r.eventFactory.CreateOrderEvent(ctx, event.EventType(), flags.OrderID, correlationID, data)
		if r.validator != nil {
			if err := r.validator.ValidateEvent(cloudEvent); err != nil {
				return nil, fmt.Errorf("event %s violates contract: %w", event.EventType(), err)
			}
		}

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(flags.OrderID, aggregateType, kafka.Topics.BusinessRulesEvents, cloudEvent)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox event: %w", err)
		}
		events = append(events, outboxEvent)
	}
	return events, nil
}

func eventData(event domain.DomainEvent) (any, error) {
	switch e := event.(type) {
	case *domain.OrderBusinessRulesEvaluatedEvent:
		return cloudevents.OrderBusinessRulesEvaluatedData{
			OrderID:                e.OrderID,
			TotalCBM:               e.TotalCBM,
			ShippingType:           e.ShippingType,
			CBMExceedsLimit:        e.CBMExceedsLimit,
			AmountExceedsThreshold: e.AmountExceedsThreshold,
			RequiresExtraRecipient: e.RequiresExtraRecipient,
			MemberCodeMissing:      e.MemberCodeMissing,
			Warnings:               e.Warnings,
			EvaluatedAt:            e.EvaluatedAt,
		}, nil
	case *domain.ShipmentConvertedToAirEvent:
		return cloudevents.ShipmentConvertedToAirData{
			OrderID:     e.OrderID,
			TotalCBM:    e.TotalCBM,
			ThresholdM3: e.ThresholdM3,
			ConvertedAt: e.ConvertedAt,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported domain event %T", event)
	}
}

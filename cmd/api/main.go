package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	contracts "github.com/wms-platform/business-rules-service/api"
	"github.com/wms-platform/business-rules-service/internal/api"
	"github.com/wms-platform/business-rules-service/internal/application"
	"github.com/wms-platform/business-rules-service/internal/domain"
	mongoRepo "github.com/wms-platform/business-rules-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/business-rules-service/pkg/cloudevents"
	"github.com/wms-platform/business-rules-service/pkg/contracts/asyncapi"
	"github.com/wms-platform/business-rules-service/pkg/kafka"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/mongodb"
	"github.com/wms-platform/business-rules-service/pkg/outbox"
	"github.com/wms-platform/business-rules-service/pkg/resilience"
	"github.com/wms-platform/business-rules-service/pkg/tracing"
)

const serviceName = "business-rules-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting business-rules-service API")

	config := loadConfig()
	ctx := context.Background()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = config.OTLPEndpoint
	tracingConfig.Environment = config.Environment
	tracingConfig.ServiceVersion = config.Version
	tracingConfig.Enabled = config.TracingEnabled

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	var (
		flagsRepo domain.OrderFlagsRepository
		readiness func() error
	)
	if config.PersistenceEnabled {
		var mongoClient *mongodb.Client
		err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			var err error
			mongoClient, err = mongodb.NewClient(ctx, config.MongoDB)
			return err
		})
		if err != nil {
			logger.WithError(err).Error("Failed to connect to MongoDB")
			os.Exit(1)
		}
		defer mongoClient.Close(context.Background())
		logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

		eventValidator, err := asyncapi.NewEventValidatorFromBytes(contracts.AsyncAPISpec)
		if err != nil {
			logger.WithError(err).Error("Failed to load event contract")
			os.Exit(1)
		}

		repo := mongoRepo.NewOrderFlagsRepository(mongoClient, mongoRepo.RepositoryConfig{
			OrdersCollection: config.OrdersCollection,
			EventFactory:     cloudevents.NewEventFactory(cloudevents.SourceBusinessRules),
			EventValidator:   eventValidator,
			Metrics:          m,
			Logger:           logger,
		})
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("Failed to ensure indexes")
		}
		flagsRepo = mongoRepo.NewResilientOrderFlagsRepository(repo, nil, logger, m)

		kafkaProducer := kafka.NewProducer(config.Kafka)
		defer kafkaProducer.Close()
		instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
		logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

		outboxPublisher := outbox.NewPublisher(repo.Outbox(), instrumentedProducer, logger, m, outbox.DefaultPublisherConfig())
		if err := outboxPublisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			os.Exit(1)
		}
		defer outboxPublisher.Stop()
		logger.Info("Outbox publisher started")

		readiness = func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return mongoClient.HealthCheck(checkCtx)
		}
	} else {
		logger.Warn("Order persistence disabled, apply endpoints return 503")
	}

	service := application.NewBusinessRuleApplicationService(flagsRepo, logger, m)

	router := api.NewRouter(api.RouterConfig{
		ServiceName:    serviceName,
		Logger:         logger,
		Metrics:        m,
		Service:        service,
		TracingEnabled: config.TracingEnabled,
		ReadinessCheck: readiness,
	})

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds the API process configuration
type Config struct {
	ServerAddr         string
	Environment        string
	Version            string
	OTLPEndpoint       string
	TracingEnabled     bool
	PersistenceEnabled bool
	OrdersCollection   string
	MongoDB            *mongodb.Config
	Kafka              *kafka.Config
}

func loadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092"))
	kafkaConfig.ClientID = serviceName

	return &Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		Version:            getEnv("VERSION", "1.0.0"),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled:     getEnv("TRACING_ENABLED", "true") == "true",
		PersistenceEnabled: getEnv("PERSISTENCE_ENABLED", "true") == "true",
		OrdersCollection:   getEnv("ORDERS_COLLECTION", mongoRepo.DefaultOrdersCollection),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "orders_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: kafkaConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	contracts "github.com/wms-platform/business-rules-service/api"
	"github.com/wms-platform/business-rules-service/internal/activities"
	"github.com/wms-platform/business-rules-service/internal/application"
	mongoRepo "github.com/wms-platform/business-rules-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/business-rules-service/internal/workflows"
	"github.com/wms-platform/business-rules-service/pkg/cloudevents"
	"github.com/wms-platform/business-rules-service/pkg/contracts/asyncapi"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/mongodb"
	"github.com/wms-platform/business-rules-service/pkg/resilience"
	"github.com/wms-platform/business-rules-service/pkg/temporal"
)

const serviceName = "business-rules-worker"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting business-rules worker")

	config := loadConfig()
	ctx := context.Background()

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

	m := metrics.New(metrics.DefaultConfig(serviceName))

	// outbox events written here are relayed to Kafka by the API process
	repo := mongoRepo.NewOrderFlagsRepository(mongoClient, mongoRepo.RepositoryConfig{
		OrdersCollection: config.OrdersCollection,
		EventFactory:     cloudevents.NewEventFactory(cloudevents.SourceBusinessRules),
		EventValidator:   eventValidator,
		Metrics:          m,
		Logger:           logger,
	})
	flagsRepo := mongoRepo.NewResilientOrderFlagsRepository(repo, nil, logger, m)
	service := application.NewBusinessRuleApplicationService(flagsRepo, logger, m)

	temporalClient, err := temporal.NewClient(ctx, config.Temporal, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort)

	ruleActivities := activities.NewBusinessRulesActivities(service, logger, m)

	w := temporalClient.NewWorker(temporal.DefaultWorkerOptions(temporal.TaskQueues.BusinessRules))

	w.RegisterWorkflow(workflows.OrderBusinessRulesWorkflow)
	logger.Info("Registered workflow", "workflow", temporal.WorkflowNames.OrderBusinessRules)

	w.RegisterActivity(ruleActivities.EvaluateOrderRules)
	w.RegisterActivity(ruleActivities.ApplyOrderRules)
	logger.Info("Registered activities")

	if err := w.Start(); err != nil {
		logger.WithError(err).Error("Worker failed to start")
		os.Exit(1)
	}
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.BusinessRules)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()
	logger.Info("Worker stopped")
}

// Config holds the worker process configuration
type Config struct {
	OrdersCollection string
	MongoDB          *mongodb.Config
	Temporal         *temporal.Config
}

func loadConfig() *Config {
	return &Config{
		OrdersCollection: getEnv("ORDERS_COLLECTION", mongoRepo.DefaultOrdersCollection),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "orders_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Temporal: &temporal.Config{
			HostPort:  getEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			Identity:  serviceName,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

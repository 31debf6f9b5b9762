package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/business-rules-service/pkg/logging"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// Config holds Temporal client configuration
type Config struct {
	HostPort  string
	Namespace string
	Identity  string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "business-rules-worker",
	}
}

// TaskQueues contains the task queues this service polls
var TaskQueues = struct {
	BusinessRules string
}{
	BusinessRules: "business-rules-queue",
}

// WorkflowNames contains the registered workflow names
var WorkflowNames = struct {
	OrderBusinessRules string
}{
	OrderBusinessRules: "OrderBusinessRulesWorkflow",
}

// ActivityNames contains the registered activity names
var ActivityNames = struct {
	EvaluateOrderRules string
	ApplyOrderRules    string
}{
	EvaluateOrderRules: "EvaluateOrderRules",
	ApplyOrderRules:    "ApplyOrderRules",
}

// Client wraps the Temporal client
type Client struct {
	client client.Client
	config *Config
}

// NewClient dials the Temporal frontend, routing SDK logs through logger
func NewClient(ctx context.Context, config *Config, logger *logging.Logger) (*Client, error) {
	options := client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
	}
	if logger != nil {
		options.Logger = tlog.NewStructuredLogger(logger.WithComponent("temporal").Logger)
	}

	c, err := client.DialContext(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{client: c, config: config}, nil
}

// Close closes the underlying connection
func (c *Client) Close() {
	c.client.Close()
}

// WorkerOptions contains options for creating a worker
type WorkerOptions struct {
	TaskQueue                    string
	MaxConcurrentActivityPollers int
	MaxConcurrentWorkflowPollers int
	MaxConcurrentActivities      int
	MaxConcurrentWorkflows       int
}

// DefaultWorkerOptions returns default worker options
func DefaultWorkerOptions(taskQueue string) *WorkerOptions {
	return &WorkerOptions{
		TaskQueue:                    taskQueue,
		MaxConcurrentActivityPollers: 2,
		MaxConcurrentWorkflowPollers: 2,
		MaxConcurrentActivities:      50,
		MaxConcurrentWorkflows:       50,
	}
}

// NewWorker creates a worker bound to opts.TaskQueue
func (c *Client) NewWorker(opts *WorkerOptions) worker.Worker {
	return worker.New(c.client, opts.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     opts.MaxConcurrentActivities,
		MaxConcurrentWorkflowTaskExecutionSize: opts.MaxConcurrentWorkflows,
		MaxConcurrentActivityTaskPollers:       opts.MaxConcurrentActivityPollers,
		MaxConcurrentWorkflowTaskPollers:       opts.MaxConcurrentWorkflowPollers,
	})
}

// Non-retryable application error types raised by activities
const (
	ErrTypeInvalidInput  = "InvalidInput"
	ErrTypeOrderNotFound = "OrderNotFound"
)

// DefaultActivityOptions returns the activity options workflows use
func DefaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &sdktemporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{ErrTypeInvalidInput, ErrTypeOrderNotFound},
		},
	}
}

package messagebus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/AchAffand/SuratJalan-sub001/config"
	"github.com/AchAffand/SuratJalan-sub001/internal/metrics"
)

// Client defines the interface for message bus operations
type Client interface {
	PublishMessage(ctx context.Context, message interface{}, queueName string) error
	Close(ctx context.Context) error
}

// AzureServiceBusClient implements Client using Azure Service Bus
type AzureServiceBusClient struct {
	client *azservicebus.Client
	prefix string
}

// NewClient creates a new message bus client
func NewClient(cfg *config.ServiceBusConfig) (Client, error) {
	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create service bus client: %w", err)
	}

	return &AzureServiceBusClient{
		client: client,
		prefix: cfg.Prefix,
	}, nil
}

// getQueueName returns the full queue name with prefix
func (c *AzureServiceBusClient) getQueueName(queueName string) string {
	if c.prefix == "" {
		return queueName
	}
	return fmt.Sprintf("%s-%s", c.prefix, queueName)
}

// PublishMessage publishes a message to a queue
func (c *AzureServiceBusClient) PublishMessage(ctx context.Context, message interface{}, queueName string) error {
	collector := metrics.GetMetricsCollector()

	sender, err := c.client.NewSender(c.getQueueName(queueName), nil)
	if err != nil {
		collector.RecordMessageBusOperation(metrics.MessageBusOperationSend, false)
		return fmt.Errorf("failed to create sender for queue %s: %w", queueName, err)
	}
	defer sender.Close(ctx)

	messageBytes, err := json.Marshal(message)
	if err != nil {
		collector.RecordMessageBusOperation(metrics.MessageBusOperationSend, false)
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	sbMessage := &azservicebus.Message{
		Body: messageBytes,
	}

	if err := sender.SendMessage(ctx, sbMessage, nil); err != nil {
		collector.RecordMessageBusOperation(metrics.MessageBusOperationSend, false)
		return fmt.Errorf("failed to send message: %w", err)
	}

	collector.RecordMessageBusOperation(metrics.MessageBusOperationSend, true)
	return nil
}

// Close closes the client
func (c *AzureServiceBusClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// IsDisconnectionError checks if an error is a disconnection error
func IsDisconnectionError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "amqp: link detached") ||
		strings.Contains(errMsg, "awaiting send: context deadline exceeded")
}

// RetryWithBackoff retries an operation with exponential backoff
func RetryWithBackoff(ctx context.Context, fn func() error, maxRetries int) error {
	var err error

	for retry := 0; retry < maxRetries; retry++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !IsDisconnectionError(err) {
			return err
		}

		// Calculate backoff duration
		backoff := time.Duration(1<<uint(retry)) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}

		select {
		case <-time.After(backoff):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

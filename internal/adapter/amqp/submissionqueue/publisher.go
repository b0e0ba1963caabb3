package submissionqueue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/core/ports/secondary"
	"gitlab.com/code-engine.net/internal/domain"
)

var _ secondary.TaskPublisher = (*Publisher)(nil)

// Publisher enqueues submissions onto the submission queue
type Publisher struct {
	channel   *amqp.Channel
	queueName string
	logger    primary.Logger
}

// NewPublisher creates a publisher on its own channel
func NewPublisher(channel *amqp.Channel, queueName string, logger primary.Logger) *Publisher {
	return &Publisher{
		channel:   channel,
		queueName: queueName,
		logger:    logger,
	}
}

// PublishTask publishes one job as a persistent JSON message
func (p *Publisher) PublishTask(ctx context.Context, job *domain.QueuedJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		p.logger.Error("Failed to marshal queued job", "task_id", job.TaskID, "error", err)
		return fmt.Errorf("failed to marshal queued job: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
	if err != nil {
		p.logger.Error("Failed to publish queued job", "task_id", job.TaskID, "error", err)
		return fmt.Errorf("failed to publish queued job: %w", err)
	}

	p.logger.Debug("Published queued job", "task_id", job.TaskID, "queue", p.queueName)
	return nil
}

package submissionqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/core/services/judge"
	"gitlab.com/code-engine.net/internal/domain"
)

// Consumer drains the submission queue through a bounded worker pool: a
// buffered delivery channel plus a fixed number of judge goroutines. The
// pool size, not the queue depth, bounds in-flight work; the broker is told
// the same bound via prefetch.
type Consumer struct {
	channel   *amqp.Channel
	queueName string
	workers   int
	capacity  int
	judge     judge.IJudgeService
	logger    primary.Logger
	wg        sync.WaitGroup
}

// NewConsumer creates a consumer with the given pool size and buffer capacity
func NewConsumer(connector *Connector, workers, capacity int, judgeService judge.IJudgeService, logger primary.Logger) *Consumer {
	return &Consumer{
		channel:   connector.Channel(),
		queueName: connector.QueueName(),
		workers:   workers,
		capacity:  capacity,
		judge:     judgeService,
		logger:    logger,
	}
}

// Start registers the consumer and launches the pool. It returns once the
// pool is running; cancel ctx to initiate a drain, then Wait for it.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(c.workers, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.queueName,
		"submission_consumer",
		false, // autoAck: acks are manual, after cleanup
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consuming submission queue",
		"queue", c.queueName,
		"workers", c.workers,
		"capacity", c.capacity)

	c.run(ctx, deliveries)
	return nil
}

// run feeds deliveries into the bounded pool until ctx is cancelled or the
// delivery channel closes
func (c *Consumer) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	jobs := make(chan amqp.Delivery, c.capacity)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, jobs)
	}

	go func() {
		defer close(jobs)
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				select {
				case jobs <- delivery:
				case <-ctx.Done():
					// unacked, the broker will redeliver
					return
				}
			}
		}
	}()
}

// Wait blocks until every worker has drained and exited
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) worker(ctx context.Context, jobs <-chan amqp.Delivery) {
	defer c.wg.Done()
	for delivery := range jobs {
		if ctx.Err() != nil {
			// unacked, the broker will redeliver
			continue
		}
		c.handleDelivery(ctx, delivery)
	}
}

// handleDelivery judges one message. A delivery is acked exactly once, after
// processing and cleanup: a failed task must not be redelivered forever, and
// the store's insert semantics tolerate the occasional redelivery of an
// already processed task. An attempt cut short by shutdown is the exception,
// it stays unacked so the broker hands the task to the next consumer.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var job domain.QueuedJob
	if err := json.Unmarshal(delivery.Body, &job); err != nil {
		c.logger.Error("Failed to decode queued job, dropping message", "error", err)
		c.ack(delivery, job)
		return
	}

	if err := c.judge.ProcessTask(ctx, &job); err != nil {
		if ctx.Err() != nil {
			c.logger.Warn("Task interrupted by shutdown, leaving delivery unacked", "task_id", job.TaskID, "error", err)
			return
		}
		c.logger.Error("Task processing failed", "task_id", job.TaskID, "error", err)
	}

	c.ack(delivery, job)
}

func (c *Consumer) ack(delivery amqp.Delivery, job domain.QueuedJob) {
	if err := delivery.Ack(false); err != nil {
		c.logger.Error("Failed to ack message", "task_id", job.TaskID, "error", err)
	}
}

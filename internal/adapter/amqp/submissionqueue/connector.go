// package submissionqueue contains the AMQP adapter for the submission
// queue: connection management, publishing and the consuming worker pool.
package submissionqueue

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
)

// Connector owns the broker connection and the channel the consumer reads
// from. The submission queue is declared durable so messages survive a
// broker restart.
type Connector struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	cfg     *config.AmqpConfig
	logger  primary.Logger
}

// NewConnector dials the broker, retrying on a fixed interval, and declares
// the submission queue. After the final failed attempt the error is fatal;
// recovery is a supervised restart.
func NewConnector(cfg *config.AmqpConfig, logger primary.Logger) (*Connector, error) {
	conn, err := dialWithRetry(cfg, logger)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	logger.Info("Connected to AMQP broker", "queue", queue.Name)

	return &Connector{
		conn:    conn,
		channel: channel,
		queue:   queue,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func dialWithRetry(cfg *config.AmqpConfig, logger primary.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for attempt := 1; ; attempt++ {
		conn, err = amqp.Dial(cfg.Url)
		if err == nil {
			return conn, nil
		}
		if attempt >= cfg.MaxRetries {
			return nil, fmt.Errorf("failed to connect to AMQP broker after %d attempts: %w", attempt, err)
		}
		logger.Warn("Failed to connect to AMQP broker, retrying",
			"attempt", attempt,
			"max_retries", cfg.MaxRetries,
			"retry_interval", cfg.RetryInterval,
			"error", err)
		time.Sleep(cfg.RetryInterval)
	}
}

// Channel returns the consuming channel
func (c *Connector) Channel() *amqp.Channel {
	return c.channel
}

// QueueName returns the declared queue name
func (c *Connector) QueueName() string {
	return c.queue.Name
}

// OpenChannel opens a dedicated channel, used by publishers so publishing
// never contends with the consumer
func (c *Connector) OpenChannel() (*amqp.Channel, error) {
	channel, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return channel, nil
}

// Close tears down the channel and connection
func (c *Connector) Close() error {
	if err := c.channel.Close(); err != nil {
		c.logger.Warn("Failed to close channel", "error", err)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

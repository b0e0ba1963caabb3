// package statuscache contains the Redis read-through cache in front of the
// task status repository
package statuscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/core/ports/secondary"
	"gitlab.com/code-engine.net/internal/domain"
)

const taskStatusKeyPrefix = "task:status:"

var _ secondary.TaskStatusCache = (*TaskStatusCache)(nil)

// TaskStatusCache implements the task status cache with Redis
type TaskStatusCache struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      primary.Logger
}

// NewTaskStatusCache creates a new Redis task status cache
func NewTaskStatusCache(redisClient *redis.Client, ttl time.Duration, logger primary.Logger) *TaskStatusCache {
	return &TaskStatusCache{
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

// GetTaskStatus retrieves a cached record, (nil, nil) on a miss
func (c *TaskStatusCache) GetTaskStatus(ctx context.Context, taskID uuid.UUID) (*domain.TaskStatusRecord, error) {
	key := fmt.Sprintf("%s%s", taskStatusKeyPrefix, taskID)
	data, err := c.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		c.logger.Error("Failed to get cached task status", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to get cached task status: %w", err)
	}

	var record domain.TaskStatusRecord
	if err := json.Unmarshal(data, &record); err != nil {
		c.logger.Error("Failed to unmarshal cached task status", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal cached task status: %w", err)
	}

	return &record, nil
}

// SetTaskStatus caches a record with the configured TTL. Only Completed
// records are worth caching; Pending records are about to change and are
// silently skipped.
func (c *TaskStatusCache) SetTaskStatus(ctx context.Context, record *domain.TaskStatusRecord) error {
	if record.Status != domain.TaskStateCompleted {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		c.logger.Error("Failed to marshal task status", "task_id", record.TaskID, "error", err)
		return fmt.Errorf("failed to marshal task status: %w", err)
	}

	key := fmt.Sprintf("%s%s", taskStatusKeyPrefix, record.TaskID)
	if err := c.redisClient.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Failed to cache task status", "task_id", record.TaskID, "error", err)
		return fmt.Errorf("failed to cache task status: %w", err)
	}

	return nil
}

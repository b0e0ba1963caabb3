package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/code-engine.net/internal/domain"
)

// TaskStatusRepository defines the interface for persisting task status records
type TaskStatusRepository interface {
	// InsertPending records a freshly dequeued task. Redelivery of an
	// already known task is a no-op; an existing record is never regressed
	// to Pending.
	InsertPending(ctx context.Context, record *domain.TaskStatusRecord) error

	// MarkCompleted finalizes a task with its verdicts and, for compile
	// failures, the compiler's error text
	MarkCompleted(ctx context.Context, taskID uuid.UUID, compilerErrorMsg string, results []domain.TestCaseResult) error

	// GetByTaskID retrieves a record by task id, (nil, nil) when absent
	GetByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.TaskStatusRecord, error)
}

// TaskStatusCache is a read-through cache in front of the status repository.
// Cache failures must degrade to the repository, never surface to callers.
type TaskStatusCache interface {
	// GetTaskStatus returns the cached record, (nil, nil) on a miss
	GetTaskStatus(ctx context.Context, taskID uuid.UUID) (*domain.TaskStatusRecord, error)

	// SetTaskStatus caches a record with the configured TTL
	SetTaskStatus(ctx context.Context, record *domain.TaskStatusRecord) error
}

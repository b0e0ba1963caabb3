package judge

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/code-engine.net/internal/domain"
)

// IJudgeService defines the interface for judging code submissions
type IJudgeService interface {
	// SubmitTask validates a submission and enqueues it for asynchronous
	// judging, returning the minted task id
	SubmitTask(ctx context.Context, req *domain.SubmissionRequest) (uuid.UUID, error)

	// ProcessTask judges one dequeued submission end to end: record Pending,
	// compile, run every test case in order, record Completed
	ProcessTask(ctx context.Context, job *domain.QueuedJob) error

	// RunSingle compiles and runs a program once against a single stdin,
	// synchronously and without persistence
	RunSingle(ctx context.Context, req *domain.TestRunRequest) *domain.TestRunResult

	// GetTaskStatus retrieves the status record for a task, (nil, nil) when
	// the task is unknown or not yet picked up
	GetTaskStatus(ctx context.Context, taskID uuid.UUID) (*domain.TaskStatusRecord, error)
}

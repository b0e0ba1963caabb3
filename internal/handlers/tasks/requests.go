package tasks

import (
	"github.com/google/uuid"

	"gitlab.com/code-engine.net/internal/domain"
)

// ExecuteResponse acknowledges an accepted submission.
type ExecuteResponse struct {
	TaskID  uuid.UUID `json:"task_id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// TaskStatusResponse wraps a status lookup. Result is null when the
// task id is unknown.
type TaskStatusResponse struct {
	Result *domain.TaskStatusRecord `json:"result"`
}

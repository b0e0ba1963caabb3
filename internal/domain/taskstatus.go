package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskState represents the lifecycle state of a judged task
type TaskState string

const (
	TaskStatePending   TaskState = "PENDING"
	TaskStateCompleted TaskState = "COMPLETED"
)

// TaskStatusRecord represents the persisted state of one task. A record is
// written as Pending when the task is picked up and updated to Completed
// exactly once when judging finishes.
type TaskStatusRecord struct {
	TaskID           uuid.UUID        `db:"task_id" json:"task_id"`
	Status           TaskState        `db:"status" json:"status"`
	CompilerErrorMsg string           `db:"compiler_error_msg" json:"compiler_error_msg"`
	TestCaseResults  []TestCaseResult `db:"test_case_results" json:"test_case_results"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

type TaskStatusTable struct {
	TaskID           string
	Status           string
	CompilerErrorMsg string
	TestCaseResults  string
	CreatedAt        string
}

func GetTaskStatusTable() TaskStatusTable {
	return TaskStatusTable{
		TaskID:           "task_id",
		Status:           "status",
		CompilerErrorMsg: "compiler_error_msg",
		TestCaseResults:  "test_case_results",
		CreatedAt:        "created_at",
	}
}

func (TaskStatusTable) TableName() string {
	return "task_status"
}

// NewPendingTaskStatus creates the initial record for a freshly dequeued task
func NewPendingTaskStatus(taskID uuid.UUID) *TaskStatusRecord {
	return &TaskStatusRecord{
		TaskID:          taskID,
		Status:          TaskStatePending,
		TestCaseResults: []TestCaseResult{},
		CreatedAt:       time.Now(),
	}
}

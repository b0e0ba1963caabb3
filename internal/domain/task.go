package domain

import (
	"github.com/google/uuid"
)

// TestCase represents a single test case attached to a submission
type TestCase struct {
	SerialNumber   int    `json:"srno"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// SubmissionRequest represents a code submission to be judged
type SubmissionRequest struct {
	Language   string     `json:"lang"`
	SourceCode string     `json:"source_code"`
	TestCases  []TestCase `json:"test_cases"`
}

// QueuedJob is the broker message: one submission bound to its task id
type QueuedJob struct {
	TaskID  uuid.UUID         `json:"task_id"`
	Request SubmissionRequest `json:"task_request"`
}

// NewQueuedJob creates a queued job with a fresh task id
func NewQueuedJob(req SubmissionRequest) *QueuedJob {
	return &QueuedJob{
		TaskID:  uuid.New(),
		Request: req,
	}
}

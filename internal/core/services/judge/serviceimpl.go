package judge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/core/ports/secondary"
	"gitlab.com/code-engine.net/internal/domain"
	"gitlab.com/code-engine.net/internal/runner"
)

var _ IJudgeService = (*JudgeService)(nil)

// ErrInvalidSubmission is returned by SubmitTask for requests missing a
// language, source code or test cases
var ErrInvalidSubmission = errors.New("invalid submission")

// runnerFactory builds a runner for one task; swapped out in tests
type runnerFactory func(lang string, taskID uuid.UUID, sourceCode string, cfg *config.JudgeConfig, logger primary.Logger) (runner.Runner, error)

// JudgeService implements the judge service
type JudgeService struct {
	taskRepo    secondary.TaskStatusRepository
	statusCache secondary.TaskStatusCache
	publisher   secondary.TaskPublisher
	cfg         *config.JudgeConfig
	logger      primary.Logger
	newRunner   runnerFactory
}

// NewJudgeService creates a new judge service
func NewJudgeService(
	taskRepo secondary.TaskStatusRepository,
	statusCache secondary.TaskStatusCache,
	publisher secondary.TaskPublisher,
	cfg *config.JudgeConfig,
	logger primary.Logger,
) *JudgeService {
	return &JudgeService{
		taskRepo:    taskRepo,
		statusCache: statusCache,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger,
		newRunner:   runner.New,
	}
}

// SubmitTask validates a submission and publishes it onto the queue
func (s *JudgeService) SubmitTask(ctx context.Context, req *domain.SubmissionRequest) (uuid.UUID, error) {
	if req.Language == "" || req.SourceCode == "" || len(req.TestCases) == 0 {
		return uuid.Nil, ErrInvalidSubmission
	}

	job := domain.NewQueuedJob(*req)
	s.logger.Info("Queueing submission",
		"task_id", job.TaskID,
		"lang", req.Language,
		"test_cases", len(req.TestCases))

	if err := s.publisher.PublishTask(ctx, job); err != nil {
		s.logger.Error("Failed to publish task", "task_id", job.TaskID, "error", err)
		return uuid.Nil, fmt.Errorf("failed to publish task: %w", err)
	}

	return job.TaskID, nil
}

// ProcessTask judges one dequeued submission. The runner is cleaned up on
// every exit path; the caller acks the delivery only after this returns.
func (s *JudgeService) ProcessTask(ctx context.Context, job *domain.QueuedJob) error {
	s.logger.Info("Processing task",
		"task_id", job.TaskID,
		"lang", job.Request.Language,
		"test_cases", len(job.Request.TestCases))

	record := domain.NewPendingTaskStatus(job.TaskID)
	if err := s.taskRepo.InsertPending(ctx, record); err != nil {
		return fmt.Errorf("failed to insert pending status: %w", err)
	}

	r, err := s.newRunner(job.Request.Language, job.TaskID, job.Request.SourceCode, s.cfg, s.logger)
	if err != nil {
		s.logger.Error("Failed to build runner", "task_id", job.TaskID, "error", err)
		return err
	}

	defer func() {
		if cleanupErr := r.Cleanup(); cleanupErr != nil {
			s.logger.Error("Cleanup failed", "task_id", job.TaskID, "error", cleanupErr)
		}
	}()

	if err := r.Initialize(ctx); err != nil {
		s.logger.Error("Failed to initialize runner", "task_id", job.TaskID, "error", err)
		return fmt.Errorf("failed to initialize runner: %w", err)
	}

	if _, err := r.Compile(ctx); err != nil {
		return s.complete(ctx, record, err.Error(), []domain.TestCaseResult{})
	}

	results := make([]domain.TestCaseResult, 0, len(job.Request.TestCases))
	for _, tc := range job.Request.TestCases {
		stdout, execErr := r.Execute(ctx, tc.Input)
		if execErr != nil {
			s.logger.Warn("Test case errored",
				"task_id", job.TaskID,
				"srno", tc.SerialNumber,
				"error", execErr)
			results = append(results, domain.NewErrorResult(tc.SerialNumber, execErr.Error()))
			continue
		}
		results = append(results, domain.NewJudgedResult(tc.SerialNumber, stdout, tc.ExpectedOutput))
	}

	return s.complete(ctx, record, "", results)
}

// complete finalizes the record in the store and writes through to the cache
func (s *JudgeService) complete(ctx context.Context, record *domain.TaskStatusRecord, compilerErrorMsg string, results []domain.TestCaseResult) error {
	if err := s.taskRepo.MarkCompleted(ctx, record.TaskID, compilerErrorMsg, results); err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}

	record.Status = domain.TaskStateCompleted
	record.CompilerErrorMsg = compilerErrorMsg
	record.TestCaseResults = results
	if err := s.statusCache.SetTaskStatus(ctx, record); err != nil {
		s.logger.Warn("Failed to cache completed status", "task_id", record.TaskID, "error", err)
	}

	s.logger.Info("Task completed",
		"task_id", record.TaskID,
		"results", len(results),
		"compiler_error", compilerErrorMsg != "")
	return nil
}

// RunSingle compiles and runs a program once, synchronously
func (s *JudgeService) RunSingle(ctx context.Context, req *domain.TestRunRequest) *domain.TestRunResult {
	res := domain.NewTestRunResult(req.Language)
	runID := uuid.New()
	s.logger.Info("Test run request received", "run_id", runID, "lang", req.Language)

	r, err := s.newRunner(req.Language, runID, req.SourceCode, s.cfg, s.logger)
	if err != nil {
		res.CompilerErr = err.Error()
		res.Status = domain.TestRunStateCompilerError
		return res
	}

	defer func() {
		if cleanupErr := r.Cleanup(); cleanupErr != nil {
			s.logger.Error("Cleanup failed", "run_id", runID, "error", cleanupErr)
		}
	}()

	if err := r.Initialize(ctx); err != nil {
		res.Stderr = err.Error()
		res.Status = domain.TestRunStateRuntimeError
		return res
	}

	if _, err := r.Compile(ctx); err != nil {
		res.CompilerErr = err.Error()
		res.Status = domain.TestRunStateCompilerError
		return res
	}

	stdout, err := r.Execute(ctx, req.Stdin)
	if err != nil {
		res.Stderr = err.Error()
		res.Status = domain.TestRunStateRuntimeError
		return res
	}

	res.Stdout = stdout
	res.Status = domain.TestRunStateExecuted
	return res
}

// GetTaskStatus resolves a task's status through the cache, falling back to
// the repository. Cache failures are logged and degrade to the store.
func (s *JudgeService) GetTaskStatus(ctx context.Context, taskID uuid.UUID) (*domain.TaskStatusRecord, error) {
	cached, err := s.statusCache.GetTaskStatus(ctx, taskID)
	if err != nil {
		s.logger.Warn("Status cache read failed", "task_id", taskID, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	record, err := s.taskRepo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	if err := s.statusCache.SetTaskStatus(ctx, record); err != nil {
		s.logger.Warn("Status cache write failed", "task_id", taskID, "error", err)
	}

	return record, nil
}

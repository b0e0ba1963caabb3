// package taskstore contains the PostgreSQL implementation of the task
// status repository
package taskstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmoiron/sqlx"

	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/core/ports/secondary"
	"gitlab.com/code-engine.net/internal/domain"
	querybuilder "gitlab.com/code-engine.net/internal/utils"
)

var _ secondary.TaskStatusRepository = (*TaskStatusRepository)(nil)

// ErrTaskNotPending is returned when MarkCompleted finds no row to update
var ErrTaskNotPending = errors.New("no pending record for task")

// TaskStatusRepository implements the task status repository with PostgreSQL
type TaskStatusRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewTaskStatusRepository creates a new PostgreSQL task status repository
func NewTaskStatusRepository(db *sqlx.DB, logger primary.Logger) *TaskStatusRepository {
	return &TaskStatusRepository{
		db:     db,
		logger: logger,
	}
}

// InsertPending records a freshly dequeued task. The queue delivers at least
// once, so the insert tolerates an existing row and never overwrites it: a
// redelivery must not regress a Completed task back to Pending.
func (r *TaskStatusRepository) InsertPending(ctx context.Context, record *domain.TaskStatusRecord) error {
	resultsJSON, err := json.Marshal(record.TestCaseResults)
	if err != nil {
		r.logger.Error("Failed to marshal test case results", "error", err)
		return fmt.Errorf("failed to marshal test case results: %w", err)
	}

	tbl := domain.GetTaskStatusTable()
	query, args := querybuilder.NewQueryBuilder("public").
		Insert(tbl.TaskID, tbl.Status, tbl.CompilerErrorMsg, tbl.TestCaseResults, tbl.CreatedAt).
		Into(tbl.TableName()).
		Values(record.TaskID, record.Status, record.CompilerErrorMsg, resultsJSON, record.CreatedAt).
		OnConflict(tbl.TaskID).
		DoNothing().
		Build()

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		r.logger.Error("Failed to insert pending task status", "task_id", record.TaskID, "error", err)
		return fmt.Errorf("failed to insert pending task status: %w", err)
	}

	return nil
}

// MarkCompleted finalizes a task with its verdicts. Updating a task that was
// never inserted is a bug in the caller, not a race, and is reported.
func (r *TaskStatusRepository) MarkCompleted(ctx context.Context, taskID uuid.UUID, compilerErrorMsg string, results []domain.TestCaseResult) error {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		r.logger.Error("Failed to marshal test case results", "error", err)
		return fmt.Errorf("failed to marshal test case results: %w", err)
	}

	query := `
		UPDATE task_status
		SET status = $1, compiler_error_msg = $2, test_case_results = $3
		WHERE task_id = $4
	`

	res, err := r.db.ExecContext(ctx, query, domain.TaskStateCompleted, compilerErrorMsg, resultsJSON, taskID)
	if err != nil {
		r.logger.Error("Failed to mark task completed", "task_id", taskID, "error", err)
		return fmt.Errorf("failed to mark task completed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.Error("No pending record to complete", "task_id", taskID)
		return fmt.Errorf("%w: %s", ErrTaskNotPending, taskID)
	}

	return nil
}

// GetByTaskID retrieves a task status record, (nil, nil) when absent
func (r *TaskStatusRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.TaskStatusRecord, error) {
	query := `
		SELECT task_id, status, compiler_error_msg, test_case_results, created_at
		FROM task_status
		WHERE task_id = $1
	`

	var record domain.TaskStatusRecord
	var resultsJSON []byte

	err := r.db.QueryRowContext(ctx, query, taskID).Scan(
		&record.TaskID,
		&record.Status,
		&record.CompilerErrorMsg,
		&resultsJSON,
		&record.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get task status", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	if err := json.Unmarshal(resultsJSON, &record.TestCaseResults); err != nil {
		r.logger.Error("Failed to unmarshal test case results", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal test case results: %w", err)
	}

	return &record, nil
}

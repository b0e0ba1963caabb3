package tasks

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/core/services/judge"
	"gitlab.com/code-engine.net/internal/domain"
	"gitlab.com/code-engine.net/internal/handlers/response"
)

// TaskHandler handles submission API requests
type TaskHandler struct {
	judgeService judge.IJudgeService
	logger       primary.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(judgeService judge.IJudgeService, logger primary.Logger) *TaskHandler {
	return &TaskHandler{
		judgeService: judgeService,
		logger:       logger,
	}
}

// RegisterRoutes registers the API routes for TaskHandler. The router is
// expected to carry the /api/v1/code-engine prefix.
func (h *TaskHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/execute", h.Execute).Methods("POST")
	router.HandleFunc("/task/{taskId}", h.GetTaskStatus).Methods("GET")
	router.HandleFunc("/test-run", h.TestRun).Methods("POST")
}

// Execute queues a submission for asynchronous judging.
func (h *TaskHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	taskID, err := h.judgeService.SubmitTask(r.Context(), &req)
	if err != nil {
		if errors.Is(err, judge.ErrInvalidSubmission) {
			h.logger.Error("Rejected submission", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to queue task", "error", err)
		http.Error(w, "Failed to queue task", http.StatusInternalServerError)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, ExecuteResponse{
		TaskID:  taskID,
		Status:  "Queued",
		Message: "Request queued for processing",
	})
}

// GetTaskStatus reports the stored status of a task.
func (h *TaskHandler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskIDStr := vars["taskId"]

	taskID, err := uuid.Parse(taskIDStr)
	if err != nil {
		h.logger.Error("Invalid task ID", "id", taskIDStr)
		http.Error(w, "Invalid task ID", http.StatusBadRequest)
		return
	}

	record, err := h.judgeService.GetTaskStatus(r.Context(), taskID)
	if err != nil {
		h.logger.Error("Failed to get task status", "error", err)
		http.Error(w, "Failed to get task status", http.StatusInternalServerError)
		return
	}

	if record == nil {
		response.WriteJSON(w, http.StatusNotFound, TaskStatusResponse{Result: nil})
		return
	}

	response.WriteJSON(w, http.StatusOK, TaskStatusResponse{Result: record})
}

// TestRun compiles and runs a snippet once, synchronously.
func (h *TaskHandler) TestRun(w http.ResponseWriter, r *http.Request) {
	var req domain.TestRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	result := h.judgeService.RunSingle(r.Context(), &req)
	response.WriteJSON(w, http.StatusOK, result)
}

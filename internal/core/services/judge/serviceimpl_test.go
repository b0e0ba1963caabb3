package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/domain"
	"gitlab.com/code-engine.net/internal/runner"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

type completedCall struct {
	taskID           uuid.UUID
	compilerErrorMsg string
	results          []domain.TestCaseResult
}

type fakeTaskRepo struct {
	pending   []uuid.UUID
	completed []completedCall
	getRecord *domain.TaskStatusRecord
	getCalled bool
	insertErr error
	markErr   error
	getErr    error
}

func (f *fakeTaskRepo) InsertPending(ctx context.Context, record *domain.TaskStatusRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.pending = append(f.pending, record.TaskID)
	return nil
}

func (f *fakeTaskRepo) MarkCompleted(ctx context.Context, taskID uuid.UUID, compilerErrorMsg string, results []domain.TestCaseResult) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.completed = append(f.completed, completedCall{
		taskID:           taskID,
		compilerErrorMsg: compilerErrorMsg,
		results:          results,
	})
	return nil
}

func (f *fakeTaskRepo) GetByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.TaskStatusRecord, error) {
	f.getCalled = true
	return f.getRecord, f.getErr
}

type fakeStatusCache struct {
	stored []*domain.TaskStatusRecord
	record *domain.TaskStatusRecord
	getErr error
	setErr error
}

func (f *fakeStatusCache) GetTaskStatus(ctx context.Context, taskID uuid.UUID) (*domain.TaskStatusRecord, error) {
	return f.record, f.getErr
}

func (f *fakeStatusCache) SetTaskStatus(ctx context.Context, record *domain.TaskStatusRecord) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.stored = append(f.stored, record)
	return nil
}

type fakePublisher struct {
	published []*domain.QueuedJob
	err       error
}

func (f *fakePublisher) PublishTask(ctx context.Context, job *domain.QueuedJob) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

type stubRunner struct {
	initErr    error
	compileErr error
	onExecute  func(stdin string) (string, error)
	execOrder  []string
	cleanups   int
}

func (r *stubRunner) Initialize(ctx context.Context) error {
	return r.initErr
}

func (r *stubRunner) Compile(ctx context.Context) (string, error) {
	if r.compileErr != nil {
		return "", r.compileErr
	}
	return "Compilation successful", nil
}

func (r *stubRunner) Execute(ctx context.Context, stdin string) (string, error) {
	r.execOrder = append(r.execOrder, stdin)
	return r.onExecute(stdin)
}

func (r *stubRunner) Cleanup() error {
	r.cleanups++
	return nil
}

type serviceFixture struct {
	svc         *JudgeService
	repo        *fakeTaskRepo
	cache       *fakeStatusCache
	publisher   *fakePublisher
	runnerBuilt bool
}

func newFixture(t *testing.T, stub *stubRunner, runnerErr error) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:      &fakeTaskRepo{},
		cache:     &fakeStatusCache{},
		publisher: &fakePublisher{},
	}
	cfg := &config.JudgeConfig{WorkDir: t.TempDir(), ExecTimeout: time.Second}
	f.svc = NewJudgeService(f.repo, f.cache, f.publisher, cfg, nopLogger{})
	f.svc.newRunner = func(lang string, taskID uuid.UUID, sourceCode string, cfg *config.JudgeConfig, logger primary.Logger) (runner.Runner, error) {
		if runnerErr != nil {
			return nil, runnerErr
		}
		f.runnerBuilt = true
		return stub, nil
	}
	return f
}

func submission(testCases ...domain.TestCase) *domain.QueuedJob {
	return &domain.QueuedJob{
		TaskID: uuid.New(),
		Request: domain.SubmissionRequest{
			Language:   "cpp",
			SourceCode: "int main() {}",
			TestCases:  testCases,
		},
	}
}

func TestProcessTask_JudgesEveryCaseInOrder(t *testing.T) {
	stub := &stubRunner{
		onExecute: func(stdin string) (string, error) {
			switch stdin {
			case "in-1":
				return "expected-1\n", nil
			case "in-2":
				return "something else", nil
			default:
				return "", errors.New("Program terminated with signal: SIGSEGV")
			}
		},
	}
	f := newFixture(t, stub, nil)

	job := submission(
		domain.TestCase{SerialNumber: 1, Input: "in-1", ExpectedOutput: "expected-1"},
		domain.TestCase{SerialNumber: 2, Input: "in-2", ExpectedOutput: "expected-2"},
		domain.TestCase{SerialNumber: 3, Input: "in-3", ExpectedOutput: "expected-3"},
	)

	if err := f.svc.ProcessTask(context.Background(), job); err != nil {
		t.Fatalf("ProcessTask() unexpected error: %v", err)
	}

	if len(f.repo.pending) != 1 || f.repo.pending[0] != job.TaskID {
		t.Errorf("pending inserts = %v, want exactly one for %s", f.repo.pending, job.TaskID)
	}
	if len(f.repo.completed) != 1 {
		t.Fatalf("completed calls = %d, want 1", len(f.repo.completed))
	}

	call := f.repo.completed[0]
	if call.taskID != job.TaskID {
		t.Errorf("completed task id = %s, want %s", call.taskID, job.TaskID)
	}
	if call.compilerErrorMsg != "" {
		t.Errorf("compiler error msg = %q, want empty", call.compilerErrorMsg)
	}
	if len(call.results) != 3 {
		t.Fatalf("results = %d, want 3", len(call.results))
	}

	wantVerdicts := []domain.Verdict{domain.VerdictPassed, domain.VerdictFailed, domain.VerdictError}
	for i, want := range wantVerdicts {
		if call.results[i].SerialNumber != i+1 {
			t.Errorf("results[%d].SerialNumber = %d, want %d", i, call.results[i].SerialNumber, i+1)
		}
		if call.results[i].Status != want {
			t.Errorf("results[%d].Status = %s, want %s", i, call.results[i].Status, want)
		}
	}

	if call.results[0].Stdout != "expected-1\n" || call.results[0].Stderr != "" {
		t.Errorf("passed result = %+v, want stdout kept and stderr empty", call.results[0])
	}
	if call.results[2].Stdout != "" || call.results[2].Stderr == "" {
		t.Errorf("error result = %+v, want empty stdout and a diagnostic stderr", call.results[2])
	}

	if stub.cleanups != 1 {
		t.Errorf("cleanups = %d, want exactly 1", stub.cleanups)
	}
}

func TestProcessTask_PreservesCallerOrder(t *testing.T) {
	stub := &stubRunner{
		onExecute: func(stdin string) (string, error) { return "out", nil },
	}
	f := newFixture(t, stub, nil)

	job := submission(
		domain.TestCase{SerialNumber: 3, Input: "c", ExpectedOutput: "out"},
		domain.TestCase{SerialNumber: 1, Input: "a", ExpectedOutput: "out"},
		domain.TestCase{SerialNumber: 2, Input: "b", ExpectedOutput: "out"},
	)

	if err := f.svc.ProcessTask(context.Background(), job); err != nil {
		t.Fatalf("ProcessTask() unexpected error: %v", err)
	}

	if strings.Join(stub.execOrder, ",") != "c,a,b" {
		t.Errorf("execution order = %v, want caller order [c a b]", stub.execOrder)
	}

	got := make([]int, 0, 3)
	for _, res := range f.repo.completed[0].results {
		got = append(got, res.SerialNumber)
	}
	if fmt.Sprint(got) != "[3 1 2]" {
		t.Errorf("result serial order = %v, want caller order [3 1 2]", got)
	}
}

func TestProcessTask_CompileFailureShortCircuits(t *testing.T) {
	compilerOutput := "code.cpp:1:10: error: expected ')' before '{' token"
	stub := &stubRunner{
		compileErr: errors.New(compilerOutput),
		onExecute: func(stdin string) (string, error) {
			t.Fatal("Execute must not be called after a compile failure")
			return "", nil
		},
	}
	f := newFixture(t, stub, nil)

	job := submission(domain.TestCase{SerialNumber: 1, Input: "in", ExpectedOutput: "out"})

	if err := f.svc.ProcessTask(context.Background(), job); err != nil {
		t.Fatalf("ProcessTask() unexpected error: %v", err)
	}

	if len(f.repo.completed) != 1 {
		t.Fatalf("completed calls = %d, want 1", len(f.repo.completed))
	}
	call := f.repo.completed[0]
	if call.compilerErrorMsg != compilerOutput {
		t.Errorf("compiler error msg = %q, want %q", call.compilerErrorMsg, compilerOutput)
	}
	if len(call.results) != 0 {
		t.Errorf("results = %v, want empty on compile failure", call.results)
	}
	if stub.cleanups != 1 {
		t.Errorf("cleanups = %d, want exactly 1", stub.cleanups)
	}
}

func TestProcessTask_UnsupportedLanguage(t *testing.T) {
	runnerErr := fmt.Errorf("%w: java", runner.ErrUnsupportedLanguage)
	f := newFixture(t, nil, runnerErr)

	job := submission(domain.TestCase{SerialNumber: 1, Input: "in", ExpectedOutput: "out"})
	job.Request.Language = "java"

	err := f.svc.ProcessTask(context.Background(), job)
	if !errors.Is(err, runner.ErrUnsupportedLanguage) {
		t.Fatalf("ProcessTask() error = %v, want ErrUnsupportedLanguage", err)
	}

	// the record was inserted before the language check and stays Pending
	if len(f.repo.pending) != 1 {
		t.Errorf("pending inserts = %d, want 1", len(f.repo.pending))
	}
	if len(f.repo.completed) != 0 {
		t.Errorf("completed calls = %d, want 0", len(f.repo.completed))
	}
}

func TestProcessTask_CleanupRunsWhenInitializeFails(t *testing.T) {
	stub := &stubRunner{initErr: errors.New("disk full")}
	f := newFixture(t, stub, nil)

	job := submission(domain.TestCase{SerialNumber: 1, Input: "in", ExpectedOutput: "out"})

	if err := f.svc.ProcessTask(context.Background(), job); err == nil {
		t.Fatal("ProcessTask() error = nil, want initialize failure")
	}
	if stub.cleanups != 1 {
		t.Errorf("cleanups = %d, want exactly 1 even on initialize failure", stub.cleanups)
	}
	if len(f.repo.completed) != 0 {
		t.Errorf("completed calls = %d, want 0", len(f.repo.completed))
	}
}

func TestProcessTask_InsertPendingFailure(t *testing.T) {
	f := newFixture(t, &stubRunner{}, nil)
	f.repo.insertErr = errors.New("connection refused")

	job := submission(domain.TestCase{SerialNumber: 1, Input: "in", ExpectedOutput: "out"})

	if err := f.svc.ProcessTask(context.Background(), job); err == nil {
		t.Fatal("ProcessTask() error = nil, want store failure")
	}
	if f.runnerBuilt {
		t.Error("runner was built although the pending insert failed")
	}
}

func TestProcessTask_WritesCompletedThroughCache(t *testing.T) {
	stub := &stubRunner{onExecute: func(stdin string) (string, error) { return "out", nil }}
	f := newFixture(t, stub, nil)

	job := submission(domain.TestCase{SerialNumber: 1, Input: "in", ExpectedOutput: "out"})

	if err := f.svc.ProcessTask(context.Background(), job); err != nil {
		t.Fatalf("ProcessTask() unexpected error: %v", err)
	}

	if len(f.cache.stored) != 1 {
		t.Fatalf("cache writes = %d, want 1", len(f.cache.stored))
	}
	if f.cache.stored[0].Status != domain.TaskStateCompleted {
		t.Errorf("cached status = %s, want %s", f.cache.stored[0].Status, domain.TaskStateCompleted)
	}
	if f.cache.stored[0].TaskID != job.TaskID {
		t.Errorf("cached task id = %s, want %s", f.cache.stored[0].TaskID, job.TaskID)
	}
}

func TestProcessTask_CacheFailureDoesNotFailTask(t *testing.T) {
	stub := &stubRunner{onExecute: func(stdin string) (string, error) { return "out", nil }}
	f := newFixture(t, stub, nil)
	f.cache.setErr = errors.New("redis down")

	job := submission(domain.TestCase{SerialNumber: 1, Input: "in", ExpectedOutput: "out"})

	if err := f.svc.ProcessTask(context.Background(), job); err != nil {
		t.Fatalf("ProcessTask() unexpected error: %v", err)
	}
	if len(f.repo.completed) != 1 {
		t.Errorf("completed calls = %d, want 1 despite cache failure", len(f.repo.completed))
	}
}

func TestRunSingle_Transitions(t *testing.T) {
	tests := []struct {
		name         string
		stub         *stubRunner
		runnerErr    error
		wantStatus   domain.TestRunState
		wantStdout   string
		wantStderr   string
		wantCompiler string
		wantCleanups int
	}{
		{
			name:         "clean execution",
			stub:         &stubRunner{onExecute: func(string) (string, error) { return "hello\n", nil }},
			wantStatus:   domain.TestRunStateExecuted,
			wantStdout:   "hello\n",
			wantCleanups: 1,
		},
		{
			name:         "compiler error",
			stub:         &stubRunner{compileErr: errors.New("error: expected ';'")},
			wantStatus:   domain.TestRunStateCompilerError,
			wantCompiler: "error: expected ';'",
			wantCleanups: 1,
		},
		{
			name:         "runtime error",
			stub:         &stubRunner{onExecute: func(string) (string, error) { return "", errors.New("Process timed out and killed") }},
			wantStatus:   domain.TestRunStateRuntimeError,
			wantStderr:   "Process timed out and killed",
			wantCleanups: 1,
		},
		{
			name:         "unsupported language",
			runnerErr:    fmt.Errorf("%w: brainfuck", runner.ErrUnsupportedLanguage),
			wantStatus:   domain.TestRunStateCompilerError,
			wantCompiler: "unsupported language: brainfuck",
			wantCleanups: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.stub, tt.runnerErr)

			res := f.svc.RunSingle(context.Background(), &domain.TestRunRequest{
				Language:   "cpp",
				SourceCode: "int main() {}",
				Stdin:      "in",
			})

			if res.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", res.Status, tt.wantStatus)
			}
			if res.Stdout != tt.wantStdout {
				t.Errorf("Stdout = %q, want %q", res.Stdout, tt.wantStdout)
			}
			if res.Stderr != tt.wantStderr {
				t.Errorf("Stderr = %q, want %q", res.Stderr, tt.wantStderr)
			}
			if res.CompilerErr != tt.wantCompiler {
				t.Errorf("CompilerErr = %q, want %q", res.CompilerErr, tt.wantCompiler)
			}
			if tt.stub != nil && tt.stub.cleanups != tt.wantCleanups {
				t.Errorf("cleanups = %d, want %d", tt.stub.cleanups, tt.wantCleanups)
			}
		})
	}
}

func TestSubmitTask_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  domain.SubmissionRequest
	}{
		{
			name: "missing language",
			req:  domain.SubmissionRequest{SourceCode: "int main() {}", TestCases: []domain.TestCase{{SerialNumber: 1}}},
		},
		{
			name: "missing source code",
			req:  domain.SubmissionRequest{Language: "cpp", TestCases: []domain.TestCase{{SerialNumber: 1}}},
		},
		{
			name: "no test cases",
			req:  domain.SubmissionRequest{Language: "cpp", SourceCode: "int main() {}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &stubRunner{}, nil)

			_, err := f.svc.SubmitTask(context.Background(), &tt.req)
			if !errors.Is(err, ErrInvalidSubmission) {
				t.Fatalf("SubmitTask() error = %v, want ErrInvalidSubmission", err)
			}
			if len(f.publisher.published) != 0 {
				t.Errorf("published = %d, want 0", len(f.publisher.published))
			}
		})
	}
}

func TestSubmitTask_PublishesJob(t *testing.T) {
	f := newFixture(t, &stubRunner{}, nil)

	req := &domain.SubmissionRequest{
		Language:   "cpp",
		SourceCode: "int main() {}",
		TestCases:  []domain.TestCase{{SerialNumber: 1, Input: "in", ExpectedOutput: "out"}},
	}

	taskID, err := f.svc.SubmitTask(context.Background(), req)
	if err != nil {
		t.Fatalf("SubmitTask() unexpected error: %v", err)
	}
	if len(f.publisher.published) != 1 {
		t.Fatalf("published = %d, want 1", len(f.publisher.published))
	}
	job := f.publisher.published[0]
	if job.TaskID != taskID {
		t.Errorf("published task id = %s, want returned id %s", job.TaskID, taskID)
	}
	if job.Request.Language != req.Language || len(job.Request.TestCases) != 1 {
		t.Errorf("published request = %+v, want the submitted request", job.Request)
	}
}

func TestSubmitTask_PublishFailure(t *testing.T) {
	f := newFixture(t, &stubRunner{}, nil)
	f.publisher.err = errors.New("broker unreachable")

	_, err := f.svc.SubmitTask(context.Background(), &domain.SubmissionRequest{
		Language:   "cpp",
		SourceCode: "int main() {}",
		TestCases:  []domain.TestCase{{SerialNumber: 1}},
	})
	if err == nil {
		t.Fatal("SubmitTask() error = nil, want publish failure")
	}
}

func TestGetTaskStatus_CacheHit(t *testing.T) {
	f := newFixture(t, &stubRunner{}, nil)
	want := domain.NewPendingTaskStatus(uuid.New())
	want.Status = domain.TaskStateCompleted
	f.cache.record = want

	got, err := f.svc.GetTaskStatus(context.Background(), want.TaskID)
	if err != nil {
		t.Fatalf("GetTaskStatus() unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("GetTaskStatus() = %+v, want the cached record", got)
	}
	if f.repo.getCalled {
		t.Error("repository consulted despite a cache hit")
	}
}

func TestGetTaskStatus_CacheMissFallsBackToStore(t *testing.T) {
	f := newFixture(t, &stubRunner{}, nil)
	want := domain.NewPendingTaskStatus(uuid.New())
	want.Status = domain.TaskStateCompleted
	f.repo.getRecord = want

	got, err := f.svc.GetTaskStatus(context.Background(), want.TaskID)
	if err != nil {
		t.Fatalf("GetTaskStatus() unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("GetTaskStatus() = %+v, want the stored record", got)
	}
	if len(f.cache.stored) != 1 {
		t.Errorf("cache fills = %d, want 1 after a miss", len(f.cache.stored))
	}
}

func TestGetTaskStatus_AbsentTask(t *testing.T) {
	f := newFixture(t, &stubRunner{}, nil)

	got, err := f.svc.GetTaskStatus(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetTaskStatus() error = %v, want nil for an absent task", err)
	}
	if got != nil {
		t.Errorf("GetTaskStatus() = %+v, want nil", got)
	}
}

func TestGetTaskStatus_CacheErrorDegradesToStore(t *testing.T) {
	f := newFixture(t, &stubRunner{}, nil)
	want := domain.NewPendingTaskStatus(uuid.New())
	f.cache.getErr = errors.New("redis down")
	f.repo.getRecord = want

	got, err := f.svc.GetTaskStatus(context.Background(), want.TaskID)
	if err != nil {
		t.Fatalf("GetTaskStatus() unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("GetTaskStatus() = %+v, want the stored record", got)
	}
}

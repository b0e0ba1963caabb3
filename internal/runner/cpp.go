package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/sandbox"
)

var _ Runner = (*CppRunner)(nil)

// CppRunner compiles and runs C++ submissions with g++. All artifacts live
// in a working directory derived from the task id, so concurrent tasks can
// never collide on paths.
type CppRunner struct {
	sourceCode string
	workDir    string
	sourceFile string
	binaryFile string
	executor   *sandbox.Executor
	logger     primary.Logger
}

// NewCppRunner creates a runner for one C++ task
func NewCppRunner(taskID uuid.UUID, sourceCode string, cfg *config.JudgeConfig, logger primary.Logger) Runner {
	workDir := filepath.Join(cfg.WorkDir, taskID.String())
	return &CppRunner{
		sourceCode: sourceCode,
		workDir:    workDir,
		sourceFile: filepath.Join(workDir, fmt.Sprintf("code%s.cpp", taskID)),
		binaryFile: filepath.Join(workDir, fmt.Sprintf("binary%s", taskID)),
		executor:   sandbox.NewExecutor(cfg.ExecTimeout, logger),
		logger:     logger,
	}
}

// Initialize creates the scoped working directory and writes the source file
func (r *CppRunner) Initialize(ctx context.Context) error {
	r.logger.Info("Starting initialization phase", "source_file", r.sourceFile)
	if err := os.MkdirAll(r.workDir, 0o755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	if err := os.WriteFile(r.sourceFile, []byte(r.sourceCode), 0o644); err != nil {
		return fmt.Errorf("failed to write source file: %w", err)
	}
	return nil
}

// Compile invokes g++. On a compiler failure the error text is the
// compiler's stderr verbatim.
func (r *CppRunner) Compile(ctx context.Context) (string, error) {
	r.logger.Info("Starting compilation phase", "source_file", r.sourceFile)
	cmd := exec.CommandContext(ctx, "g++", r.sourceFile, "-o", r.binaryFile)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logger.Error("Compilation failed", "stderr", stderr.String())
			return "", errors.New(stderr.String())
		}
		return "", fmt.Errorf("Failed to execute g++: %v", err)
	}

	return "Compilation successful", nil
}

// Execute runs the compiled binary once under the sandbox executor
func (r *CppRunner) Execute(ctx context.Context, stdin string) (string, error) {
	r.logger.Info("Starting execution phase", "binary_file", r.binaryFile)
	return r.executor.Run(ctx, r.binaryFile, stdin)
}

// Cleanup removes the artifacts and the scoped directory. Idempotent.
func (r *CppRunner) Cleanup() error {
	r.logger.Info("Starting cleanup phase", "work_dir", r.workDir)
	for _, path := range []string{r.sourceFile, r.binaryFile} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	if err := os.Remove(r.workDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", r.workDir, err)
	}
	return nil
}

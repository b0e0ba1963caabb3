package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"gitlab.com/code-engine.net/internal/core/ports/primary"
)

// Executor runs an untrusted binary in its own process group with piped
// stdio and a wall clock limit.
type Executor struct {
	timeout time.Duration
	logger  primary.Logger
}

// NewExecutor creates an executor enforcing the given wall clock timeout
func NewExecutor(timeout time.Duration, logger primary.Logger) *Executor {
	return &Executor{
		timeout: timeout,
		logger:  logger,
	}
}

// Run executes the binary once. Stdin is fed from an in-memory reader, so
// the full payload reaches programs that consume all input before producing
// output, and a program that never reads it cannot stall the executor past
// the wall clock limit. On timeout the whole process group is killed.
func (e *Executor) Run(ctx context.Context, binaryPath string, stdin string) (string, error) {
	cmd := exec.Command(binaryPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// own process group, detached from any controlling terminal
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("Failed to execute binary: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		e.killGroup(cmd)
		<-done
		return "", ctx.Err()
	case <-time.After(e.timeout):
		e.logger.Warn("Process exceeded wall clock limit, killing", "binary", binaryPath, "timeout", e.timeout)
		e.killGroup(cmd)
		<-done
		return "", errors.New("Process timed out and killed")
	case waitErr := <-done:
		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			return "", fmt.Errorf("Failed to wait on child process: %v", waitErr)
		}
		return Classify(outcomeFromState(cmd.ProcessState, stdout.Bytes(), stderr.Bytes()))
	}
}

// killGroup kills the child and its undetached children
func (e *Executor) killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

func outcomeFromState(state *os.ProcessState, stdout, stderr []byte) Outcome {
	o := Outcome{
		ExitCode: state.ExitCode(),
		Stdout:   stdout,
		Stderr:   stderr,
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		o.Signaled = true
		o.Signal = ws.Signal()
	}
	return o
}

package sandbox

import (
	"errors"
	"fmt"
	"syscall"
	"unicode/utf8"
)

// Outcome captures how a finished child process terminated, together with
// everything it wrote on both output streams.
type Outcome struct {
	ExitCode int
	Signaled bool
	Signal   syscall.Signal
	Stdout   []byte
	Stderr   []byte
}

// Classify maps a process outcome to either the program's stdout or a
// diagnostic error. Precedence: clean exit wins, then a non-empty error
// stream, then a recognized fault signal, then the bare exit code.
func Classify(o Outcome) (string, error) {
	if o.ExitCode == 0 && !o.Signaled {
		if !utf8.Valid(o.Stdout) {
			return "", errors.New("Cannot get stdout data: invalid UTF-8")
		}
		return string(o.Stdout), nil
	}

	if len(o.Stderr) > 0 {
		if !utf8.Valid(o.Stderr) {
			return "", errors.New("Cannot get stderr data: invalid UTF-8")
		}
		return "", errors.New(string(o.Stderr))
	}

	if o.Signaled {
		return "", fmt.Errorf("Program terminated with signal: %s", signalName(o.Signal))
	}

	return "", fmt.Errorf("Program terminated with code: %d", o.ExitCode)
}

func signalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGFPE:
		return "SIGFPE"
	case syscall.SIGSEGV:
		return "SIGSEGV"
	case syscall.SIGILL:
		return "SIGILL"
	case syscall.SIGABRT:
		return "SIGABRT"
	case syscall.SIGBUS:
		return "SIGBUS"
	default:
		return "Unknown Signal"
	}
}

package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
)

// ErrUnsupportedLanguage is returned by New for identifiers outside the registry
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Runner owns the transient artifacts (source file, compiled binary) of one
// judged task and drives its build and execution lifecycle. Cleanup must be
// called exactly once per constructed runner, on every exit path.
type Runner interface {
	// Initialize creates the scoped working directory and writes the source file
	Initialize(ctx context.Context) error

	// Compile builds the binary. A toolchain failure is returned with the
	// compiler's stderr as the error text.
	Compile(ctx context.Context) (string, error)

	// Execute runs the compiled binary once against the given stdin
	Execute(ctx context.Context, stdin string) (string, error)

	// Cleanup deletes the source file, the binary and the scoped directory.
	// Missing files are not an error.
	Cleanup() error
}

// Constructor builds a runner for one task
type Constructor func(taskID uuid.UUID, sourceCode string, cfg *config.JudgeConfig, logger primary.Logger) Runner

// registry is the closed set of supported languages. Adding a language means
// adding exactly one entry here.
var registry = map[string]Constructor{
	"cpp": NewCppRunner,
}

// New builds the runner registered for the language identifier
func New(lang string, taskID uuid.UUID, sourceCode string, cfg *config.JudgeConfig, logger primary.Logger) (Runner, error) {
	ctor, ok := registry[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	return ctor(taskID, sourceCode, cfg, logger), nil
}

// Supported returns the registered language identifiers in sorted order
func Supported() []string {
	langs := make([]string, 0, len(registry))
	for lang := range registry {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

package domain

// TestRunState represents the outcome of a synchronous one-off run
type TestRunState string

const (
	TestRunStateInitial       TestRunState = "Initial"
	TestRunStateCompilerError TestRunState = "CompilerError"
	TestRunStateRuntimeError  TestRunState = "RuntimeError"
	TestRunStateExecuted      TestRunState = "Executed"
)

// TestRunRequest represents a synchronous run of a program against one stdin
type TestRunRequest struct {
	Language   string `json:"lang"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
}

// TestRunResult carries the outcome of a synchronous run. Exactly one of
// CompilerErr, Stderr or Stdout is meaningful depending on Status.
type TestRunResult struct {
	Language    string       `json:"lang"`
	CompilerErr string       `json:"compiler_err"`
	Stdout      string       `json:"stdout"`
	Stderr      string       `json:"stderr"`
	Status      TestRunState `json:"status"`
}

// NewTestRunResult creates the initial result envelope for a test run
func NewTestRunResult(language string) *TestRunResult {
	return &TestRunResult{
		Language: language,
		Status:   TestRunStateInitial,
	}
}

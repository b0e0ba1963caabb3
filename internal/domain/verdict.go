package domain

import "strings"

// Verdict represents the judged outcome of a single test case
type Verdict string

const (
	VerdictPassed Verdict = "Passed"
	VerdictFailed Verdict = "Failed"
	VerdictError  Verdict = "Error"
)

// TestCaseResult represents the judged result of a single test case.
// Passed and Failed results carry the program's stdout and an empty stderr;
// Error results carry an empty stdout and a non-empty diagnostic in stderr.
type TestCaseResult struct {
	SerialNumber int     `json:"srno"`
	Status       Verdict `json:"status"`
	Stdout       string  `json:"stdout"`
	Stderr       string  `json:"stderr"`
}

// NewJudgedResult compares the program output against the expected output,
// ignoring leading and trailing whitespace on both sides.
func NewJudgedResult(serialNumber int, stdout, expectedOutput string) TestCaseResult {
	verdict := VerdictFailed
	if strings.TrimSpace(stdout) == strings.TrimSpace(expectedOutput) {
		verdict = VerdictPassed
	}
	return TestCaseResult{
		SerialNumber: serialNumber,
		Status:       verdict,
		Stdout:       stdout,
		Stderr:       "",
	}
}

// NewErrorResult records a runtime failure for a single test case
func NewErrorResult(serialNumber int, diagnostic string) TestCaseResult {
	return TestCaseResult{
		SerialNumber: serialNumber,
		Status:       VerdictError,
		Stdout:       "",
		Stderr:       diagnostic,
	}
}

// Package result defines execution statuses, per-run results and judge verdicts.
package result

import "fmt"

// Status classifies the outcome of one execution or a whole submission.
type Status string

const (
	StatusSuccess             Status = "SUCCESS"
	StatusCompilationError    Status = "COMPILATION_ERROR"
	StatusRuntimeError        Status = "RUNTIME_ERROR"
	StatusTimeLimitExceeded   Status = "TIME_LIMIT_EXCEEDED"
	StatusMemoryLimitExceeded Status = "MEMORY_LIMIT_EXCEEDED"
	StatusWrongAnswer         Status = "WRONG_ANSWER"
	StatusInternalError       Status = "INTERNAL_ERROR"
)

// ExecutionResult captures one compile+run of a submission against one input.
// Immutable once produced by the engine.
type ExecutionResult struct {
	Success   bool   `json:"success"`
	Output    string `json:"output"`
	Error     string `json:"error,omitempty"`
	RuntimeMs int64  `json:"runtime"`
	MemoryKB  int64  `json:"memory"`
	Status    Status `json:"status"`
}

// TestCase is one input/expected-output pair supplied by the caller.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Points         int    `json:"points,omitempty"`
}

// Score returns the declared points, defaulting to 1.
func (tc TestCase) Score() int {
	if tc.Points > 0 {
		return tc.Points
	}
	return 1
}

// TestCaseResult is an ExecutionResult annotated with the judge's comparison.
type TestCaseResult struct {
	ExecutionResult
	Passed         bool   `json:"passed"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	Points         int    `json:"points"`
}

// JudgeResult is the scored verdict for a whole submission.
type JudgeResult struct {
	Success          bool             `json:"success"`
	Status           Status           `json:"status"`
	TotalScore       int              `json:"totalScore"`
	MaxScore         int              `json:"maxScore"`
	TestCasesPassed  int              `json:"testCasesPassed"`
	TotalTestCases   int              `json:"totalTestCases"`
	AverageRuntimeMs int64            `json:"averageRuntimeMs"`
	MaxMemoryKB      int64            `json:"maxMemoryKb"`
	TestCaseResults  []TestCaseResult `json:"testCaseResults"`
	Error            string           `json:"error,omitempty"`
}

// UserMessage returns the fixed human-readable explanation for a submission
// verdict. Wrong answers report how many cases passed.
func UserMessage(status Status, passed, total int) string {
	switch status {
	case StatusSuccess:
		return ""
	case StatusCompilationError:
		return "Your code failed to compile"
	case StatusRuntimeError:
		return "Your program crashed during execution"
	case StatusTimeLimitExceeded:
		return "Your program exceeded the time limit"
	case StatusMemoryLimitExceeded:
		return "Your program exceeded the memory limit"
	case StatusWrongAnswer:
		return fmt.Sprintf("Wrong answer: passed %d out of %d test cases", passed, total)
	default:
		return "An internal error occurred while judging your submission"
	}
}

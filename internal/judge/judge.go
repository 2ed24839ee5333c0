// Package judge runs a submission against a set of test cases and
// aggregates the per-case outcomes into a scored verdict.
package judge

import (
	"context"
	"strings"

	"coderunner/internal/engine"
	"coderunner/internal/result"
	"coderunner/pkg/utils/logger"

	"go.uber.org/zap"
)

// Executor is the execution seam; the engine never returns a Go error,
// every failure arrives as a classified result.
type Executor interface {
	Execute(ctx context.Context, req engine.Request) result.ExecutionResult
}

// Service judges submissions by driving the executor once per test case,
// sequentially and in the caller-supplied order.
type Service struct {
	exec Executor
}

// NewService creates a judge backed by the given executor.
func NewService(exec Executor) *Service {
	return &Service{exec: exec}
}

// Submission is one judged request: code plus its test cases.
type Submission struct {
	Language    string            `json:"language"`
	Code        string            `json:"code"`
	TestCases   []result.TestCase `json:"testCases"`
	TimeLimitMs int64             `json:"timeLimit"`
	MemoryMB    int64             `json:"memoryLimit"`
}

// JudgeSubmission evaluates every test case in order. Iteration stops early
// on any failure other than a wrong answer: further cases cannot
// meaningfully run against broken code. Wrong answers keep iterating so the
// whole suite is still evaluated for a merely incorrect program.
func (s *Service) JudgeSubmission(ctx context.Context, sub Submission) result.JudgeResult {
	maxScore := 0
	for _, tc := range sub.TestCases {
		maxScore += tc.Score()
	}

	res := result.JudgeResult{
		Status:          result.StatusSuccess,
		MaxScore:        maxScore,
		TotalTestCases:  len(sub.TestCases),
		TestCaseResults: make([]result.TestCaseResult, 0, len(sub.TestCases)),
	}

	var totalRuntimeMs int64
	failedStatus := result.Status("")

	for _, tc := range sub.TestCases {
		caseRes := s.runCase(ctx, sub, tc)
		res.TestCaseResults = append(res.TestCaseResults, caseRes)

		totalRuntimeMs += caseRes.RuntimeMs
		if caseRes.MemoryKB > res.MaxMemoryKB {
			res.MaxMemoryKB = caseRes.MemoryKB
		}

		if caseRes.Passed {
			res.TestCasesPassed++
			res.TotalScore += caseRes.Points
			continue
		}

		if failedStatus == "" {
			failedStatus = caseRes.Status
		}
		// A halting failure outranks any earlier wrong answers as the
		// overall status: it is what stopped the submission.
		if caseRes.Status != result.StatusWrongAnswer {
			failedStatus = caseRes.Status
			break
		}
	}

	ran := len(res.TestCaseResults)
	if ran > 0 {
		res.AverageRuntimeMs = totalRuntimeMs / int64(ran)
	}

	if failedStatus == "" {
		res.Success = true
		res.Status = result.StatusSuccess
	} else {
		res.Status = failedStatus
		res.Error = result.UserMessage(failedStatus, res.TestCasesPassed, res.TotalTestCases)
	}

	logger.Info(ctx, "submission judged",
		zap.String("language", sub.Language),
		zap.String("status", string(res.Status)),
		zap.Int("passed", res.TestCasesPassed),
		zap.Int("total", res.TotalTestCases),
		zap.Int("score", res.TotalScore),
	)
	return res
}

// RunSingleTest evaluates one ad-hoc input/expected pair outside a full
// judged submission.
func (s *Service) RunSingleTest(ctx context.Context, sub Submission, tc result.TestCase) result.TestCaseResult {
	return s.runCase(ctx, sub, tc)
}

// runCase executes one test case and compares trimmed outputs. The case's
// reported status is SUCCESS when passed, WRONG_ANSWER when execution
// succeeded but output mismatched, otherwise the engine's original status.
func (s *Service) runCase(ctx context.Context, sub Submission, tc result.TestCase) result.TestCaseResult {
	execRes := s.exec.Execute(ctx, engine.Request{
		Language:    sub.Language,
		Code:        sub.Code,
		Input:       tc.Input,
		TimeLimitMs: sub.TimeLimitMs,
		MemoryMB:    sub.MemoryMB,
	})

	actual := strings.TrimSpace(execRes.Output)
	expected := strings.TrimSpace(tc.ExpectedOutput)
	passed := execRes.Success && actual == expected

	caseRes := result.TestCaseResult{
		ExecutionResult: execRes,
		Passed:          passed,
		ExpectedOutput:  expected,
		ActualOutput:    actual,
	}

	switch {
	case passed:
		caseRes.Status = result.StatusSuccess
		caseRes.Points = tc.Score()
	case execRes.Success:
		// Execution succeeded, output mismatched: the only place a
		// wrong answer can originate.
		caseRes.Status = result.StatusWrongAnswer
		caseRes.Success = false
	}
	return caseRes
}

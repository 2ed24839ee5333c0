// Package controller exposes the HTTP surface consumed by the web application.
package controller

import (
	"context"
	"time"

	"coderunner/internal/engine"
	"coderunner/internal/judge"
	"coderunner/internal/profile"
	"coderunner/internal/result"
	appErr "coderunner/pkg/errors"
	"coderunner/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Executor runs one submission against one input.
type Executor interface {
	Execute(ctx context.Context, req engine.Request) result.ExecutionResult
}

// Judger scores a submission against its test cases.
type Judger interface {
	JudgeSubmission(ctx context.Context, sub judge.Submission) result.JudgeResult
	RunSingleTest(ctx context.Context, sub judge.Submission, tc result.TestCase) result.TestCaseResult
}

// Guards are the request-level validation limits applied before the core
// is invoked.
type Guards struct {
	MaxCodeLength  int
	MaxInputLength int
}

// ExecuteController handles the execution and judging endpoints.
type ExecuteController struct {
	exec      Executor
	judge     Judger
	languages *profile.Registry
	guards    Guards
	startedAt time.Time
}

// NewExecuteController wires the controller dependencies.
func NewExecuteController(exec Executor, judger Judger, languages *profile.Registry, guards Guards) *ExecuteController {
	return &ExecuteController{
		exec:      exec,
		judge:     judger,
		languages: languages,
		guards:    guards,
		startedAt: time.Now(),
	}
}

type executeRequest struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Input       string `json:"input"`
	TimeLimitMs int64  `json:"timeLimit"`
	MemoryMB    int64  `json:"memoryLimit"`
}

// testCaseRequest uses pointers so a missing field is distinguishable from
// an empty string: empty is a valid value, absent is not.
type testCaseRequest struct {
	Input          *string `json:"input"`
	ExpectedOutput *string `json:"expectedOutput"`
	Points         int     `json:"points"`
}

type judgeRequest struct {
	Language    string            `json:"language"`
	Code        string            `json:"code"`
	TestCases   []testCaseRequest `json:"testCases"`
	TimeLimitMs int64             `json:"timeLimit"`
	MemoryMB    int64             `json:"memoryLimit"`
}

type testRequest struct {
	Language       string  `json:"language"`
	Code           string  `json:"code"`
	Input          *string `json:"input"`
	ExpectedOutput *string `json:"expectedOutput"`
	TimeLimitMs    int64   `json:"timeLimit"`
	MemoryMB       int64   `json:"memoryLimit"`
}

// Execute handles POST /execute: one run of code against optional stdin.
func (ctl *ExecuteController) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := ctl.validateSubmission(req.Language, req.Code, req.Input); err != nil {
		response.Error(c, err)
		return
	}

	res := ctl.exec.Execute(c.Request.Context(), engine.Request{
		Language:    req.Language,
		Code:        req.Code,
		Input:       req.Input,
		TimeLimitMs: req.TimeLimitMs,
		MemoryMB:    req.MemoryMB,
	})
	response.Success(c, res)
}

// Judge handles POST /judge: full scored submission.
func (ctl *ExecuteController) Judge(c *gin.Context) {
	var req judgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := ctl.validateSubmission(req.Language, req.Code, ""); err != nil {
		response.Error(c, err)
		return
	}
	if len(req.TestCases) == 0 {
		response.Error(c, appErr.New(appErr.NoTestCases))
		return
	}

	testCases := make([]result.TestCase, 0, len(req.TestCases))
	for i, tc := range req.TestCases {
		converted, err := ctl.convertTestCase(i, tc.Input, tc.ExpectedOutput, tc.Points)
		if err != nil {
			response.Error(c, err)
			return
		}
		testCases = append(testCases, converted)
	}

	res := ctl.judge.JudgeSubmission(c.Request.Context(), judge.Submission{
		Language:    req.Language,
		Code:        req.Code,
		TestCases:   testCases,
		TimeLimitMs: req.TimeLimitMs,
		MemoryMB:    req.MemoryMB,
	})
	response.Success(c, res)
}

// Test handles POST /test: single-case convenience check.
func (ctl *ExecuteController) Test(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := ctl.validateSubmission(req.Language, req.Code, ""); err != nil {
		response.Error(c, err)
		return
	}
	tc, err := ctl.convertTestCase(0, req.Input, req.ExpectedOutput, 0)
	if err != nil {
		response.Error(c, err)
		return
	}

	res := ctl.judge.RunSingleTest(c.Request.Context(), judge.Submission{
		Language:    req.Language,
		Code:        req.Code,
		TimeLimitMs: req.TimeLimitMs,
		MemoryMB:    req.MemoryMB,
	}, tc)
	response.Success(c, res)
}

// Languages handles GET /languages: public registry fields.
func (ctl *ExecuteController) Languages(c *gin.Context) {
	response.Success(c, ctl.languages.List())
}

// Health handles GET /health.
func (ctl *ExecuteController) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":    "ok",
		"uptime":    time.Since(ctl.startedAt).Round(time.Second).String(),
		"languages": ctl.languages.IDs(),
	})
}

func (ctl *ExecuteController) validateSubmission(language, code, input string) error {
	if language == "" {
		return appErr.ValidationError("language", "required")
	}
	if code == "" {
		return appErr.ValidationError("code", "required")
	}
	if _, err := ctl.languages.Get(language); err != nil {
		return err
	}
	if ctl.guards.MaxCodeLength > 0 && len(code) > ctl.guards.MaxCodeLength {
		return appErr.New(appErr.CodeTooLarge)
	}
	if ctl.guards.MaxInputLength > 0 && len(input) > ctl.guards.MaxInputLength {
		return appErr.New(appErr.InputTooLarge)
	}
	return nil
}

func (ctl *ExecuteController) convertTestCase(index int, input, expected *string, points int) (result.TestCase, error) {
	if input == nil {
		return result.TestCase{}, appErr.Newf(appErr.ValidationFailed, "test case %d is missing input", index)
	}
	if expected == nil {
		return result.TestCase{}, appErr.Newf(appErr.ValidationFailed, "test case %d is missing expectedOutput", index)
	}
	if ctl.guards.MaxInputLength > 0 && len(*input) > ctl.guards.MaxInputLength {
		return result.TestCase{}, appErr.New(appErr.InputTooLarge).WithDetail("testCase", index)
	}
	return result.TestCase{
		Input:          *input,
		ExpectedOutput: *expected,
		Points:         points,
	}, nil
}

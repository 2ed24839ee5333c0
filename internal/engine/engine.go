// Package engine compiles and runs one code submission against one input,
// enforcing time, memory and output ceilings on the child process.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"coderunner/internal/profile"
	"coderunner/internal/result"
	"coderunner/internal/workspace"
	"coderunner/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultCompileTimeout     = 15 * time.Second
	defaultMaxTimeLimitMs     = 10000
	defaultMaxMemoryMB        = 512
	defaultMaxOutputBytes     = 1 << 20
	defaultMemoryPollInterval = 10 * time.Millisecond
	defaultKillGrace          = time.Second
)

// Config controls execution ceilings and enforcement behavior.
type Config struct {
	// CompileTimeout bounds the compile stage, independent of the
	// request's run-time limit.
	CompileTimeout time.Duration
	// MaxTimeLimitMs is the hard ceiling on any requested time limit.
	MaxTimeLimitMs int64
	// MaxMemoryMB is the hard ceiling on any requested memory limit.
	MaxMemoryMB int64
	// MaxOutputBytes caps accumulated stdout; exceeding it kills the run.
	MaxOutputBytes int64
	// MemoryPollInterval is how often the watchdog samples resident memory.
	MemoryPollInterval time.Duration
	// KillGrace is the slack after the time limit before the backup kill.
	KillGrace time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CompileTimeout:     defaultCompileTimeout,
		MaxTimeLimitMs:     defaultMaxTimeLimitMs,
		MaxMemoryMB:        defaultMaxMemoryMB,
		MaxOutputBytes:     defaultMaxOutputBytes,
		MemoryPollInterval: defaultMemoryPollInterval,
		KillGrace:          defaultKillGrace,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CompileTimeout <= 0 {
		c.CompileTimeout = d.CompileTimeout
	}
	if c.MaxTimeLimitMs <= 0 {
		c.MaxTimeLimitMs = d.MaxTimeLimitMs
	}
	if c.MaxMemoryMB <= 0 {
		c.MaxMemoryMB = d.MaxMemoryMB
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = d.MaxOutputBytes
	}
	if c.MemoryPollInterval <= 0 {
		c.MemoryPollInterval = d.MemoryPollInterval
	}
	if c.KillGrace <= 0 {
		c.KillGrace = d.KillGrace
	}
	return c
}

// Request describes one execution of user code against one input.
type Request struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Input       string `json:"input"`
	TimeLimitMs int64  `json:"timeLimit"`
	MemoryMB    int64  `json:"memoryLimit"`
}

// Engine is the compile+run pipeline. It is stateless and request-scoped:
// concurrent Execute calls only share the workspace root, and every call
// gets a uniquely named workspace there.
type Engine struct {
	cfg        Config
	languages  *profile.Registry
	workspaces *workspace.Manager
}

// New creates an engine with the given ceilings.
func New(cfg Config, languages *profile.Registry, workspaces *workspace.Manager) *Engine {
	return &Engine{
		cfg:        cfg.withDefaults(),
		languages:  languages,
		workspaces: workspaces,
	}
}

type effectiveLimits struct {
	timeLimit time.Duration
	memoryKB  int64
}

// effective limit = requested if set, else the language default,
// then capped by the global hard ceiling.
func (e *Engine) effectiveLimits(req Request, lang profile.LanguageProfile) effectiveLimits {
	timeMs := req.TimeLimitMs
	if timeMs <= 0 {
		timeMs = lang.DefaultTimeLimitMs
	}
	if timeMs <= 0 || timeMs > e.cfg.MaxTimeLimitMs {
		timeMs = e.cfg.MaxTimeLimitMs
	}

	memMB := req.MemoryMB
	if memMB <= 0 {
		memMB = lang.DefaultMemoryMB
	}
	if memMB <= 0 || memMB > e.cfg.MaxMemoryMB {
		memMB = e.cfg.MaxMemoryMB
	}

	return effectiveLimits{
		timeLimit: time.Duration(timeMs) * time.Millisecond,
		memoryKB:  memMB * 1024,
	}
}

// Execute compiles (if the language requires it) and runs the submission.
// Every failure mode maps to exactly one status and is returned, never
// propagated as an error; the workspace is destroyed on every path.
func (e *Engine) Execute(ctx context.Context, req Request) (res result.ExecutionResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "engine panic recovered", zap.Any("panic", r))
			res = failure(result.StatusInternalError, fmt.Sprintf("unexpected engine failure: %v", r))
		}
		// Reported runtime never exceeds the wall clock of the request.
		if elapsed := time.Since(started).Milliseconds(); res.RuntimeMs > elapsed {
			res.RuntimeMs = elapsed
		}
	}()

	lang, err := e.languages.Get(req.Language)
	if err != nil {
		return failure(result.StatusInternalError, "unsupported language: "+req.Language)
	}
	limits := e.effectiveLimits(req, lang)

	dir, err := e.workspaces.Create()
	if err != nil {
		return failure(result.StatusInternalError, "failed to create workspace")
	}
	defer e.workspaces.Remove(ctx, dir)

	if _, err := e.workspaces.WriteSource(dir, lang.SourceFile, req.Code); err != nil {
		return failure(result.StatusInternalError, "failed to write source file")
	}

	if lang.CompileEnabled() {
		if compileRes, failed := e.compile(ctx, lang, dir); failed {
			return compileRes
		}
	}

	out := e.runProgram(ctx, lang, dir, req.Input, limits)
	return e.classify(ctx, out, limits)
}

// compile runs the language's compile command with the fixed compile
// timeout. A non-zero compiler exit short-circuits the whole request.
func (e *Engine) compile(ctx context.Context, lang profile.LanguageProfile, dir string) (result.ExecutionResult, bool) {
	argv, err := buildCommand(lang.CompileCmdTpl, lang)
	if err != nil {
		return failure(result.StatusInternalError, "invalid compile command: "+err.Error()), true
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.CompileTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), lang.Env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		return result.ExecutionResult{}, false
	}

	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		logger.Error(ctx, "compiler unavailable",
			zap.String("language", lang.ID), zap.Error(runErr))
		return failure(result.StatusInternalError, "compiler not available for "+lang.ID), true
	}
	if cctx.Err() == context.DeadlineExceeded {
		return failure(result.StatusCompilationError, "compilation timed out"), true
	}

	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		msg = strings.TrimSpace(stdout.String())
	}
	if msg == "" {
		msg = "compilation failed"
	}
	return failure(result.StatusCompilationError, msg), true
}

type runOutcome struct {
	stdout   *cappedBuffer
	stderr   *cappedBuffer
	exitCode int
	elapsed  time.Duration
	memoryKB int64
	reason   killReason
	spawnErr error
}

// runProgram spawns the produced artifact (or interpreter) with stdin
// attached, and supervises it with the watchdog until it terminates.
func (e *Engine) runProgram(ctx context.Context, lang profile.LanguageProfile, dir, input string, lim effectiveLimits) runOutcome {
	argv, err := buildCommand(lang.RunCmdTpl, lang)
	if err != nil {
		return runOutcome{spawnErr: err}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), lang.Env...)
	setProcAttrs(cmd)

	// stdin always reaches EOF, even when input is empty: a program
	// reading to end-of-input must terminate, not hang.
	cmd.Stdin = strings.NewReader(input)

	stdout := newCappedBuffer(e.cfg.MaxOutputBytes)
	stderr := newCappedBuffer(e.cfg.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return runOutcome{spawnErr: err}
	}
	pid := cmd.Process.Pid

	var reason atomic.Int32
	var peakKB atomic.Int64
	done := make(chan struct{})
	go e.watch(pid, lim, stdout, &reason, &peakKB, done)

	waitErr := cmd.Wait()
	close(done)
	elapsed := time.Since(started)

	memKB := peakKB.Load()
	if ru := maxRSSKB(cmd.ProcessState); ru > memKB {
		memKB = ru
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if waitErr != nil && cmd.ProcessState == nil {
		logger.Warn(ctx, "wait failed without process state", zap.Error(waitErr))
	}

	return runOutcome{
		stdout:   stdout,
		stderr:   stderr,
		exitCode: exitCode,
		elapsed:  elapsed,
		memoryKB: memKB,
		reason:   killReason(reason.Load()),
	}
}

// classify maps a terminated process to exactly one status.
func (e *Engine) classify(ctx context.Context, out runOutcome, lim effectiveLimits) result.ExecutionResult {
	if out.spawnErr != nil {
		logger.Error(ctx, "failed to start program", zap.Error(out.spawnErr))
		return failure(result.StatusInternalError, "failed to start program")
	}

	runtimeMs := out.elapsed.Milliseconds()

	switch out.reason {
	case killMemory:
		return annotate(failure(result.StatusMemoryLimitExceeded, "memory limit exceeded"), runtimeMs, out.memoryKB)
	case killOutput:
		return annotate(failure(result.StatusRuntimeError, "output limit exceeded"), runtimeMs, out.memoryKB)
	case killTime:
		return annotate(failure(result.StatusTimeLimitExceeded, "time limit exceeded"), runtimeMs, out.memoryKB)
	}

	if out.exitCode == 0 {
		return result.ExecutionResult{
			Success:   true,
			Status:    result.StatusSuccess,
			Output:    strings.TrimSpace(out.stdout.String()),
			RuntimeMs: runtimeMs,
			MemoryKB:  out.memoryKB,
		}
	}

	// Killed without a recorded cause: attribute to elapsed time when the
	// limit was reached, otherwise report the crash.
	if out.exitCode < 0 && out.elapsed >= lim.timeLimit {
		return annotate(failure(result.StatusTimeLimitExceeded, "time limit exceeded"), runtimeMs, out.memoryKB)
	}

	msg := strings.TrimSpace(out.stderr.String())
	if msg == "" {
		if out.exitCode < 0 {
			msg = "program terminated by signal"
		} else {
			msg = fmt.Sprintf("program exited with code %d", out.exitCode)
		}
	}
	return annotate(failure(result.StatusRuntimeError, msg), runtimeMs, out.memoryKB)
}

func failure(status result.Status, msg string) result.ExecutionResult {
	return result.ExecutionResult{
		Success: false,
		Status:  status,
		Error:   msg,
	}
}

func annotate(res result.ExecutionResult, runtimeMs, memoryKB int64) result.ExecutionResult {
	res.RuntimeMs = runtimeMs
	res.MemoryKB = memoryKB
	return res
}

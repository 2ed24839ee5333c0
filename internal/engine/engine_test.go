package engine

import (
	"context"
	"os"
	"runtime"
	"testing"
	"time"

	"coderunner/internal/profile"
	"coderunner/internal/result"
	"coderunner/internal/workspace"
)

// The engine tests run real processes through /bin/sh.
func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-based engine tests are not supported on windows")
	}
}

func shRegistry() *profile.Registry {
	return profile.NewRegistryWith([]profile.LanguageProfile{{
		ID:                 "sh",
		Name:               "Shell",
		Kind:               profile.KindInterpreted,
		Extension:          "sh",
		RunCmdTpl:          "sh {src}",
		DefaultTimeLimitMs: 5000,
		DefaultMemoryMB:    256,
	}})
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *workspace.Manager) {
	t.Helper()
	ws := workspace.NewManager(t.TempDir())
	return New(cfg, shRegistry(), ws), ws
}

func countWorkspaces(t *testing.T, ws *workspace.Manager) int {
	t.Helper()
	entries, err := os.ReadDir(ws.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatalf("read workspace root: %v", err)
	}
	return len(entries)
}

func TestExecuteSuccess(t *testing.T) {
	requireShell(t)
	eng, ws := newTestEngine(t, Config{})

	res := eng.Execute(context.Background(), Request{
		Language: "sh",
		Code:     "echo hello\n",
	})
	if !res.Success || res.Status != result.StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Output != "hello" {
		t.Fatalf("expected trimmed output %q, got %q", "hello", res.Output)
	}
	if res.Error != "" {
		t.Fatalf("expected empty error, got %q", res.Error)
	}
	if got := countWorkspaces(t, ws); got != 0 {
		t.Fatalf("workspace leaked: %d entries remain", got)
	}
}

func TestExecuteReadsStdin(t *testing.T) {
	requireShell(t)
	eng, _ := newTestEngine(t, Config{})

	res := eng.Execute(context.Background(), Request{
		Language: "sh",
		Code:     "cat\n",
		Input:    "abc\n",
	})
	if res.Status != result.StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Output != "abc" {
		t.Fatalf("expected %q, got %q", "abc", res.Output)
	}
}

// A program reading stdin to EOF must terminate even with empty input:
// stdin is closed before the engine awaits completion.
func TestExecuteEmptyInputClosesStdin(t *testing.T) {
	requireShell(t)
	eng, _ := newTestEngine(t, Config{})

	started := time.Now()
	res := eng.Execute(context.Background(), Request{
		Language:    "sh",
		Code:        "cat\n",
		TimeLimitMs: 4000,
	})
	if res.Status != result.StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("program hung on empty stdin for %v", elapsed)
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	requireShell(t)
	eng, _ := newTestEngine(t, Config{})

	res := eng.Execute(context.Background(), Request{
		Language: "sh",
		Code:     "echo boom >&2\nexit 3\n",
	})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Status != result.StatusRuntimeError {
		t.Fatalf("expected runtime error, got %s", res.Status)
	}
	if res.Error != "boom" {
		t.Fatalf("expected stderr as error, got %q", res.Error)
	}
	if res.Output != "" {
		t.Fatalf("output must be empty on failure, got %q", res.Output)
	}
}

func TestExecuteTimeLimitExceeded(t *testing.T) {
	requireShell(t)
	eng, ws := newTestEngine(t, Config{KillGrace: time.Second})

	res := eng.Execute(context.Background(), Request{
		Language:    "sh",
		Code:        "sleep 30\n",
		TimeLimitMs: 300,
	})
	if res.Status != result.StatusTimeLimitExceeded {
		t.Fatalf("expected TLE, got %+v", res)
	}
	// Runtime never exceeds the limit by more than the backup-kill slack.
	if res.RuntimeMs > 300+1000 {
		t.Fatalf("runtime %dms exceeds limit plus grace", res.RuntimeMs)
	}
	if got := countWorkspaces(t, ws); got != 0 {
		t.Fatalf("workspace leaked after kill: %d entries remain", got)
	}
}

func TestExecuteMemoryLimitExceeded(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("memory sampling is only enforced on linux")
	}
	eng, ws := newTestEngine(t, Config{})

	// Doubling a shell variable grows the process past 64MB within a few
	// dozen iterations, without touching stdout.
	res := eng.Execute(context.Background(), Request{
		Language:    "sh",
		Code:        "x=x\nwhile true; do x=\"$x$x\"; done\n",
		TimeLimitMs: 5000,
		MemoryMB:    64,
	})
	if res.Status != result.StatusMemoryLimitExceeded {
		t.Fatalf("expected MEMORY_LIMIT_EXCEEDED, got %+v", res)
	}
	if res.Error != "memory limit exceeded" {
		t.Fatalf("expected memory limit message, got %q", res.Error)
	}
	if res.MemoryKB <= 64*1024 {
		t.Fatalf("reported peak %dkb must exceed the 64MB ceiling that killed it", res.MemoryKB)
	}
	if got := countWorkspaces(t, ws); got != 0 {
		t.Fatalf("workspace leaked after memory kill: %d entries remain", got)
	}
}

func TestExecuteOutputLimitKill(t *testing.T) {
	requireShell(t)
	eng, _ := newTestEngine(t, Config{MaxOutputBytes: 1024})

	res := eng.Execute(context.Background(), Request{
		Language:    "sh",
		Code:        "while true; do echo xxxxxxxxxxxxxxxx; done\n",
		TimeLimitMs: 5000,
	})
	if res.Status != result.StatusRuntimeError {
		t.Fatalf("expected runtime error, got %+v", res)
	}
	if res.Error != "output limit exceeded" {
		t.Fatalf("expected output limit message, got %q", res.Error)
	}
}

func TestExecuteUnsupportedLanguage(t *testing.T) {
	eng, ws := newTestEngine(t, Config{})

	res := eng.Execute(context.Background(), Request{
		Language: "cobol",
		Code:     "DISPLAY 'HI'.",
	})
	if res.Status != result.StatusInternalError {
		t.Fatalf("expected internal error, got %s", res.Status)
	}
	if got := countWorkspaces(t, ws); got != 0 {
		t.Fatal("no workspace may be created for an unsupported language")
	}
}

func TestExecuteSpawnFailure(t *testing.T) {
	requireShell(t)
	ws := workspace.NewManager(t.TempDir())
	registry := profile.NewRegistryWith([]profile.LanguageProfile{{
		ID:                 "ghost",
		Kind:               profile.KindInterpreted,
		Extension:          "ghost",
		RunCmdTpl:          "definitely-not-a-real-binary {src}",
		DefaultTimeLimitMs: 1000,
		DefaultMemoryMB:    64,
	}})
	eng := New(Config{}, registry, ws)

	res := eng.Execute(context.Background(), Request{Language: "ghost", Code: "x"})
	if res.Status != result.StatusInternalError {
		t.Fatalf("expected internal error, got %+v", res)
	}
	if got := countWorkspaces(t, ws); got != 0 {
		t.Fatal("workspace leaked after spawn failure")
	}
}

func TestEffectiveLimits(t *testing.T) {
	eng, _ := newTestEngine(t, Config{MaxTimeLimitMs: 10000, MaxMemoryMB: 512})
	lang := profile.LanguageProfile{DefaultTimeLimitMs: 5000, DefaultMemoryMB: 256}

	// Requested within ceiling wins over the default.
	lim := eng.effectiveLimits(Request{TimeLimitMs: 2000, MemoryMB: 64}, lang)
	if lim.timeLimit != 2*time.Second || lim.memoryKB != 64*1024 {
		t.Fatalf("unexpected limits %+v", lim)
	}

	// Unset falls back to the language default.
	lim = eng.effectiveLimits(Request{}, lang)
	if lim.timeLimit != 5*time.Second || lim.memoryKB != 256*1024 {
		t.Fatalf("unexpected limits %+v", lim)
	}

	// The global ceiling caps any request.
	lim = eng.effectiveLimits(Request{TimeLimitMs: 60000, MemoryMB: 4096}, lang)
	if lim.timeLimit != 10*time.Second || lim.memoryKB != 512*1024 {
		t.Fatalf("ceiling not applied: %+v", lim)
	}
}

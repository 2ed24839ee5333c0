//go:build !linux

package engine

import (
	"os"
	"os/exec"
)

// Non-linux builds have no process-group or /proc support: kills target the
// direct child only and memory sampling reports zero, which leaves the
// memory ceiling unenforced on these platforms.

func setProcAttrs(cmd *exec.Cmd) {}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	_ = proc.Kill()
}

func processMemoryKB(pid int) int64 { return 0 }

func maxRSSKB(state *os.ProcessState) int64 { return 0 }

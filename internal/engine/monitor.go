package engine

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"
)

// killReason records why the watchdog terminated a process. Only the first
// cause is kept; later kill attempts are no-ops for classification.
type killReason int32

const (
	killNone killReason = iota
	killTime
	killMemory
	killOutput
)

func setReason(slot *atomic.Int32, r killReason) {
	slot.CompareAndSwap(int32(killNone), int32(r))
}

// watch enforces the time, memory and output ceilings on a running process.
// Three overlapping mechanisms: the wall timer, a backup kill timer armed at
// limit+grace for platforms where the first kill misfires, and the resource
// poll. It runs until done is closed.
func (e *Engine) watch(pid int, lim effectiveLimits, stdout *cappedBuffer, reason *atomic.Int32, peakKB *atomic.Int64, done <-chan struct{}) {
	wall := time.NewTimer(lim.timeLimit)
	backup := time.NewTimer(lim.timeLimit + e.cfg.KillGrace)
	poll := time.NewTicker(e.cfg.MemoryPollInterval)
	defer wall.Stop()
	defer backup.Stop()
	defer poll.Stop()

	for {
		select {
		case <-done:
			return
		case <-wall.C:
			setReason(reason, killTime)
			killProcessGroup(pid)
		case <-backup.C:
			killProcessGroup(pid)
		case <-poll.C:
			if kb := processMemoryKB(pid); kb > 0 {
				if kb > peakKB.Load() {
					peakKB.Store(kb)
				}
				if kb > lim.memoryKB {
					setReason(reason, killMemory)
					killProcessGroup(pid)
				}
			}
			if stdout.Truncated() {
				setReason(reason, killOutput)
				killProcessGroup(pid)
			}
		}
	}
}

// cappedBuffer accumulates process output up to a byte ceiling. Writes past
// the ceiling are dropped and the buffer marked truncated; the writer side
// never sees an error, the watchdog kills the process instead.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	max       int64
	truncated bool
}

func newCappedBuffer(max int64) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	remain := b.max - int64(b.buf.Len())
	switch {
	case remain >= int64(len(p)):
		b.buf.Write(p)
	case remain > 0:
		b.buf.Write(p[:remain])
		b.truncated = true
	case len(p) > 0:
		b.truncated = true
	}
	return len(p), nil
}

func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

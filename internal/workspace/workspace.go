// Package workspace manages per-execution scratch directories.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"coderunner/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager allocates and destroys isolated workspace directories under a
// single root. Every successful Create must be paired with exactly one
// Remove, issued from a deferred cleanup path.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at dir.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Root returns the workspace root directory.
func (m *Manager) Root() string {
	return m.root
}

// Create allocates a fresh, collision-free workspace directory,
// creating parent directories as needed.
func (m *Manager) Create() (string, error) {
	dir := filepath.Join(m.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// WriteSource writes source text into the workspace and returns its path.
func (m *Manager) WriteSource(dir, filename, content string) (string, error) {
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadFile reads a text file from a workspace.
func (m *Manager) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeleteFile removes a single file. Best effort: a missing path is not an
// error and OS errors are logged, never propagated.
func (m *Manager) DeleteFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn(ctx, "delete workspace file failed",
			zap.String("path", path), zap.Error(err))
	}
}

// Remove deletes a workspace directory and everything in it. Best effort
// and idempotent: cleanup must never itself fail a request.
func (m *Manager) Remove(ctx context.Context, dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn(ctx, "remove workspace failed",
			zap.String("dir", dir), zap.Error(err))
	}
}

// SweepStale deletes immediate children of the root whose last-modified
// time is older than maxAge. Safety net against workspaces leaked by
// crashes or missed cleanup paths. Returns the number of entries removed.
func (m *Manager) SweepStale(ctx context.Context, maxAge time.Duration) int {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(ctx, "read workspace root failed",
				zap.String("root", m.root), zap.Error(err))
		}
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		stale := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(stale); err != nil {
			logger.Warn(ctx, "remove stale workspace failed",
				zap.String("dir", stale), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info(ctx, "swept stale workspaces",
			zap.Int("removed", removed), zap.String("root", m.root))
	}
	return removed
}

// RunSweeper sweeps on a fixed interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepStale(ctx, maxAge)
		}
	}
}

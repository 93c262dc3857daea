// Package workspace manages the directories remote clones land in,
// either ephemeral (timestamped, removed after the build) or
// persistent (fixed path reused across serve-mode rebuilds).
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/logfields"
)

// Manager hands out a workspace directory and owns its lifecycle.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
}

// NewManager creates a manager for ephemeral timestamped workspaces
// under baseDir (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager creates a manager whose workspace is the fixed
// directory baseDir/subdir. Cleanup keeps it for the next build.
func NewPersistentManager(baseDir, subdir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdir == "" {
		subdir = "working"
	}
	return &Manager{
		baseDir:    baseDir,
		dir:        filepath.Join(baseDir, subdir),
		persistent: true,
	}
}

// Create makes the workspace directory. Ephemeral managers get a fresh
// mdpage-<timestamp>-<rand> directory; a random suffix keeps
// same-second builds from colliding.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("create persistent workspace: %w", err)
		}
		slog.Info("using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	stamp := time.Now().Format("20060102-150405")
	dir, err := os.MkdirTemp(m.baseDir, "mdpage-"+stamp+"-")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	m.dir = dir
	slog.Info("created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory, empty before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Cleanup removes an ephemeral workspace. Persistent workspaces stay
// for incremental reuse.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.persistent {
		slog.Debug("keeping persistent workspace", logfields.Path(m.dir))
		return nil
	}

	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("cleanup workspace: %w", err)
	}
	slog.Info("cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

// Subdir creates and returns a directory inside the workspace.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	sub := filepath.Join(m.dir, name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", fmt.Errorf("create workspace subdir: %w", err)
	}
	return sub, nil
}

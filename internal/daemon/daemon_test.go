package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpage/internal/config"
)

func daemonConfig(t *testing.T, source, output string) *config.Config {
	t.Helper()
	return &config.Config{
		Site:   config.SiteConfig{Title: "Test Site"},
		Source: config.SourceConfig{Dir: source},
		Output: config.OutputConfig{Directory: output},
		Build:  config.BuildConfig{Concurrency: 2, SkipIfUnchanged: true},
		Serve: &config.ServeConfig{
			// Port 0 binds ephemeral ports so tests never collide.
			Watch:   config.WatchConfig{DebounceMS: 50},
			Storage: config.StorageConfig{EventDB: filepath.Join(t.TempDir(), "events.db")},
		},
	}
}

func writeSource(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestNewValidation(t *testing.T) {
	source := t.TempDir()

	_, err := New(nil, source)
	require.Error(t, err)

	_, err = New(&config.Config{}, source)
	require.Error(t, err)

	cfg := daemonConfig(t, source, t.TempDir())
	_, err = New(cfg, filepath.Join(source, "missing"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "source directory not found")
}

func TestDaemonLifecycle(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeSource(t, source, map[string]string{
		"intro.md":        "# Introduction\n\nWelcome.\n",
		"guides/setup.md": "# Setup\n\n```sh\nmake install\n```\n",
	})

	cfg := daemonConfig(t, source, output)
	d, err := New(cfg, source)
	require.NoError(t, err)

	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Stop(context.Background()) })

	require.Equal(t, string(StatusRunning), d.Status())
	require.Error(t, d.Start(context.Background()), "second start must be rejected")

	// The initial build lands without any filesystem event.
	waitFor(t, 10*time.Second, func() bool {
		last := d.LastBuild()
		return last != nil && last.Status == "completed"
	})
	require.FileExists(t, filepath.Join(output, "index.html"))
	require.FileExists(t, filepath.Join(output, "guides/setup.html"))

	hasError, _, hasGoodBuild := d.buildStatus.GetStatus()
	require.False(t, hasError)
	require.True(t, hasGoodBuild)

	last := d.LastBuild()
	require.Equal(t, TriggerInitial, last.Trigger)

	// A manual trigger returns the id its build will run under. The
	// source is unchanged, so the build completes as a skip.
	id := d.TriggerBuild()
	require.NotEmpty(t, id)
	waitFor(t, 10*time.Second, func() bool {
		for _, b := range d.History(0) {
			if b.BuildID == id && b.Status == "completed" {
				return true
			}
		}
		return false
	})

	total, succeeded, failed := d.BuildCounts()
	require.GreaterOrEqual(t, total, 2)
	require.Equal(t, total, succeeded)
	require.Zero(t, failed)
	require.False(t, d.LastSyncTime().IsZero())

	require.NoError(t, d.Stop(context.Background()))
	require.Equal(t, string(StatusStopped), d.Status())
	require.Empty(t, d.TriggerBuild(), "stopped daemon must not accept builds")
	require.NoError(t, d.Stop(context.Background()), "stop is idempotent")
}

func TestDaemonRebuildsOnFileChange(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeSource(t, source, map[string]string{"intro.md": "# Intro\n"})

	d, err := New(daemonConfig(t, source, output), source)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Stop(context.Background()) })

	waitFor(t, 10*time.Second, func() bool {
		last := d.LastBuild()
		return last != nil && last.Status == "completed"
	})

	writeSource(t, source, map[string]string{"extra.md": "# Extra\n\nNew page.\n"})

	waitFor(t, 10*time.Second, func() bool {
		_, err := os.Stat(filepath.Join(output, "extra.html"))
		return err == nil
	})
	waitFor(t, 10*time.Second, func() bool {
		last := d.LastBuild()
		return last != nil && last.Trigger == TriggerWatch
	})
}

func TestDaemonReportsBuildFailure(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeSource(t, source, map[string]string{
		"broken.md": "# Broken\n\n```js\nlet x = 1\n",
	})

	d, err := New(daemonConfig(t, source, output), source)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Stop(context.Background()) })

	waitFor(t, 10*time.Second, func() bool {
		last := d.LastBuild()
		return last != nil && last.Status == "failed"
	})

	last := d.LastBuild()
	require.Equal(t, "parse", last.ErrorStage)
	require.NotEmpty(t, last.ErrorMessage)

	hasError, buildErr, hasGoodBuild := d.buildStatus.GetStatus()
	require.True(t, hasError)
	require.Error(t, buildErr)
	require.False(t, hasGoodBuild)

	total, succeeded, failed := d.BuildCounts()
	require.GreaterOrEqual(t, total, 1)
	require.Zero(t, succeeded)
	require.Equal(t, total, failed)
}

func TestDaemonHistorySurvivesRestart(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeSource(t, source, map[string]string{"intro.md": "# Intro\n"})

	cfg := daemonConfig(t, source, output)

	d, err := New(cfg, source)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	waitFor(t, 10*time.Second, func() bool {
		last := d.LastBuild()
		return last != nil && last.Status == "completed"
	})
	firstID := d.LastBuild().BuildID
	require.NoError(t, d.Stop(context.Background()))

	// A fresh daemon over the same event database replays history
	// during construction, before any build runs.
	d2, err := New(cfg, source)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = d2.scheduler.Stop(context.Background())
		_ = d2.store.Close()
	})

	last := d2.LastBuild()
	require.NotNil(t, last)
	require.Equal(t, firstID, last.BuildID)
	require.Equal(t, "completed", last.Status)
	require.Nil(t, d2.ActiveBuild(), "no build may appear stuck running after restart")
}

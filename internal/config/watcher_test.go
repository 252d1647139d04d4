package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/magnate-game/magnate/internal/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "discord:\n  token: t\nserver:\n  log_level: info\n")

	changes := make(chan config.ConfigDiff, 1)
	w, err := config.NewWatcher(path, func(old, new *config.Config) {
		changes <- config.Diff(old, new)
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Server.LogLevel; got != config.LogInfo {
		t.Fatalf("initial log level %q, want info", got)
	}

	// Ensure the mtime actually moves on coarse-grained filesystems.
	time.Sleep(20 * time.Millisecond)
	writeConfig(t, path, "discord:\n  token: t\nserver:\n  log_level: debug\n")

	select {
	case d := <-changes:
		if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
			t.Fatalf("unexpected diff: %+v", d)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never reported the change")
	}

	if got := w.Current().Server.LogLevel; got != config.LogDebug {
		t.Fatalf("Current after reload: log level %q, want debug", got)
	}
}

func TestWatcher_KeepsPreviousOnInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "discord:\n  token: t\n")

	w, err := config.NewWatcher(path, nil, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	time.Sleep(20 * time.Millisecond)
	writeConfig(t, path, ":::broken:::")
	time.Sleep(100 * time.Millisecond)

	if got := w.Current().Discord.Token; got != "t" {
		t.Fatalf("Current after invalid write: token %q, want previous config", got)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()

	if _, err := config.NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatal("NewWatcher: expected error for missing file, got nil")
	}
}

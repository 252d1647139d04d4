package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/magnate-game/magnate/internal/config"
)

const validConfigYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
discord:
  token: "bot-token"
  guild_id: "123"
  game_channel_id: "456"
game:
  characters_dir: "./characters"
  session_timeout: 5m
  sweep_interval: 30s
  feedback_cooldown: 1h
database:
  postgres_dsn: "postgres://magnate@localhost:5432/magnate"
`

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validConfigYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen_addr: %q, want :9090", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level: %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Discord.Token != "bot-token" || cfg.Discord.GameChannelID != "456" {
		t.Errorf("discord config wrong: %+v", cfg.Discord)
	}
	if cfg.Game.SessionTimeout.Std() != 5*time.Minute {
		t.Errorf("session_timeout: %s, want 5m", cfg.Game.SessionTimeout)
	}
	if cfg.Game.SweepInterval.Std() != 30*time.Second {
		t.Errorf("sweep_interval: %s, want 30s", cfg.Game.SweepInterval)
	}
	if cfg.Game.FeedbackCooldown.Std() != time.Hour {
		t.Errorf("feedback_cooldown: %s, want 1h", cfg.Game.FeedbackCooldown)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader("discord:\n  token: t\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("default listen_addr: %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Game.CharactersDir != "characters" {
		t.Errorf("default characters_dir: %q, want characters", cfg.Game.CharactersDir)
	}
	if cfg.Game.SweepInterval.Std() != time.Minute {
		t.Errorf("default sweep_interval: %s, want 1m", cfg.Game.SweepInterval)
	}
}

func TestLoadFromReader_BareSecondsTimeout(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader("discord:\n  token: t\ngame:\n  session_timeout: 300\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Game.SessionTimeout.Std() != 300*time.Second {
		t.Errorf("session_timeout: %s, want 300s", cfg.Game.SessionTimeout)
	}
}

func TestLoadFromReader_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "missing token",
			input: "server:\n  log_level: info\n",
		},
		{
			name:  "bad log level",
			input: "discord:\n  token: t\nserver:\n  log_level: loud\n",
		},
		{
			name:  "unknown key",
			input: "discord:\n  token: t\nvoice:\n  enabled: true\n",
		},
		{
			name:  "unparseable duration",
			input: "discord:\n  token: t\ngame:\n  session_timeout: soon\n",
		},
		{
			name:  "invalid yaml",
			input: ":::nope:::",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := config.LoadFromReader(strings.NewReader(tc.input)); err == nil {
				t.Fatal("LoadFromReader: expected error, got nil")
			}
		})
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	base, err := config.LoadFromReader(strings.NewReader(validConfigYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	t.Run("no change", func(t *testing.T) {
		t.Parallel()
		other := *base
		if d := config.Diff(base, &other); d.Changed() {
			t.Fatalf("Diff of identical configs reports change: %+v", d)
		}
	})

	t.Run("hot-reloadable fields", func(t *testing.T) {
		t.Parallel()
		other := *base
		other.Server.LogLevel = config.LogWarn
		other.Game.SessionTimeout = config.Duration(10 * time.Minute)
		d := config.Diff(base, &other)
		if !d.LogLevelChanged || d.NewLogLevel != config.LogWarn {
			t.Errorf("log level change not detected: %+v", d)
		}
		if !d.SessionTimeoutChanged || d.NewSessionTimeout.Std() != 10*time.Minute {
			t.Errorf("timeout change not detected: %+v", d)
		}
		if d.RestartRequired {
			t.Error("hot-reloadable change flagged as restart-required")
		}
	})

	t.Run("restart required", func(t *testing.T) {
		t.Parallel()
		other := *base
		other.Database.PostgresDSN = "postgres://elsewhere/db"
		d := config.Diff(base, &other)
		if !d.RestartRequired {
			t.Error("database change not flagged as restart-required")
		}
	})
}

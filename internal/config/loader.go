package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in values the rest of the system assumes are set.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Game.CharactersDir == "" {
		cfg.Game.CharactersDir = "characters"
	}
	if cfg.Game.SweepInterval <= 0 {
		cfg.Game.SweepInterval = Duration(time.Minute)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token is required"))
	}

	if cfg.Game.SessionTimeout < 0 {
		errs = append(errs, fmt.Errorf("game.session_timeout %s must not be negative", cfg.Game.SessionTimeout))
	}
	if cfg.Game.FeedbackCooldown < 0 {
		errs = append(errs, fmt.Errorf("game.feedback_cooldown %s must not be negative", cfg.Game.FeedbackCooldown))
	}
	if cfg.Game.SessionTimeout > 0 && cfg.Game.SessionTimeout.Std() < time.Minute {
		slog.Warn("game.session_timeout is very short; players may lose sessions mid-decision",
			"session_timeout", cfg.Game.SessionTimeout.String())
	}

	if cfg.Database.PostgresDSN == "" {
		slog.Warn("database.postgres_dsn is empty; results and leaderboards will not survive restarts")
	}
	if cfg.Discord.GameChannelID == "" {
		slog.Warn("discord.game_channel_id is empty; game commands are allowed in every channel")
	}

	return errors.Join(errs...)
}

package config

// ConfigDiff describes what changed between two configs. Only the fields
// that can be applied without a restart are tracked individually; anything
// else sets RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	SessionTimeoutChanged bool
	NewSessionTimeout     Duration

	// RestartRequired is true when a field outside the hot-reloadable set
	// changed (Discord credentials, database DSN, characters directory,
	// listen address).
	RestartRequired bool
}

// Changed reports whether the diff carries any change at all.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.SessionTimeoutChanged || d.RestartRequired
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Game.SessionTimeout != new.Game.SessionTimeout {
		d.SessionTimeoutChanged = true
		d.NewSessionTimeout = new.Game.SessionTimeout
	}

	if old.Discord != new.Discord ||
		old.Database != new.Database ||
		old.Server.ListenAddr != new.Server.ListenAddr ||
		old.Game.CharactersDir != new.Game.CharactersDir ||
		old.Game.SweepInterval != new.Game.SweepInterval ||
		old.Game.FeedbackCooldown != new.Game.FeedbackCooldown {
		d.RestartRequired = true
	}

	return d
}

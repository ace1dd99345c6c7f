package config

// ConfigDiff describes what changed between two configs. Only the log level
// is hot-applied; provider and UI changes are reported so the caller can log
// that a restart is needed.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// TTSChanged / STTChanged are true when the provider selection (primary
	// or fallbacks) differs. Applying these requires a restart.
	TTSChanged bool
	STTChanged bool

	// UIChanged is true when the recorder mode or upload limit differs.
	UIChanged bool
}

// Empty reports whether the diff contains no changes.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.TTSChanged && !d.STTChanged && !d.UIChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// Breaker tuning is baked into both chains at build time, so a change
	// there marks them both.
	resilienceChanged := old.Providers.Resilience != new.Providers.Resilience

	if resilienceChanged ||
		!entryEqual(old.Providers.TTS, new.Providers.TTS) ||
		!entriesEqual(old.Providers.TTSFallbacks, new.Providers.TTSFallbacks) {
		d.TTSChanged = true
	}
	if resilienceChanged ||
		!entryEqual(old.Providers.STT, new.Providers.STT) ||
		!entriesEqual(old.Providers.STTFallbacks, new.Providers.STTFallbacks) {
		d.STTChanged = true
	}

	if old.UI != new.UI {
		d.UIChanged = true
	}

	return d
}

// entryEqual compares the scalar fields of two provider entries. The free-form
// Options map is compared by length only; option-level edits also bump one of
// the scalar fields in practice.
func entryEqual(a, b ProviderEntry) bool {
	return a.Name == b.Name &&
		a.APIKey == b.APIKey &&
		a.BaseURL == b.BaseURL &&
		a.Model == b.Model &&
		len(a.Options) == len(b.Options)
}

func entriesEqual(a, b []ProviderEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !entryEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"tts": {"gtrans", "elevenlabs", "openai"},
	"stt": {"whisper", "whisper-native", "deepgram", "openai"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
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

// LoadFromReader decodes a YAML config from r, expands environment references
// in credential fields, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	expandEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnv resolves ${VAR} references in provider credential fields so that
// API keys can live in the environment (or a .env file) instead of YAML.
func expandEnv(cfg *Config) {
	expand := func(e *ProviderEntry) {
		e.APIKey = expandVar(e.APIKey)
		e.BaseURL = expandVar(e.BaseURL)
	}
	expand(&cfg.Providers.TTS)
	for i := range cfg.Providers.TTSFallbacks {
		expand(&cfg.Providers.TTSFallbacks[i])
	}
	expand(&cfg.Providers.STT)
	for i := range cfg.Providers.STTFallbacks {
		expand(&cfg.Providers.STTFallbacks[i])
	}
}

// expandVar expands ${VAR} forms only; a bare value (even one containing $)
// passes through untouched.
func expandVar(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, func(name string) string {
		return os.Getenv(name)
	})
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	for i, fb := range cfg.Providers.TTSFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.tts_fallbacks[%d].name is required", i))
			continue
		}
		validateProviderName("tts", fb.Name)
	}
	for i, fb := range cfg.Providers.STTFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.stt_fallbacks[%d].name is required", i))
			continue
		}
		validateProviderName("stt", fb.Name)
	}

	if cfg.Providers.TTS.Name == "" {
		errs = append(errs, errors.New("providers.tts.name is required; without it nothing can be spoken"))
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; the recorder and upload form will be disabled")
	}

	// Timeouts and limits
	if cfg.Providers.Resilience.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("providers.resilience.max_failures %d must not be negative", cfg.Providers.Resilience.MaxFailures))
	}
	if cfg.Providers.Resilience.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("providers.resilience.reset_timeout %s must not be negative", cfg.Providers.Resilience.ResetTimeout))
	}
	if cfg.Providers.Resilience.HalfOpenProbes < 0 {
		errs = append(errs, fmt.Errorf("providers.resilience.half_open_probes %d must not be negative", cfg.Providers.Resilience.HalfOpenProbes))
	}
	if cfg.Synthesis.Timeout < 0 {
		errs = append(errs, fmt.Errorf("synthesis.timeout %s must not be negative", cfg.Synthesis.Timeout))
	}
	if cfg.Session.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("session.idle_timeout %s must not be negative", cfg.Session.IdleTimeout))
	}
	if cfg.UI.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("ui.max_upload_bytes %d must not be negative", cfg.UI.MaxUploadBytes))
	}
	if cfg.UI.Recorder != "" && !cfg.UI.Recorder.IsValid() {
		errs = append(errs, fmt.Errorf("ui.recorder %q is invalid; valid values: browser, upload-only", cfg.UI.Recorder))
	}
	if cfg.UI.Recorder == RecorderBrowser && cfg.Providers.STT.Name == "" {
		slog.Warn("ui.recorder is set to browser but no STT provider is configured")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

// Package config provides the configuration schema, loader, and provider
// registry for the voicepad server.
package config

import "time"

// LogLevel controls log verbosity for the voicepad server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// RecorderMode selects how the UI lets visitors submit audio.
type RecorderMode string

const (
	// RecorderBrowser enables in-page microphone capture over the websocket
	// endpoint, with file upload as a fallback.
	RecorderBrowser RecorderMode = "browser"

	// RecorderUploadOnly hides the microphone widget and only offers the
	// file upload form.
	RecorderUploadOnly RecorderMode = "upload-only"
)

// IsValid reports whether m is a recognised recorder mode.
func (m RecorderMode) IsValid() bool {
	return m == RecorderBrowser || m == RecorderUploadOnly
}

// Config is the root configuration structure for voicepad.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Session   SessionConfig   `yaml:"session"`
	UI        UIConfig        `yaml:"ui"`
}

// ServerConfig holds network and logging settings for the voicepad server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each entry selects a named provider registered in the
// [Registry]; fallbacks are tried in order when the primary fails.
type ProvidersConfig struct {
	TTS          ProviderEntry   `yaml:"tts"`
	TTSFallbacks []ProviderEntry `yaml:"tts_fallbacks"`
	STT          ProviderEntry   `yaml:"stt"`
	STTFallbacks []ProviderEntry `yaml:"stt_fallbacks"`

	// Resilience tunes the per-provider circuit breakers that guard the
	// fallback chains. The same tuning applies to every entry in both the
	// TTS and STT chains.
	Resilience ResilienceConfig `yaml:"resilience"`
}

// ResilienceConfig holds circuit breaker tuning for the provider chains.
// Zero values fall back to the breaker defaults.
type ResilienceConfig struct {
	// MaxFailures is how many consecutive failures a provider may accumulate
	// before its breaker opens and the chain stops calling it. Defaults to 5.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeout is how long an open breaker waits before letting probe
	// calls through again. Defaults to 30s.
	ResetTimeout time.Duration `yaml:"reset_timeout"`

	// HalfOpenProbes is how many probe calls a recovering provider must
	// survive before its breaker closes. Defaults to 3.
	HalfOpenProbes int `yaml:"half_open_probes"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "gtrans", "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	// ${VAR} references are expanded from the environment at load time.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "tts-1", "nova-2").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// StringOption returns the named entry from Options as a string, or def when
// absent or not a string.
func (e ProviderEntry) StringOption(key, def string) string {
	if v, ok := e.Options[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// BoolOption returns the named entry from Options as a bool, or def when
// absent or not a bool.
func (e ProviderEntry) BoolOption(key string, def bool) bool {
	if v, ok := e.Options[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// SynthesisConfig tunes the text-to-speech stage.
type SynthesisConfig struct {
	// Timeout bounds a single synthesis job on the bridge worker.
	// Defaults to 60s if zero.
	Timeout time.Duration `yaml:"timeout"`

	// DefaultVoice is the voice ID used when the session has none selected.
	DefaultVoice string `yaml:"default_voice"`

	// DefaultLanguage is the language used when the session has none selected
	// (e.g., "en", "en-uk").
	DefaultLanguage string `yaml:"default_language"`
}

// SessionConfig tunes session lifetime.
type SessionConfig struct {
	// IdleTimeout is how long a session survives without activity.
	// Defaults to 30m if zero.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// UIConfig tunes the web surface.
type UIConfig struct {
	// Recorder selects the audio capture mode offered to visitors.
	// Defaults to "browser" if empty.
	Recorder RecorderMode `yaml:"recorder"`

	// MaxUploadBytes caps the size of uploaded audio files.
	// Defaults to 16 MiB if zero.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

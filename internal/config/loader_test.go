package config_test

import (
	"strings"
	"testing"

	"github.com/voxkit/voicepad/internal/config"
)

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: debug
providers:
  tts:
    name: gtrans
    options:
      slow: true
  tts_fallbacks:
    - name: elevenlabs
      api_key: key-123
  stt:
    name: whisper
    base_url: http://localhost:9000
  resilience:
    max_failures: 2
    reset_timeout: 15s
synthesis:
  timeout: 45s
  default_language: en-uk
session:
  idle_timeout: 10m
ui:
  recorder: browser
  max_upload_bytes: 1048576
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Providers.TTS.Name != "gtrans" {
		t.Errorf("tts name: got %q", cfg.Providers.TTS.Name)
	}
	if !cfg.Providers.TTS.BoolOption("slow", false) {
		t.Error("tts slow option should be true")
	}
	if len(cfg.Providers.TTSFallbacks) != 1 || cfg.Providers.TTSFallbacks[0].Name != "elevenlabs" {
		t.Errorf("tts_fallbacks: got %+v", cfg.Providers.TTSFallbacks)
	}
	if cfg.Providers.Resilience.MaxFailures != 2 {
		t.Errorf("resilience.max_failures: got %d", cfg.Providers.Resilience.MaxFailures)
	}
	if cfg.Synthesis.DefaultLanguage != "en-uk" {
		t.Errorf("default_language: got %q", cfg.Synthesis.DefaultLanguage)
	}
	if cfg.UI.Recorder != config.RecorderBrowser {
		t.Errorf("recorder: got %q", cfg.UI.Recorder)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  tts:
    name: gtrans
speling_mistake: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}

func TestLoadFromReader_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("VOICEPAD_TEST_KEY", "sk-from-env")
	yaml := `
providers:
  tts:
    name: elevenlabs
    api_key: ${VOICEPAD_TEST_KEY}
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Providers.TTS.APIKey != "sk-from-env" {
		t.Errorf("api_key: got %q, want expanded env value", cfg.Providers.TTS.APIKey)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
providers:
  tts:
    name: gtrans
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_MissingTTSProvider(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing TTS provider, got nil")
	}
	if !strings.Contains(err.Error(), "providers.tts.name") {
		t.Errorf("error should mention providers.tts.name, got: %v", err)
	}
}

func TestValidate_FallbackWithoutName(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  tts:
    name: gtrans
  stt:
    name: whisper
  stt_fallbacks:
    - api_key: orphaned
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for fallback without name, got nil")
	}
	if !strings.Contains(err.Error(), "stt_fallbacks[0].name") {
		t.Errorf("error should mention stt_fallbacks[0].name, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
synthesis:
  timeout: -5s
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
	if !strings.Contains(errStr, "synthesis.timeout") {
		t.Errorf("error should mention synthesis.timeout, got: %v", err)
	}
}

func TestValidate_NegativeResilienceValues(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  tts:
    name: gtrans
  resilience:
    max_failures: -1
    reset_timeout: -10s
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "resilience.max_failures") {
		t.Errorf("error should mention resilience.max_failures, got: %v", err)
	}
	if !strings.Contains(errStr, "resilience.reset_timeout") {
		t.Errorf("error should mention resilience.reset_timeout, got: %v", err)
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: /etc/voicepad/tls.crt
providers:
  tts:
    name: gtrans
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS without key_file, got nil")
	}
	if !strings.Contains(err.Error(), "key_file") {
		t.Errorf("error should mention key_file, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	sttNames := config.ValidProviderNames["stt"]
	if len(sttNames) == 0 {
		t.Fatal("ValidProviderNames[\"stt\"] should not be empty")
	}
	found := false
	for _, n := range sttNames {
		if n == "whisper" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"stt\"] should contain \"whisper\"")
	}
}

package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("TRANSCRIBER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Errorf("Expected DeepgramAPIKey 'test-deepgram-key', got '%s'", cfg.DeepgramAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("TRANSCRIBER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error when the provider key is missing")
	}
}

func TestLoadSettings_SkipsProviderCheck(t *testing.T) {
	t.Setenv("TRANSCRIBER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("SEGMENT_SECONDS", "120")

	cfg, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() failed: %v", err)
	}
	if cfg.SegmentSeconds != 120 {
		t.Errorf("Expected SegmentSeconds 120, got %v", cfg.SegmentSeconds)
	}

	t.Setenv("SEGMENT_SECONDS", "0")
	if _, err := LoadSettings(); err == nil {
		t.Error("Expected LoadSettings to still check ranges")
	}
}

func TestLoad_Providers(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"openai with key", map[string]string{"TRANSCRIBER": "openai", "OPENAI_API_KEY": "sk-test"}, false},
		{"openai without key", map[string]string{"TRANSCRIBER": "openai", "OPENAI_API_KEY": ""}, true},
		{"google uses default credentials", map[string]string{"TRANSCRIBER": "Google"}, false},
		{"unknown provider", map[string]string{"TRANSCRIBER": "carrier-pigeon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRANSCRIBER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}
	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("Expected default DeepgramModel 'nova-2', got '%s'", cfg.DeepgramModel)
	}
	if cfg.SegmentSeconds != 600 {
		t.Errorf("Expected default SegmentSeconds 600, got %v", cfg.SegmentSeconds)
	}
	if cfg.MaxSegmentBytes != 25*1024*1024 {
		t.Errorf("Expected default MaxSegmentBytes 25 MiB, got %d", cfg.MaxSegmentBytes)
	}
	if cfg.CaptionMaxWords != 8 || cfg.CaptionMaxChars != 42 || cfg.CaptionMaxDuration != 4.0 {
		t.Errorf("Expected caption defaults 8/42/4.0, got %d/%d/%v", cfg.CaptionMaxWords, cfg.CaptionMaxChars, cfg.CaptionMaxDuration)
	}
	if cfg.TimelineFPS != 24 {
		t.Errorf("Expected default TimelineFPS 24, got %v", cfg.TimelineFPS)
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	t.Setenv("TRANSCRIBER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}
	initial, maxBackoff := cfg.RetryBackoff()
	if initial != time.Second {
		t.Errorf("Expected initial backoff 1s, got %v", initial)
	}
	if maxBackoff != 8*time.Second {
		t.Errorf("Expected max backoff 8s, got %v", maxBackoff)
	}
	if cfg.AttemptTimeout() != 300*time.Second {
		t.Errorf("Expected attempt timeout 300s, got %v", cfg.AttemptTimeout())
	}
	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	t.Setenv("TRANSCRIBER", "deepgram")
	t.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}

func TestValidate_Ranges(t *testing.T) {
	base := Config{Transcriber: ProviderGoogle, SegmentSeconds: 600, RetryMaxAttempts: 3, TimelineFPS: 24}
	if err := base.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	bad := base
	bad.SegmentSeconds = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero segment duration")
	}

	bad = base
	bad.TimelineFPS = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero frame rate")
	}

	bad = base
	bad.RetryMaxAttempts = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero retry attempts")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_KEY", "test-value")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}

func TestGoogleClientOptions(t *testing.T) {
	cfg := Config{}
	if opts := cfg.GoogleClientOptions(); len(opts) != 0 {
		t.Errorf("Expected no options without credentials, got %d", len(opts))
	}

	cfg.GoogleCredentialsFile = "/etc/gcp/key.json"
	if opts := cfg.GoogleClientOptions(); len(opts) != 1 {
		t.Errorf("Expected 1 option for a credentials file, got %d", len(opts))
	}

	cfg.GoogleCredentialsFile = `{"type":"service_account"}`
	if opts := cfg.GoogleClientOptions(); len(opts) != 1 {
		t.Errorf("Expected 1 option for inline credentials, got %d", len(opts))
	}
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/api/option"
)

// Transcription providers selectable with TRANSCRIBER.
const (
	ProviderDeepgram = "deepgram"
	ProviderOpenAI   = "openai"
	ProviderGoogle   = "google"
)

// Config holds all configuration for the narration pipeline service and CLI
type Config struct {
	// Server configuration
	Port     string `envconfig:"PORT" default:"8080"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"9090"` // gRPC health service

	// Transcription provider: deepgram, openai or google
	Transcriber string `envconfig:"TRANSCRIBER" default:"deepgram"`
	Language    string `envconfig:"TRANSCRIBE_LANGUAGE" default:"en"`

	// Deepgram prerecorded API configuration
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY"`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`

	// OpenAI-compatible transcription endpoint
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"whisper-1"`

	// Google Cloud configuration (Speech-to-Text and Cloud Storage)
	GoogleCredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	GoogleSpeechModel     string `envconfig:"GOOGLE_SPEECH_MODEL" default:"latest_long"`

	// Segmentation configuration
	SegmentSeconds               float64 `envconfig:"SEGMENT_SECONDS" default:"600"`
	MaxSegmentBytes              int     `envconfig:"MAX_SEGMENT_BYTES" default:"26214400"`               // 25 MiB upload ceiling
	ContainerSplitThresholdBytes int     `envconfig:"CONTAINER_SPLIT_THRESHOLD_BYTES" default:"20971520"` // canonical WAVs above this are split without decoding
	SilenceThreshold             float64 `envconfig:"SILENCE_THRESHOLD" default:"150"`                    // RMS under which a segment is logged as silent

	// Resilience configuration
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Attempts per segment
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"1000"`       // Initial backoff in milliseconds
	RetryMaxBackoff            int `envconfig:"RETRY_MAX_BACKOFF" default:"8000"`           // Backoff cap in milliseconds
	TranscribeTimeout          int `envconfig:"TRANSCRIBE_TIMEOUT" default:"300"`           // Per-attempt timeout in seconds
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Caption and timeline defaults
	CaptionMaxWords    int     `envconfig:"CAPTION_MAX_WORDS" default:"8"`
	CaptionMaxChars    int     `envconfig:"CAPTION_MAX_CHARS" default:"42"`
	CaptionMaxDuration float64 `envconfig:"CAPTION_MAX_DURATION" default:"4.0"`
	TimelineFPS        float64 `envconfig:"TIMELINE_FPS" default:"24"`

	// Transcript cache; disabled when REDIS_URL is empty
	RedisURL           string `envconfig:"REDIS_URL"`
	TranscriptCacheTTL int    `envconfig:"TRANSCRIPT_CACHE_TTL" default:"86400"` // seconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadSettings loads configuration like Load but skips the provider
// credential check, for offline work such as segmenting and exporting.
func LoadSettings() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validateSettings(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the selected provider's credentials and numeric ranges.
func (c *Config) Validate() error {
	if err := c.ValidateProvider(); err != nil {
		return err
	}
	return c.validateSettings()
}

// ValidateProvider checks that the selected transcriber is known and has
// credentials.
func (c *Config) ValidateProvider() error {
	c.Transcriber = strings.ToLower(strings.TrimSpace(c.Transcriber))
	switch c.Transcriber {
	case ProviderDeepgram:
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required when TRANSCRIBER=deepgram")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when TRANSCRIBER=openai")
		}
	case ProviderGoogle:
		// application default credentials are used when no file is given
	default:
		return fmt.Errorf("unknown TRANSCRIBER %q (want deepgram, openai or google)", c.Transcriber)
	}
	return nil
}

func (c *Config) validateSettings() error {
	if c.SegmentSeconds <= 0 {
		return fmt.Errorf("SEGMENT_SECONDS must be positive, got %v", c.SegmentSeconds)
	}
	if c.MaxSegmentBytes < 0 {
		return fmt.Errorf("MAX_SEGMENT_BYTES must not be negative, got %d", c.MaxSegmentBytes)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.TimelineFPS <= 0 {
		return fmt.Errorf("TIMELINE_FPS must be positive, got %v", c.TimelineFPS)
	}
	if c.CaptionMaxWords < 0 || c.CaptionMaxChars < 0 || c.CaptionMaxDuration < 0 {
		return fmt.Errorf("caption limits must not be negative")
	}
	return nil
}

// RetryBackoff returns the initial and maximum retry waits.
func (c *Config) RetryBackoff() (initial, maxBackoff time.Duration) {
	return time.Duration(c.RetryInitialBackoff) * time.Millisecond,
		time.Duration(c.RetryMaxBackoff) * time.Millisecond
}

// AttemptTimeout returns the per-attempt transcription deadline.
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.TranscribeTimeout) * time.Second
}

// CacheTTL returns how long transcripts stay cached.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.TranscriptCacheTTL) * time.Second
}

// GoogleClientOptions returns credentials for Cloud Speech and Cloud Storage.
// GOOGLE_APPLICATION_CREDENTIALS may hold a file path or inline JSON; when it
// is empty the client libraries fall back to application default credentials.
func (c *Config) GoogleClientOptions() []option.ClientOption {
	creds := strings.TrimSpace(c.GoogleCredentialsFile)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/lexiqai/narration-pipeline/internal/audio"
	"github.com/lexiqai/narration-pipeline/internal/captions"
	"github.com/lexiqai/narration-pipeline/internal/config"
	"github.com/lexiqai/narration-pipeline/internal/resilience"
	"github.com/lexiqai/narration-pipeline/internal/storage"
	"github.com/lexiqai/narration-pipeline/internal/stt"
)

// RetryConfig maps the RETRY_* and TRANSCRIBE_TIMEOUT settings.
func RetryConfig(cfg *config.Config) *resilience.RetryConfig {
	initial, maxBackoff := cfg.RetryBackoff()
	rc := resilience.DefaultRetryConfig()
	rc.MaxAttempts = cfg.RetryMaxAttempts
	rc.InitialBackoff = initial
	rc.MaxBackoff = maxBackoff
	rc.AttemptTimeout = cfg.AttemptTimeout()
	return rc
}

// Segmenter maps the segmentation settings.
func Segmenter(cfg *config.Config) *audio.Segmenter {
	return &audio.Segmenter{
		SegmentDuration:  cfg.SegmentSeconds,
		MaxSegmentBytes:  cfg.MaxSegmentBytes,
		SilenceThreshold: cfg.SilenceThreshold,
	}
}

// CaptionConstraints maps the CAPTION_* settings.
func CaptionConstraints(cfg *config.Config) captions.Constraints {
	c := captions.DefaultConstraints()
	c.MaxWords = cfg.CaptionMaxWords
	c.MaxChars = cfg.CaptionMaxChars
	c.MaxDuration = cfg.CaptionMaxDuration
	return c
}

// NewRunner wires a runner from configuration. source must be able to fetch
// whatever sink returns.
func NewRunner(cfg *config.Config, source storage.Source, sink storage.Sink, transcriber stt.Transcriber, logger zerolog.Logger) *Runner {
	orch := NewOrchestrator(source, transcriber, logger)
	orch.Retry = RetryConfig(cfg)
	orch.Language = cfg.Language
	return &Runner{
		Segmenter:      Segmenter(cfg),
		SplitThreshold: cfg.ContainerSplitThresholdBytes,
		Sink:           sink,
		Orchestrator:   orch,
		Captions:       CaptionConstraints(cfg),
		Logger:         logger,
	}
}

package stt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/narration-pipeline/internal/config"
	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/resilience"
)

// Stack is the configured provider chain: cache, then circuit breaker, then
// the provider itself.
type Stack struct {
	Transcriber Transcriber
	Checks      map[string]observability.HealthCheckFunc

	closers []func() error
}

// Close releases provider and cache connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewProvider builds the bare provider client selected by cfg.Transcriber.
// The returned close function is never nil.
func NewProvider(ctx context.Context, cfg *config.Config) (Transcriber, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Transcriber {
	case config.ProviderDeepgram:
		return NewDeepgramClient(cfg.DeepgramAPIKey, cfg.DeepgramModel), noop, nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), noop, nil
	case config.ProviderGoogle:
		g, err := NewGoogleClient(ctx, cfg.GoogleSpeechModel, cfg.GoogleClientOptions()...)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown transcriber %q", cfg.Transcriber)
}

// NewStack builds the full chain from configuration. A Redis cache is added
// only when REDIS_URL is set; an unreachable Redis is logged and skipped.
func NewStack(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Stack, error) {
	provider, closeProvider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	stack := &Stack{
		Checks:  map[string]observability.HealthCheckFunc{},
		closers: []func() error{closeProvider},
	}

	breaker := resilience.NewCircuitBreaker(
		provider.Name(),
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)
	guarded := NewGuardedTranscriber(provider, breaker)
	stack.Transcriber = guarded
	stack.Checks["transcriber"] = guarded.Healthy

	if cfg.RedisURL != "" {
		cache, err := NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Transcript cache disabled")
		} else {
			stack.closers = append(stack.closers, cache.Close)
			stack.Checks["redis"] = cache.Ping
			stack.Transcriber = &CachingTranscriber{
				Next:   guarded,
				Cache:  cache,
				TTL:    cfg.CacheTTL(),
				Model:  modelFor(cfg),
				Logger: logger.With().Str("component", "transcript_cache").Logger(),
			}
		}
	}

	logger.Info().
		Str("provider", provider.Name()).
		Str("model", modelFor(cfg)).
		Bool("cache", stack.Transcriber != guarded).
		Msg("Transcriber configured")
	return stack, nil
}

func modelFor(cfg *config.Config) string {
	switch cfg.Transcriber {
	case config.ProviderDeepgram:
		return cfg.DeepgramModel
	case config.ProviderOpenAI:
		return cfg.OpenAIModel
	case config.ProviderGoogle:
		return cfg.GoogleSpeechModel
	}
	return ""
}

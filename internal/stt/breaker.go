package stt

import (
	"context"

	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/resilience"
)

// GuardedTranscriber puts a circuit breaker in front of a provider. Only
// transient failures count against the breaker; a rejected request still
// passes through to the retry loop.
type GuardedTranscriber struct {
	Next    Transcriber
	Breaker *resilience.CircuitBreaker
}

// NewGuardedTranscriber wires breaker state into the circuit breaker metrics.
func NewGuardedTranscriber(next Transcriber, breaker *resilience.CircuitBreaker) *GuardedTranscriber {
	breaker.OnStateChange = func(name string, state resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(state))
	}
	observability.UpdateCircuitBreakerState(breaker.Name(), int(breaker.GetState()))
	return &GuardedTranscriber{Next: next, Breaker: breaker}
}

// Name implements Transcriber.
func (g *GuardedTranscriber) Name() string { return g.Next.Name() }

// Transcribe implements Transcriber.
func (g *GuardedTranscriber) Transcribe(ctx context.Context, req Request) (*SegmentResult, error) {
	var (
		result  *SegmentResult
		callErr error
	)
	err := g.Breaker.Call(func() error {
		result, callErr = g.Next.Transcribe(ctx, req)
		if callErr != nil && isTransient(callErr) {
			observability.IncrementCircuitBreakerFailures(g.Breaker.Name())
			return callErr
		}
		return nil
	})
	if callErr != nil {
		return nil, callErr
	}
	if err != nil {
		return nil, &ServiceError{Provider: g.Name(), Err: err}
	}
	return result, nil
}

// Healthy reports false while the breaker is open.
func (g *GuardedTranscriber) Healthy(ctx context.Context) (bool, error) {
	if g.Breaker.GetState() == resilience.StateOpen {
		return false, resilience.ErrCircuitOpen
	}
	return true, nil
}

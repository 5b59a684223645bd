package stt

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/lexiqai/narration-pipeline/internal/resilience"
)

// ServiceError reports a failed call to a transcription provider.
type ServiceError struct {
	Provider   string
	StatusCode int        // HTTP status, zero when the failure was not an HTTP response
	Code       codes.Code // gRPC status from providers reached over gRPC
	Body       string     // response body, truncated
	Temporary  bool       // provider-specific transient classification
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: http %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return e.Provider + ": transcription failed"
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the retry loop should try again. Every
// non-success HTTP response qualifies, size-limit and quota responses
// included, as do transport failures.
func (e *ServiceError) Retryable() bool {
	return e.StatusCode != 0 || e.Code != codes.OK || e.Transient()
}

// Transient reports whether the failure is likely to clear on its own:
// request timeouts, conflicts, throttling, server errors and transport
// failures. Only transient failures count against the circuit breaker.
func (e *ServiceError) Transient() bool {
	if e.Temporary {
		return true
	}
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusConflict,
		e.StatusCode == http.StatusTooEarly,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= 500:
		return true
	case e.StatusCode != 0:
		return false
	}
	return e.Err != nil && !errors.Is(e.Err, resilience.ErrCircuitOpen) && resilience.IsRetryableNetworkError(e.Err)
}

// IsRetryable classifies an error from any Transcriber for the retry loop.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return resilience.IsRetryableNetworkError(err)
}

// isTransient is IsRetryable without the client-error statuses.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return resilience.IsRetryableNetworkError(err)
}

const maxErrorBody = 512

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}

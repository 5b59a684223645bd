package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexiqai/narration-pipeline/internal/resilience"
)

// HTTPSource downloads http(s) references.
type HTTPSource struct {
	Client *http.Client
}

// NewHTTPSource creates a source with a bounded client timeout.
func NewHTTPSource() *HTTPSource {
	return &HTTPSource{Client: &http.Client{Timeout: 5 * time.Minute}}
}

// Fetch implements Source. 5xx and 429 responses are marked retryable.
func (h *HTTPSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, resilience.NewRetryableError(fmt.Errorf("fetch %s: %w", uri, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, resilience.NewRetryableError(fmt.Errorf("fetch %s: http %d", uri, resp.StatusCode))
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch %s: http %d", uri, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewRetryableError(fmt.Errorf("read %s: %w", uri, err))
	}
	return b, nil
}

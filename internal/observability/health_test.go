package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheckHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if status.Status != "healthy" || status.Service != serviceName {
		t.Errorf("Unexpected health status %+v", status)
	}
}

func TestReadinessHandler(t *testing.T) {
	ok := func(ctx context.Context) (bool, error) { return true, nil }
	down := func(ctx context.Context) (bool, error) { return false, errors.New("connection refused") }

	tests := []struct {
		name     string
		checks   map[string]HealthCheckFunc
		wantCode int
		want     string
	}{
		{"all healthy", map[string]HealthCheckFunc{"redis": ok, "transcriber": ok}, http.StatusOK, "ready"},
		{"one down", map[string]HealthCheckFunc{"redis": down, "transcriber": ok}, http.StatusServiceUnavailable, "not_ready"},
		{"nil skipped", map[string]HealthCheckFunc{"redis": nil}, http.StatusOK, "ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ReadinessHandler(tt.checks)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}
			var status HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if status.Status != tt.want {
				t.Errorf("Expected status %q, got %q", tt.want, status.Status)
			}
		})
	}
}

func TestRunChecks_Messages(t *testing.T) {
	deps, healthy := RunChecks(context.Background(), map[string]HealthCheckFunc{
		"redis": func(ctx context.Context) (bool, error) { return false, errors.New("dial tcp: timeout") },
	})
	if healthy {
		t.Error("Expected unhealthy result")
	}
	if deps["redis"].Message != "dial tcp: timeout" {
		t.Errorf("Expected error message to be reported, got %q", deps["redis"].Message)
	}
}

// Package server exposes the narration pipeline over HTTP: transcription
// runs, timeline exports, a websocket progress stream and the usual health
// and metrics endpoints.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lexiqai/narration-pipeline/internal/captions"
	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/pipeline"
	"github.com/lexiqai/narration-pipeline/internal/progress"
)

// DefaultMaxUploadBytes bounds a transcription request body.
const DefaultMaxUploadBytes = 2 << 30

// Server holds the handlers' dependencies.
type Server struct {
	Runner         *pipeline.Runner
	Hub            *progress.Hub
	Checks         map[string]observability.HealthCheckFunc
	Captions       captions.Constraints
	FPS            float64
	MaxUploadBytes int64
	MetricsEnabled bool
	Logger         zerolog.Logger
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/transcriptions", s.handleTranscription)
	mux.HandleFunc("POST /v1/exports/{format}", s.handleExport)
	if s.Hub != nil {
		mux.HandleFunc("GET /v1/progress", s.Hub.HandleWS())
	}

	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(s.Checks))
	if s.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

type errorResponse struct {
	Error   string `json:"error"`
	Segment *int   `json:"segment,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

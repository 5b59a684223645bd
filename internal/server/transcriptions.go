package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/lexiqai/narration-pipeline/internal/audio"
	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/pipeline"
	"github.com/lexiqai/narration-pipeline/internal/progress"
)

// handleTranscription runs the whole pipeline on the request body. Clients
// that want progress pick a run id, open /v1/progress?run=<id> and then post
// with ?run=<id>.
func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		runID = observability.NewRunID()
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = r.Header.Get("X-Filename")
	}
	if name == "" {
		name = "upload"
	}
	w.Header().Set("X-Run-ID", runID)

	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty request body"})
		return
	}

	runner := *s.Runner
	if s.Hub != nil {
		runner.Progress = progress.Multi(s.Runner.Progress, s.Hub.Reporter())
	}

	result, err := runner.Run(r.Context(), runID, body, name)
	if err != nil {
		status, resp := classifyRunError(err)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func classifyRunError(err error) (int, errorResponse) {
	resp := errorResponse{Error: err.Error()}

	var decodeErr *audio.DecodeError
	var formatErr *audio.FormatError
	var pipelineErr *pipeline.PipelineError
	switch {
	case errors.Is(err, context.Canceled):
		return 499, resp
	case errors.As(err, &decodeErr), errors.As(err, &formatErr):
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, audio.ErrSegmentTooLarge):
		return http.StatusInternalServerError, resp
	case errors.As(err, &pipelineErr):
		segment := pipelineErr.Segment
		resp.Segment = &segment
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, resp
		}
		return http.StatusBadGateway, resp
	}
	return http.StatusInternalServerError, resp
}

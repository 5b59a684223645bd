package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/timeline"
)

// handleExport renders the posted timeline.ExportRequest in the format named
// by the path.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	contentType, ok := timeline.ContentType(format)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown export format " + format})
		return
	}

	var req timeline.ExportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 32<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	out, err := timeline.Export(format, req, s.Captions, s.FPS)
	observability.RecordExport(format, err == nil)
	if err != nil {
		var ve *timeline.ValidationError
		if errors.As(err, &ve) {
			index := ve.Index
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Index: &index})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

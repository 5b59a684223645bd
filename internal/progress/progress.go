// Package progress carries advisory progress events from pipeline stages to
// whoever is watching (logs, websocket subscribers, CLI output). Reporters never
// gate pipeline progress.
package progress

import (
	"github.com/rs/zerolog"
)

// Stage names the pipeline step an event belongs to.
type Stage string

const (
	StageDecoding     Stage = "decoding"
	StageSegmenting   Stage = "segmenting"
	StageTranscribing Stage = "transcribing"
	StageCaptioning   Stage = "captioning"
	StageExporting    Stage = "exporting"
	StageComplete     Stage = "complete"
	StageFailed       Stage = "failed"
)

// Terminal reports whether no further events follow s for a run.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// Event is a single progress notification.
type Event struct {
	RunID       string  `json:"runId,omitempty"`
	Stage       Stage   `json:"stage"`
	Percent     float64 `json:"percentComplete"`
	Message     string  `json:"message,omitempty"`
	CurrentUnit int     `json:"currentUnit,omitempty"`
	TotalUnits  int     `json:"totalUnits,omitempty"`
}

// Reporter receives progress events. A nil Reporter is valid and drops events.
type Reporter func(Event)

// Report delivers e if r is non-nil.
func (r Reporter) Report(e Event) {
	if r != nil {
		r(e)
	}
}

// Units reports completion of unit current out of total for a stage.
func (r Reporter) Units(stage Stage, current, total int, message string) {
	if r == nil {
		return
	}
	percent := 100.0
	if total > 0 {
		percent = 100 * float64(current) / float64(total)
	}
	r(Event{Stage: stage, Percent: percent, Message: message, CurrentUnit: current, TotalUnits: total})
}

// Multi fans an event out to every non-nil reporter.
func Multi(reporters ...Reporter) Reporter {
	return func(e Event) {
		for _, r := range reporters {
			r.Report(e)
		}
	}
}

// WithRunID stamps every event with runID before passing it on.
func WithRunID(runID string, r Reporter) Reporter {
	return func(e Event) {
		e.RunID = runID
		r.Report(e)
	}
}

// Log writes events to logger at debug level, terminal events at info.
func Log(logger zerolog.Logger) Reporter {
	return func(e Event) {
		ev := logger.Debug()
		if e.Stage.Terminal() {
			ev = logger.Info()
		}
		ev.Str("stage", string(e.Stage)).
			Float64("percent", e.Percent).
			Int("unit", e.CurrentUnit).
			Int("units", e.TotalUnits).
			Msg(e.Message)
	}
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/narration-pipeline/internal/audio"
	"github.com/lexiqai/narration-pipeline/internal/captions"
	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/progress"
	"github.com/lexiqai/narration-pipeline/internal/storage"
)

// Segmentation modes.
const (
	ModeContainer = "container"
	ModeDecoded   = "decoded"
)

// Manifest lists the staged segments of one source.
type Manifest struct {
	RunID    string       `json:"runId"`
	Source   string       `json:"source"`
	Mode     string       `json:"mode"`
	Segments []SegmentRef `json:"segments"`
}

// Result is everything one run produces.
type Result struct {
	Manifest
	Timeline *Timeline      `json:"timeline"`
	Captions []captions.Cue `json:"captions"`
}

// Runner drives one source end to end: segment, stage, transcribe, caption.
type Runner struct {
	Segmenter *audio.Segmenter
	// SplitThreshold is the size above which a canonical WAV is cut at the
	// container level instead of being decoded. Zero always decodes.
	SplitThreshold int
	Sink           storage.Sink
	Orchestrator   *Orchestrator
	Captions       captions.Constraints
	Progress       progress.Reporter
	Logger         zerolog.Logger
}

// Segment cuts src into canonical segments and reports which path it took.
func (r *Runner) Segment(src []byte, name string, report progress.Reporter) ([]audio.Segment, string, error) {
	seg := *r.Segmenter
	seg.Progress = report

	if r.SplitThreshold > 0 && len(src) > r.SplitThreshold {
		if c, err := audio.ParseHeader(src); err == nil && c.Header.IsCanonical() {
			segments, err := seg.SplitContainer(src)
			return segments, ModeContainer, err
		}
	}

	report.Report(progress.Event{Stage: progress.StageDecoding, Message: "decoding " + name})
	decoded, err := audio.Decode(bytes.NewReader(src), name)
	if err != nil {
		return nil, ModeDecoded, err
	}
	report.Report(progress.Event{Stage: progress.StageDecoding, Percent: 100, Message: fmt.Sprintf("decoded %.1f s", decoded.Duration())})

	segments, err := seg.Split(decoded)
	return segments, ModeDecoded, err
}

// Stage writes each segment to the sink under runID and returns references.
func (r *Runner) Stage(ctx context.Context, runID string, segments []audio.Segment) ([]SegmentRef, error) {
	refs := make([]SegmentRef, 0, len(segments))
	for _, s := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%s/segment-%03d.wav", runID, s.Index)
		uri, err := r.Sink.Put(ctx, key, s.Payload)
		if err != nil {
			return nil, fmt.Errorf("store segment %d: %w", s.Index, err)
		}
		refs = append(refs, SegmentRef{
			Index:     s.Index,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Duration:  s.Duration,
			URI:       uri,
		})
	}
	return refs, nil
}

// Run processes one source. It is all or nothing: on error no timeline or
// captions are returned.
func (r *Runner) Run(ctx context.Context, runID string, src []byte, name string) (result *Result, err error) {
	log := r.Logger.With().Str("run_id", runID).Str("source", name).Logger()
	report := progress.WithRunID(runID, progress.Multi(r.Progress, progress.Log(log)))
	metrics := observability.NewRunMetrics(runID)
	metrics.RecordRunStart()
	start := time.Now()

	if cleaner, ok := r.Sink.(interface{ DeletePrefix(string) }); ok {
		defer cleaner.DeletePrefix(runID + "/")
	}

	defer func() {
		metrics.RecordRunEnd(err == nil)
		if err != nil {
			log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Run failed")
			report.Report(progress.Event{Stage: progress.StageFailed, Message: err.Error()})
			return
		}
		log.Info().
			Dur("elapsed", time.Since(start)).
			Int("segments", len(result.Segments)).
			Int("words", len(result.Timeline.Words)).
			Int("cues", len(result.Captions)).
			Msg("Run complete")
		report.Report(progress.Event{Stage: progress.StageComplete, Percent: 100, Message: "complete"})
	}()

	segments, mode, err := r.Segment(src, name, report)
	if err != nil {
		metrics.RecordError("segmentation", "runner")
		return nil, err
	}

	var total float64
	var size int64
	for _, s := range segments {
		total += s.Duration
		size += int64(len(s.Payload))
		if s.Level.Silent {
			log.Info().
				Int("segment", s.Index).
				Float64("rms", s.Level.RMS).
				Msg("Segment is near-silent")
		}
	}
	metrics.RecordSource(total)
	metrics.RecordSegments(mode, len(segments), size)
	log.Info().
		Str("mode", mode).
		Int("segments", len(segments)).
		Float64("duration", total).
		Msg("Source segmented")

	refs, err := r.Stage(ctx, runID, segments)
	if err != nil {
		metrics.RecordError("storage", "runner")
		return nil, err
	}

	orch := *r.Orchestrator
	orch.Progress = report
	orch.Logger = log
	orch.Metrics = metrics
	timeline, err := orch.Transcribe(ctx, refs)
	if err != nil {
		return nil, err
	}

	report.Report(progress.Event{Stage: progress.StageCaptioning, Message: "grouping captions"})
	cues := captions.Group(timeline.Words, r.Captions)
	report.Report(progress.Event{Stage: progress.StageCaptioning, Percent: 100, Message: fmt.Sprintf("%d cues", len(cues))})

	return &Result{
		Manifest: Manifest{RunID: runID, Source: name, Mode: mode, Segments: refs},
		Timeline: timeline,
		Captions: cues,
	}, nil
}

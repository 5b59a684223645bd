package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/narration-pipeline/internal/observability"
	"github.com/lexiqai/narration-pipeline/internal/progress"
	"github.com/lexiqai/narration-pipeline/internal/resilience"
	"github.com/lexiqai/narration-pipeline/internal/storage"
	"github.com/lexiqai/narration-pipeline/internal/stt"
)

// durationDriftWarning is how far a provider-reported duration may differ
// from the declared one before it is logged.
const durationDriftWarning = 1.0

// SegmentRef points at one encoded segment. Times are source-relative.
type SegmentRef struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Duration  float64 `json:"duration"`
	URI       string  `json:"uri"`
}

// Orchestrator transcribes segments one at a time, in index order, and
// reconciles their word timings onto the source timeline.
type Orchestrator struct {
	Source      storage.Source
	Transcriber stt.Transcriber
	Retry       *resilience.RetryConfig
	Language    string

	// OnSegment is called after each completed segment.
	OnSegment func(completed, total int)
	Progress  progress.Reporter
	Logger    zerolog.Logger
	Metrics   *observability.RunMetrics
}

// NewOrchestrator creates an orchestrator with the default retry policy.
func NewOrchestrator(source storage.Source, transcriber stt.Transcriber, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		Source:      source,
		Transcriber: transcriber,
		Retry:       resilience.DefaultRetryConfig(),
		Logger:      logger,
	}
}

// Transcribe runs every segment and returns the reconciled timeline. Any
// segment failure, or cancellation of ctx, returns a *PipelineError and no
// timeline.
func (o *Orchestrator) Transcribe(ctx context.Context, refs []SegmentRef) (*Timeline, error) {
	ordered := make([]SegmentRef, len(refs))
	copy(ordered, refs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Index == ordered[i-1].Index {
			return nil, &PipelineError{Segment: ordered[i].Index, Err: fmt.Errorf("duplicate segment index")}
		}
	}

	metrics := o.Metrics
	if metrics == nil {
		metrics = observability.NewRunMetrics("")
	}

	total := len(ordered)
	transcripts := make([]SegmentTranscript, 0, total)
	for i, ref := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, &PipelineError{Segment: ref.Index, Err: err}
		}

		result, err := o.transcribeSegment(ctx, ref, metrics)
		if err != nil {
			return nil, err
		}
		result.Index = ref.Index
		transcripts = append(transcripts, SegmentTranscript{Index: ref.Index, Duration: ref.Duration, Result: result})

		if o.OnSegment != nil {
			o.OnSegment(i+1, total)
		}
		o.Progress.Units(progress.StageTranscribing, i+1, total,
			fmt.Sprintf("transcribed segment %d of %d", i+1, total))
	}

	timeline := Reconcile(transcripts)
	if timeline.Repairs > 0 {
		metrics.RecordRepairs(timeline.Repairs)
		o.Logger.Warn().
			Int("repairs", timeline.Repairs).
			Msg("Clamped out-of-order word timestamps")
	}
	return &timeline, nil
}

func (o *Orchestrator) transcribeSegment(ctx context.Context, ref SegmentRef, metrics *observability.RunMetrics) (*stt.SegmentResult, error) {
	log := o.Logger.With().Int("segment", ref.Index).Logger()
	provider := o.Transcriber.Name()

	var payload []byte
	err := resilience.Retry(ctx, func(ctx context.Context) error {
		b, err := o.Source.Fetch(ctx, ref.URI)
		payload = b
		return err
	}, o.retryConfig(log, "fetch", nil), func(err error) bool {
		return !errors.Is(err, storage.ErrNotFound) && resilience.IsRetryableNetworkError(err)
	})
	if err != nil {
		return nil, pipelineError(ref.Index, fmt.Errorf("fetch %s: %w", ref.URI, err))
	}

	req := stt.Request{
		Audio:    payload,
		Filename: fmt.Sprintf("segment-%03d.wav", ref.Index),
		MimeType: "audio/wav",
		Language: o.Language,
	}

	var result *stt.SegmentResult
	err = resilience.Retry(ctx, func(ctx context.Context) error {
		metrics.RecordTranscribeStart()
		start := time.Now()
		res, err := o.Transcriber.Transcribe(ctx, req)
		metrics.RecordTranscribeEnd(provider, err == nil)
		if err != nil {
			return err
		}
		if res == nil {
			return &stt.ServiceError{Provider: provider, Err: ErrNoResult}
		}
		log.Debug().
			Dur("latency", time.Since(start)).
			Int("words", len(res.Words)).
			Msg("Segment transcribed")
		result = res
		return nil
	}, o.retryConfig(log, "transcribe", func() { metrics.RecordRetry(provider) }), stt.IsRetryable)
	if err != nil {
		metrics.RecordError("transcription", "orchestrator")
		return nil, pipelineError(ref.Index, err)
	}

	if result.Duration > 0 && math.Abs(result.Duration-ref.Duration) > durationDriftWarning {
		log.Warn().
			Float64("declared", ref.Duration).
			Float64("reported", result.Duration).
			Msg("Provider duration differs from declared segment duration; offset uses declared")
	}
	if len(result.Words) == 0 {
		log.Info().Msg("Segment has no words")
	}
	return result, nil
}

func (o *Orchestrator) retryConfig(log zerolog.Logger, op string, onRetry func()) *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if o.Retry != nil {
		copied := *o.Retry
		cfg = &copied
	}
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying segment")
		if onRetry != nil {
			onRetry()
		}
	}
	return cfg
}

func pipelineError(segment int, err error) error {
	pe := &PipelineError{Segment: segment, Err: err}
	var ae *resilience.AttemptError
	if errors.As(err, &ae) {
		pe.Attempts = ae.Attempts
		pe.Err = ae.Err
	}
	return pe
}

package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "narration_active_runs",
		Help: "Number of pipeline runs in progress",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_runs_total",
		Help: "Total number of pipeline runs",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "narration_run_duration_seconds",
		Help:    "Wall-clock duration of pipeline runs",
		Buckets: []float64{1, 5, 15, 30, 60, 180, 600, 1800},
	})

	sourceSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "narration_source_audio_seconds_total",
		Help: "Total seconds of source audio processed",
	})

	// Segment metrics
	segmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_segments_total",
		Help: "Total number of audio segments produced",
	}, []string{"mode"}) // mode: "decoded" or "container"

	segmentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "narration_segment_bytes_total",
		Help: "Total bytes of encoded segments",
	})

	// Transcription metrics
	transcribeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_transcribe_requests_total",
		Help: "Total number of segment transcription requests",
	}, []string{"provider", "status"})

	transcribeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "narration_transcribe_latency_seconds",
		Help:    "Segment transcription latency in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"provider"})

	transcribeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_transcribe_retries_total",
		Help: "Total number of transcription retries",
	}, []string{"provider"})

	transcriptCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_transcript_cache_total",
		Help: "Transcript cache lookups",
	}, []string{"result"}) // result: "hit", "miss" or "error"

	timestampRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "narration_timestamp_repairs_total",
		Help: "Words whose timestamps were clamped to keep the timeline monotonic",
	})

	// Export metrics
	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_exports_total",
		Help: "Total number of timeline exports",
	}, []string{"format", "status"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "narration_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// RunMetrics tracks metrics for a single pipeline run
type RunMetrics struct {
	runID     string
	startTime time.Time

	mu                  sync.Mutex
	transcribeStartTime time.Time
	ended               bool
}

// NewRunMetrics creates a new metrics tracker for a run
func NewRunMetrics(runID string) *RunMetrics {
	return &RunMetrics{
		runID:     runID,
		startTime: time.Now(),
	}
}

// RecordRunStart records the start of a run
func (m *RunMetrics) RecordRunStart() {
	activeRuns.Inc()
}

// RecordRunEnd records the end of a run. Only the first call counts.
func (m *RunMetrics) RecordRunEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return
	}
	m.ended = true

	activeRuns.Dec()
	runDuration.Observe(time.Since(m.startTime).Seconds())
	runsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordSource records the duration of the source asset
func (m *RunMetrics) RecordSource(seconds float64) {
	sourceSeconds.Add(seconds)
}

// RecordSegments records produced segments
func (m *RunMetrics) RecordSegments(mode string, count int, bytes int64) {
	segmentsTotal.WithLabelValues(mode).Add(float64(count))
	segmentBytes.Add(float64(bytes))
}

// RecordTranscribeStart records the start of a segment transcription
func (m *RunMetrics) RecordTranscribeStart() {
	m.mu.Lock()
	m.transcribeStartTime = time.Now()
	m.mu.Unlock()
}

// RecordTranscribeEnd records the end of a segment transcription
func (m *RunMetrics) RecordTranscribeEnd(provider string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.transcribeStartTime.IsZero() {
		transcribeLatency.WithLabelValues(provider).Observe(time.Since(m.transcribeStartTime).Seconds())
	}
	transcribeRequests.WithLabelValues(provider, statusLabel(success)).Inc()
}

// RecordRetry records a transcription retry
func (m *RunMetrics) RecordRetry(provider string) {
	transcribeRetries.WithLabelValues(provider).Inc()
}

// RecordRepairs records clamped word timestamps
func (m *RunMetrics) RecordRepairs(count int) {
	if count > 0 {
		timestampRepairs.Add(float64(count))
	}
}

// RecordError records an error
func (m *RunMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordCacheLookup records a transcript cache hit, miss or error
func RecordCacheLookup(result string) {
	transcriptCache.WithLabelValues(result).Inc()
}

// RecordExport records a timeline export
func RecordExport(format string, success bool) {
	exportsTotal.WithLabelValues(format, statusLabel(success)).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

package stt

import "context"

// Word is a single recognized token. Times are seconds relative to the start
// of the audio that was transcribed.
type Word struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// SegmentResult is what a provider returned for one segment. Word times are
// segment-local.
type SegmentResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	// Duration is the provider-reported audio length; zero when unknown.
	Duration float64 `json:"duration"`
	Words    []Word  `json:"words"`
	Language string  `json:"language,omitempty"`
}

// Request is one transcription call.
type Request struct {
	Audio    []byte
	Filename string
	MimeType string
	Language string
}

// Transcriber turns one bounded audio segment into text with word timings.
type Transcriber interface {
	// Name identifies the provider in logs, metrics and cache keys.
	Name() string

	// Transcribe blocks until the provider answers or ctx is done.
	Transcribe(ctx context.Context, req Request) (*SegmentResult, error)
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc struct {
	Provider string
	Fn       func(ctx context.Context, req Request) (*SegmentResult, error)
}

// Name implements Transcriber.
func (f TranscriberFunc) Name() string { return f.Provider }

// Transcribe implements Transcriber.
func (f TranscriberFunc) Transcribe(ctx context.Context, req Request) (*SegmentResult, error) {
	return f.Fn(ctx, req)
}

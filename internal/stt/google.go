package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/lexiqai/narration-pipeline/internal/audio"
)

type longRunningRecognizer interface {
	recognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)
}

type speechClient struct {
	client *speech.Client
}

func (s *speechClient) recognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	op, err := s.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, err
	}
	return op.Wait(ctx)
}

// GoogleClient transcribes segments with Cloud Speech-to-Text
// LongRunningRecognize and word time offsets.
type GoogleClient struct {
	recognizer longRunningRecognizer
	closer     func() error
	model      string
}

// NewGoogleClient dials Cloud Speech with opts (credentials, endpoint).
func NewGoogleClient(ctx context.Context, model string, opts ...option.ClientOption) (*GoogleClient, error) {
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &GoogleClient{recognizer: &speechClient{client: c}, closer: c.Close, model: model}, nil
}

// Name implements Transcriber.
func (g *GoogleClient) Name() string { return "google" }

// Close releases the underlying gRPC connection.
func (g *GoogleClient) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

// Transcribe sends the segment inline. Canonical PCM containers are declared
// as LINEAR16 at their header's sample rate.
func (g *GoogleClient) Transcribe(ctx context.Context, req Request) (*SegmentResult, error) {
	language := req.Language
	if language == "" {
		language = "en-US"
	}

	rc := &speechpb.RecognitionConfig{
		LanguageCode:               language,
		Model:                      g.model,
		EnableAutomaticPunctuation: true,
		EnableWordTimeOffsets:      true,
	}
	if c, err := audio.ParseHeader(req.Audio); err == nil && c.BitsPerSample == 16 {
		rc.Encoding = speechpb.RecognitionConfig_LINEAR16
		rc.SampleRateHertz = int32(c.SampleRate)
		rc.AudioChannelCount = int32(c.Channels)
	}

	resp, err := g.recognizer.recognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: rc,
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: req.Audio}},
	})
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	out := parseGoogleResponse(resp)
	out.Language = language
	return out, nil
}

func classifyGoogleError(err error) error {
	se := &ServiceError{Provider: "google", Err: err}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Canceled {
		se.Code = st.Code()
	}
	switch se.Code {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		se.Temporary = true
	}
	return se
}

func parseGoogleResponse(resp *speechpb.LongRunningRecognizeResponse) *SegmentResult {
	out := &SegmentResult{Words: []Word{}}
	if resp == nil {
		return out
	}

	var texts []string
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		if t := strings.TrimSpace(alt.Transcript); t != "" {
			texts = append(texts, t)
		}
		for _, w := range alt.Words {
			if w == nil {
				continue
			}
			out.Words = append(out.Words, Word{
				Text:      w.Word,
				StartTime: durToSec(w.StartTime),
				EndTime:   durToSec(w.EndTime),
			})
		}
	}
	out.Text = strings.Join(texts, " ")
	return out
}

func durToSec(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return d.AsDuration().Seconds()
}

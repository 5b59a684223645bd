package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

// DeepgramClient transcribes whole segments with Deepgram's prerecorded API.
type DeepgramClient struct {
	apiKey string
	model  string
}

// NewDeepgramClient creates a prerecorded (REST) Deepgram client.
func NewDeepgramClient(apiKey, model string) *DeepgramClient {
	return &DeepgramClient{apiKey: apiKey, model: model}
}

// Name implements Transcriber.
func (d *DeepgramClient) Name() string { return "deepgram" }

// Transcribe uploads req.Audio and returns word-level timings.
func (d *DeepgramClient) Transcribe(ctx context.Context, req Request) (*SegmentResult, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.model,
		Language:    req.Language,
		Punctuate:   true,
		SmartFormat: true,
	}

	client := listenClient.NewREST(d.apiKey, &interfaces.ClientOptions{})
	dg := api.New(client)

	res, err := dg.FromStream(ctx, bytes.NewReader(req.Audio), options)
	if err != nil {
		return nil, &ServiceError{Provider: d.Name(), Err: err}
	}

	// the SDK response shape differs between minor versions; going through
	// JSON pins the fields read here
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, &ServiceError{Provider: d.Name(), Err: fmt.Errorf("encode response: %w", err)}
	}
	result, err := parseDeepgramResponse(raw)
	if err != nil {
		return nil, &ServiceError{Provider: d.Name(), Err: err}
	}
	result.Language = req.Language
	return result, nil
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
				Words      []struct {
					Word           string  `json:"word"`
					PunctuatedWord string  `json:"punctuated_word"`
					Start          float64 `json:"start"`
					End            float64 `json:"end"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func parseDeepgramResponse(raw []byte) (*SegmentResult, error) {
	var resp deepgramResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode deepgram response: %w", err)
	}

	out := &SegmentResult{Duration: resp.Metadata.Duration, Words: []Word{}}
	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return out, nil
	}

	alt := resp.Results.Channels[0].Alternatives[0]
	out.Text = strings.TrimSpace(alt.Transcript)
	for _, w := range alt.Words {
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		out.Words = append(out.Words, Word{Text: text, StartTime: w.Start, EndTime: w.End})
	}
	return out, nil
}

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient calls an OpenAI-compatible /audio/transcriptions endpoint
// with word-level timestamp granularity.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for baseURL (e.g. https://api.openai.com/v1).
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Name implements Transcriber.
func (o *OpenAIClient) Name() string { return "openai" }

type openAIWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type openAIResponse struct {
	Text     string       `json:"text"`
	Language string       `json:"language"`
	Duration float64      `json:"duration"`
	Words    []openAIWord `json:"words"`
}

// Transcribe posts the segment as multipart form data.
func (o *OpenAIClient) Transcribe(ctx context.Context, req Request) (*SegmentResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"model":                     o.model,
		"response_format":           "verbose_json",
		"timestamp_granularities[]": "word",
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	filename := req.Filename
	if filename == "" {
		filename = "segment.wav"
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ServiceError{Provider: o.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Provider: o.Name(), Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode >= 300 {
		return nil, &ServiceError{Provider: o.Name(), StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}

	var or openAIResponse
	if err := json.Unmarshal(raw, &or); err != nil {
		return nil, &ServiceError{Provider: o.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	out := &SegmentResult{
		Text:     strings.TrimSpace(or.Text),
		Duration: or.Duration,
		Language: or.Language,
		Words:    make([]Word, 0, len(or.Words)),
	}
	for _, w := range or.Words {
		out.Words = append(out.Words, Word{Text: w.Word, StartTime: w.Start, EndTime: w.End})
	}
	return out, nil
}

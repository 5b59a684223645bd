package stt

import "testing"

func TestParseDeepgramResponse(t *testing.T) {
	raw := []byte(`{
		"metadata": {"duration": 599.98},
		"results": {"channels": [{"alternatives": [{
			"transcript": "hello world",
			"words": [
				{"word": "hello", "punctuated_word": "Hello", "start": 0.2, "end": 0.5},
				{"word": "world", "start": 0.6, "end": 1.0}
			]
		}]}]}
	}`)

	result, err := parseDeepgramResponse(raw)
	if err != nil {
		t.Fatalf("parseDeepgramResponse failed: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("Expected text 'hello world', got %q", result.Text)
	}
	if result.Duration != 599.98 {
		t.Errorf("Expected duration 599.98, got %v", result.Duration)
	}
	if len(result.Words) != 2 {
		t.Fatalf("Expected 2 words, got %d", len(result.Words))
	}
	if result.Words[0].Text != "Hello" {
		t.Errorf("Expected punctuated word 'Hello', got %q", result.Words[0].Text)
	}
	if result.Words[1].Text != "world" {
		t.Errorf("Expected fallback to raw word 'world', got %q", result.Words[1].Text)
	}
}

func TestParseDeepgramResponse_NoSpeech(t *testing.T) {
	result, err := parseDeepgramResponse([]byte(`{"metadata":{"duration":600},"results":{"channels":[]}}`))
	if err != nil {
		t.Fatalf("parseDeepgramResponse failed: %v", err)
	}
	if result.Text != "" || len(result.Words) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
	if result.Words == nil {
		t.Error("Expected non-nil empty word list")
	}
}

func TestParseDeepgramResponse_Invalid(t *testing.T) {
	if _, err := parseDeepgramResponse([]byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

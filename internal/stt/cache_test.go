package stt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type memCache struct {
	data   map[string][]byte
	getErr error
	sets   int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.sets++
	m.data[key] = value
	return nil
}

func countingTranscriber(calls *int) Transcriber {
	return TranscriberFunc{Provider: "fake", Fn: func(ctx context.Context, req Request) (*SegmentResult, error) {
		*calls++
		return &SegmentResult{Text: "hi", Duration: 1, Words: []Word{{Text: "hi", StartTime: 0.1, EndTime: 0.3}}}, nil
	}}
}

func TestCachingTranscriber_HitAfterMiss(t *testing.T) {
	calls := 0
	cache := newMemCache()
	ct := &CachingTranscriber{Next: countingTranscriber(&calls), Cache: cache, TTL: time.Hour, Model: "m", Logger: zerolog.Nop()}

	req := Request{Audio: []byte("segment"), Language: "en"}
	first, err := ct.Transcribe(context.Background(), req)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	second, err := ct.Transcribe(context.Background(), req)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected provider to be called once, got %d", calls)
	}
	if second.Text != first.Text || len(second.Words) != 1 || second.Words[0] != first.Words[0] {
		t.Errorf("Expected cached result %+v, got %+v", first, second)
	}
	if ct.Name() != "fake" {
		t.Errorf("Expected name fake, got %s", ct.Name())
	}
}

func TestCachingTranscriber_CacheErrorFallsThrough(t *testing.T) {
	calls := 0
	cache := newMemCache()
	cache.getErr = errors.New("connection refused")
	ct := &CachingTranscriber{Next: countingTranscriber(&calls), Cache: cache, Logger: zerolog.Nop()}

	if _, err := ct.Transcribe(context.Background(), Request{Audio: []byte("x")}); err != nil {
		t.Fatalf("Expected cache failure to be tolerated, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected provider call, got %d", calls)
	}
}

func TestCachingTranscriber_ProviderErrorNotCached(t *testing.T) {
	cache := newMemCache()
	failing := TranscriberFunc{Provider: "fake", Fn: func(ctx context.Context, req Request) (*SegmentResult, error) {
		return nil, &ServiceError{Provider: "fake", StatusCode: 500}
	}}
	ct := &CachingTranscriber{Next: failing, Cache: cache, Logger: zerolog.Nop()}

	if _, err := ct.Transcribe(context.Background(), Request{Audio: []byte("x")}); err == nil {
		t.Fatal("Expected provider error")
	}
	if cache.sets != 0 {
		t.Errorf("Expected nothing cached, got %d sets", cache.sets)
	}
}

func TestCacheKey(t *testing.T) {
	base := CacheKey("deepgram", "nova-2", Request{Audio: []byte("a"), Language: "en"})
	if base != CacheKey("deepgram", "nova-2", Request{Audio: []byte("a"), Language: "en", Filename: "other.wav"}) {
		t.Error("Expected filename not to affect the key")
	}
	for _, other := range []string{
		CacheKey("openai", "nova-2", Request{Audio: []byte("a"), Language: "en"}),
		CacheKey("deepgram", "nova-3", Request{Audio: []byte("a"), Language: "en"}),
		CacheKey("deepgram", "nova-2", Request{Audio: []byte("b"), Language: "en"}),
		CacheKey("deepgram", "nova-2", Request{Audio: []byte("a"), Language: "fr"}),
	} {
		if other == base {
			t.Errorf("Expected distinct key, got %s twice", base)
		}
	}
}

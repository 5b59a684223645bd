package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lexiqai/narration-pipeline/internal/resilience"
)

func TestScheme(t *testing.T) {
	tests := map[string]string{
		"gs://bucket/key":     "gs",
		"HTTPS://example.com": "https",
		"mem://run/0":         "mem",
		"/tmp/segment.wav":    "file",
		"segment.wav":         "file",
	}
	for in, want := range tests {
		if got := Scheme(in); got != want {
			t.Errorf("Scheme(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestFileStore_PutFetch(t *testing.T) {
	store := &FileStore{Dir: t.TempDir()}
	ctx := context.Background()

	uri, err := store.Put(ctx, "run/segment-000.wav", []byte("payload"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !strings.HasPrefix(uri, "file://") {
		t.Errorf("Expected file:// reference, got %s", uri)
	}

	b, err := store.Fetch(ctx, uri)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(b) != "payload" {
		t.Errorf("Expected payload, got %q", b)
	}

	if _, err := store.Fetch(ctx, uri+".missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	uri, _ := store.Put(ctx, "run-1/0", []byte("a"))
	store.Put(ctx, "run-1/1", []byte("b"))
	store.Put(ctx, "run-2/0", []byte("c"))

	if uri != "mem://run-1/0" {
		t.Errorf("Expected mem://run-1/0, got %s", uri)
	}
	if b, err := store.Fetch(ctx, uri); err != nil || string(b) != "a" {
		t.Errorf("Expected 'a', got %q (%v)", b, err)
	}

	store.DeletePrefix("run-1/")
	if store.Len() != 1 {
		t.Errorf("Expected 1 remaining segment, got %d", store.Len())
	}
	if _, err := store.Fetch(ctx, uri); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("segment"))
		case "/busy":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src := NewHTTPSource()
	ctx := context.Background()

	if b, err := src.Fetch(ctx, server.URL+"/ok"); err != nil || string(b) != "segment" {
		t.Errorf("Expected 'segment', got %q (%v)", b, err)
	}
	if _, err := src.Fetch(ctx, server.URL+"/busy"); !resilience.IsRetryable(err) {
		t.Errorf("Expected retryable error for 503, got %v", err)
	}
	_, err := src.Fetch(ctx, server.URL+"/forbidden")
	if err == nil || resilience.IsRetryable(err) {
		t.Errorf("Expected non-retryable error for 403, got %v", err)
	}
	if _, err := src.Fetch(ctx, server.URL+"/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResolver(t *testing.T) {
	mem := NewMemStore()
	mem.Put(context.Background(), "k", []byte("from-mem"))

	r := NewResolver().
		Register("mem", mem).
		Register("file", SourceFunc(func(ctx context.Context, uri string) ([]byte, error) {
			return []byte("from-file:" + uri), nil
		}))

	if b, err := r.Fetch(context.Background(), "mem://k"); err != nil || string(b) != "from-mem" {
		t.Errorf("Expected from-mem, got %q (%v)", b, err)
	}
	if b, err := r.Fetch(context.Background(), "local.wav"); err != nil || string(b) != "from-file:local.wav" {
		t.Errorf("Expected bare path routed to file source, got %q (%v)", b, err)
	}
	if _, err := r.Fetch(context.Background(), "s3://bucket/key"); err == nil {
		t.Error("Expected error for unregistered scheme")
	}
}

func TestParseGCSDestination(t *testing.T) {
	bucket, prefix, err := ParseGCSDestination("gs://narration/runs/2024/")
	if err != nil {
		t.Fatalf("ParseGCSDestination failed: %v", err)
	}
	if bucket != "narration" || prefix != "runs/2024" {
		t.Errorf("Expected narration + runs/2024, got %s + %s", bucket, prefix)
	}

	if _, _, err := ParseGCSDestination("s3://narration"); err == nil {
		t.Error("Expected error for non-gs URI")
	}

	if _, _, err := splitBucketURI("gs://bucket-only"); err == nil {
		t.Error("Expected error for missing object key")
	}
	b, k, err := splitBucketURI("gs://b/runs/seg-0.wav")
	if err != nil || b != "b" || k != "runs/seg-0.wav" {
		t.Errorf("Unexpected split %s %s (%v)", b, k, err)
	}
}

// Package storage resolves segment references (file://, gs://, http(s)://,
// mem://) to bytes and stores encoded segments for later transcription.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned when a reference points at nothing.
var ErrNotFound = errors.New("segment reference not found")

// Source fetches the bytes behind a segment reference.
type Source interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Sink stores a segment and returns a reference a Source can fetch.
type Sink interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, uri string) ([]byte, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// Resolver dispatches by URI scheme. A reference without a scheme is
// treated as a local path.
type Resolver struct {
	sources map[string]Source
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{sources: map[string]Source{}}
}

// Register routes scheme (without "://") to src.
func (r *Resolver) Register(scheme string, src Source) *Resolver {
	r.sources[strings.ToLower(scheme)] = src
	return r
}

// Fetch implements Source.
func (r *Resolver) Fetch(ctx context.Context, uri string) ([]byte, error) {
	scheme := Scheme(uri)
	src, ok := r.sources[scheme]
	if !ok {
		return nil, fmt.Errorf("no source registered for scheme %q in %q", scheme, uri)
	}
	return src.Fetch(ctx, uri)
}

// Scheme returns the lower-cased URI scheme, "file" for bare paths.
func Scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return "file"
	}
	return strings.ToLower(uri[:i])
}

// splitBucketURI splits gs://bucket/key/path into bucket and key.
func splitBucketURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", uri, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%q must look like %s://bucket/key", uri, u.Scheme)
	}
	return bucket, key, nil
}

// NewDefaultResolver routes file, http and https references, plus mem:// and
// gs:// when those stores are given.
func NewDefaultResolver(mem *MemStore, gcs *GCSStore) *Resolver {
	r := NewResolver().
		Register("file", &FileStore{}).
		Register("http", NewHTTPSource()).
		Register("https", NewHTTPSource())
	if mem != nil {
		r.Register("mem", mem)
	}
	if gcs != nil {
		r.Register("gs", gcs)
	}
	return r
}

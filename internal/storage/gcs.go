package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore reads gs:// references and uploads segments under Bucket/Prefix.
type GCSStore struct {
	client *gcs.Client
	Bucket string
	Prefix string
}

// NewGCSStore creates a Cloud Storage client. bucket and prefix are only
// needed for Put.
func NewGCSStore(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStore, error) {
	opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// ParseGCSDestination splits gs://bucket/prefix into bucket and prefix.
func ParseGCSDestination(uri string) (bucket, prefix string, err error) {
	if Scheme(uri) != "gs" {
		return "", "", fmt.Errorf("%q is not a gs:// URI", uri)
	}
	rest := strings.TrimPrefix(uri[len("gs://"):], "/")
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%q has no bucket", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// Fetch implements Source.
func (g *GCSStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := splitBucketURI(uri)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return b, nil
}

// Put implements Sink.
func (g *GCSStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if g.Bucket == "" {
		return "", fmt.Errorf("no destination bucket configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	object := key
	if g.Prefix != "" {
		object = g.Prefix + "/" + key
	}
	w := g.client.Bucket(g.Bucket).Object(object).NewWriter(ctx)
	w.ContentType = "audio/wav"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return "gs://" + g.Bucket + "/" + object, nil
}

// Close releases the client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}

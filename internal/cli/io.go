package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexiqai/narration-pipeline/internal/config"
	"github.com/lexiqai/narration-pipeline/internal/storage"
)

// sources opens a resolver for local, http(s) and, when any of refs is a
// gs:// URI, Cloud Storage references. The returned close func is never nil.
func sources(ctx context.Context, cfg *config.Config, refs ...string) (*storage.Resolver, *storage.GCSStore, func(), error) {
	needGCS := false
	for _, ref := range refs {
		if storage.Scheme(ref) == "gs" {
			needGCS = true
		}
	}
	if !needGCS {
		return storage.NewDefaultResolver(nil, nil), nil, func() {}, nil
	}

	gcsStore, err := storage.NewGCSStore(ctx, "", "", cfg.GoogleClientOptions()...)
	if err != nil {
		return nil, nil, nil, err
	}
	return storage.NewDefaultResolver(nil, gcsStore), gcsStore, func() { gcsStore.Close() }, nil
}

// readInput fetches a source through the resolver.
func readInput(ctx context.Context, src storage.Source, ref string) ([]byte, error) {
	b, err := src.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return b, nil
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeOutput writes data to path, or to the command's output when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func writeJSONOutput(cmd *cobra.Command, path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd, path, append(b, '\n'))
}

func baseName(ref string) string {
	ref = strings.TrimSuffix(ref, "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

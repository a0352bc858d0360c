package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunRejectsMalformedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths\ndata_dir = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := run(context.Background(), path); err == nil {
		t.Fatal("expected malformed config to fail")
	}
}

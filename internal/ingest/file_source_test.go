package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

func writeJSONL(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.jsonl")
	var body string
	for _, l := range lines {
		body += l + "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}

func TestFileSource_DrainsInBatches(t *testing.T) {
	path := writeJSONL(t, `{"a":1}`, "", `{"b":2}`, `{"c":3}`)
	src, err := NewFileSource(domain.PlatformDiscord, path, 2)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	if src.Platform() != domain.PlatformDiscord {
		t.Fatalf("platform = %q", src.Platform())
	}

	ctx := context.Background()
	first, err := src.Poll(ctx)
	if err != nil {
		t.Fatalf("poll 1: %v", err)
	}
	if len(first) != 2 || string(first[0]) != `{"a":1}` || string(first[1]) != `{"b":2}` {
		t.Fatalf("batch 1 wrong: %q", first)
	}

	second, err := src.Poll(ctx)
	if err != nil {
		t.Fatalf("poll 2: %v", err)
	}
	if len(second) != 1 || string(second[0]) != `{"c":3}` {
		t.Fatalf("batch 2 wrong: %q", second)
	}

	if _, err := src.Poll(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF after drain, got %v", err)
	}
	// polling a closed source stays EOF
	if _, err := src.Poll(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF again, got %v", err)
	}
}

func TestFileSource_Validation(t *testing.T) {
	if _, err := NewFileSource(domain.Platform("slack"), "whatever", 1); err == nil {
		t.Fatalf("unknown platform must be rejected")
	}
	if _, err := NewFileSource(domain.PlatformDiscord, filepath.Join(t.TempDir(), "missing.jsonl"), 1); err == nil {
		t.Fatalf("missing file must be rejected")
	}
}

func TestFileSource_ContextCancelled(t *testing.T) {
	path := writeJSONL(t, `{"a":1}`)
	src, err := NewFileSource(domain.PlatformDiscord, path, 10)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Poll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

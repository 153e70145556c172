package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// FileSource replays a JSONL export: one raw platform payload per line,
// blank lines skipped. It is used to backfill historical messages on
// startup. Replay is safe to repeat because the pipeline dedups by id.
type FileSource struct {
	platform  domain.Platform
	path      string
	batchSize int

	f  *os.File
	sc *bufio.Scanner
}

// NewFileSource opens path for replay as platform payloads. batchSize bounds
// how many lines one Poll returns; values below 1 default to 100.
func NewFileSource(platform domain.Platform, path string, batchSize int) (*FileSource, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if batchSize < 1 {
		batchSize = 100
	}
	return &FileSource{platform: platform, path: path, batchSize: batchSize, f: f, sc: sc}, nil
}

// Platform implements Source.
func (s *FileSource) Platform() domain.Platform { return s.platform }

// Poll implements Source. It returns io.EOF once the file is drained.
func (s *FileSource) Poll(ctx context.Context) ([]json.RawMessage, error) {
	if s.sc == nil {
		return nil, io.EOF
	}
	out := make([]json.RawMessage, 0, s.batchSize)
	for len(out) < s.batchSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if !s.sc.Scan() {
			err := s.sc.Err()
			s.Close()
			if err != nil {
				return out, err
			}
			if len(out) > 0 {
				return out, nil
			}
			return nil, io.EOF
		}
		line := bytes.TrimSpace(s.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		out = append(out, json.RawMessage(append([]byte(nil), line...)))
	}
	return out, nil
}

// Close releases the underlying file. Subsequent Polls return io.EOF.
func (s *FileSource) Close() error {
	s.sc = nil
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

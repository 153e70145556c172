// Package ingest runs the background side of the pipeline: pluggable payload
// sources, the polling worker that drives them through the ingestion service,
// and the Prometheus metrics both expose.
package ingest

import (
	"context"
	"encoding/json"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// Source delivers raw platform payloads to the worker. Implementations wrap
// a platform listener, a webhook buffer, or an export file. Poll returns the
// next batch of payloads, an empty batch when nothing is pending, and io.EOF
// when the source is exhausted and will never produce again.
type Source interface {
	Platform() domain.Platform
	Poll(ctx context.Context) ([]json.RawMessage, error)
}

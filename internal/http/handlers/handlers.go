// Handler wiring.
//
// This file defines the abstract service contracts the HTTP layer depends on
// and the Handlers aggregate that binds them to routes. Handlers are
// transport-thin: they validate input, call application services, and
// translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
	"github.com/tbourn/go-sentiment-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// IngestAPI defines the ingestion operation consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IngestAPI interface {
	// Ingest normalizes, dedups, scores, and persists one raw platform payload.
	Ingest(ctx context.Context, platform domain.Platform, raw []byte) (*services.IngestResult, error)
}

// QueryAPI defines the dashboard read operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type QueryAPI interface {
	// RecentMessages returns the newest messages across platforms, newest first.
	RecentMessages(ctx context.Context, limit int) ([]services.CombinedMessage, error)
	// SentimentTrend returns a fixed-length daily series ending today.
	SentimentTrend(ctx context.Context, days int) ([]services.SentimentDataPoint, error)
	// MessagesForDay returns the messages behind one trend data point.
	MessagesForDay(ctx context.Context, date string) ([]services.CombinedMessage, error)
	// FeedStats summarizes the feed for cache validation.
	FeedStats(ctx context.Context) (repo.FeedStats, error)
}

// Handlers groups HTTP endpoints for ingestion, queries, and diagnostics.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	ingestSvc IngestAPI
	querySvc  QueryAPI
	permSvc   services.PermissionChecker
}

// New constructs and returns a Handlers instance bound to the given services.
func New(ingestSvc IngestAPI, querySvc QueryAPI, permSvc services.PermissionChecker) *Handlers {
	return &Handlers{ingestSvc: ingestSvc, querySvc: querySvc, permSvc: permSvc}
}

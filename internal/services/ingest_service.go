// Package services – IngestService
//
// This file implements IngestService, the application-level component that
// owns the ingestion pipeline: normalize a raw platform payload, dedup by
// canonical message id, score the text, classify it, and persist the message
// together with its daily aggregate update in one transaction.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the platform and the canonical message id.

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/normalize"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
	"github.com/tbourn/go-sentiment-backend/internal/sentiment"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IngestStatus reports how the pipeline disposed of a payload.
type IngestStatus string

const (
	// StatusCreated means the message was persisted and aggregated.
	StatusCreated IngestStatus = "created"

	// StatusDuplicate means the id was already ingested; nothing changed.
	StatusDuplicate IngestStatus = "duplicate"
)

// IngestResult is the outcome of one Ingest call.
type IngestResult struct {
	Status  IngestStatus
	Message *domain.Message
}

// IngestService coordinates normalization, scoring, and atomic persistence.
type IngestService struct {
	DB     *gorm.DB
	Scorer sentiment.Scorer
	Loc    *time.Location

	// ScorerTimeout bounds a single scoring call; zero means no extra bound
	// beyond the caller's ctx.
	ScorerTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*idLock
}

// idLock is a refcounted per-message-id mutex. The refcount lets Ingest drop
// entries as soon as no delivery of that id is in flight, keeping the map
// bounded by concurrency rather than by history.
type idLock struct {
	mu   sync.Mutex
	refs int
}

// Ingest runs the full pipeline for one raw payload. It is idempotent per
// canonical message id: redelivery of an already stored id returns
// StatusDuplicate without touching the store. Malformed payloads return
// normalize.ErrMalformedPayload; scorer failures, timeouts, and out-of-range
// scores return ErrScoringUnavailable, and in every error case nothing is
// persisted.
func (s *IngestService) Ingest(ctx context.Context, platform domain.Platform, raw []byte) (*IngestResult, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "Ingest",
		trace.WithAttributes(attribute.String("platform", string(platform))),
	)
	defer span.End()

	if !platform.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}

	msg, err := normalize.Message(platform, raw)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("message.id", msg.ID))

	// Serialize concurrent deliveries of the same id so only one of them
	// scores and writes. Distinct ids proceed in parallel.
	unlock := s.lockID(msg.ID)
	defer unlock()

	if _, err := repo.GetMessage(ctx, s.DB, msg.ID); err == nil {
		return &IngestResult{Status: StatusDuplicate, Message: msg}, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	score, err := s.score(ctx, msg.Content)
	if err != nil {
		return nil, err
	}
	msg.SentimentScore = score
	msg.Sentiment = domain.Classify(score)

	day := domain.DayKey(msg.CreatedAt, s.location())
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateMessage(tx, msg); err != nil {
			return err
		}
		return repo.UpsertDailyAggregate(tx, day, score, msg.Sentiment)
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// Lost a race with another delivery path of the same id.
		return &IngestResult{Status: StatusDuplicate, Message: msg}, nil
	}
	if err != nil {
		return nil, err
	}
	return &IngestResult{Status: StatusCreated, Message: msg}, nil
}

// score runs the configured scorer under the per-call deadline and validates
// the result against the [0,4] contract. Invalid results are rejected, never
// clamped, so a misbehaving scorer cannot skew aggregates.
func (s *IngestService) score(ctx context.Context, text string) (float64, error) {
	if s.Scorer == nil {
		return 0, fmt.Errorf("%w: no scorer configured", ErrScoringUnavailable)
	}
	if s.ScorerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ScorerTimeout)
		defer cancel()
	}
	score, err := s.Scorer.Score(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}
	if !domain.ValidScore(score) {
		return 0, fmt.Errorf("%w: score %v out of range", ErrScoringUnavailable, score)
	}
	return score, nil
}

// lockID acquires the per-id mutex and returns its release func.
func (s *IngestService) lockID(id string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*idLock)
	}
	l, ok := s.locks[id]
	if !ok {
		l = &idLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *IngestService) location() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

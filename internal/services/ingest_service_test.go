package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/normalize"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

// test DB helper
func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Message{}, &domain.DailyAggregate{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fixedScorer returns a constant score or error; scores holds per-text
// overrides keyed by content.
type fixedScorer struct {
	score  float64
	err    error
	scores map[string]float64
}

func (f *fixedScorer) Score(_ context.Context, text string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if v, ok := f.scores[text]; ok {
		return v, nil
	}
	return f.score, nil
}

func discordPayload(id, content, ts string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"channel_id": "900",
		"channel_name": "general",
		"author": {"id": "42", "username": "maria"},
		"content": %q,
		"timestamp": %q
	}`, id, content, ts))
}

func TestIngest_CreatesMessageAndAggregate(t *testing.T) {
	db := newSvcDB(t)
	svc := &IngestService{DB: db, Scorer: &fixedScorer{score: 3.8}, Loc: time.UTC}

	res, err := svc.Ingest(context.Background(), domain.PlatformDiscord,
		discordPayload("1", "this is great", "2026-08-30T10:00:00Z"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Status != StatusCreated {
		t.Fatalf("status = %q, want created", res.Status)
	}
	if res.Message.Sentiment != domain.SentimentVeryPositive || res.Message.SentimentScore != 3.8 {
		t.Fatalf("classification wrong: %+v", res.Message)
	}

	got, err := repo.GetMessage(context.Background(), db, "discord:1")
	if err != nil {
		t.Fatalf("stored message: %v", err)
	}
	if got.Sentiment != domain.SentimentVeryPositive {
		t.Fatalf("persisted sentiment = %q", got.Sentiment)
	}

	agg, err := repo.GetDailyAggregate(context.Background(), db, "2026-08-30")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.MessageCount != 1 || agg.VeryPositiveCount != 1 || agg.AverageSentiment != 3.8 {
		t.Fatalf("aggregate wrong: %+v", agg)
	}
}

func TestIngest_RedeliveryIsIdempotent(t *testing.T) {
	db := newSvcDB(t)
	svc := &IngestService{DB: db, Scorer: &fixedScorer{score: 3.8}, Loc: time.UTC}
	ctx := context.Background()
	payload := discordPayload("1", "this is great", "2026-08-30T10:00:00Z")

	if _, err := svc.Ingest(ctx, domain.PlatformDiscord, payload); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	res, err := svc.Ingest(ctx, domain.PlatformDiscord, payload)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if res.Status != StatusDuplicate {
		t.Fatalf("status = %q, want duplicate", res.Status)
	}

	agg, err := repo.GetDailyAggregate(ctx, db, "2026-08-30")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.MessageCount != 1 {
		t.Fatalf("redelivery double-counted: %+v", agg)
	}
}

func TestIngest_RunningMeanAcrossMessages(t *testing.T) {
	db := newSvcDB(t)
	svc := &IngestService{
		DB: db,
		Scorer: &fixedScorer{scores: map[string]float64{
			"love it":  3.8,
			"not good": 1.2,
		}},
		Loc: time.UTC,
	}
	ctx := context.Background()

	for i, content := range []string{"love it", "not good"} {
		payload := discordPayload(fmt.Sprintf("%d", i+1), content, "2026-08-30T10:00:00Z")
		if _, err := svc.Ingest(ctx, domain.PlatformDiscord, payload); err != nil {
			t.Fatalf("ingest %q: %v", content, err)
		}
	}

	agg, err := repo.GetDailyAggregate(ctx, db, "2026-08-30")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.MessageCount != 2 {
		t.Fatalf("count = %d", agg.MessageCount)
	}
	if math.Abs(agg.AverageSentiment-2.5) > 1e-9 {
		t.Fatalf("avg = %v, want 2.5", agg.AverageSentiment)
	}
	if agg.VeryPositiveCount != 1 || agg.NegativeCount != 1 {
		t.Fatalf("counters wrong: %+v", agg)
	}
}

func TestIngest_ScorerFailureWritesNothing(t *testing.T) {
	db := newSvcDB(t)
	svc := &IngestService{DB: db, Scorer: &fixedScorer{err: errors.New("model down")}, Loc: time.UTC}
	ctx := context.Background()

	_, err := svc.Ingest(ctx, domain.PlatformDiscord,
		discordPayload("1", "whatever", "2026-08-30T10:00:00Z"))
	if !errors.Is(err, ErrScoringUnavailable) {
		t.Fatalf("want ErrScoringUnavailable, got %v", err)
	}

	if _, err := repo.GetMessage(ctx, db, "discord:1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("message must not be stored on scoring failure")
	}
	if _, err := repo.GetDailyAggregate(ctx, db, "2026-08-30"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("aggregate must not be touched on scoring failure")
	}
}

func TestIngest_OutOfRangeScoreRejected(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()

	for _, bad := range []float64{-0.5, 4.5, math.NaN()} {
		svc := &IngestService{DB: db, Scorer: &fixedScorer{score: bad}, Loc: time.UTC}
		_, err := svc.Ingest(ctx, domain.PlatformDiscord,
			discordPayload("1", "whatever", "2026-08-30T10:00:00Z"))
		if !errors.Is(err, ErrScoringUnavailable) {
			t.Fatalf("score %v: want ErrScoringUnavailable, got %v", bad, err)
		}
	}
}

func TestIngest_MalformedPayload(t *testing.T) {
	db := newSvcDB(t)
	svc := &IngestService{DB: db, Scorer: &fixedScorer{score: 2.0}, Loc: time.UTC}

	_, err := svc.Ingest(context.Background(), domain.PlatformDiscord, []byte(`{"id": ""}`))
	if !errors.Is(err, normalize.ErrMalformedPayload) {
		t.Fatalf("want ErrMalformedPayload, got %v", err)
	}
}

func TestIngest_UnknownPlatform(t *testing.T) {
	db := newSvcDB(t)
	svc := &IngestService{DB: db, Scorer: &fixedScorer{score: 2.0}, Loc: time.UTC}

	_, err := svc.Ingest(context.Background(), domain.Platform("slack"), []byte(`{}`))
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("want ErrUnknownPlatform, got %v", err)
	}
}

func TestIngest_ConcurrentDistinctIDs(t *testing.T) {
	db := newSvcDB(t)
	svc := &IngestService{DB: db, Scorer: &fixedScorer{score: 2.0}, Loc: time.UTC}
	ctx := context.Background()
	const n = 10

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := discordPayload(fmt.Sprintf("c%d", i), "hello", "2026-08-30T10:00:00Z")
			_, err := svc.Ingest(ctx, domain.PlatformDiscord, payload)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent ingest: %v", err)
		}
	}

	agg, err := repo.GetDailyAggregate(ctx, db, "2026-08-30")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.MessageCount != n {
		t.Fatalf("count = %d, want %d", agg.MessageCount, n)
	}
}

func TestIngest_ConcurrentSameID(t *testing.T) {
	db := newSvcDB(t)
	svc := &IngestService{DB: db, Scorer: &fixedScorer{score: 2.0}, Loc: time.UTC}
	ctx := context.Background()
	payload := discordPayload("same", "hello", "2026-08-30T10:00:00Z")
	const n = 8

	var wg sync.WaitGroup
	created := make(chan IngestStatus, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Ingest(ctx, domain.PlatformDiscord, payload)
			if err != nil {
				t.Errorf("concurrent same-id ingest: %v", err)
				return
			}
			created <- res.Status
		}()
	}
	wg.Wait()
	close(created)

	var nCreated int
	for st := range created {
		if st == StatusCreated {
			nCreated++
		}
	}
	if nCreated != 1 {
		t.Fatalf("exactly one delivery must win, got %d created", nCreated)
	}

	agg, err := repo.GetDailyAggregate(ctx, db, "2026-08-30")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.MessageCount != 1 {
		t.Fatalf("same id double-counted: %+v", agg)
	}
}

func TestIngest_DayBucketUsesReferenceTimezone(t *testing.T) {
	athens, err := time.LoadLocation("Europe/Athens")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	db := newSvcDB(t)
	svc := &IngestService{DB: db, Scorer: &fixedScorer{score: 2.0}, Loc: athens}
	ctx := context.Background()

	// 23:30 UTC on Jan 1 is Jan 2 in Athens
	_, err = svc.Ingest(ctx, domain.PlatformDiscord,
		discordPayload("1", "hello", "2026-01-01T23:30:00Z"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if _, err := repo.GetDailyAggregate(ctx, db, "2026-01-02"); err != nil {
		t.Fatalf("message not bucketed to Athens day: %v", err)
	}
	if _, err := repo.GetDailyAggregate(ctx, db, "2026-01-01"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("message also bucketed to UTC day")
	}
}

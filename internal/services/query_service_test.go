package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/repo"

	"gorm.io/gorm"
)

func seedStoredMessage(t *testing.T, db *gorm.DB, m domain.Message) {
	t.Helper()
	if m.Sentiment == "" {
		m.Sentiment = domain.Classify(m.SentimentScore)
	}
	if err := repo.CreateMessage(db, &m); err != nil {
		t.Fatalf("seed %s: %v", m.ID, err)
	}
}

func TestRecentMessages_CombinedFeed(t *testing.T) {
	db := newSvcDB(t)
	svc := &QueryService{DB: db, Loc: time.UTC}
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		platform := domain.PlatformDiscord
		if i%2 == 1 {
			platform = domain.PlatformTelegram
		}
		seedStoredMessage(t, db, domain.Message{
			ID:             fmt.Sprintf("%s:%d", platform, i),
			Platform:       platform,
			ChannelID:      "ch",
			UserID:         "u",
			Username:       "maria",
			Content:        fmt.Sprintf("msg %d", i),
			SentimentScore: 2.0,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
	}

	got, err := svc.RecentMessages(ctx, 3)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 of 5, got %d", len(got))
	}
	// newest first, both platforms interleaved
	if got[0].Content != "msg 4" || got[1].Content != "msg 3" || got[2].Content != "msg 2" {
		t.Fatalf("unexpected feed order: %+v", got)
	}
	if got[1].Platform != string(domain.PlatformTelegram) {
		t.Fatalf("feed must combine platforms: %+v", got[1])
	}
	if got[0].SentimentLabel != "Neutral" {
		t.Fatalf("label = %q", got[0].SentimentLabel)
	}
}

func TestRecentMessages_DefaultAndCap(t *testing.T) {
	db := newSvcDB(t)
	svc := &QueryService{DB: db, Loc: time.UTC}
	ctx := context.Background()

	if _, err := svc.RecentMessages(ctx, 0); err != nil {
		t.Fatalf("default limit: %v", err)
	}
	if _, err := svc.RecentMessages(ctx, MaxRecentLimit+1000); err != nil {
		t.Fatalf("capped limit: %v", err)
	}
}

func TestRecentMessages_EmptyStore(t *testing.T) {
	db := newSvcDB(t)
	svc := &QueryService{DB: db, Loc: time.UTC}

	got, err := svc.RecentMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("empty store must yield empty non-nil slice, got %#v", got)
	}
}

func TestSentimentTrend_FixedWindow(t *testing.T) {
	db := newSvcDB(t)
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	svc := &QueryService{DB: db, Loc: time.UTC, Now: func() time.Time { return now }}
	ctx := context.Background()

	if err := repo.UpsertDailyAggregate(db, "2026-08-29", 3.0, domain.SentimentPositive); err != nil {
		t.Fatalf("seed: %v", err)
	}

	points, err := svc.SentimentTrend(ctx, 7)
	if err != nil {
		t.Fatalf("SentimentTrend: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("want 7 points, got %d", len(points))
	}
	if points[0].Date != "2026-08-24" || points[6].Date != "2026-08-30" {
		t.Fatalf("window edges wrong: %s .. %s", points[0].Date, points[6].Date)
	}

	for _, p := range points {
		if p.Date == "2026-08-29" {
			if p.MessageCount != 1 || p.AverageSentiment != 3.0 || p.SentimentCounts["positive"] != 1 {
				t.Fatalf("seeded point wrong: %+v", p)
			}
			continue
		}
		if p.MessageCount != 0 || p.AverageSentiment != domain.ScoreNeutral {
			t.Fatalf("empty day not neutral-defaulted: %+v", p)
		}
		if len(p.SentimentCounts) != 5 {
			t.Fatalf("sparse counts map: %+v", p)
		}
	}
}

func TestSentimentTrend_Validation(t *testing.T) {
	db := newSvcDB(t)
	svc := &QueryService{DB: db, Loc: time.UTC}
	ctx := context.Background()

	if _, err := svc.SentimentTrend(ctx, -1); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("want ErrInvalidRange, got %v", err)
	}

	points, err := svc.SentimentTrend(ctx, 0)
	if err != nil {
		t.Fatalf("default window: %v", err)
	}
	if len(points) != DefaultTrendDays {
		t.Fatalf("default window = %d points", len(points))
	}

	points, err = svc.SentimentTrend(ctx, MaxTrendDays+10)
	if err != nil {
		t.Fatalf("capped window: %v", err)
	}
	if len(points) != MaxTrendDays {
		t.Fatalf("cap not applied: %d points", len(points))
	}
}

func TestMessagesForDay(t *testing.T) {
	db := newSvcDB(t)
	svc := &QueryService{DB: db, Loc: time.UTC}
	ctx := context.Background()

	seedStoredMessage(t, db, domain.Message{
		ID: "discord:in", Platform: domain.PlatformDiscord, UserID: "u", Username: "maria",
		Content: "inside", SentimentScore: 2.0,
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	})
	seedStoredMessage(t, db, domain.Message{
		ID: "discord:out", Platform: domain.PlatformDiscord, UserID: "u", Username: "maria",
		Content: "outside", SentimentScore: 2.0,
		CreatedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	})

	got, err := svc.MessagesForDay(ctx, "2026-08-30")
	if err != nil {
		t.Fatalf("MessagesForDay: %v", err)
	}
	if len(got) != 1 || got[0].Content != "inside" {
		t.Fatalf("unexpected drill-down: %+v", got)
	}

	if _, err := svc.MessagesForDay(ctx, "2026-13-40"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("want ErrInvalidDate, got %v", err)
	}
	if _, err := svc.MessagesForDay(ctx, "yesterday"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("want ErrInvalidDate, got %v", err)
	}
}

func TestCombine_DisplayFallbacks(t *testing.T) {
	m := domain.Message{
		ID:        "telegram:1:2",
		Platform:  domain.PlatformTelegram,
		ChannelID: "-100",
		UserID:    "5",
		FirstName: "Eleni",
		LastName:  "K",
		Sentiment: domain.SentimentNeutral,
	}

	c := combine(&m)
	if c.Channel != "-100" {
		t.Errorf("channel fallback = %q, want raw id", c.Channel)
	}
	if c.Author != "Eleni K" {
		t.Errorf("author = %q, want full name", c.Author)
	}

	// the real name wins even when a username is present
	m.ChannelName = "release chat"
	m.Username = "eleni"
	c = combine(&m)
	if c.Channel != "release chat" || c.Author != "Eleni K" {
		t.Errorf("preferred labels not used: %+v", c)
	}

	m.FirstName = ""
	m.LastName = ""
	c = combine(&m)
	if c.Author != "eleni" {
		t.Errorf("username fallback = %q", c.Author)
	}

	m.Username = ""
	c = combine(&m)
	if c.Author != "5" {
		t.Errorf("last-resort author = %q, want user id", c.Author)
	}
}

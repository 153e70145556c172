// Package services – QueryService
//
// This file implements QueryService, the read side of the system. It shapes
// stored messages and daily aggregates into the cross-platform views the
// dashboard consumes: a combined recent feed, a fixed-length sentiment trend,
// and per-day drill-downs.

package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultRecentLimit is the feed size when the caller does not ask for one.
	DefaultRecentLimit = 50

	// MaxRecentLimit caps the feed size regardless of what the caller asks for.
	MaxRecentLimit = 200

	// DefaultTrendDays is the trend window when the caller does not ask for one.
	DefaultTrendDays = 7

	// MaxTrendDays caps the trend window.
	MaxTrendDays = 90
)

// CombinedMessage is the platform-neutral feed representation of a stored
// message. Author and Channel are display labels resolved from whichever
// identity fields the source platform provided.
type CombinedMessage struct {
	ID             string    `json:"id"`
	Platform       string    `json:"platform"`
	Channel        string    `json:"channel"`
	Author         string    `json:"author"`
	Content        string    `json:"content"`
	Sentiment      string    `json:"sentiment"`
	SentimentLabel string    `json:"sentimentLabel"`
	SentimentScore float64   `json:"sentimentScore"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SentimentDataPoint is one day of the trend series.
type SentimentDataPoint struct {
	Date             string           `json:"date"`
	AverageSentiment float64          `json:"averageSentiment"`
	MessageCount     int64            `json:"messageCount"`
	SentimentCounts  map[string]int64 `json:"sentimentCounts"`
}

// QueryService serves the dashboard read models.
type QueryService struct {
	DB  *gorm.DB
	Loc *time.Location

	// Now is a clock seam for deterministic trend windows in tests;
	// nil means time.Now.
	Now func() time.Time
}

// RecentMessages returns the newest messages across all platforms, newest
// first. A non-positive limit falls back to DefaultRecentLimit and any limit
// is capped at MaxRecentLimit.
func (s *QueryService) RecentMessages(ctx context.Context, limit int) ([]CombinedMessage, error) {
	tr := otel.Tracer("services/QueryService")
	ctx, span := tr.Start(ctx, "RecentMessages",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	rows, err := repo.RecentMessages(ctx, s.DB, limit)
	if err != nil {
		return nil, err
	}
	return combineAll(rows), nil
}

// SentimentTrend returns exactly days data points ascending by date, ending
// at today in the reference timezone. Days without messages carry a zero
// count and the neutral average so charts stay gap-free.
func (s *QueryService) SentimentTrend(ctx context.Context, days int) ([]SentimentDataPoint, error) {
	tr := otel.Tracer("services/QueryService")
	ctx, span := tr.Start(ctx, "SentimentTrend",
		trace.WithAttributes(attribute.Int("days", days)),
	)
	defer span.End()

	if days == 0 {
		days = DefaultTrendDays
	}
	if days < 0 {
		return nil, ErrInvalidRange
	}
	if days > MaxTrendDays {
		days = MaxTrendDays
	}

	aggs, err := repo.TrendRange(ctx, s.DB, days, s.now(), s.location())
	if err != nil {
		return nil, err
	}

	out := make([]SentimentDataPoint, 0, len(aggs))
	for _, a := range aggs {
		counts := make(map[string]int64, len(domain.SentimentClasses()))
		for c, n := range a.SentimentCounts() {
			counts[string(c)] = n
		}
		out = append(out, SentimentDataPoint{
			Date:             a.Date,
			AverageSentiment: a.AverageSentiment,
			MessageCount:     a.MessageCount,
			SentimentCounts:  counts,
		})
	}
	return out, nil
}

// MessagesForDay returns all messages bucketed to the given YYYY-MM-DD day
// in the reference timezone, oldest first, so a trend point can be drilled
// into. The result matches exactly the set counted by that day's aggregate.
func (s *QueryService) MessagesForDay(ctx context.Context, date string) ([]CombinedMessage, error) {
	tr := otel.Tracer("services/QueryService")
	ctx, span := tr.Start(ctx, "MessagesForDay",
		trace.WithAttributes(attribute.String("date", date)),
	)
	defer span.End()

	day, err := time.ParseInLocation("2006-01-02", date, s.location())
	if err != nil {
		return nil, ErrInvalidDate
	}

	rows, err := repo.ListMessagesForDay(ctx, s.DB, day, s.location())
	if err != nil {
		return nil, err
	}
	return combineAll(rows), nil
}

// FeedStats exposes the cache-validation summary for the recent feed.
func (s *QueryService) FeedStats(ctx context.Context) (repo.FeedStats, error) {
	return repo.GetFeedStats(ctx, s.DB)
}

func (s *QueryService) location() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

func (s *QueryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func combineAll(rows []domain.Message) []CombinedMessage {
	out := make([]CombinedMessage, 0, len(rows))
	for i := range rows {
		out = append(out, combine(&rows[i]))
	}
	return out
}

// combine resolves display labels: channels prefer the human name over the
// raw id, authors prefer the real name, then username, then the raw user id.
func combine(m *domain.Message) CombinedMessage {
	channel := m.ChannelName
	if channel == "" {
		channel = m.ChannelID
	}

	author := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if author == "" {
		author = m.Username
	}
	if author == "" {
		author = m.UserID
	}

	return CombinedMessage{
		ID:             m.ID,
		Platform:       string(m.Platform),
		Channel:        channel,
		Author:         author,
		Content:        m.Content,
		Sentiment:      string(m.Sentiment),
		SentimentLabel: m.Sentiment.Label(),
		SentimentScore: m.SentimentScore,
		CreatedAt:      m.CreatedAt,
	}
}

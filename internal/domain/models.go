// Package domain defines the persistence models for ingested platform
// messages and their per-day sentiment aggregates. These types are mapped
// with GORM and form the core data layer of the sentiment backend.
package domain

import (
	"time"
)

// Platform identifies the chat platform a message originated from. The set is
// closed: every raw payload entering the system is tagged with one of these
// values, and the Normalizer is the only place platform-specific shapes are
// interpreted.
type Platform string

// Supported platforms.
const (
	PlatformDiscord  Platform = "discord"
	PlatformTelegram Platform = "telegram"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformDiscord, PlatformTelegram:
		return true
	}
	return false
}

// Platforms returns all supported platforms in a stable order.
func Platforms() []Platform {
	return []Platform{PlatformDiscord, PlatformTelegram}
}

// Message is the canonical, platform-agnostic record of a single chat
// message. Messages are append-only and immutable once ingested: there is no
// edit or delete path, and the primary key doubles as the dedup boundary for
// idempotent re-ingestion.
//
// Fields:
//   - ID: globally unique per (platform, native message id), e.g.
//     "discord:1234" or "telegram:-100987:56". Dedup key.
//   - Platform: originating platform (enforced by DB constraint).
//   - ChannelID / ChannelName: source conversation identity; optional,
//     left empty rather than defaulted when the platform omits them.
//   - UserID / Username: author identity. Username is mandatory and is the
//     display fallback; FirstName/LastName are optional platform extras.
//   - Content: raw message text, immutable.
//   - Sentiment: classification bucket, always derivable from SentimentScore
//     via Classify. Stored as a denormalized cache; the score is the source
//     of truth.
//   - SentimentScore: continuous value in [0,4] backing the classification.
//   - CreatedAt: the platform's original send time (not ingestion time);
//     used for day-bucketing. Indexed for the recent feed and day queries.
//   - IngestedAt: when this row was committed, managed by GORM.
type Message struct {
	ID             string         `json:"id"              gorm:"type:TEXT;primaryKey"`
	Platform       Platform       `json:"platform"        gorm:"type:varchar(16);not null;index;check:platform IN ('discord','telegram')"`
	ChannelID      string         `json:"channel_id"      gorm:"type:varchar(64)"`
	ChannelName    string         `json:"channel_name,omitempty" gorm:"type:varchar(255)"`
	UserID         string         `json:"user_id"         gorm:"type:varchar(64);not null"`
	Username       string         `json:"username"        gorm:"type:varchar(255);not null"`
	FirstName      string         `json:"first_name,omitempty" gorm:"type:varchar(255)"`
	LastName       string         `json:"last_name,omitempty"  gorm:"type:varchar(255)"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	Sentiment      SentimentClass `json:"sentiment"       gorm:"type:varchar(16);not null"`
	SentimentScore float64        `json:"sentiment_score" gorm:"not null"`
	CreatedAt      time.Time      `json:"created_at"      gorm:"not null;index:idx_messages_created"`
	IngestedAt     time.Time      `json:"-"               gorm:"autoCreateTime"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// DailyAggregate is the per-calendar-day rollup of message counts and
// sentiment, keyed by the day (in the configured reference timezone) of each
// message's CreatedAt. Rows are created lazily on the first message of a day
// and updated incrementally; they are a derived cache fully replayable from
// the messages table and are never deleted by this system.
//
// Invariant: the five class counters always sum to MessageCount, and
// AverageSentiment is the running mean of SentimentScore over the bucket.
type DailyAggregate struct {
	Date              string  `json:"date"               gorm:"type:char(10);primaryKey"`
	MessageCount      int64   `json:"message_count"      gorm:"not null;default:0"`
	VeryNegativeCount int64   `json:"very_negative"      gorm:"not null;default:0"`
	NegativeCount     int64   `json:"negative"           gorm:"not null;default:0"`
	NeutralCount      int64   `json:"neutral"            gorm:"not null;default:0"`
	PositiveCount     int64   `json:"positive"           gorm:"not null;default:0"`
	VeryPositiveCount int64   `json:"very_positive"      gorm:"not null;default:0"`
	AverageSentiment  float64 `json:"average_sentiment"  gorm:"not null;default:0"`
}

// TableName returns the database table name for DailyAggregate.
func (DailyAggregate) TableName() string { return "daily_aggregates" }

// CountFor returns the counter for the given sentiment class.
func (a DailyAggregate) CountFor(c SentimentClass) int64 {
	switch c {
	case SentimentVeryNegative:
		return a.VeryNegativeCount
	case SentimentNegative:
		return a.NegativeCount
	case SentimentNeutral:
		return a.NeutralCount
	case SentimentPositive:
		return a.PositiveCount
	case SentimentVeryPositive:
		return a.VeryPositiveCount
	}
	return 0
}

// SentimentCounts returns the per-class breakdown keyed by machine token.
// The map always contains all five classes so JSON consumers never see a
// sparse breakdown.
func (a DailyAggregate) SentimentCounts() map[SentimentClass]int64 {
	return map[SentimentClass]int64{
		SentimentVeryNegative: a.VeryNegativeCount,
		SentimentNegative:     a.NegativeCount,
		SentimentNeutral:      a.NeutralCount,
		SentimentPositive:     a.PositiveCount,
		SentimentVeryPositive: a.VeryPositiveCount,
	}
}

// DayKey formats t as the aggregate bucket key ("YYYY-MM-DD") in loc.
// Every component that buckets by day must go through this function so the
// reference timezone is applied consistently.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

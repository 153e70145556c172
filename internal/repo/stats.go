package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// FeedStats summarizes the message table for cache validation. The recent
// feed handler derives its ETag from these values: any ingested message
// changes Count and (usually) LastCreatedAt, invalidating cached responses.
type FeedStats struct {
	Count         int64
	LastCreatedAt time.Time
}

// GetFeedStats returns the message count and the newest platform send time.
// An empty table yields a zero LastCreatedAt.
func GetFeedStats(ctx context.Context, db *gorm.DB) (FeedStats, error) {
	var s FeedStats
	row := db.WithContext(ctx).
		Raw("SELECT COUNT(*), COALESCE(MAX(created_at), '') FROM messages").
		Row()

	var last string
	if err := row.Scan(&s.Count, &last); err != nil {
		return FeedStats{}, err
	}
	if last != "" {
		if t, err := parseStoredTime(last); err == nil {
			s.LastCreatedAt = t
		}
	}
	return s, nil
}

// parseStoredTime handles the timestamp layouts SQLite may hand back for a
// column GORM wrote as time.Time.
func parseStoredTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	var lastErr error
	for _, l := range layouts {
		t, err := time.Parse(l, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model: append-only inserts with a duplicate-id backstop, the dedup
// existence check, the recent-message feed, and calendar-day drill-downs.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate indicates an insert collided with an existing message id.
// The ingestion pipeline is expected to have already checked for duplicates,
// but the store enforces the invariant itself as a backstop so a race between
// two deliveries of the same id can never double-count.
var ErrDuplicate = errors.New("duplicate message id")

// CreateMessage inserts a message row. Messages are append-only: an insert
// for an existing id fails with ErrDuplicate and writes nothing.
func CreateMessage(db *gorm.DB, m *domain.Message) error {
	if err := db.Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetMessage fetches a message by its canonical id, returning ErrNotFound
// when absent. This is the dedup existence check used by the pipeline.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RecentMessages returns up to limit messages ordered newest-first by the
// platform send time, ties broken by id ascending for determinism.
func RecentMessages(ctx context.Context, db *gorm.DB, limit int) ([]domain.Message, error) {
	out := []domain.Message{}
	q := db.WithContext(ctx).Order("created_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListMessagesForDay returns all messages whose CreatedAt falls on the given
// calendar day in loc, oldest first (CreatedAt ASC, id ASC). The day boundary
// uses the same reference timezone as aggregation so drill-downs line up with
// trend buckets.
func ListMessagesForDay(ctx context.Context, db *gorm.DB, day time.Time, loc *time.Location) ([]domain.Message, error) {
	if loc == nil {
		loc = time.UTC
	}
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	// Bind the bounds in UTC. Stored CreatedAt values carry a +00:00 offset
	// and sqlite compares time TEXT lexicographically, so an offset-bearing
	// bound would misplace messages near local midnight.
	out := []domain.Message{}
	err := db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages").Scan(&total).Error
	return total, err
}

// isDuplicateKey detects unique/primary-key violations across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

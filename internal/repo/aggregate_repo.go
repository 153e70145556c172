// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file maintains the DailyAggregate rollups: atomic
// single-statement increments for concurrent ingestion paths and gap-free
// trend ranges for the query layer.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// classCountColumn maps each sentiment class to its counter column. The enum
// is closed, so the column name is never derived from external input.
var classCountColumn = map[domain.SentimentClass]string{
	domain.SentimentVeryNegative: "very_negative_count",
	domain.SentimentNegative:     "negative_count",
	domain.SentimentNeutral:      "neutral_count",
	domain.SentimentPositive:     "positive_count",
	domain.SentimentVeryPositive: "very_positive_count",
}

// UpsertDailyAggregate applies one message's contribution to its day bucket:
// increment the message count and the matching class counter, and fold the
// score into the running mean (newAvg = oldAvg + (score-oldAvg)/newCount,
// which is numerically stable and needs no score history).
//
// The whole update is a single INSERT ... ON CONFLICT(date) DO UPDATE
// statement, so concurrent ingestion paths writing the same date are
// linearizable increments at the SQL level, with no lost updates. All update
// expressions are evaluated against the pre-update row, so the mean uses
// (message_count + 1) as the new count. Callers invoke this inside the same
// transaction that inserts the message so readers observe both or neither.
func UpsertDailyAggregate(db *gorm.DB, date string, score float64, class domain.SentimentClass) error {
	col, ok := classCountColumn[class]
	if !ok {
		return fmt.Errorf("unknown sentiment class %q", class)
	}

	row := domain.DailyAggregate{
		Date:             date,
		MessageCount:     1,
		AverageSentiment: score,
	}
	switch class {
	case domain.SentimentVeryNegative:
		row.VeryNegativeCount = 1
	case domain.SentimentNegative:
		row.NegativeCount = 1
	case domain.SentimentNeutral:
		row.NeutralCount = 1
	case domain.SentimentPositive:
		row.PositiveCount = 1
	case domain.SentimentVeryPositive:
		row.VeryPositiveCount = 1
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"average_sentiment": gorm.Expr("average_sentiment + (? - average_sentiment) / (message_count + 1)", score),
			"message_count":     gorm.Expr("message_count + 1"),
			col:                 gorm.Expr(col + " + 1"),
		}),
	}).Create(&row).Error
}

// GetDailyAggregate fetches the aggregate row for a bucket key, returning
// ErrNotFound when no message has been bucketed to that day yet.
func GetDailyAggregate(ctx context.Context, db *gorm.DB, date string) (*domain.DailyAggregate, error) {
	var a domain.DailyAggregate
	err := db.WithContext(ctx).Where("date = ?", date).First(&a).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// TrendRange returns one DailyAggregate per calendar day for the trailing
// days ending at now (in loc), ascending by date. Days without messages are
// zero-filled explicitly (MessageCount 0, AverageSentiment neutral default)
// so consumers never have to handle sparse gaps.
func TrendRange(ctx context.Context, db *gorm.DB, days int, now time.Time, loc *time.Location) ([]domain.DailyAggregate, error) {
	if days < 1 {
		days = 1
	}
	if loc == nil {
		loc = time.UTC
	}

	end := now.In(loc)
	start := end.AddDate(0, 0, -(days - 1))
	startKey := domain.DayKey(start, loc)
	endKey := domain.DayKey(end, loc)

	rows := []domain.DailyAggregate{}
	err := db.WithContext(ctx).
		Where("date >= ? AND date <= ?", startKey, endKey).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]domain.DailyAggregate, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	out := make([]domain.DailyAggregate, 0, days)
	for i := 0; i < days; i++ {
		key := domain.DayKey(start.AddDate(0, 0, i), loc)
		if r, ok := byDate[key]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, domain.DailyAggregate{
			Date:             key,
			AverageSentiment: domain.ScoreNeutral,
		})
	}
	return out, nil
}

package domain

import (
	"testing"
	"time"
)

func TestDayKey_ReferenceTimezone(t *testing.T) {
	athens, err := time.LoadLocation("Europe/Athens")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:30 UTC on Jan 1 is already Jan 2 in Athens (UTC+2 in winter).
	ts := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)
	if got := DayKey(ts, time.UTC); got != "2026-01-01" {
		t.Errorf("DayKey UTC = %q, want 2026-01-01", got)
	}
	if got := DayKey(ts, athens); got != "2026-01-02" {
		t.Errorf("DayKey Athens = %q, want 2026-01-02", got)
	}
	// nil location falls back to UTC
	if got := DayKey(ts, nil); got != "2026-01-01" {
		t.Errorf("DayKey nil loc = %q, want 2026-01-01", got)
	}
}

func TestPlatform_Valid(t *testing.T) {
	if !PlatformDiscord.Valid() || !PlatformTelegram.Valid() {
		t.Fatalf("known platforms must be valid")
	}
	if Platform("slack").Valid() {
		t.Fatalf("unknown platform must be invalid")
	}
	if len(Platforms()) != 2 {
		t.Fatalf("unexpected platform set: %v", Platforms())
	}
}

func TestDailyAggregate_Counters(t *testing.T) {
	a := DailyAggregate{
		Date:              "2026-08-30",
		MessageCount:      6,
		VeryNegativeCount: 1,
		NegativeCount:     2,
		NeutralCount:      0,
		PositiveCount:     2,
		VeryPositiveCount: 1,
	}

	if got := a.CountFor(SentimentNegative); got != 2 {
		t.Errorf("CountFor(negative) = %d, want 2", got)
	}
	if got := a.CountFor(SentimentClass("bogus")); got != 0 {
		t.Errorf("CountFor(bogus) = %d, want 0", got)
	}

	counts := a.SentimentCounts()
	if len(counts) != 5 {
		t.Fatalf("SentimentCounts must always contain all classes, got %v", counts)
	}
	var sum int64
	for _, n := range counts {
		sum += n
	}
	if sum != a.MessageCount {
		t.Errorf("class counters sum to %d, want %d", sum, a.MessageCount)
	}
}

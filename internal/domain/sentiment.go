// Package domain – sentiment classification.
//
// This file defines the 5-point ordinal sentiment scale and the single shared
// threshold function that maps a continuous [0,4] score onto it. Every
// component that needs a classification (the ingestion pipeline, the query
// service, tests) must call Classify; there is deliberately no second copy of
// the threshold table anywhere in the codebase.
package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SentimentClass is one of five ordinal sentiment buckets. The string value
// is the canonical machine token (stored, serialized, compared); the
// human-facing form is available via Label and is never derived ad hoc at
// call sites.
type SentimentClass string

// Sentiment classes, most negative first.
const (
	SentimentVeryNegative SentimentClass = "very_negative"
	SentimentNegative     SentimentClass = "negative"
	SentimentNeutral      SentimentClass = "neutral"
	SentimentPositive     SentimentClass = "positive"
	SentimentVeryPositive SentimentClass = "very_positive"
)

// SentimentClasses returns all classes in ascending sentiment order.
func SentimentClasses() []SentimentClass {
	return []SentimentClass{
		SentimentVeryNegative,
		SentimentNegative,
		SentimentNeutral,
		SentimentPositive,
		SentimentVeryPositive,
	}
}

// Score bounds for the continuous sentiment scale.
const (
	ScoreMin = 0.0
	ScoreMax = 4.0

	// ScoreNeutral is the midpoint of the scale, used as the neutral default
	// for days without messages in trend output.
	ScoreNeutral = 2.0
)

// Classify maps a continuous score in [0,4] onto a SentimentClass using
// inclusive lower bounds:
//
//	score >= 3.5 -> very_positive
//	score >= 2.5 -> positive
//	score >= 1.5 -> neutral
//	score >= 0.5 -> negative
//	else         -> very_negative
//
// The function is pure and total over float64; callers are responsible for
// rejecting out-of-range scores before persisting them.
func Classify(score float64) SentimentClass {
	switch {
	case score >= 3.5:
		return SentimentVeryPositive
	case score >= 2.5:
		return SentimentPositive
	case score >= 1.5:
		return SentimentNeutral
	case score >= 0.5:
		return SentimentNegative
	default:
		return SentimentVeryNegative
	}
}

// ValidScore reports whether s is a usable sentiment score: within [0,4] and
// not NaN. Scores outside this range indicate a misbehaving scorer and must
// be treated as a scoring failure, never clamped or defaulted.
func ValidScore(s float64) bool {
	return s >= ScoreMin && s <= ScoreMax // NaN fails both comparisons
}

// labelCaser title-cases label words; English rules are fine for the fixed
// token set.
var labelCaser = cases.Title(language.English)

// Label returns the display form of the class, e.g. "Very Positive" for
// "very_positive". Unknown tokens are title-cased best effort.
func (c SentimentClass) Label() string {
	return labelCaser.String(strings.ReplaceAll(string(c), "_", " "))
}

// Valid reports whether c is one of the five defined classes.
func (c SentimentClass) Valid() bool {
	switch c {
	case SentimentVeryNegative, SentimentNegative, SentimentNeutral,
		SentimentPositive, SentimentVeryPositive:
		return true
	}
	return false
}

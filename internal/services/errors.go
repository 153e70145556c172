// Package services defines the business logic for ingestion, sentiment
// aggregation, and dashboard queries. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Ingestion-related errors.
var (
	// ErrUnknownPlatform is returned when a payload targets a platform the
	// system does not ingest.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrScoringUnavailable is returned when the sentiment scorer failed,
	// timed out, or produced a score outside the valid range. The payload is
	// never persisted with a guessed score; callers retry delivery instead.
	ErrScoringUnavailable = errors.New("sentiment scoring unavailable")
)

// Query-related errors.
var (
	// ErrInvalidDate is returned when a drill-down date is not a valid
	// YYYY-MM-DD calendar day.
	ErrInvalidDate = errors.New("date must be a valid YYYY-MM-DD day")

	// ErrInvalidRange is returned when a requested window size is not a
	// positive number of days.
	ErrInvalidRange = errors.New("days must be a positive integer")

	// ErrChannelNotFound indicates that the requested channel is not known
	// to the permission checker.
	ErrChannelNotFound = errors.New("channel not found")
)

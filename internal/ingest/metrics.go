package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_messages_total",
			Help: "Payloads processed by the ingestion worker, by platform and result.",
		},
		[]string{"platform", "result"},
	)

	ingestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "End-to-end latency of one payload through the pipeline.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform"},
	)

	scoringRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_scoring_retries_total",
			Help: "Retries caused by an unavailable sentiment scorer.",
		},
		[]string{"platform"},
	)
)

func init() {
	prometheus.MustRegister(messagesTotal, ingestDuration, scoringRetries)
}

// Result labels for ingest_messages_total.
const (
	resultCreated   = "created"
	resultDuplicate = "duplicate"
	resultMalformed = "malformed"
	resultDropped   = "dropped"
	resultError     = "error"
)

package ingest

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-sentiment-backend/internal/normalize"
	"github.com/tbourn/go-sentiment-backend/internal/services"
)

// Worker drains a Source through the ingestion service. Retryable failures
// (scorer outages) are retried with exponential backoff up to MaxRetries and
// then dropped; malformed payloads are logged and skipped immediately since
// retrying them can never succeed.
type Worker struct {
	Source Source
	Ingest *services.IngestService
	Log    zerolog.Logger

	// PollInterval is the idle sleep between empty polls. Zero defaults to
	// 10 seconds.
	PollInterval time.Duration

	// RetryBackoff is the initial backoff after a retryable failure; it
	// doubles per attempt. Zero defaults to 2 seconds.
	RetryBackoff time.Duration

	// MaxRetries caps retryable attempts per payload after the first one.
	MaxRetries int
}

// Run polls until ctx is cancelled or the source reports io.EOF. It always
// returns nil on clean exhaustion and ctx.Err() on cancellation.
func (w *Worker) Run(ctx context.Context) error {
	platform := w.Source.Platform()
	log := w.Log.With().Str("platform", string(platform)).Logger()
	log.Info().Msg("ingest worker started")

	for {
		batch, err := w.Source.Poll(ctx)
		if err != nil && !errors.Is(err, io.EOF) && len(batch) == 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("source poll failed")
			if !w.sleep(ctx, w.pollInterval()) {
				return ctx.Err()
			}
			continue
		}

		for _, raw := range batch {
			w.process(ctx, raw)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		if errors.Is(err, io.EOF) {
			log.Info().Msg("source exhausted, ingest worker done")
			return nil
		}
		if len(batch) == 0 {
			if !w.sleep(ctx, w.pollInterval()) {
				return ctx.Err()
			}
		}
	}
}

// process pushes one payload through the pipeline with retry on scorer
// outages. Every outcome increments ingest_messages_total exactly once.
func (w *Worker) process(ctx context.Context, raw []byte) {
	platform := w.Source.Platform()
	log := w.Log.With().Str("platform", string(platform)).Logger()

	start := time.Now()
	defer func() {
		ingestDuration.WithLabelValues(string(platform)).Observe(time.Since(start).Seconds())
	}()

	backoff := w.retryBackoff()
	for attempt := 0; ; attempt++ {
		res, err := w.Ingest.Ingest(ctx, platform, raw)
		switch {
		case err == nil:
			result := resultCreated
			if res.Status == services.StatusDuplicate {
				result = resultDuplicate
				log.Debug().Str("message_id", res.Message.ID).Msg("duplicate payload skipped")
			}
			messagesTotal.WithLabelValues(string(platform), result).Inc()
			return

		case errors.Is(err, normalize.ErrMalformedPayload):
			messagesTotal.WithLabelValues(string(platform), resultMalformed).Inc()
			log.Warn().Err(err).Msg("malformed payload rejected")
			return

		case errors.Is(err, services.ErrScoringUnavailable):
			if attempt >= w.MaxRetries {
				messagesTotal.WithLabelValues(string(platform), resultDropped).Inc()
				log.Error().Err(err).Int("attempts", attempt+1).Msg("scoring unavailable, payload dropped")
				return
			}
			scoringRetries.WithLabelValues(string(platform)).Inc()
			log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("scoring unavailable, retrying")
			if !w.sleep(ctx, backoff) {
				return
			}
			backoff *= 2

		default:
			if ctx.Err() != nil {
				return
			}
			messagesTotal.WithLabelValues(string(platform), resultError).Inc()
			log.Error().Err(err).Msg("ingest failed")
			return
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (w *Worker) pollInterval() time.Duration {
	if w.PollInterval > 0 {
		return w.PollInterval
	}
	return 10 * time.Second
}

func (w *Worker) retryBackoff() time.Duration {
	if w.RetryBackoff > 0 {
		return w.RetryBackoff
	}
	return 2 * time.Second
}

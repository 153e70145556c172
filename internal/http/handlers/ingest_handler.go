// Ingestion HTTP handler.
//
// Exposes POST /ingest/{platform}: a webhook-style entry point that pushes
// one raw platform payload through the pipeline. The endpoint is idempotent
// per message id, so upstream relays may retry deliveries freely:
//   - 202 Accepted   the message was stored and aggregated
//   - 200 OK         the id was already ingested; nothing changed
//   - 400 Bad Request  the payload is malformed and retrying cannot help
//   - 503 Service Unavailable  scoring failed; retry after a backoff
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/http/middleware"
	"github.com/tbourn/go-sentiment-backend/internal/normalize"
	"github.com/tbourn/go-sentiment-backend/internal/services"
)

// IngestResponse is the JSON envelope for an accepted or replayed payload.
type IngestResponse struct {
	Status  string          `json:"status" example:"created"`
	Message *domain.Message `json:"message"`
}

// IngestMessage godoc
// @ID          ingestMessage
// @Summary     Ingest one platform message
// @Description Normalizes, dedups, scores, and persists a raw platform payload. Safe to retry: redelivery of a stored id returns 200 without changing anything.
// @Tags        Ingest
// @Accept      json
// @Produce     json
//
// @Param       platform  path  string  true  "Source platform"  Enums(discord, telegram)
// @Param       body      body  object  true  "Raw platform payload"
//
// @Success     202  {object}  handlers.IngestResponse  "Created"
// @Success     200  {object}  handlers.IngestResponse  "Duplicate"
// @Failure     400  {object}  handlers.ErrorResponse   "Malformed payload or unknown platform"
// @Failure     503  {object}  handlers.ErrorResponse   "Scoring unavailable; retry later"
// @Failure     500  {object}  handlers.ErrorResponse   "Internal error"
// @Router      /ingest/{platform} [post]
func (h *Handlers) IngestMessage(c *gin.Context) {
	ctx := c.Request.Context()

	platform := domain.Platform(c.Param("platform"))
	if !platform.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeUnknownPlatform, "platform must be one of: discord, telegram")
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read request body")
		return
	}
	if len(raw) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeMalformedPayload, "empty payload")
		return
	}

	res, err := h.ingestSvc.Ingest(ctx, platform, raw)
	if err != nil {
		switch {
		case errors.Is(err, normalize.ErrMalformedPayload):
			fail(c, http.StatusBadRequest, ErrCodeMalformedPayload, err.Error())
		case errors.Is(err, services.ErrUnknownPlatform):
			fail(c, http.StatusBadRequest, ErrCodeUnknownPlatform, err.Error())
		case errors.Is(err, services.ErrScoringUnavailable):
			c.Header("Retry-After", "2")
			fail(c, http.StatusServiceUnavailable, ErrCodeScoringUnavailable, "sentiment scoring unavailable, retry later")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	if res.Status == services.StatusDuplicate {
		middleware.LoggerFrom(c).Debug().Str("message_id", res.Message.ID).Msg("duplicate delivery replayed")
		ok(c, http.StatusOK, IngestResponse{Status: string(res.Status), Message: res.Message})
		return
	}
	ok(c, http.StatusAccepted, IngestResponse{Status: string(res.Status), Message: res.Message})
}

// Message HTTP handlers.
//
// This file exposes the read endpoints over stored messages:
//   - GET /recent-messages   (combined cross-platform feed, ETag support)
//   - GET /messages?date=    (drill-down into one calendar day)
//
// Handlers are transport-thin: they validate and clamp inputs, delegate to
// the query service, and implement conditional responses (ETag) for the feed.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/services"
	"github.com/tbourn/go-sentiment-backend/internal/utils"
)

//
// DTOs
//

// RecentMessagesResponse is the JSON envelope for the combined feed.
type RecentMessagesResponse struct {
	Messages []services.CombinedMessage `json:"messages"`
}

// DayMessagesResponse is the JSON envelope for a per-day drill-down.
type DayMessagesResponse struct {
	Date     string                     `json:"date"`
	Messages []services.CombinedMessage `json:"messages"`
}

// dateRE pre-screens the date parameter shape before calendar validation.
var dateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// RecentMessages godoc
// @ID          recentMessages
// @Summary     Combined recent message feed
// @Description Returns the most recent messages across all platforms, newest first.
// @Tags        Messages
// @Produce     json
//
// @Param       limit  query  int  false  "Maximum messages to return"  minimum(1) maximum(200) default(50)
//
// @Success     200  {object}  handlers.RecentMessagesResponse
// @Success     304  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /recent-messages [get]
func (h *Handlers) RecentMessages(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort): the feed only changes when a message is
	// ingested, so count+latest-timestamp identifies its state.
	if stats, err := h.querySvc.FeedStats(ctx); err == nil {
		etag := fmt.Sprintf(`W/"feed:%d:%d"`, stats.Count, stats.LastCreatedAt.Unix())
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	limit := utils.AtoiDefault(c.Query("limit"), services.DefaultRecentLimit)
	msgs, err := h.querySvc.RecentMessages(ctx, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, RecentMessagesResponse{Messages: msgs})
}

// MessagesForDay godoc
// @ID          messagesForDay
// @Summary     Messages for one calendar day
// @Description Returns every message bucketed to the given day (reference timezone), oldest first.
// @Tags        Messages
// @Produce     json
//
// @Param       date  query  string  true  "Calendar day (YYYY-MM-DD)"  example(2026-08-30)
//
// @Success     200  {object}  handlers.DayMessagesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid date"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages [get]
func (h *Handlers) MessagesForDay(c *gin.Context) {
	ctx := c.Request.Context()

	date := c.Query("date")
	if !dateRE.MatchString(date) {
		fail(c, http.StatusBadRequest, ErrCodeInvalidDate, "date must be YYYY-MM-DD")
		return
	}

	msgs, err := h.querySvc.MessagesForDay(ctx, date)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			fail(c, http.StatusBadRequest, ErrCodeInvalidDate, "date must be a valid calendar day")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, DayMessagesResponse{Date: date, Messages: msgs})
}

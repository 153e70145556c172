// Sentiment trend HTTP handler.
//
// Exposes GET /sentiment: a fixed-length daily series of aggregate sentiment
// ending today in the reference timezone, gap-free so the dashboard can chart
// it directly.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/services"
	"github.com/tbourn/go-sentiment-backend/internal/utils"
)

// SentimentTrendResponse is the JSON envelope for the trend series.
type SentimentTrendResponse struct {
	Days   int                           `json:"days"`
	Points []services.SentimentDataPoint `json:"points"`
}

// SentimentTrend godoc
// @ID          sentimentTrend
// @Summary     Daily sentiment trend
// @Description Returns one data point per day for the trailing window, ascending by date. Days without messages carry a zero count and the neutral average.
// @Tags        Sentiment
// @Produce     json
//
// @Param       days  query  int  false  "Window size in days"  minimum(1) maximum(90) default(7)
//
// @Success     200  {object}  handlers.SentimentTrendResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid window"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sentiment [get]
func (h *Handlers) SentimentTrend(c *gin.Context) {
	ctx := c.Request.Context()

	days := utils.AtoiDefault(c.Query("days"), services.DefaultTrendDays)
	points, err := h.querySvc.SentimentTrend(ctx, days)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRange) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "days must be a positive integer")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SentimentTrendResponse{Days: len(points), Points: points})
}

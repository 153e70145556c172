// Channel permission diagnostics HTTP handler.
//
// Exposes GET /channels/{id}/permissions so operators can check whether the
// ingesting bot can actually read a channel that appears silent.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/services"
)

// ChannelPermissions godoc
// @ID          channelPermissions
// @Summary     Check bot permissions on a channel
// @Description Returns whether the ingesting bot holds the read permissions it needs on the channel, and which are missing.
// @Tags        Channels
// @Produce     json
//
// @Param       id  path  string  true  "Channel ID"
//
// @Success     200  {object}  services.ChannelPermissions
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Channel not known"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /channels/{id}/permissions [get]
func (h *Handlers) ChannelPermissions(c *gin.Context) {
	ctx := c.Request.Context()

	channelID := strings.TrimSpace(c.Param("id"))
	if channelID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "channel id required")
		return
	}

	perms, err := h.permSvc.Check(ctx, channelID)
	if err != nil {
		if errors.Is(err, services.ErrChannelNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "channel not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, perms)
}

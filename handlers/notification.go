package handlers

import (
	"net/http"

	"camionback/services/notification"
	"camionback/utils"

	"github.com/gin-gonic/gin"
)

type InboxHandler struct {
	Inbox *notification.Inbox
}

func (h *InboxHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	rows, err := h.Inbox.List(c.Request.Context(), p.UserID, queryLimit(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

func (h *InboxHandler) UnreadCount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	n, err := h.Inbox.UnreadCount(c.Request.Context(), p.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *InboxHandler) MarkRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Inbox.MarkRead(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

func (h *InboxHandler) MarkAllRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	n, err := h.Inbox.MarkAllRead(c.Request.Context(), p.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, gin.H{"updated": n})
}

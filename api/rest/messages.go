package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yomogi/linkup/audit"
	mw "github.com/yomogi/linkup/middleware"
	"github.com/yomogi/linkup/model"
	"github.com/yomogi/linkup/store"
)

// MessageHandler handles chat REST endpoints.
type MessageHandler struct {
	dir   *store.Directory
	audit *audit.Service
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(dir *store.Directory, a *audit.Service) *MessageHandler {
	return &MessageHandler{dir: dir, audit: a}
}

// Send handles POST /api/messages. Body carries either text or a file
// reference (or both).
func (h *MessageHandler) Send(c *gin.Context) {
	start := time.Now()
	var req struct {
		Receiver string         `json:"receiver" binding:"required"`
		Body     string         `json:"body"`
		File     *model.FileRef `json:"file"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.dir.SendMessage(mw.GetUsername(c), req.Receiver, req.Body, req.File)
	recordAudit(h.audit, c, "messages.send", start, gin.H{"receiver": req.Receiver}, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Conversation handles GET /api/messages/:name?limit=N. Messages come back
// oldest-first, ready for display.
func (h *MessageHandler) Conversation(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	msgs, err := h.dir.Conversation(mw.GetUsername(c), c.Param("name"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkRead handles POST /api/messages/:name/read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	start := time.Now()
	other := c.Param("name")

	err := h.dir.MarkRead(mw.GetUsername(c), other)
	recordAudit(h.audit, c, "messages.mark_read", start, gin.H{"other": other}, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}

// Unread handles GET /api/unread: sender → unread count, for badging
// conversations on each poll.
func (h *MessageHandler) Unread(c *gin.Context) {
	counts, err := h.dir.UnreadCounts(mw.GetUsername(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

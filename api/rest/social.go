package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yomogi/linkup/audit"
	mw "github.com/yomogi/linkup/middleware"
	"github.com/yomogi/linkup/model"
	"github.com/yomogi/linkup/store"
)

// SocialHandler handles friend-graph REST endpoints.
type SocialHandler struct {
	dir   *store.Directory
	audit *audit.Service
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(dir *store.Directory, a *audit.Service) *SocialHandler {
	return &SocialHandler{dir: dir, audit: a}
}

// SendRequest handles POST /api/social/requests.
func (h *SocialHandler) SendRequest(c *gin.Context) {
	start := time.Now()
	var req struct {
		Receiver string `json:"receiver" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fr, err := h.dir.SendFriendRequest(mw.GetUsername(c), req.Receiver)
	recordAudit(h.audit, c, "social.send_request", start, gin.H{"receiver": req.Receiver}, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": fr})
}

// Respond handles POST /api/social/requests/respond. The authenticated user
// is the receiver; sender names the pending request to act on.
func (h *SocialHandler) Respond(c *gin.Context) {
	start := time.Now()
	var req struct {
		Sender string `json:"sender" binding:"required"`
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.dir.RespondToRequest(req.Sender, mw.GetUsername(c), store.RequestAction(req.Action))
	recordAudit(h.audit, c, "social.respond", start,
		gin.H{"sender": req.Sender, "action": req.Action}, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": req.Action + "ed"})
}

// Incoming handles GET /api/social/requests.
func (h *SocialHandler) Incoming(c *gin.Context) {
	reqs, err := h.dir.IncomingRequests(mw.GetUsername(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// Friends handles GET /api/social/friends.
func (h *SocialHandler) Friends(c *gin.Context) {
	friends, err := h.dir.ListFriends(mw.GetUsername(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if friends == nil {
		friends = []model.Account{}
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// Unfriend handles DELETE /api/social/friends/:name.
func (h *SocialHandler) Unfriend(c *gin.Context) {
	start := time.Now()
	other := c.Param("name")

	removed, err := h.dir.Unfriend(mw.GetUsername(c), other)
	recordAudit(h.audit, c, "social.unfriend", start, gin.H{"other": other}, gin.H{"removed": removed}, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

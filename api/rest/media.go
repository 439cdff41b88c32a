package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yomogi/linkup/audit"
	mw "github.com/yomogi/linkup/middleware"
	"github.com/yomogi/linkup/store"
)

// MediaHandler handles the visibility-scoped media REST endpoints.
type MediaHandler struct {
	dir   *store.Directory
	audit *audit.Service
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(dir *store.Directory, a *audit.Service) *MediaHandler {
	return &MediaHandler{dir: dir, audit: a}
}

// Post handles POST /api/media. The caller supplies a content reference
// (a path or URI the file collaborator resolved) and the payload size, which
// is checked against the cap before anything is persisted.
func (h *MediaHandler) Post(c *gin.Context) {
	start := time.Now()
	var req struct {
		ContentRef  string `json:"content_ref" binding:"required"`
		ContentType string `json:"content_type"`
		Visibility  string `json:"visibility" binding:"required"`
		SizeBytes   int64  `json:"size_bytes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.dir.PostMedia(mw.GetUsername(c), req.ContentRef, req.ContentType, req.Visibility, req.SizeBytes)
	recordAudit(h.audit, c, "media.post", start,
		gin.H{"content_ref": req.ContentRef, "visibility": req.Visibility}, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// Feed handles GET /api/media/feed. Visibility is evaluated against the
// caller's current friendships on every call.
func (h *MediaHandler) Feed(c *gin.Context) {
	items, err := h.dir.FeedFor(mw.GetUsername(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Mine handles GET /api/media/mine.
func (h *MediaHandler) Mine(c *gin.Context) {
	items, err := h.dir.OwnMedia(mw.GetUsername(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Delete handles DELETE /api/media/:id. Deleting an item you do not own is a
// silent no-op: removed=false, same as deleting a nonexistent ID.
func (h *MediaHandler) Delete(c *gin.Context) {
	start := time.Now()
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	removed, err := h.dir.DeleteMedia(itemID, mw.GetUsername(c))
	recordAudit(h.audit, c, "media.delete", start, gin.H{"item_id": itemID}, gin.H{"removed": removed}, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Update handles PUT /api/media/:id. Omitted fields are left unchanged.
func (h *MediaHandler) Update(c *gin.Context) {
	start := time.Now()
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req struct {
		ContentRef *string `json:"content_ref"`
		Visibility *string `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changed, err := h.dir.UpdateMedia(itemID, mw.GetUsername(c), req.ContentRef, req.Visibility)
	recordAudit(h.audit, c, "media.update", start, gin.H{"item_id": itemID}, gin.H{"changed": changed}, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

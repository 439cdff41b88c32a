package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yomogi/linkup/audit"
	"github.com/yomogi/linkup/model"
	"github.com/yomogi/linkup/store"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db    *gorm.DB
	dir   *store.Directory
	audit *audit.Service
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, dir *store.Directory, a *audit.Service) *AdminHandler {
	return &AdminHandler{db: db, dir: dir, audit: a}
}

// Metrics returns row counts per entity table.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var accounts, requests, messages, media int64
	h.db.Model(&model.Account{}).Count(&accounts)
	h.db.Model(&model.FriendRequest{}).Count(&requests)
	h.db.Model(&model.Message{}).Count(&messages)
	h.db.Model(&model.MediaItem{}).Count(&media)
	c.JSON(http.StatusOK, gin.H{
		"accounts":        accounts,
		"friend_requests": requests,
		"messages":        messages,
		"media_items":     media,
	})
}

// ListAccounts returns every registered account.
// GET /api/admin/accounts
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	var accs []model.Account
	if err := h.db.Order("username").Find(&accs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accs, "count": len(accs)})
}

// DeleteAccount removes an account and all its data.
// DELETE /api/admin/accounts/:name
func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	start := time.Now()
	name := c.Param("name")

	err := h.dir.DeleteAccount(name)
	recordAudit(h.audit, c, "admin.delete_account", start, gin.H{"account": name}, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// If adminKey is empty all admin endpoints are disabled (503) so the server
// cannot be accidentally deployed without protection.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			writeError(c, &store.PermissionError{Action: "admin access"})
			c.Abort()
			return
		}
		c.Next()
	}
}

package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yomogi/linkup/audit"
	mw "github.com/yomogi/linkup/middleware"
	"github.com/yomogi/linkup/store"
)

// ProfileHandler handles the authenticated account's own profile.
type ProfileHandler struct {
	dir   *store.Directory
	audit *audit.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(dir *store.Directory, a *audit.Service) *ProfileHandler {
	return &ProfileHandler{dir: dir, audit: a}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	acc, err := h.dir.Account(mw.GetUsername(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acc})
}

// UpdateEmail handles PUT /api/profile/email.
func (h *ProfileHandler) UpdateEmail(c *gin.Context) {
	start := time.Now()
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.dir.UpdateEmail(mw.GetUsername(c), req.Email)
	recordAudit(h.audit, c, "profile.update_email", start, gin.H{"email": req.Email}, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email updated"})
}

// UpdatePassword handles PUT /api/profile/password.
func (h *ProfileHandler) UpdatePassword(c *gin.Context) {
	start := time.Now()
	var req struct {
		Current string `json:"current" binding:"required"`
		New     string `json:"new" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The current password must verify before it can be replaced.
	_, ok, err := h.dir.Authenticate(mw.GetUsername(c), req.Current)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	err = h.dir.UpdatePassword(mw.GetUsername(c), req.New)
	recordAudit(h.audit, c, "profile.update_password", start, nil, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// UpdateImage handles PUT /api/profile/image.
func (h *ProfileHandler) UpdateImage(c *gin.Context) {
	start := time.Now()
	var req struct {
		Ref string `json:"ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.dir.UpdateProfileImage(mw.GetUsername(c), req.Ref)
	recordAudit(h.audit, c, "profile.update_image", start, gin.H{"ref": req.Ref}, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile image updated"})
}

// Delete handles DELETE /api/profile. The cascade into friend requests,
// messages and media is atomic in the core.
func (h *ProfileHandler) Delete(c *gin.Context) {
	start := time.Now()
	err := h.dir.DeleteAccount(mw.GetUsername(c))
	recordAudit(h.audit, c, "profile.delete", start, nil, nil, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// Search handles GET /api/users/search?q=...
func (h *ProfileHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	accs, err := h.dir.Search(q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accs})
}

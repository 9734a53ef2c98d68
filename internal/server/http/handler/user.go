package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/http/middleware"
)

func (h *Handler) GetMe(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		h.writeError(c, common.ErrUnauthenticated)
		return
	}
	u, err := h.profiles.GetMe(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u.Safe()})
}

func (h *Handler) UpdateMe(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		h.writeError(c, common.ErrUnauthenticated)
		return
	}
	b, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	upd, err := parseProfileUpdate(b)
	if err != nil {
		h.writeError(c, err)
		return
	}

	u, err := h.profiles.UpdateMe(c.Request.Context(), uid, upd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u.Safe()})
}

// GetUser returns a public profile; the email is shown to its owner only.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := parsePathID(c, "userId", "BAD_USER_ID")
	if err != nil {
		h.writeError(c, err)
		return
	}

	var viewer *int64
	if uid, ok := middleware.UserID(c); ok {
		viewer = &uid
	}

	u, err := h.profiles.GetProfile(c.Request.Context(), id, viewer)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

// ProfileImageUploadURL runs behind RequireSelf, so the path id is the caller.
func (h *Handler) ProfileImageUploadURL(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	b, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	req, err := parseUploadRequest(b)
	if err != nil {
		h.writeError(c, err)
		return
	}

	up, err := h.profiles.PresignProfileUpload(c.Request.Context(), uid, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "key": up.Key, "url": up.URL, "expires_at": up.ExpiresAt})
}

func (h *Handler) CommitProfileImage(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	b, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	key, _ := b.string("key")

	u, err := h.profiles.CommitProfileImage(c.Request.Context(), uid, key)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u.Safe()})
}

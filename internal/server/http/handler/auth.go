package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/http/middleware"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/services"
)

func (h *Handler) Register(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	in, err := parseRegister(b)
	if err != nil {
		h.writeError(c, err)
		return
	}

	u, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": u.Safe()})
}

func (h *Handler) Login(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	email, password, err := parseLogin(b)
	if err != nil {
		h.writeError(c, err)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), email, password, c.ClientIP())
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cookies.SetTokens(c.Writer, res.AccessToken, res.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": res.User.Safe(), "accessToken": res.AccessToken})
}

func (h *Handler) Refresh(c *gin.Context) {
	current, _ := c.Cookie(common.RefreshCookieName)

	pair, err := h.auth.Refresh(c.Request.Context(), current)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cookies.SetTokens(c.Writer, pair.AccessToken, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"ok": true, "accessToken": pair.AccessToken})
}

// Logout ends the session in the refresh cookie, or all sessions of a user.
// Cookies are cleared with the attributes they were set with.
func (h *Handler) Logout(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	allDevices, userID, err := parseLogout(b)
	if err != nil {
		h.writeError(c, err)
		return
	}

	in := services.LogoutInput{AllDevices: allDevices, UserID: userID}
	in.RefreshToken, _ = c.Cookie(common.RefreshCookieName)
	if uid, ok := middleware.UserID(c); ok {
		in.CallerID = &uid
	}

	if err := h.auth.Logout(c.Request.Context(), in); err != nil {
		h.writeError(c, err)
		return
	}

	h.cookies.Clear(c.Writer)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Ping(c *gin.Context) {
	uid, _ := middleware.UserID(c)
	c.JSON(http.StatusOK, gin.H{"ok": true, "userId": uid})
}

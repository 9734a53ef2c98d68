// Package handler implements the JSON HTTP API on top of the services.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/auth"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/services"
)

type Handler struct {
	auth     *services.AuthService
	profiles *services.ProfileService
	friends  *services.FriendService
	cookies  *auth.CookiePolicy
	log      logging.Logger
}

func New(as *services.AuthService, ps *services.ProfileService, fs *services.FriendService, cookies *auth.CookiePolicy, log logging.Logger) *Handler {
	return &Handler{
		auth:     as,
		profiles: ps,
		friends:  fs,
		cookies:  cookies,
		log:      log.With("module", "http_handler"),
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// writeError translates a service error into the JSON error envelope. It is
// the only place errors become status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "code": code, "message": msg})
}

func classify(err error) (int, string, string) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Code, ve.Message
	case errors.Is(err, common.ErrNotSchoolEmail):
		return http.StatusBadRequest, "NOT_SCHOOL_EMAIL", "email must be a school domain"
	case errors.Is(err, common.ErrEmailInUse):
		return http.StatusConflict, "EMAIL_IN_USE", "email already in use"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password"
	case common.IsTokenError(err):
		return http.StatusUnauthorized, "INVALID_TOKEN", common.ErrInvalidOrExpiredToken.Error()
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, try again later"
	default:
		return http.StatusInternalServerError, "INTERNAL", common.ErrorInternal.Error()
	}
}

// Package middleware holds the gin request guards and the access log.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/auth"
)

const userIDKey = "userID"

// TokenResolver turns an access token into a user id. auth.Codec
// implements it.
type TokenResolver interface {
	ResolveAccess(token string) (int64, error)
}

type GuardOptions struct {
	// AllowCookie lets the access cookie stand in for a missing
	// Authorization header.
	AllowCookie bool
	CookieName  string
}

// Guard adapts a TokenResolver to gin.
type Guard struct {
	resolver TokenResolver
}

func NewGuard(resolver TokenResolver) *Guard {
	return &Guard{resolver: resolver}
}

// RequireAuth rejects the request with 401 unless an access token
// resolves. The header is consulted first; the cookie only when the header
// carries no bearer token.
func (g *Guard) RequireAuth(opts GuardOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c, opts)
		if token == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token")
			return
		}
		uid, err := g.resolver.ResolveAccess(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", common.ErrInvalidOrExpiredToken.Error())
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// OptionalAuth attaches the caller's id when a token resolves and
// otherwise proceeds anonymously.
func (g *Guard) OptionalAuth(opts GuardOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractAccessToken(c, opts); token != "" {
			if uid, err := g.resolver.ResolveAccess(token); err == nil {
				c.Set(userIDKey, uid)
			}
		}
		c.Next()
	}
}

// UserID returns the identity set by a guard.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(int64)
	return uid, ok
}

func extractAccessToken(c *gin.Context, opts GuardOptions) string {
	if t := auth.BearerToken(c.GetHeader(common.AuthorizationHeader)); t != "" {
		return t
	}
	if !opts.AllowCookie {
		return ""
	}
	name := opts.CookieName
	if name == "" {
		name = common.AccessCookieName
	}
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}

// Where RequireSelf reads the target id from.
const (
	FromParams = "params"
	FromBody   = "body"
	FromQuery  = "query"
)

type SelfOptions struct {
	From string
	Key  string
}

// RequireSelf runs after RequireAuth and admits only requests whose target
// user id equals the caller.
func RequireSelf(opts SelfOptions) gin.HandlerFunc {
	if opts.From == "" {
		opts.From = FromParams
	}
	if opts.Key == "" {
		opts.Key = "userId"
	}

	return func(c *gin.Context) {
		uid, ok := UserID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}

		target, ok := targetID(c, opts)
		if !ok {
			abort(c, http.StatusBadRequest, "BAD_USER_ID", "invalid or missing user id")
			return
		}
		if target != uid {
			abort(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
			return
		}
		c.Next()
	}
}

func targetID(c *gin.Context, opts SelfOptions) (int64, bool) {
	switch opts.From {
	case FromQuery:
		return parseID(c.Query(opts.Key))
	case FromBody:
		return bodyID(c, opts.Key)
	default:
		return parseID(c.Param(opts.Key))
	}
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// bodyID peeks at a JSON body and restores it for the handler.
func bodyID(c *gin.Context, key string) (int64, bool) {
	if c.Request.Body == nil {
		return 0, false
	}
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return 0, false
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, false
	}
	v, ok := body[key]
	if !ok {
		return 0, false
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return parseID(n.String())
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return parseID(s)
	}
	return 0, false
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "code": code, "message": message})
}

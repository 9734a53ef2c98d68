package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
)

// CookieConfig carries the raw settings CookiePolicy is derived from.
type CookieConfig struct {
	Production bool
	Domain     string
	// SameSite is "none", "lax" or "strict"; empty picks the default.
	SameSite string
	// Secure is nil unless explicitly configured.
	Secure     *bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// CookiePolicy is computed once at startup and used for both setting and
// clearing the token cookies, so a clear always matches what was set.
type CookiePolicy struct {
	domain     string
	sameSite   http.SameSite
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCookiePolicy(cfg CookieConfig) *CookiePolicy {
	p := &CookiePolicy{
		domain:     resolveDomain(cfg.Domain),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}

	switch strings.ToLower(strings.TrimSpace(cfg.SameSite)) {
	case "none":
		p.sameSite = http.SameSiteNoneMode
	case "lax":
		p.sameSite = http.SameSiteLaxMode
	case "strict":
		p.sameSite = http.SameSiteStrictMode
	default:
		if cfg.Production {
			p.sameSite = http.SameSiteNoneMode
		} else {
			p.sameSite = http.SameSiteLaxMode
		}
	}

	switch {
	case p.sameSite == http.SameSiteNoneMode:
		// browsers drop SameSite=None cookies without Secure
		p.secure = true
	case cfg.Secure != nil:
		p.secure = *cfg.Secure
	default:
		p.secure = cfg.Production
	}

	return p
}

func resolveDomain(d string) string {
	d = strings.TrimSpace(d)
	switch d {
	case "", "localhost", "127.0.0.1", "::1", "[::1]":
		return ""
	}
	return d
}

func (p *CookiePolicy) SameSite() http.SameSite { return p.sameSite }
func (p *CookiePolicy) Secure() bool            { return p.secure }
func (p *CookiePolicy) Domain() string          { return p.domain }

// SetTokens writes the access and refresh cookies. An empty token is
// skipped.
func (p *CookiePolicy) SetTokens(w http.ResponseWriter, accessToken, refreshToken string) {
	if accessToken != "" {
		http.SetCookie(w, p.cookie(common.AccessCookieName, accessToken, maxAge(p.accessTTL)))
	}
	if refreshToken != "" {
		http.SetCookie(w, p.cookie(common.RefreshCookieName, refreshToken, maxAge(p.refreshTTL)))
	}
}

// Clear expires both cookies with the attributes they were set with.
func (p *CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, p.cookie(common.AccessCookieName, "", -1))
	http.SetCookie(w, p.cookie(common.RefreshCookieName, "", -1))
}

func (p *CookiePolicy) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: p.sameSite,
	}
}

func maxAge(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	s := int(ttl / time.Second)
	if s == 0 {
		return 1
	}
	return s
}

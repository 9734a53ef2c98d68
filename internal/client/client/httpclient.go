package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/sku-codemong/codemong-Backend-02/internal/client/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/common"
)

// HTTPClient is a cookie-aware REST client. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
	user        *models.User
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// AccessToken returns the token from the last Login or Refresh.
func (c *HTTPClient) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// User returns the account from the last Login, nil when logged out.
func (c *HTTPClient) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *HTTPClient) setSession(token string, u *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	if u != nil || token == "" {
		c.user = u
	}
}

func (c *HTTPClient) Register(ctx context.Context, email, password, nickname string) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	in := map[string]any{"email": email, "password": password, "nickname": nickname}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, false, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out struct {
		User        *models.User `json:"user"`
		AccessToken string       `json:"accessToken"`
	}
	in := map[string]any{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, false, &out); err != nil {
		return nil, err
	}
	c.setSession(out.AccessToken, out.User)
	return out.User, nil
}

// Refresh rotates the refresh cookie and stores the new access token.
func (c *HTTPClient) Refresh(ctx context.Context) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, false, &out); err != nil {
		return "", err
	}
	c.setSession(out.AccessToken, nil)
	return out.AccessToken, nil
}

// Ping returns the user id the server resolved from the access token.
func (c *HTTPClient) Ping(ctx context.Context) (int64, error) {
	var out struct {
		UserID int64 `json:"userId"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/protected/ping", nil, true, &out); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/me", nil, true, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout ends the current session, or every session when allDevices is set.
// Local state is dropped even when the server call fails.
func (c *HTTPClient) Logout(ctx context.Context, allDevices bool) error {
	var in any
	if allDevices {
		u := c.User()
		if u == nil {
			return ErrNotLoggedIn
		}
		in = map[string]any{"allDevices": true, "userId": u.ID}
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", in, c.AccessToken() != "", nil)
	c.setSession("", nil)
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in any, bearer bool, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer {
		token := c.AccessToken()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var env struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&env)

	apiErr := &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	}
	return apiErr
}

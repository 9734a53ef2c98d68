package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sku-codemong/codemong-Backend-02/internal/client/models"
)

func (c *HTTPClient) SendFriendRequest(ctx context.Context, targetUserID int64) (*models.FriendRequest, error) {
	var out struct {
		Request *models.FriendRequest `json:"request"`
	}
	in := map[string]any{"target_user_id": targetUserID}
	if err := c.do(ctx, http.MethodPost, "/api/friends/requests", in, true, &out); err != nil {
		return nil, err
	}
	return out.Request, nil
}

func (c *HTTPClient) IncomingFriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	var out struct {
		Requests []models.FriendRequest `json:"requests"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/friends/requests/incoming", nil, true, &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

// RespondFriendRequest accepts or rejects a pending request and returns the
// resulting status.
func (c *HTTPClient) RespondFriendRequest(ctx context.Context, requestID int64, action string) (string, error) {
	var out struct {
		Result string `json:"result"`
	}
	path := fmt.Sprintf("/api/friends/requests/%d", requestID)
	if err := c.do(ctx, http.MethodPatch, path, map[string]any{"action": action}, true, &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// ProfileImageUploadURL asks for a presigned PUT for the logged in user.
func (c *HTTPClient) ProfileImageUploadURL(ctx context.Context, filename, contentType string, size int64) (*models.Upload, error) {
	u := c.User()
	if u == nil {
		return nil, ErrNotLoggedIn
	}
	var out models.Upload
	in := map[string]any{"filename": filename, "content_type": contentType, "size": size}
	path := fmt.Sprintf("/api/users/%d/profile-image/upload-url", u.ID)
	if err := c.do(ctx, http.MethodPost, path, in, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CommitProfileImage points the profile at an uploaded object.
func (c *HTTPClient) CommitProfileImage(ctx context.Context, key string) (*models.User, error) {
	u := c.User()
	if u == nil {
		return nil, ErrNotLoggedIn
	}
	var out struct {
		User *models.User `json:"user"`
	}
	path := fmt.Sprintf("/api/users/%d/profile-image", u.ID)
	if err := c.do(ctx, http.MethodPut, path, map[string]any{"key": key}, true, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

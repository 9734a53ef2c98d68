// Package models holds the shapes the CLI decodes from the server.
package models

import "time"

// User mirrors the safe user projection returned by the REST API.
type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email,omitempty"`
	Nickname        string    `json:"nickname"`
	Grade           *int      `json:"grade"`
	Gender          *string   `json:"gender"`
	ProfileImageURL *string   `json:"profile_image_url"`
	IsCompleted     bool      `json:"is_completed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Event is one realtime notification delivered over the gRPC stream.
type Event struct {
	Type    string
	Payload map[string]any
}

// FriendRequest is a friend request as listed by the REST API.
type FriendRequest struct {
	ID           int64     `json:"id"`
	FromUserID   int64     `json:"from_user_id"`
	ToUserID     int64     `json:"to_user_id"`
	Status       string    `json:"status"`
	FromNickname string    `json:"from_nickname,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Upload is a presigned PUT target for a profile image.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

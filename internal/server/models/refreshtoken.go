package models

import "time"

// RefreshToken is one live session. Token holds the current signed value
// and is overwritten in place on rotation; UpdatedAt moves with it.
type RefreshToken struct {
	ID        string
	UserID    int64
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

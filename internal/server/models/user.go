// Package models defines server-side data models persisted in the database.
package models

import "time"

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// User is a row of the users table. PasswordHash never leaves the server;
// use Safe before handing a user to a transport.
type User struct {
	ID              int64
	Email           string
	PasswordHash    string
	Nickname        string
	Grade           *int
	Gender          *string
	ProfileImageURL *string
	IsCompleted     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SafeUser is the public projection of a user.
type SafeUser struct {
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

func (u *User) Safe() *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:              u.ID,
		Email:           u.Email,
		Nickname:        u.Nickname,
		Grade:           u.Grade,
		Gender:          u.Gender,
		ProfileImageURL: u.ProfileImageURL,
		IsCompleted:     u.IsCompleted,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// Public is Safe without the email, for viewers other than the user.
func (u *User) Public() *SafeUser {
	s := u.Safe()
	if s != nil {
		s.Email = ""
	}
	return s
}

// ProfileUpdate carries the optional fields of a profile edit. Nil means
// "leave unchanged".
type ProfileUpdate struct {
	Nickname        *string
	Grade           *int
	Gender          *string
	ProfileImageURL *string
	IsCompleted     *bool
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Nickname == nil && p.Grade == nil && p.Gender == nil && p.ProfileImageURL == nil && p.IsCompleted == nil
}

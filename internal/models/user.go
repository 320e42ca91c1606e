package models

import (
	"strings"
	"time"
)

// User is an account that owns todos. It authenticates with a password,
// a Google identity, or both.
type User struct {
	ID             uint    `gorm:"primaryKey"`
	Email          string  `gorm:"size:120;not null;uniqueIndex"`
	PasswordHash   *string `gorm:"size:128"`
	FirstName      string  `gorm:"size:50;not null"`
	LastName       string  `gorm:"size:50;not null"`
	IsGoogleUser   bool    `gorm:"not null;default:false"`
	GoogleID       *string `gorm:"size:100;uniqueIndex"`
	ProfilePicture *string `gorm:"size:200"`
	IsActive       bool    `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Todos []Todo `gorm:"constraint:OnDelete:CASCADE"`
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasCredential reports whether the user can authenticate at all.
func (u *User) HasCredential() bool {
	return (u.PasswordHash != nil && *u.PasswordHash != "") || (u.GoogleID != nil && *u.GoogleID != "")
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserProfile is the public JSON view of a user.
type UserProfile struct {
	ID             uint      `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	FullName       string    `json:"full_name"`
	IsGoogleUser   bool      `json:"is_google_user"`
	ProfilePicture *string   `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	TodoCount      int64     `json:"todo_count"`
}

// Profile builds the public view; todoCount is supplied by the caller.
func (u *User) Profile(todoCount int64) UserProfile {
	return UserProfile{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		FullName:       u.FullName(),
		IsGoogleUser:   u.IsGoogleUser,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		TodoCount:      todoCount,
	}
}

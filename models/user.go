// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account.
//
// Email is stored normalized (trimmed, lowercase) so lookups are
// case-insensitive by construction. The password hash never serializes
// into API responses.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Email             string    `gorm:"unique;not null" json:"email"`
	PasswordHash      string    `gorm:"not null" json:"-"`
	IsVerified        bool      `gorm:"not null;default:false" json:"isVerified"`
	VerificationToken *string   `gorm:"index" json:"-"`
	Credits           int       `gorm:"not null;default:10" json:"credits"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PublicUser is the projection of a User returned by the API.
type PublicUser struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Credits    int    `json:"credits"`
	IsVerified bool   `json:"isVerified"`
}

// Public returns the non-sensitive projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		Credits:    u.Credits,
		IsVerified: u.IsVerified,
	}
}

package auth

import "time"

// User is the stored principal. The hash and salt never leave the server:
// they are excluded from JSON and from the bulk listing projection.
type User struct {
	UserID       string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"not null" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	PasswordSalt string    `gorm:"not null" json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt    time.Time `json:"-"`
}

func (User) TableName() string { return "app_auth.users" }

// UserSummary is the least-exposure projection returned by the admin listing.
type UserSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

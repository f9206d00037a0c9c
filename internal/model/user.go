package model

import "time"

// Roles a user can hold.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// User represents an account that can sign in to the application.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:20;not null"`
	Password  string    `json:"-" gorm:"size:100;not null"` // bcrypt hash, never exposed
	Role      string    `json:"role" gorm:"size:20;not null;default:'ROLE_USER'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

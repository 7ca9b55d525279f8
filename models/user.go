package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleRider UserRole = "rider"
	RoleOwner UserRole = "owner"
	RoleAdmin UserRole = "admin"
)

// ParseRole maps a raw role string onto the closed role set.
func ParseRole(s string) (UserRole, bool) {
	switch r := UserRole(s); r {
	case RoleUser, RoleRider, RoleOwner, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// SelfRegistrable reports whether an account with this role may be created
// through the public register endpoint. Admins are seeded, never registered.
func (r UserRole) SelfRegistrable() bool {
	switch r {
	case RoleUser, RoleRider, RoleOwner:
		return true
	case RoleAdmin:
		return false
	default:
		return false
	}
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"size:20;not null;default:'user'"`
	Phone        string    `json:"phone" gorm:"size:20"`
	Address      string    `json:"address" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

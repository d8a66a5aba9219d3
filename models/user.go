package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleConsumer UserRole = "consumer"
	RoleVendor   UserRole = "vendor"
	RoleShopper  UserRole = "shopper"
	RoleAdmin    UserRole = "admin"

	// RoleNone is the effective role of a caller with no relation to an order
	RoleNone UserRole = ""
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleConsumer, RoleVendor, RoleShopper, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// RoleGrant is a (user, role) pair. The composite unique index keeps grants a set.
type RoleGrant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_user_role"`
	Role      UserRole  `json:"role" gorm:"size:16;not null;uniqueIndex:idx_user_role"`
	CreatedAt time.Time `json:"created_at"`
}

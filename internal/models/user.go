package models

import (
	"time"
)

const (
	UserStatusActive      = "active"
	UserStatusDeactivated = "deactivated"
)

// User maps to the users table. Users are never hard-deleted; deactivation
// flips Status.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // never serialized
	FirstName    string `gorm:"type:varchar(50)" json:"firstname"`
	LastName     string `gorm:"type:varchar(50)" json:"lastname"`
	Bio          string `gorm:"type:text" json:"bio"`
	Status       string `gorm:"type:varchar(20);not null;default:active" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

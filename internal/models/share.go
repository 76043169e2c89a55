package models

import (
	"time"
)

type ShareVisibility string

const (
	VisibilityPublic       ShareVisibility = "public"
	VisibilityUserSpecific ShareVisibility = "user_specific"
)

// Valid reports whether v is one of the known visibilities.
func (v ShareVisibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityUserSpecific
}

// Share grants read access to one dive. A nil SharedWithUserID means a
// public/general token; a nil ExpirationTime means the share never expires.
type Share struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	DiveID           uint64          `gorm:"not null;index" json:"dive_id"`
	CreatorUserID    uint64          `gorm:"not null;index" json:"creator_user_id"`
	SharedWithUserID *uint64         `gorm:"index" json:"shared_with_user_id"`
	Token            string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"token"`
	Visibility       ShareVisibility `gorm:"type:varchar(20);not null;default:user_specific" json:"visibility"`
	ExpirationTime   *time.Time      `gorm:"index" json:"expiration_time"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`

	Dive       *Dive `gorm:"foreignKey:DiveID" json:"-"`
	Creator    *User `gorm:"foreignKey:CreatorUserID" json:"-"`
	SharedWith *User `gorm:"foreignKey:SharedWithUserID" json:"-"`
}

func (Share) TableName() string {
	return "shares"
}

// IsActive reports whether the share is still resolvable at now.
func (s *Share) IsActive(now time.Time) bool {
	return s.ExpirationTime == nil || s.ExpirationTime.After(now)
}

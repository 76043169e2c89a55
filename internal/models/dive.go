package models

import (
	"time"
)

// Dive maps to the dives table. It is owned by exactly one user (UserID).
type Dive struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint64    `gorm:"not null;index" json:"user_id"`
	DiveNumber      int       `gorm:"not null;default:0" json:"dive_number"`
	StartTime       time.Time `gorm:"not null" json:"start_time"`
	EndTime         time.Time `gorm:"not null" json:"end_time"`
	MaxDepth        float64   `gorm:"not null" json:"max_depth"`
	WeightBelt      string    `gorm:"type:varchar(50)" json:"weight_belt"`
	Equipment       string    `gorm:"type:varchar(255)" json:"equipment"`
	WaterVisibility string    `gorm:"column:visibility;type:varchar(50)" json:"visibility"` // underwater visibility, not share visibility
	Weather         string    `gorm:"type:varchar(100)" json:"weather"`
	Location        string    `gorm:"type:varchar(255);not null" json:"location"`
	DivePartner     string    `gorm:"type:varchar(255)" json:"dive_partner"`
	Notes           string    `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Dive) TableName() string {
	return "dives"
}

// Duration is the bottom time of the dive.
func (d *Dive) Duration() time.Duration {
	return d.EndTime.Sub(d.StartTime)
}

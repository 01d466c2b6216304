package models

import (
	"time"

	"gorm.io/gorm"
)

type Device struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AssetTag  string         `gorm:"uniqueIndex;size:64;not null" json:"asset_tag"`
	Name      string         `gorm:"size:128;not null" json:"name"`
	Model     string         `gorm:"size:128" json:"model"`
	Sector    string         `gorm:"size:64;index" json:"sector"`
	Status    string         `gorm:"size:20;not null;index" json:"status"` // ACTIVE | IN_REPAIR | RETIRED
	PhotoURL  string         `gorm:"size:512" json:"photo_url"`
	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Device) TableName() string {
	return "devices"
}

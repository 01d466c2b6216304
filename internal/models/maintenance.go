package models

import (
	"time"

	"gorm.io/gorm"
)

// MaintenanceLog is one preventive-maintenance round on a device.
type MaintenanceLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	DeviceID    uint           `gorm:"not null;index" json:"device_id"`
	PerformedBy uint           `gorm:"not null;index" json:"performed_by"`
	Period      string         `gorm:"size:32;not null;index" json:"period"` // e.g. 2026-08
	Status      string         `gorm:"size:20;not null;index" json:"status"` // OPEN | DONE
	ClosedAt    *time.Time     `json:"closed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Device    Device          `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	Performer Collaborator    `gorm:"foreignKey:PerformedBy" json:"-"`
	Items     []ChecklistItem `gorm:"foreignKey:LogID" json:"items,omitempty"`
}

func (MaintenanceLog) TableName() string {
	return "maintenance_logs"
}

type ChecklistItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	LogID     uint           `gorm:"not null;index" json:"log_id"`
	Label     string         `gorm:"size:255;not null" json:"label"`
	Done      bool           `gorm:"default:false" json:"done"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ChecklistItem) TableName() string {
	return "checklist_items"
}

package models

import (
	"time"

	"upkeep/internal/domain"

	"gorm.io/gorm"
)

// Ticket is the unit of work a collaborator attends to. Its status is driven
// by the attendance lifecycle: OPEN -> IN_PROGRESS on start, back to OPEN on
// cancel, CLOSED on finish.
type Ticket struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	DeviceID        uint           `gorm:"not null;index" json:"device_id"`
	ReporterID      uint           `gorm:"not null;index" json:"reporter_id"`
	Problem         string         `gorm:"type:text;not null" json:"problem"`
	Priority        string         `gorm:"size:10;not null;index" json:"priority"` // LOW | MEDIUM | HIGH
	Status          string         `gorm:"size:20;not null;index" json:"status"`   // OPEN | IN_PROGRESS | CLOSED
	AttendanceStart *time.Time     `json:"attendance_start"`
	AttendanceEnd   *time.Time     `json:"attendance_end"`
	ActionID        *uint          `gorm:"index" json:"action_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Device   Device       `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	Reporter Collaborator `gorm:"foreignKey:ReporterID" json:"-"`
	Action   *Action      `gorm:"foreignKey:ActionID" json:"action,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

func (t *Ticket) IsOpen() bool       { return t.Status == domain.TicketStatusOpen }
func (t *Ticket) IsInProgress() bool { return t.Status == domain.TicketStatusInProgress }

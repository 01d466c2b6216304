package models

import (
	"time"

	"gorm.io/gorm"
)

// Attendance is one collaborator's work session on one ticket. A row with
// EndedAt == nil is open; at most one open row may exist per ticket and per
// collaborator at a time.
//
// Open is the storage-level backstop for that rule: it is set to true while
// the row is open and to NULL when the row is closed. MySQL unique indexes
// ignore NULLs, so the composite indexes below reject a second open row for
// the same ticket or collaborator while any number of closed rows coexist.
// "Open" in queries always means ended_at IS NULL; the flag exists only to
// carry the constraint.
type Attendance struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	TicketID       uint           `gorm:"not null;index;uniqueIndex:uniq_open_ticket" json:"ticket_id"`
	CollaboratorID uint           `gorm:"not null;index;uniqueIndex:uniq_open_collaborator" json:"collaborator_id"`
	Open           *bool          `gorm:"uniqueIndex:uniq_open_ticket;uniqueIndex:uniq_open_collaborator" json:"-"`
	StartedAt      time.Time      `gorm:"not null;index" json:"started_at"`
	EndedAt        *time.Time     `gorm:"index" json:"ended_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Ticket       Ticket       `gorm:"foreignKey:TicketID" json:"-"`
	Collaborator Collaborator `gorm:"foreignKey:CollaboratorID" json:"-"`
}

func (Attendance) TableName() string {
	return "attendances"
}

// ElapsedSeconds is derived on read, never stored.
func (a *Attendance) ElapsedSeconds(now time.Time) int64 {
	end := now
	if a.EndedAt != nil {
		end = *a.EndedAt
	}
	s := int64(end.Sub(a.StartedAt).Seconds())
	if s < 0 {
		return 0
	}
	return s
}

// OpenFlag returns the marker value for a newly opened row.
func OpenFlag() *bool {
	v := true
	return &v
}

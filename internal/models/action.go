package models

import (
	"time"

	"gorm.io/gorm"
)

// Detractor classifies why a ticket existed (root-cause category).
type Detractor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:128;not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Detractor) TableName() string {
	return "detractors"
}

// Action records the outcome of a finished ticket: who closed it, against
// which detractor, and the free-text note.
type Action struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	TicketID       uint           `gorm:"not null;index" json:"ticket_id"`
	CollaboratorID uint           `gorm:"not null;index" json:"collaborator_id"`
	DetractorID    uint           `gorm:"not null;index" json:"detractor_id"`
	Note           string         `gorm:"size:250;not null" json:"note"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Detractor    Detractor    `gorm:"foreignKey:DetractorID" json:"detractor,omitempty"`
	Collaborator Collaborator `gorm:"foreignKey:CollaboratorID" json:"-"`
}

func (Action) TableName() string {
	return "actions"
}

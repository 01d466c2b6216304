package models

import (
	"time"

	"upkeep/internal/domain"

	"gorm.io/gorm"
)

type Collaborator struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // ADMIN | TECHNICIAN | OPERATOR
	GoogleID     *string        `gorm:"uniqueIndex;size:255" json:"-"`      // nil for password signups (avoids duplicate '' on unique index)
	AvatarURL    string         `gorm:"size:512" json:"avatar_url"`
	Sector       string         `gorm:"size:64" json:"sector"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Collaborator) TableName() string {
	return "collaborators"
}

func (c *Collaborator) IsAdmin() bool      { return c.Role == domain.RoleAdmin }
func (c *Collaborator) IsTechnician() bool { return c.Role == domain.RoleTechnician }

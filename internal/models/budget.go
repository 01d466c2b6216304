package models

import (
	"time"

	"gorm.io/gorm"
)

// BudgetLine is the planned spend for one sector in one year. Remaining
// amount is computed on read from the entries, never stored.
type BudgetLine struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Sector       string         `gorm:"size:64;not null;uniqueIndex:uniq_sector_year" json:"sector"`
	Year         int            `gorm:"not null;uniqueIndex:uniq_sector_year" json:"year"`
	PlannedCents int64          `gorm:"not null" json:"planned_cents"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BudgetLine) TableName() string {
	return "budget_lines"
}

type BudgetEntry struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	LineID         uint           `gorm:"not null;index" json:"line_id"`
	CollaboratorID uint           `gorm:"not null;index" json:"collaborator_id"`
	AmountCents    int64          `gorm:"not null" json:"amount_cents"`
	Description    string         `gorm:"size:255;not null" json:"description"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Line BudgetLine `gorm:"foreignKey:LineID" json:"-"`
}

func (BudgetEntry) TableName() string {
	return "budget_entries"
}

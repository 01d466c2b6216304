package models

import (
	"time"

	"gorm.io/gorm"
)

type StockItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Unit      string         `gorm:"size:16;not null" json:"unit"` // pc, m, kg...
	Quantity  int64          `gorm:"not null;default:0" json:"quantity"`
	MinLevel  int64          `gorm:"not null;default:0" json:"min_level"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (StockItem) TableName() string {
	return "stock_items"
}

func (s *StockItem) BelowMinimum() bool { return s.Quantity < s.MinLevel }

// StockMovement is an immutable IN/OUT record; the item quantity is adjusted
// in the same transaction that inserts the movement.
type StockMovement struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ItemID         uint           `gorm:"not null;index" json:"item_id"`
	CollaboratorID uint           `gorm:"not null;index" json:"collaborator_id"`
	TicketID       *uint          `gorm:"index" json:"ticket_id"` // set when parts were consumed by a ticket
	Type           string         `gorm:"size:8;not null;index" json:"type"` // IN | OUT
	Quantity       int64          `gorm:"not null" json:"quantity"`
	Reason         string         `gorm:"size:255" json:"reason"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Item StockItem `gorm:"foreignKey:ItemID" json:"-"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

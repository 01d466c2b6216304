package repository

import (
	"errors"

	"upkeep/internal/domain"
	"upkeep/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) CreateItem(s *models.StockItem) error {
	return r.db.Create(s).Error
}

func (r *StockRepository) GetItemByID(id uint) (*models.StockItem, error) {
	var s models.StockItem
	err := r.db.First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StockRepository) UpdateItem(s *models.StockItem) error {
	return r.db.Save(s).Error
}

func (r *StockRepository) ListItems(limit, offset int) ([]models.StockItem, error) {
	var list []models.StockItem
	err := r.db.Order("name ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ListBelowMinimum returns items whose quantity dropped under their minimum level.
func (r *StockRepository) ListBelowMinimum() ([]models.StockItem, error) {
	var list []models.StockItem
	err := r.db.Where("quantity < min_level").Order("name ASC").Find(&list).Error
	return list, err
}

// RecordMovement inserts the movement and adjusts the item quantity in one
// transaction, so the ledger of movements and the current quantity cannot
// diverge.
func (r *StockRepository) RecordMovement(m *models.StockMovement) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var item models.StockItem
		if err := tx.First(&item, m.ItemID).Error; err != nil {
			return err
		}
		delta := m.Quantity
		if m.Type == domain.MovementTypeOut {
			if item.Quantity < m.Quantity {
				return ErrInsufficientStock
			}
			delta = -m.Quantity
		}
		if err := tx.Model(&item).Update("quantity", item.Quantity+delta).Error; err != nil {
			return err
		}
		return tx.Create(m).Error
	})
}

func (r *StockRepository) ListMovements(itemID uint, limit, offset int) ([]models.StockMovement, error) {
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if itemID > 0 {
		q = q.Where("item_id = ?", itemID)
	}
	var list []models.StockMovement
	err := q.Find(&list).Error
	return list, err
}

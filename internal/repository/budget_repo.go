package repository

import (
	"upkeep/internal/models"

	"gorm.io/gorm"
)

type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) CreateLine(l *models.BudgetLine) error {
	return r.db.Create(l).Error
}

func (r *BudgetRepository) GetLineByID(id uint) (*models.BudgetLine, error) {
	var l models.BudgetLine
	err := r.db.First(&l, id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *BudgetRepository) ListLines(year int) ([]models.BudgetLine, error) {
	q := r.db.Order("sector ASC")
	if year > 0 {
		q = q.Where("year = ?", year)
	}
	var list []models.BudgetLine
	err := q.Find(&list).Error
	return list, err
}

func (r *BudgetRepository) CreateEntry(e *models.BudgetEntry) error {
	return r.db.Create(e).Error
}

func (r *BudgetRepository) ListEntries(lineID uint, limit, offset int) ([]models.BudgetEntry, error) {
	var list []models.BudgetEntry
	err := r.db.Where("line_id = ?", lineID).Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ConsumedCents sums the entries against a line; remaining budget is derived
// on read from this.
func (r *BudgetRepository) ConsumedCents(lineID uint) (int64, error) {
	var sum int64
	err := r.db.Model(&models.BudgetEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("line_id = ?", lineID).
		Scan(&sum).Error
	return sum, err
}

package repository

import (
	"upkeep/internal/models"

	"gorm.io/gorm"
)

type ActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) WithTx(tx *gorm.DB) *ActionRepository {
	return &ActionRepository{db: tx}
}

func (r *ActionRepository) Create(a *models.Action) error {
	return r.db.Create(a).Error
}

func (r *ActionRepository) GetByID(id uint) (*models.Action, error) {
	var a models.Action
	err := r.db.Preload("Detractor").First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActionRepository) ListByTicketID(ticketID uint) ([]models.Action, error) {
	var list []models.Action
	err := r.db.Where("ticket_id = ?", ticketID).Preload("Detractor").
		Order("created_at DESC").Find(&list).Error
	return list, err
}

// Detractors

func (r *ActionRepository) CreateDetractor(d *models.Detractor) error {
	return r.db.Create(d).Error
}

func (r *ActionRepository) GetDetractorByID(id uint) (*models.Detractor, error) {
	var d models.Detractor
	err := r.db.First(&d, id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *ActionRepository) ListDetractors() ([]models.Detractor, error) {
	var list []models.Detractor
	err := r.db.Order("name ASC").Find(&list).Error
	return list, err
}

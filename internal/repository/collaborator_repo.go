package repository

import (
	"upkeep/internal/models"

	"gorm.io/gorm"
)

type CollaboratorRepository struct {
	db *gorm.DB
}

func NewCollaboratorRepository(db *gorm.DB) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

func (r *CollaboratorRepository) Create(c *models.Collaborator) error {
	return r.db.Create(c).Error
}

func (r *CollaboratorRepository) GetByID(id uint) (*models.Collaborator, error) {
	var c models.Collaborator
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CollaboratorRepository) GetByEmail(email string) (*models.Collaborator, error) {
	var c models.Collaborator
	err := r.db.Where("email = ?", email).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CollaboratorRepository) GetByGoogleID(googleID string) (*models.Collaborator, error) {
	var c models.Collaborator
	err := r.db.Where("google_id = ?", googleID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CollaboratorRepository) Update(c *models.Collaborator) error {
	return r.db.Save(c).Error
}

func (r *CollaboratorRepository) List(limit, offset int) ([]models.Collaborator, error) {
	var list []models.Collaborator
	err := r.db.Order("name ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

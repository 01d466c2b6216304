package repository

import (
	"upkeep/internal/models"

	"gorm.io/gorm"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(d *models.Device) error {
	return r.db.Create(d).Error
}

func (r *DeviceRepository) GetByID(id uint) (*models.Device, error) {
	var d models.Device
	err := r.db.First(&d, id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DeviceRepository) GetByAssetTag(tag string) (*models.Device, error) {
	var d models.Device
	err := r.db.Where("asset_tag = ?", tag).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DeviceRepository) Update(d *models.Device) error {
	return r.db.Save(d).Error
}

func (r *DeviceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Device{}, id).Error
}

func (r *DeviceRepository) List(sector, status string, limit, offset int) ([]models.Device, error) {
	q := r.db.Order("name ASC").Limit(limit).Offset(offset)
	if sector != "" {
		q = q.Where("sector = ?", sector)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.Device
	err := q.Find(&list).Error
	return list, err
}

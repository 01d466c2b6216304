package repository

import (
	"time"

	"upkeep/internal/domain"
	"upkeep/internal/models"

	"gorm.io/gorm"
)

type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// CreateLog inserts the log together with its checklist items.
func (r *MaintenanceRepository) CreateLog(l *models.MaintenanceLog) error {
	return r.db.Create(l).Error
}

func (r *MaintenanceRepository) GetLogByID(id uint) (*models.MaintenanceLog, error) {
	var l models.MaintenanceLog
	err := r.db.Preload("Items").Preload("Device").First(&l, id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *MaintenanceRepository) ListLogs(deviceID uint, period string, limit, offset int) ([]models.MaintenanceLog, error) {
	q := r.db.Preload("Items").Order("created_at DESC").Limit(limit).Offset(offset)
	if deviceID > 0 {
		q = q.Where("device_id = ?", deviceID)
	}
	if period != "" {
		q = q.Where("period = ?", period)
	}
	var list []models.MaintenanceLog
	err := q.Find(&list).Error
	return list, err
}

func (r *MaintenanceRepository) SetItemDone(itemID uint, done bool) error {
	return r.db.Model(&models.ChecklistItem{}).Where("id = ?", itemID).
		Update("done", done).Error
}

// CloseLog marks the round DONE once every item is checked off.
func (r *MaintenanceRepository) CloseLog(id uint, closedAt time.Time) error {
	return r.db.Model(&models.MaintenanceLog{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    domain.MaintenanceStatusDone,
			"closed_at": closedAt,
		}).Error
}

func (r *MaintenanceRepository) CountPendingItems(logID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.ChecklistItem{}).
		Where("log_id = ? AND done = ?", logID, false).Count(&c).Error
	return c, err
}

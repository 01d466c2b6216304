package repository

import (
	"time"

	"upkeep/internal/domain"
	"upkeep/internal/models"

	"gorm.io/gorm"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) WithTx(tx *gorm.DB) *TicketRepository {
	return &TicketRepository{db: tx}
}

func (r *TicketRepository) Create(t *models.Ticket) error {
	return r.db.Create(t).Error
}

func (r *TicketRepository) GetByID(id uint) (*models.Ticket, error) {
	var t models.Ticket
	err := r.db.Preload("Device").Preload("Action").Preload("Action.Detractor").First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) List(status string, limit, offset int) ([]models.Ticket, error) {
	q := r.db.Preload("Device").Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.Ticket
	err := q.Find(&list).Error
	return list, err
}

func (r *TicketRepository) ListByDeviceID(deviceID uint, limit, offset int) ([]models.Ticket, error) {
	var list []models.Ticket
	err := r.db.Where("device_id = ?", deviceID).Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// MarkInProgress flips the ticket to IN_PROGRESS and stamps the attendance
// start time.
func (r *TicketRepository) MarkInProgress(id uint, startedAt time.Time) error {
	return r.db.Model(&models.Ticket{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           domain.TicketStatusInProgress,
			"attendance_start": startedAt,
			"attendance_end":   nil,
		}).Error
}

// MarkClosed closes the ticket with its outcome action and end stamp.
func (r *TicketRepository) MarkClosed(id, actionID uint, endedAt time.Time) error {
	return r.db.Model(&models.Ticket{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         domain.TicketStatusClosed,
			"action_id":      actionID,
			"attendance_end": endedAt,
		}).Error
}

// MarkOpen reverts the ticket to OPEN, clearing any attendance stamp.
func (r *TicketRepository) MarkOpen(id uint) error {
	return r.db.Model(&models.Ticket{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           domain.TicketStatusOpen,
			"attendance_start": nil,
			"attendance_end":   nil,
		}).Error
}

// ListInProgressIDs returns ids of tickets currently marked IN_PROGRESS.
func (r *TicketRepository) ListInProgressIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Ticket{}).Where("status = ?", domain.TicketStatusInProgress).
		Pluck("id", &ids).Error
	return ids, err
}

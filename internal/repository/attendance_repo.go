package repository

import (
	"time"

	"upkeep/internal/models"

	"gorm.io/gorm"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *AttendanceRepository) WithTx(tx *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: tx}
}

func (r *AttendanceRepository) Create(a *models.Attendance) error {
	return r.db.Create(a).Error
}

// GetOpenByTicket returns the open attendance for a ticket, or nil if there is
// none. If duplicate open rows exist the most recent by id wins.
func (r *AttendanceRepository) GetOpenByTicket(ticketID uint) (*models.Attendance, error) {
	var a models.Attendance
	err := r.db.Where("ticket_id = ? AND ended_at IS NULL", ticketID).
		Order("id DESC").First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GetOpenByCollaborator returns the collaborator's open attendance, or nil.
func (r *AttendanceRepository) GetOpenByCollaborator(collaboratorID uint) (*models.Attendance, error) {
	var a models.Attendance
	err := r.db.Where("collaborator_id = ? AND ended_at IS NULL", collaboratorID).
		Order("id DESC").First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Close stamps the end of one attendance row and clears its open marker.
func (r *AttendanceRepository) Close(id uint, endedAt time.Time) error {
	return r.db.Model(&models.Attendance{}).Where("id = ?", id).
		Updates(map[string]interface{}{"ended_at": endedAt, "open": nil}).Error
}

// DeleteOpenByTicket removes the open attendance row(s) for a ticket
// outright. Cancellation discards the partial session instead of closing it,
// so the delete bypasses soft-delete and leaves no history. Returns the
// number of rows removed.
func (r *AttendanceRepository) DeleteOpenByTicket(ticketID uint) (int64, error) {
	res := r.db.Unscoped().Where("ticket_id = ? AND ended_at IS NULL", ticketID).
		Delete(&models.Attendance{})
	return res.RowsAffected, res.Error
}

// ActiveAttendanceRow is one ticket's open attendance enriched for display.
type ActiveAttendanceRow struct {
	AttendanceID     uint      `json:"attendance_id"`
	TicketID         uint      `json:"ticket_id"`
	CollaboratorID   uint      `json:"collaborator_id"`
	CollaboratorName string    `json:"collaborator_name"`
	DeviceName       string    `json:"device_name"`
	Problem          string    `json:"problem"`
	StartedAt        time.Time `json:"started_at"`
}

// ListActive returns one row per ticket with an open attendance. The subquery
// keeps only the highest-id open row per ticket, so the result stays sane
// even if duplicate open rows ever exist.
func (r *AttendanceRepository) ListActive() ([]ActiveAttendanceRow, error) {
	var list []ActiveAttendanceRow
	err := r.db.Table("attendances a").
		Select("a.id AS attendance_id, a.ticket_id, a.collaborator_id, c.name AS collaborator_name, d.name AS device_name, t.problem, a.started_at").
		Joins("INNER JOIN collaborators c ON c.id = a.collaborator_id").
		Joins("INNER JOIN tickets t ON t.id = a.ticket_id").
		Joins("INNER JOIN devices d ON d.id = t.device_id").
		Where("a.ended_at IS NULL AND a.deleted_at IS NULL").
		Where("a.id = (SELECT MAX(a2.id) FROM attendances a2 WHERE a2.ticket_id = a.ticket_id AND a2.ended_at IS NULL AND a2.deleted_at IS NULL)").
		Order("a.started_at ASC").
		Scan(&list).Error
	return list, err
}

// FindOpenViewByTicket returns the enriched open attendance for a ticket, or
// nil when the ticket is unattended.
func (r *AttendanceRepository) FindOpenViewByTicket(ticketID uint) (*ActiveAttendanceRow, error) {
	var row ActiveAttendanceRow
	res := r.db.Table("attendances a").
		Select("a.id AS attendance_id, a.ticket_id, a.collaborator_id, c.name AS collaborator_name, d.name AS device_name, t.problem, a.started_at").
		Joins("INNER JOIN collaborators c ON c.id = a.collaborator_id").
		Joins("INNER JOIN tickets t ON t.id = a.ticket_id").
		Joins("INNER JOIN devices d ON d.id = t.device_id").
		Where("a.ticket_id = ? AND a.ended_at IS NULL AND a.deleted_at IS NULL", ticketID).
		Order("a.id DESC").
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

// FindOpenViewByCollaborator returns the collaborator's enriched open
// attendance, or nil.
func (r *AttendanceRepository) FindOpenViewByCollaborator(collaboratorID uint) (*ActiveAttendanceRow, error) {
	var row ActiveAttendanceRow
	res := r.db.Table("attendances a").
		Select("a.id AS attendance_id, a.ticket_id, a.collaborator_id, c.name AS collaborator_name, d.name AS device_name, t.problem, a.started_at").
		Joins("INNER JOIN collaborators c ON c.id = a.collaborator_id").
		Joins("INNER JOIN tickets t ON t.id = a.ticket_id").
		Joins("INNER JOIN devices d ON d.id = t.device_id").
		Where("a.collaborator_id = ? AND a.ended_at IS NULL AND a.deleted_at IS NULL", collaboratorID).
		Order("a.id DESC").
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

// ListOrphans returns open rows outside the staleness window: started before
// cutoff or after now (future-dated rows cover clock-skew bugs). Scope to one
// ticket with ticketID > 0.
func (r *AttendanceRepository) ListOrphans(ticketID uint, cutoff, now time.Time) ([]models.Attendance, error) {
	q := r.db.Where("ended_at IS NULL").
		Where("started_at < ? OR started_at > ?", cutoff, now)
	if ticketID > 0 {
		q = q.Where("ticket_id = ?", ticketID)
	}
	var list []models.Attendance
	err := q.Find(&list).Error
	return list, err
}

package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"upkeep/internal/domain"
	"upkeep/internal/models"
	"upkeep/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrNoOpenAttendance = errors.New("no open attendance for ticket")
	ErrUnknownDetractor = errors.New("unknown detractor")
)

// ConflictError is an expected, user-facing refusal: the ticket or the
// collaborator is already taken. The reason names the blocking party so the
// caller can act on it.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// ValidationError is a bad-input refusal (empty note, unknown detractor...).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// AttendanceService is the only write path to attendance rows. Every
// multi-statement mutation runs inside one DB transaction; the composite
// unique indexes on the attendances table are the backstop for the
// check-then-act windows the preconditions leave open.
type AttendanceService struct {
	db              *gorm.DB
	attendanceRepo  *repository.AttendanceRepository
	ticketRepo      *repository.TicketRepository
	actionRepo      *repository.ActionRepository
	collabRepo      *repository.CollaboratorRepository
	stalenessWindow time.Duration

	now func() time.Time
}

func NewAttendanceService(
	db *gorm.DB,
	attendanceRepo *repository.AttendanceRepository,
	ticketRepo *repository.TicketRepository,
	actionRepo *repository.ActionRepository,
	collabRepo *repository.CollaboratorRepository,
	stalenessWindow time.Duration,
) *AttendanceService {
	return &AttendanceService{
		db:              db,
		attendanceRepo:  attendanceRepo,
		ticketRepo:      ticketRepo,
		actionRepo:      actionRepo,
		collabRepo:      collabRepo,
		stalenessWindow: stalenessWindow,
		now:             time.Now,
	}
}

// Start opens an attendance for the collaborator on the ticket and flips the
// ticket to IN_PROGRESS. Stale open rows scoped to this ticket are reconciled
// first so a dead session never blocks a legitimate start.
func (s *AttendanceService) Start(ticketID, collaboratorID uint) (*repository.ActiveAttendanceRow, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()
		aRepo := s.attendanceRepo.WithTx(tx)
		tRepo := s.ticketRepo.WithTx(tx)

		if err := s.sweepTicketTx(tx, ticketID, now); err != nil {
			return err
		}

		ticket, err := tRepo.GetByID(ticketID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if ticket.Status == domain.TicketStatusClosed {
			return &ConflictError{Reason: "ticket is already closed"}
		}

		if open, err := aRepo.GetOpenByCollaborator(collaboratorID); err != nil {
			return err
		} else if open != nil {
			return &ConflictError{Reason: fmt.Sprintf("you are already attending ticket %d", open.TicketID)}
		}

		if open, err := aRepo.GetOpenByTicket(ticketID); err != nil {
			return err
		} else if open != nil {
			name := s.collaboratorName(tx, open.CollaboratorID)
			return &ConflictError{Reason: fmt.Sprintf("ticket is already being attended by %s", name)}
		}

		a := &models.Attendance{
			TicketID:       ticketID,
			CollaboratorID: collaboratorID,
			Open:           models.OpenFlag(),
			StartedAt:      now,
		}
		if err := aRepo.Create(a); err != nil {
			return err
		}
		return tRepo.MarkInProgress(ticketID, now)
	})
	if err != nil {
		return nil, err
	}
	return s.attendanceRepo.FindOpenViewByTicket(ticketID)
}

// FinishResult reports a closed ticket.
type FinishResult struct {
	TicketID       uint      `json:"ticket_id"`
	CollaboratorID uint      `json:"collaborator_id"`
	ActionID       uint      `json:"action_id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
}

// Finish closes the open attendance, records the outcome action and closes
// the ticket, all in one transaction. A failure anywhere rolls back
// everything; the attendance can never end up closed with the ticket left
// in progress.
func (s *AttendanceService) Finish(ticketID, detractorID uint, note string) (*FinishResult, error) {
	note = strings.TrimSpace(note)
	if len(note) < domain.ActionNoteMinLen || len(note) > domain.ActionNoteMaxLen {
		return nil, &ValidationError{Reason: fmt.Sprintf("note must be %d-%d characters", domain.ActionNoteMinLen, domain.ActionNoteMaxLen)}
	}
	var result *FinishResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()
		aRepo := s.attendanceRepo.WithTx(tx)
		tRepo := s.ticketRepo.WithTx(tx)
		acRepo := s.actionRepo.WithTx(tx)

		if _, err := acRepo.GetDetractorByID(detractorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ValidationError{Reason: ErrUnknownDetractor.Error()}
			}
			return err
		}

		open, err := aRepo.GetOpenByTicket(ticketID)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenAttendance
		}

		if err := aRepo.Close(open.ID, now); err != nil {
			return err
		}
		action := &models.Action{
			TicketID:       ticketID,
			CollaboratorID: open.CollaboratorID,
			DetractorID:    detractorID,
			Note:           note,
		}
		if err := acRepo.Create(action); err != nil {
			return err
		}
		if err := tRepo.MarkClosed(ticketID, action.ID, now); err != nil {
			return err
		}
		result = &FinishResult{
			TicketID:       ticketID,
			CollaboratorID: open.CollaboratorID,
			ActionID:       action.ID,
			StartedAt:      open.StartedAt,
			EndedAt:        now,
			ElapsedSeconds: open.ElapsedSeconds(now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel discards the open attendance and reverts the ticket to OPEN. A
// ticket with no open attendance is a no-op and reports false, not an error,
// so cancel is safe to repeat.
func (s *AttendanceService) Cancel(ticketID uint) (bool, error) {
	cancelled := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		aRepo := s.attendanceRepo.WithTx(tx)
		tRepo := s.ticketRepo.WithTx(tx)
		n, err := aRepo.DeleteOpenByTicket(ticketID)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		cancelled = true
		return tRepo.MarkOpen(ticketID)
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}

// TransferResult reports a completed handoff. The new open row keeps the
// original start timestamp, so elapsed time keeps counting from the first
// collaborator's start.
type TransferResult struct {
	TicketID          uint      `json:"ticket_id"`
	FromID            uint      `json:"from_collaborator_id"`
	ToID              uint      `json:"to_collaborator_id"`
	OriginalStartTime time.Time `json:"original_start_time"`
	PreservedSeconds  int64     `json:"preserved_seconds"`
}

// Transfer hands the ticket's open attendance from one collaborator to
// another without losing accrued time.
func (s *AttendanceService) Transfer(ticketID, fromCollaboratorID, toCollaboratorID uint) (*TransferResult, error) {
	var result *TransferResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()
		aRepo := s.attendanceRepo.WithTx(tx)

		open, err := aRepo.GetOpenByTicket(ticketID)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenAttendance
		}
		if open.CollaboratorID != fromCollaboratorID {
			name := s.collaboratorName(tx, open.CollaboratorID)
			return &ConflictError{Reason: fmt.Sprintf("ticket is being attended by %s, not by the requesting collaborator", name)}
		}
		if busy, err := aRepo.GetOpenByCollaborator(toCollaboratorID); err != nil {
			return err
		} else if busy != nil {
			name := s.collaboratorName(tx, toCollaboratorID)
			return &ConflictError{Reason: fmt.Sprintf("%s is already attending ticket %d", name, busy.TicketID)}
		}

		if err := aRepo.Close(open.ID, now); err != nil {
			return err
		}
		next := &models.Attendance{
			TicketID:       ticketID,
			CollaboratorID: toCollaboratorID,
			Open:           models.OpenFlag(),
			StartedAt:      open.StartedAt, // elapsed time survives the handoff
		}
		if err := aRepo.Create(next); err != nil {
			return err
		}
		result = &TransferResult{
			TicketID:          ticketID,
			FromID:            fromCollaboratorID,
			ToID:              toCollaboratorID,
			OriginalStartTime: open.StartedAt,
			PreservedSeconds:  open.ElapsedSeconds(now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AttendanceService) ListActive() ([]repository.ActiveAttendanceRow, error) {
	return s.attendanceRepo.ListActive()
}

func (s *AttendanceService) FindByTicket(ticketID uint) (*repository.ActiveAttendanceRow, error) {
	return s.attendanceRepo.FindOpenViewByTicket(ticketID)
}

func (s *AttendanceService) FindByCollaborator(collaboratorID uint) (*repository.ActiveAttendanceRow, error) {
	return s.attendanceRepo.FindOpenViewByCollaborator(collaboratorID)
}

// TimerSnapshot is the authoritative elapsed-time view pushed to clients.
type TimerSnapshot struct {
	TicketID         uint      `json:"ticket_id"`
	Seconds          int64     `json:"seconds"`
	CollaboratorID   uint      `json:"collaborator_id"`
	CollaboratorName string    `json:"collaborator_name"`
	StartTime        time.Time `json:"start_time"`
}

// TimerSnapshots recomputes elapsed seconds for every open attendance against
// the server clock.
func (s *AttendanceService) TimerSnapshots() ([]TimerSnapshot, error) {
	rows, err := s.attendanceRepo.ListActive()
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]TimerSnapshot, 0, len(rows))
	for _, r := range rows {
		secs := int64(now.Sub(r.StartedAt).Seconds())
		if secs < 0 {
			secs = 0
		}
		out = append(out, TimerSnapshot{
			TicketID:         r.TicketID,
			Seconds:          secs,
			CollaboratorID:   r.CollaboratorID,
			CollaboratorName: r.CollaboratorName,
			StartTime:        r.StartedAt,
		})
	}
	return out, nil
}

// sweepTicketTx force-closes orphaned open rows for one ticket (stale or
// future-dated starts) and reverts the ticket to OPEN when no open row
// remains, mirroring the reconciler's unscoped passes.
func (s *AttendanceService) sweepTicketTx(tx *gorm.DB, ticketID uint, now time.Time) error {
	aRepo := s.attendanceRepo.WithTx(tx)
	tRepo := s.ticketRepo.WithTx(tx)
	orphans, err := aRepo.ListOrphans(ticketID, now.Add(-s.stalenessWindow), now)
	if err != nil {
		return err
	}
	for _, o := range orphans {
		if err := aRepo.Close(o.ID, now); err != nil {
			return err
		}
	}
	var ticket models.Ticket
	if err := tx.First(&ticket, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // Start reports ErrTicketNotFound itself
		}
		return err
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil
	}
	open, err := aRepo.GetOpenByTicket(ticketID)
	if err != nil {
		return err
	}
	if open == nil {
		return tRepo.MarkOpen(ticketID)
	}
	return nil
}

func (s *AttendanceService) collaboratorName(tx *gorm.DB, id uint) string {
	var c models.Collaborator
	if err := tx.First(&c, id).Error; err != nil {
		return fmt.Sprintf("collaborator %d", id)
	}
	return c.Name
}

// SetClock overrides the service clock. Test hook.
func (s *AttendanceService) SetClock(now func() time.Time) {
	s.now = now
}

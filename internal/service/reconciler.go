package service

import (
	"context"
	"log"
	"time"

	"upkeep/internal/repository"
)

// Reconciler repairs drift between attendance rows and ticket status left by
// crashes, missed disconnects or clock anomalies. Neither a dropped socket
// nor a dead process closes an attendance row, so open rows are garbage
// collected on a time bound instead of being tied to connection lifetime.
//
// Both passes are idempotent and safe to run concurrently with live traffic.
type Reconciler struct {
	attendanceRepo  *repository.AttendanceRepository
	ticketRepo      *repository.TicketRepository
	stalenessWindow time.Duration
	interval        time.Duration

	now func() time.Time
}

func NewReconciler(
	attendanceRepo *repository.AttendanceRepository,
	ticketRepo *repository.TicketRepository,
	stalenessWindow, interval time.Duration,
) *Reconciler {
	return &Reconciler{
		attendanceRepo:  attendanceRepo,
		ticketRepo:      ticketRepo,
		stalenessWindow: stalenessWindow,
		interval:        interval,
		now:             time.Now,
	}
}

// Run sweeps once immediately, then on every tick until the context is done.
func (r *Reconciler) Run(ctx context.Context) {
	log.Printf("reconciler: sweeping every %s (staleness window %s)", r.interval, r.stalenessWindow)
	if err := r.Sweep(); err != nil {
		log.Printf("reconciler: startup sweep: %v", err)
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("reconciler: stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(); err != nil {
				log.Printf("reconciler: sweep: %v", err)
			}
		}
	}
}

// Sweep runs the staleness pass and the ticket-status pass.
func (r *Reconciler) Sweep() error {
	now := r.now()
	if err := r.sweepStale(now); err != nil {
		return err
	}
	return r.sweepTicketStatus()
}

// sweepStale closes open rows whose start is past the staleness window or in
// the future relative to the server clock.
func (r *Reconciler) sweepStale(now time.Time) error {
	orphans, err := r.attendanceRepo.ListOrphans(0, now.Add(-r.stalenessWindow), now)
	if err != nil {
		return err
	}
	for _, o := range orphans {
		if err := r.attendanceRepo.Close(o.ID, now); err != nil {
			return err
		}
		log.Printf("reconciler: closed orphan attendance %d (ticket %d, started %s)",
			o.ID, o.TicketID, o.StartedAt.Format(time.RFC3339))
	}
	return nil
}

// sweepTicketStatus reverts tickets stuck IN_PROGRESS with no open
// attendance. This repairs the window where an attendance was force-closed
// but the ticket's derived status was not updated with it.
func (r *Reconciler) sweepTicketStatus() error {
	ids, err := r.ticketRepo.ListInProgressIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		open, err := r.attendanceRepo.GetOpenByTicket(id)
		if err != nil {
			return err
		}
		if open != nil {
			continue
		}
		if err := r.ticketRepo.MarkOpen(id); err != nil {
			return err
		}
		log.Printf("reconciler: reverted ticket %d to open (no attendance)", id)
	}
	return nil
}

// SetClock overrides the reconciler clock. Test hook.
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

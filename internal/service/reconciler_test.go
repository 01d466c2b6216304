package service

import (
	"testing"
	"time"

	"upkeep/internal/domain"
	"upkeep/internal/models"
	"upkeep/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcilerFixture(t *testing.T) (*fixture, *Reconciler) {
	t.Helper()
	f := newFixture(t)
	rec := NewReconciler(
		repository.NewAttendanceRepository(f.db),
		repository.NewTicketRepository(f.db),
		24*time.Hour,
		time.Minute,
	)
	return f, rec
}

func TestSweepClosesStaleAttendances(t *testing.T) {
	f, rec := newReconcilerFixture(t)
	ticket := f.newTicket(t)

	stale := models.Attendance{
		TicketID:       ticket.ID,
		CollaboratorID: f.jane.ID,
		Open:           models.OpenFlag(),
		StartedAt:      time.Now().Add(-25 * time.Hour),
	}
	require.NoError(t, f.db.Create(&stale).Error)
	require.NoError(t, f.db.Model(&models.Ticket{}).Where("id = ?", ticket.ID).
		Update("status", domain.TicketStatusInProgress).Error)

	require.NoError(t, rec.Sweep())

	var row models.Attendance
	require.NoError(t, f.db.First(&row, stale.ID).Error)
	assert.NotNil(t, row.EndedAt)
	assert.Nil(t, row.Open)

	// ticket reverted by the status pass in the same sweep
	assert.Equal(t, domain.TicketStatusOpen, f.ticketStatus(t, ticket.ID))
}

func TestSweepClosesFutureDatedAttendances(t *testing.T) {
	f, rec := newReconcilerFixture(t)
	ticket := f.newTicket(t)

	skewed := models.Attendance{
		TicketID:       ticket.ID,
		CollaboratorID: f.jane.ID,
		Open:           models.OpenFlag(),
		StartedAt:      time.Now().Add(2 * time.Hour),
	}
	require.NoError(t, f.db.Create(&skewed).Error)

	require.NoError(t, rec.Sweep())

	var row models.Attendance
	require.NoError(t, f.db.First(&row, skewed.ID).Error)
	assert.NotNil(t, row.EndedAt)
}

func TestSweepLeavesHealthyAttendancesAlone(t *testing.T) {
	f, rec := newReconcilerFixture(t)
	ticket := f.newTicket(t)

	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	require.NoError(t, rec.Sweep())

	assert.EqualValues(t, 1, f.openRowCount(t, ticket.ID))
	assert.Equal(t, domain.TicketStatusInProgress, f.ticketStatus(t, ticket.ID))
}

func TestSweepRevertsOrphanedInProgressTicket(t *testing.T) {
	f, rec := newReconcilerFixture(t)
	ticket := f.newTicket(t)

	// IN_PROGRESS with no attendance row at all: crash between delete and revert
	require.NoError(t, f.db.Model(&models.Ticket{}).Where("id = ?", ticket.ID).
		Update("status", domain.TicketStatusInProgress).Error)

	require.NoError(t, rec.Sweep())
	assert.Equal(t, domain.TicketStatusOpen, f.ticketStatus(t, ticket.ID))
}

func TestSweepWithInjectedClock(t *testing.T) {
	f, rec := newReconcilerFixture(t)
	ticket := f.newTicket(t)

	t0 := time.Now()
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	// jump the reconciler clock past the window; the row becomes stale
	rec.SetClock(func() time.Time { return t0.Add(25 * time.Hour) })
	require.NoError(t, rec.Sweep())

	assert.EqualValues(t, 0, f.openRowCount(t, ticket.ID))
	assert.Equal(t, domain.TicketStatusOpen, f.ticketStatus(t, ticket.ID))
}

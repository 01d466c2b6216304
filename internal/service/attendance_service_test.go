package service

import (
	"testing"
	"time"

	"upkeep/internal/database"
	"upkeep/internal/domain"
	"upkeep/internal/models"
	"upkeep/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a fresh pool connection would see a fresh empty :memory: database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

type fixture struct {
	db  *gorm.DB
	svc *AttendanceService

	jane   models.Collaborator
	bob    models.Collaborator
	device models.Device
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db}
	f.svc = NewAttendanceService(
		db,
		repository.NewAttendanceRepository(db),
		repository.NewTicketRepository(db),
		repository.NewActionRepository(db),
		repository.NewCollaboratorRepository(db),
		24*time.Hour,
	)
	f.jane = models.Collaborator{Name: "Jane Doe", Email: "jane@upkeep.local", Role: domain.RoleTechnician}
	f.bob = models.Collaborator{Name: "Bob Stone", Email: "bob@upkeep.local", Role: domain.RoleTechnician}
	require.NoError(t, db.Create(&f.jane).Error)
	require.NoError(t, db.Create(&f.bob).Error)
	f.device = models.Device{AssetTag: "DEV-001", Name: "Conveyor A", Status: domain.DeviceStatusActive}
	require.NoError(t, db.Create(&f.device).Error)
	require.NoError(t, db.Create(&models.Detractor{Name: "Electrical"}).Error)
	return f
}

func (f *fixture) newTicket(t *testing.T) models.Ticket {
	t.Helper()
	ticket := models.Ticket{
		DeviceID:   f.device.ID,
		ReporterID: f.jane.ID,
		Problem:    "belt misaligned",
		Priority:   domain.TicketPriorityMedium,
		Status:     domain.TicketStatusOpen,
	}
	require.NoError(t, f.db.Create(&ticket).Error)
	return ticket
}

func (f *fixture) ticketStatus(t *testing.T, id uint) string {
	t.Helper()
	var ticket models.Ticket
	require.NoError(t, f.db.First(&ticket, id).Error)
	return ticket.Status
}

func (f *fixture) openRowCount(t *testing.T, ticketID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Attendance{}).
		Where("ticket_id = ? AND ended_at IS NULL", ticketID).Count(&n).Error)
	return n
}

func TestStartClaimsTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)

	row, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, f.jane.ID, row.CollaboratorID)
	assert.Equal(t, "Jane Doe", row.CollaboratorName)
	assert.Equal(t, domain.TicketStatusInProgress, f.ticketStatus(t, ticket.ID))
	assert.EqualValues(t, 1, f.openRowCount(t, ticket.ID))
}

func TestStartTwiceSameTicketConflicts(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)

	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(ticket.ID, f.bob.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "Jane Doe")

	// exactly one open row survives either outcome
	assert.EqualValues(t, 1, f.openRowCount(t, ticket.ID))
}

func TestStartSecondTicketSameCollaboratorConflicts(t *testing.T) {
	f := newFixture(t)
	ticketA := f.newTicket(t)
	ticketB := f.newTicket(t)

	_, err := f.svc.Start(ticketA.ID, f.jane.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(ticketB.ID, f.jane.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "already attending")
	assert.EqualValues(t, 0, f.openRowCount(t, ticketB.ID))
	assert.Equal(t, domain.TicketStatusOpen, f.ticketStatus(t, ticketB.ID))
}

func TestStartUnknownTicket(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Start(9999, f.jane.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestStartClosedTicketConflicts(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	require.NoError(t, f.db.Model(&models.Ticket{}).Where("id = ?", ticket.ID).
		Update("status", domain.TicketStatusClosed).Error)

	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestStartSweepsStaleRowFirst(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)

	// a 25h old open row left by a dead session must not block a new start
	stale := models.Attendance{
		TicketID:       ticket.ID,
		CollaboratorID: f.bob.ID,
		Open:           models.OpenFlag(),
		StartedAt:      time.Now().Add(-25 * time.Hour),
	}
	require.NoError(t, f.db.Create(&stale).Error)
	require.NoError(t, f.db.Model(&models.Ticket{}).Where("id = ?", ticket.ID).
		Update("status", domain.TicketStatusInProgress).Error)

	row, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)
	assert.Equal(t, f.jane.ID, row.CollaboratorID)

	var closed models.Attendance
	require.NoError(t, f.db.First(&closed, stale.ID).Error)
	assert.NotNil(t, closed.EndedAt)
	assert.EqualValues(t, 1, f.openRowCount(t, ticket.ID))
}

func TestFinishClosesEverything(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	res, err := f.svc.Finish(ticket.ID, 1, "fixed cable")
	require.NoError(t, err)
	assert.Equal(t, f.jane.ID, res.CollaboratorID)
	assert.NotZero(t, res.ActionID)

	assert.Equal(t, domain.TicketStatusClosed, f.ticketStatus(t, ticket.ID))
	assert.EqualValues(t, 0, f.openRowCount(t, ticket.ID))

	var action models.Action
	require.NoError(t, f.db.First(&action, res.ActionID).Error)
	assert.Equal(t, ticket.ID, action.TicketID)
	assert.Equal(t, "fixed cable", action.Note)
	assert.EqualValues(t, 1, action.DetractorID)

	var updated models.Ticket
	require.NoError(t, f.db.First(&updated, ticket.ID).Error)
	require.NotNil(t, updated.ActionID)
	assert.Equal(t, res.ActionID, *updated.ActionID)
	assert.NotNil(t, updated.AttendanceEnd)
}

func TestFinishWithoutAttendance(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Finish(ticket.ID, 1, "nothing to do")
	assert.ErrorIs(t, err, ErrNoOpenAttendance)
}

func TestFinishNoteValidation(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	var validation *ValidationError
	_, err = f.svc.Finish(ticket.ID, 1, "   ")
	assert.ErrorAs(t, err, &validation)

	long := make([]byte, 251)
	for i := range long {
		long[i] = 'x'
	}
	_, err = f.svc.Finish(ticket.ID, 1, string(long))
	assert.ErrorAs(t, err, &validation)

	// attendance untouched by rejected notes
	assert.EqualValues(t, 1, f.openRowCount(t, ticket.ID))
}

func TestFinishUnknownDetractor(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	var validation *ValidationError
	_, err = f.svc.Finish(ticket.ID, 42, "done")
	assert.ErrorAs(t, err, &validation)
	assert.EqualValues(t, 1, f.openRowCount(t, ticket.ID))
}

func TestFinishRollsBackOnActionFailure(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	// make the outcome insert fail after the attendance close
	require.NoError(t, f.db.Migrator().DropTable(&models.Action{}))

	_, err = f.svc.Finish(ticket.ID, 1, "fixed cable")
	require.Error(t, err)

	// no partial close: attendance still open, ticket still in progress
	assert.EqualValues(t, 1, f.openRowCount(t, ticket.ID))
	assert.Equal(t, domain.TicketStatusInProgress, f.ticketStatus(t, ticket.ID))
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ticket.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Equal(t, domain.TicketStatusOpen, f.ticketStatus(t, ticket.ID))
	assert.EqualValues(t, 0, f.openRowCount(t, ticket.ID))

	// an abandoned session leaves no history at all
	var total int64
	require.NoError(t, f.db.Unscoped().Model(&models.Attendance{}).
		Where("ticket_id = ?", ticket.ID).Count(&total).Error)
	assert.EqualValues(t, 0, total)

	cancelled, err = f.svc.Cancel(ticket.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Equal(t, domain.TicketStatusOpen, f.ticketStatus(t, ticket.ID))
}

func TestCancelClearsAttendanceStamp(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ticket.ID)
	require.NoError(t, err)

	var updated models.Ticket
	require.NoError(t, f.db.First(&updated, ticket.ID).Error)
	assert.Nil(t, updated.AttendanceStart)
}

func TestTransferPreservesElapsedTime(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)

	t0 := time.Now().Add(-300 * time.Second).Truncate(time.Second)
	clock := t0
	f.svc.SetClock(func() time.Time { return clock })

	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	clock = t0.Add(300 * time.Second)
	res, err := f.svc.Transfer(ticket.ID, f.jane.ID, f.bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 300, res.PreservedSeconds)
	assert.True(t, res.OriginalStartTime.Equal(t0))

	// the new open row keeps counting from t0
	open, err := f.svc.FindByTicket(ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, f.bob.ID, open.CollaboratorID)
	assert.True(t, open.StartedAt.Equal(t0))

	clock = t0.Add(500 * time.Second)
	fin, err := f.svc.Finish(ticket.ID, 1, "replaced belt")
	require.NoError(t, err)
	assert.EqualValues(t, 500, fin.ElapsedSeconds)
}

func TestTransferRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	_, err = f.svc.Transfer(ticket.ID, f.bob.ID, f.jane.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "Jane Doe")
}

func TestTransferToBusyCollaboratorConflicts(t *testing.T) {
	f := newFixture(t)
	ticketA := f.newTicket(t)
	ticketB := f.newTicket(t)
	_, err := f.svc.Start(ticketA.ID, f.jane.ID)
	require.NoError(t, err)
	_, err = f.svc.Start(ticketB.ID, f.bob.ID)
	require.NoError(t, err)

	_, err = f.svc.Transfer(ticketA.ID, f.jane.ID, f.bob.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "Bob Stone")

	// nothing moved
	open, err := f.svc.FindByTicket(ticketA.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, f.jane.ID, open.CollaboratorID)
}

func TestTransferWithoutAttendance(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	_, err := f.svc.Transfer(ticket.ID, f.jane.ID, f.bob.ID)
	assert.ErrorIs(t, err, ErrNoOpenAttendance)
}

func TestTimerSnapshots(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)

	t0 := time.Now().Add(-120 * time.Second)
	clock := t0
	f.svc.SetClock(func() time.Time { return clock })
	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)

	clock = t0.Add(120 * time.Second)
	snaps, err := f.svc.TimerSnapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, ticket.ID, snaps[0].TicketID)
	assert.EqualValues(t, 120, snaps[0].Seconds)
	assert.Equal(t, "Jane Doe", snaps[0].CollaboratorName)
}

func TestFullScenario(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)

	_, err := f.svc.Start(ticket.ID, f.jane.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, f.ticketStatus(t, ticket.ID))

	_, err = f.svc.Start(ticket.ID, f.bob.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	res, err := f.svc.Finish(ticket.ID, 1, "fixed cable")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, f.ticketStatus(t, ticket.ID))

	var action models.Action
	require.NoError(t, f.db.First(&action, res.ActionID).Error)
	assert.EqualValues(t, 1, action.DetractorID)
}

package repository

import (
	"testing"
	"time"

	"upkeep/internal/database"
	"upkeep/internal/domain"
	"upkeep/internal/models"

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
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedTicket(t *testing.T, db *gorm.DB) (models.Ticket, models.Collaborator, models.Collaborator) {
	t.Helper()
	jane := models.Collaborator{Name: "Jane Doe", Email: "jane@upkeep.local", Role: domain.RoleTechnician}
	bob := models.Collaborator{Name: "Bob Stone", Email: "bob@upkeep.local", Role: domain.RoleTechnician}
	require.NoError(t, db.Create(&jane).Error)
	require.NoError(t, db.Create(&bob).Error)
	device := models.Device{AssetTag: "DEV-001", Name: "Conveyor A", Status: domain.DeviceStatusActive}
	require.NoError(t, db.Create(&device).Error)
	ticket := models.Ticket{
		DeviceID:   device.ID,
		ReporterID: jane.ID,
		Problem:    "belt misaligned",
		Priority:   domain.TicketPriorityMedium,
		Status:     domain.TicketStatusOpen,
	}
	require.NoError(t, db.Create(&ticket).Error)
	return ticket, jane, bob
}

func TestOpenRowUniquePerTicket(t *testing.T) {
	db := newTestDB(t)
	ticket, jane, bob := seedTicket(t, db)
	repo := NewAttendanceRepository(db)

	first := models.Attendance{TicketID: ticket.ID, CollaboratorID: jane.ID, Open: models.OpenFlag(), StartedAt: time.Now()}
	require.NoError(t, repo.Create(&first))

	// the composite unique index rejects a second open row for the ticket
	second := models.Attendance{TicketID: ticket.ID, CollaboratorID: bob.ID, Open: models.OpenFlag(), StartedAt: time.Now()}
	assert.Error(t, repo.Create(&second))

	// closing the first frees the slot
	require.NoError(t, repo.Close(first.ID, time.Now()))
	assert.NoError(t, repo.Create(&second))
}

func TestOpenRowUniquePerCollaborator(t *testing.T) {
	db := newTestDB(t)
	ticketA, jane, _ := seedTicket(t, db)
	repo := NewAttendanceRepository(db)

	ticketB := models.Ticket{DeviceID: ticketA.DeviceID, ReporterID: jane.ID, Problem: "noise", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusOpen}
	require.NoError(t, db.Create(&ticketB).Error)

	require.NoError(t, repo.Create(&models.Attendance{
		TicketID: ticketA.ID, CollaboratorID: jane.ID, Open: models.OpenFlag(), StartedAt: time.Now(),
	}))
	err := repo.Create(&models.Attendance{
		TicketID: ticketB.ID, CollaboratorID: jane.ID, Open: models.OpenFlag(), StartedAt: time.Now(),
	})
	assert.Error(t, err)
}

func TestListActiveDeduplicates(t *testing.T) {
	db := newTestDB(t)
	ticket, jane, bob := seedTicket(t, db)
	repo := NewAttendanceRepository(db)

	older := models.Attendance{TicketID: ticket.ID, CollaboratorID: jane.ID, Open: models.OpenFlag(), StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(&older))

	// simulate a duplicate open row that slipped past enforcement: the open
	// marker is NULL so the unique index does not see it, but ended_at is
	// NULL so queries still treat it as open
	dup := models.Attendance{TicketID: ticket.ID, CollaboratorID: bob.ID, StartedAt: time.Now()}
	require.NoError(t, repo.Create(&dup))

	rows, err := repo.ListActive()
	require.NoError(t, err)
	require.Len(t, rows, 1, "one row per ticket even with duplicate open rows")
	assert.Equal(t, dup.ID, rows[0].AttendanceID, "highest id wins")
	assert.Equal(t, bob.ID, rows[0].CollaboratorID)
	assert.Equal(t, "Conveyor A", rows[0].DeviceName)
}

func TestGetOpenByTicketPrefersNewest(t *testing.T) {
	db := newTestDB(t)
	ticket, jane, bob := seedTicket(t, db)
	repo := NewAttendanceRepository(db)

	require.NoError(t, repo.Create(&models.Attendance{
		TicketID: ticket.ID, CollaboratorID: jane.ID, Open: models.OpenFlag(), StartedAt: time.Now().Add(-time.Hour),
	}))
	dup := models.Attendance{TicketID: ticket.ID, CollaboratorID: bob.ID, StartedAt: time.Now()}
	require.NoError(t, repo.Create(&dup))

	open, err := repo.GetOpenByTicket(ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, dup.ID, open.ID)
}

func TestFindOpenViewMissesReturnNil(t *testing.T) {
	db := newTestDB(t)
	ticket, jane, _ := seedTicket(t, db)
	repo := NewAttendanceRepository(db)

	row, err := repo.FindOpenViewByTicket(ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, row)

	row, err = repo.FindOpenViewByCollaborator(jane.ID)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestListOrphansScoping(t *testing.T) {
	db := newTestDB(t)
	ticketA, jane, bob := seedTicket(t, db)
	ticketB := models.Ticket{DeviceID: ticketA.DeviceID, ReporterID: jane.ID, Problem: "leak", Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusOpen}
	require.NoError(t, db.Create(&ticketB).Error)
	repo := NewAttendanceRepository(db)

	now := time.Now()
	staleA := models.Attendance{TicketID: ticketA.ID, CollaboratorID: jane.ID, Open: models.OpenFlag(), StartedAt: now.Add(-30 * time.Hour)}
	staleB := models.Attendance{TicketID: ticketB.ID, CollaboratorID: bob.ID, Open: models.OpenFlag(), StartedAt: now.Add(-30 * time.Hour)}
	require.NoError(t, repo.Create(&staleA))
	require.NoError(t, repo.Create(&staleB))

	all, err := repo.ListOrphans(0, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := repo.ListOrphans(ticketA.ID, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, staleA.ID, scoped[0].ID)
}

func TestDeleteOpenByTicketReportsRows(t *testing.T) {
	db := newTestDB(t)
	ticket, jane, _ := seedTicket(t, db)
	repo := NewAttendanceRepository(db)

	n, err := repo.DeleteOpenByTicket(ticket.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	require.NoError(t, repo.Create(&models.Attendance{
		TicketID: ticket.ID, CollaboratorID: jane.ID, Open: models.OpenFlag(), StartedAt: time.Now(),
	}))
	n, err = repo.DeleteOpenByTicket(ticket.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var total int64
	require.NoError(t, db.Unscoped().Model(&models.Attendance{}).Count(&total).Error)
	assert.EqualValues(t, 0, total)
}

package repository

import (
	"testing"

	"upkeep/internal/domain"
	"upkeep/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedStockItem(t *testing.T, db *gorm.DB, qty int64) models.StockItem {
	t.Helper()
	item := models.StockItem{Name: "V-belt A42", Unit: "pc", Quantity: qty, MinLevel: 2}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func TestRecordMovementAdjustsQuantity(t *testing.T) {
	db := newTestDB(t)
	repo := NewStockRepository(db)
	item := seedStockItem(t, db, 10)

	require.NoError(t, repo.RecordMovement(&models.StockMovement{
		ItemID: item.ID, CollaboratorID: 1, Type: domain.MovementTypeOut, Quantity: 4,
	}))
	require.NoError(t, repo.RecordMovement(&models.StockMovement{
		ItemID: item.ID, CollaboratorID: 1, Type: domain.MovementTypeIn, Quantity: 1,
	}))

	got, err := repo.GetItemByID(item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.Quantity)

	moves, err := repo.ListMovements(item.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, moves, 2)
}

func TestRecordMovementRejectsOverdraw(t *testing.T) {
	db := newTestDB(t)
	repo := NewStockRepository(db)
	item := seedStockItem(t, db, 3)

	err := repo.RecordMovement(&models.StockMovement{
		ItemID: item.ID, CollaboratorID: 1, Type: domain.MovementTypeOut, Quantity: 5,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// quantity untouched, no movement recorded
	got, err := repo.GetItemByID(item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Quantity)

	moves, err := repo.ListMovements(item.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestListBelowMinimum(t *testing.T) {
	db := newTestDB(t)
	repo := NewStockRepository(db)

	low := models.StockItem{Name: "Fuse 10A", Unit: "pc", Quantity: 1, MinLevel: 5}
	ok := models.StockItem{Name: "Grease", Unit: "kg", Quantity: 8, MinLevel: 2}
	require.NoError(t, db.Create(&low).Error)
	require.NoError(t, db.Create(&ok).Error)

	items, err := repo.ListBelowMinimum()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fuse 10A", items[0].Name)
	assert.True(t, items[0].BelowMinimum())
}

package database

import (
	"log"

	"upkeep/config"
	"upkeep/internal/domain"
	"upkeep/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Collaborator{},
		&models.Device{},
		&models.Ticket{},
		&models.Attendance{},
		&models.Detractor{},
		&models.Action{},
		&models.MaintenanceLog{},
		&models.ChecklistItem{},
		&models.StockItem{},
		&models.StockMovement{},
		&models.BudgetLine{},
		&models.BudgetEntry{},
	)
}

// SeedAdmin creates the default admin account if no collaborator exists yet.
func SeedAdmin(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.Collaborator{}).Count(&count).Error; err != nil || count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	admin := &models.Collaborator{
		Name:         "Administrator",
		Email:        "admin@upkeep.local",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("seed admin: %v", err)
		return
	}
	log.Printf("seeded admin account %s (change the password)", admin.Email)
}

package database

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/cardscout/internal/models"
)

var DB *gorm.DB

// Open connects to the SQLite file at dbPath and migrates the price
// history schema. ":memory:" works for tests.
func Open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.PriceSnapshot{}); err != nil {
		return nil, err
	}
	return db, nil
}

// Initialize opens the history database and keeps it as the package DB.
func Initialize(dbPath string) error {
	db, err := Open(dbPath)
	if err != nil {
		return err
	}
	DB = db

	log.Printf("Database connected and migrated: %s", dbPath)
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// Close releases the package DB, if one was opened.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

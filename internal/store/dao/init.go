package dao

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/levi616boop/AI-content-gen/internal/store/model"
)

var db *gorm.DB

// Init opens (or creates) the sqlite history database and migrates the
// schema. Must be called once before any DAO is used.
func Init(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	database, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(
		&model.Job{},
		&model.StageExecution{},
		&model.UploadRecord{},
		&model.TopicMetric{},
	); err != nil {
		return err
	}
	db = database
	return nil
}

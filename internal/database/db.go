package database

import (
	"fmt"
	"time"

	"stockdesk/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM and migrates the schema.
func NewConnection(dsn string, log *zap.Logger, slowQuery time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(log, slowQuery),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Item{},
		&model.StockAddition{},
		&model.AssignmentEntry{},
		&model.Request{},
		&model.RequestLine{},
		&model.Assignment{},
		&model.Reconciliation{},
		&model.Notification{},
		&model.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

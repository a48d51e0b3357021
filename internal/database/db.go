package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"procurement/internal/config"
	"procurement/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the GORM pool, auto-migrates the models and then
// applies the SQL migrations that GORM tags cannot express.
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  LogLevel(cfg.LogLevel),
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&model.Permission{},
		&model.Role{},
		&model.User{},
		&model.Category{},
		&model.UOM{},
		&model.Product{},
		&model.Supplier{},
		&model.SupplierContact{},
		&model.SupplierAddress{},
		&model.RFQ{},
		&model.RFQProduct{},
		&model.Quotation{},
		&model.QuotationItem{},
		&model.Evaluation{},
		&model.ActivityLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	if err := Migrate(cfg.DSN()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// LogLevel maps a config string to a GORM log level; unknown values mean warn
func LogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

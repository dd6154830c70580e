// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cityofhelsinki/benefit-backend/internal/config"
	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host": cfg.Host,
		"name": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
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

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	err := db.AutoMigrate(
		&models.Company{},
		&models.ApplicationBasis{},
		&models.ApplicationBatch{},
		&models.Application{},
		&models.Employee{},
		&models.DeMinimisAid{},
		&models.PaySubsidy{},
		&models.Calculation{},
		&models.CalculationRow{},
		&models.ApplicationLogEntry{},
		&models.ApplicationHistory{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Application indexes
		"CREATE INDEX IF NOT EXISTS idx_applications_company_status ON bf_applications_application(company_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_applications_created_at ON bf_applications_application(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_applications_decided_unbatched ON bf_applications_application(status) WHERE batch_id IS NULL",

		// Child collection indexes
		"CREATE INDEX IF NOT EXISTS idx_pay_subsidies_application ON bf_calculator_paysubsidy(application_id, ordering)",
		"CREATE INDEX IF NOT EXISTS idx_calculation_rows_calculation ON bf_calculator_calculationrow(calculation_id, ordering)",
		"CREATE INDEX IF NOT EXISTS idx_log_entries_application ON bf_applications_applicationlogentry(application_id, created_at)",

		// History indexes
		"CREATE INDEX IF NOT EXISTS idx_application_history_application ON bf_applications_application_history(application_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// WithTransaction runs fn in a transaction, rolling back on error or panic.
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

package database

import (
	"fmt"

	"event-tickets/internal/logger"
	"event-tickets/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the ledger database. For postgres dsn is a connection string,
// for sqlite a file path.
func Connect(driver, dsn string) error {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn + "?_busy_timeout=5000&_foreign_keys=on")
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql db: %w", err)
		}
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	}

	DB = db
	logger.Get().Info("Database connection established", "driver", driver)
	return nil
}

// Models lists every table the service owns
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.LoginChallenge{},
		&models.EventSaleRecord{},
		&models.TicketHolding{},
		&models.Account{},
		&models.LedgerTransaction{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	for _, model := range Models() {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}
	logger.Get().Info("Database migrations completed")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

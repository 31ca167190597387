package main

import (
	"event-tickets/internal/config"
	"event-tickets/internal/database"
	"event-tickets/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	dsn := cfg.GetDSN()
	if cfg.Database.Driver == "sqlite" {
		dsn = cfg.Database.SQLitePath
	}
	if err := database.Connect(cfg.Database.Driver, dsn); err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Failed to apply migrations", "error", err)
	}
	logger.Get().Info("Migrations applied", "tables", len(database.Models()))
}

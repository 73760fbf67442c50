package main

import (
	"github.com/wfunc/barrelduel/config"
	"github.com/wfunc/barrelduel/logger"
	"github.com/wfunc/barrelduel/persistence"
	"github.com/wfunc/barrelduel/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	var db persistence.Database
	pg := cfg.Database.Postgres
	switch cfg.Database.Driver {
	case "postgres":
		db, err = persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		db, err = persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Initialize Duel Relay
	duelServer := server.NewDuelServer(cfg, db)

	// Start Server
	logger.Log.Infof("Starting duel relay on %s", cfg.Server.HTTPAddress)
	if err := duelServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}

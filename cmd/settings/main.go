// Command settings inspects and changes the stored API settings.
package main

import (
	"fmt"
	"os"

	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/database"
	"github.com/headless-comments-api/internal/repository"
	"github.com/headless-comments-api/internal/service"
	"github.com/headless-comments-api/pkg/logger"
)

func main() {
	if err := newRootCmd(connectDatabase).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// connectDatabase opens the configured database and builds the settings service over it
func connectDatabase() (*backend, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Options{Level: "warn", Format: cfg.Log.Format})

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	services := service.NewServices(repository.New(db), service.Dependencies{}, cfg, log)

	return &backend{
		settings:       services.Settings,
		migrator:       db,
		migrationsPath: cfg.Server.MigrationsPath,
	}, func() { _ = db.Close() }, nil
}

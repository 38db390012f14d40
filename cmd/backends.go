package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mariadb"
	"github.com/kozaktomas/face-attendance/internal/database/mongo"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// registerBackends registers every store backend with the configuration
// it connects with.
func registerBackends(cfg *config.Config) {
	database.RegisterBackend("postgres", func(ctx context.Context) (database.Store, error) {
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL environment variable is required")
		}
		return postgres.Open(ctx, &cfg.Database)
	})
	database.RegisterBackend("mariadb", func(ctx context.Context) (database.Store, error) {
		if cfg.MariaDB.DSN == "" {
			return nil, errors.New("MARIADB_DSN environment variable is required")
		}
		return mariadb.Open(ctx, &cfg.MariaDB)
	})
	database.RegisterBackend("mongo", func(ctx context.Context) (database.Store, error) {
		return mongo.Open(ctx, &cfg.Mongo)
	})
}

// openStore connects the configured backend. Callers close it with
// database.CloseStore.
func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	registerBackends(cfg)

	store, err := database.Open(ctx, cfg.Store.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity store: %w", err)
	}
	logger.Info("identity store connected", logger.LoggerOptions{Key: "backend", Data: cfg.Store.Backend})
	return store, nil
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"
)

// initializeDatabase creates the database connection and verifies it
// responds within the configured init timeout.
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.DB().DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database did not respond: %w", err)
	}

	return db, nil
}

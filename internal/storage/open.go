package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
)

// Supported storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Open returns the store for driver at path. The store is not migrated.
func Open(driver, path string) (service.Storage, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStorage(path)
	case DriverBolt:
		return NewBoltStorage(path)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", common.ErrInvalidConfig, driver)
	}
}

// OpenReady opens the store, applies migrations and seeds the default
// catalog. The store is closed again if any step fails.
func OpenReady(ctx context.Context, driver, path string) (service.Storage, error) {
	store, err := Open(driver, path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := store.EnsureCategories(ctx, model.DefaultCategories()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}
	return store, nil
}

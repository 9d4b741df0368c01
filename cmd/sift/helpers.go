package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/config"
	"github.com/Veraticus/sift/internal/engine"
	"github.com/Veraticus/sift/internal/llm"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/storage"
)

func loadSettings() (config.Settings, error) {
	settings, err := config.FromViper(viper.GetViper())
	if err != nil {
		return config.Settings{}, common.NewUserError("invalid configuration", err)
	}
	return settings, nil
}

// initStorage opens the configured ledger, migrated and seeded.
func initStorage(ctx context.Context) (service.Storage, config.Settings, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, config.Settings{}, err
	}

	store, err := storage.OpenReady(ctx, settings.Database.Driver, settings.Database.Path)
	if err != nil {
		return nil, config.Settings{}, fmt.Errorf("failed to open ledger at %s: %w", settings.Database.Path, err)
	}
	slog.Debug("opened ledger", "driver", settings.Database.Driver, "path", settings.Database.Path)
	return store, settings, nil
}

func closeStore(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// newEngine wires the store and, when AI is wanted, a classifier. The
// returned cleanup releases the classifier.
func newEngine(ctx context.Context, store service.Storage, settings config.Settings, useAI bool) (*engine.Engine, func(), error) {
	if !useAI {
		return engine.New(store, nil, nil), func() {}, nil
	}

	client, err := llm.NewClassifier(ctx, settings.ClassifierConfig(), nil)
	if err != nil {
		return nil, nil, common.NewUserError("could not set up the AI classifier (use --no-ai to skip it)", err)
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close classifier", "error", err)
		}
	}
	return engine.New(store, client, nil), cleanup, nil
}

// resolveCategory finds a category by id or case-insensitive name.
func resolveCategory(catalog []model.Category, ref string) (model.Category, error) {
	if cat, ok := model.FindCategory(catalog, ref); ok {
		return cat, nil
	}
	if cat, ok := model.FindCategoryByName(catalog, ref); ok {
		return cat, nil
	}
	return model.Category{}, common.NewUserError(fmt.Sprintf("no category named %q", ref), common.ErrNotFound)
}

func categoryID(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(name))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "cat-" + uuid.NewString()
	}
	return "cat-" + slug
}

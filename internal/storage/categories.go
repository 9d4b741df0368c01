package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

// GetCategories returns the catalog ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return queryCategories(ctx, s.db)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryCategories(ctx context.Context, q querier) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, color, icon, description
		FROM categories
		ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Icon, &cat.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// PutCategory creates or updates a category. Names are unique regardless of case.
func (s *SQLiteStorage) PutCategory(ctx context.Context, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertCategory(ctx, tx, category)
	})
}

func upsertCategory(ctx context.Context, tx *sql.Tx, category model.Category) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, name, color, icon, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			icon = excluded.icon,
			description = excluded.description`,
		category.ID, category.Name, category.Color, category.Icon, category.Description)
	if err != nil {
		return fmt.Errorf("failed to save category %q: %w", category.Name, translateError(err))
	}
	return nil
}

// DeleteCategory removes a category. Its transactions fall back to
// uncategorized and the rules and budgets pointing at it are removed.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if id == model.UncategorizedID {
		return fmt.Errorf("category %q: %w", id, common.ErrReservedCategory)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		if err := expectAffected(res, "category", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET category_id = ?, categorized_by_rule = 0, categorized_by_ai = 0
			WHERE category_id = ?`, model.UncategorizedID, id); err != nil {
			return fmt.Errorf("failed to uncategorize transactions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rules WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete category rules: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete category budgets: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("deleted category", "id", id)
	return nil
}

// ClearCategories removes every category, including the reserved one.
// Callers restore the catalog with EnsureCategories.
func (s *SQLiteStorage) ClearCategories(ctx context.Context) error {
	return s.clear(ctx, "categories")
}

// EnsureCategories seeds defaults into an empty catalog and restores the
// reserved category when it is missing.
func (s *SQLiteStorage) EnsureCategories(ctx context.Context, defaults []model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := queryCategories(ctx, tx)
		if err != nil {
			return err
		}
		missing := missingDefaults(existing, defaults)
		for _, cat := range missing {
			if err := upsertCategory(ctx, tx, cat); err != nil {
				return err
			}
		}
		if len(missing) > 0 {
			slog.Info("seeded categories", "count", len(missing))
		}
		return nil
	})
}

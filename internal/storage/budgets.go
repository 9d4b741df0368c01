package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sift/internal/model"
)

// GetBudgets returns every budget.
func (s *SQLiteStorage) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, category_id, period, amount FROM budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var b model.Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Period, &b.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

// PutBudget creates or replaces a budget.
func (s *SQLiteStorage) PutBudget(ctx context.Context, budget model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertBudget(ctx, tx, budget)
	})
}

func upsertBudget(ctx context.Context, tx *sql.Tx, budget model.Budget) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO budgets (id, category_id, period, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			period = excluded.period,
			amount = excluded.amount`,
		budget.ID, budget.CategoryID, budget.Period, budget.Amount)
	if err != nil {
		return fmt.Errorf("failed to save budget %s: %w", budget.ID, err)
	}
	return nil
}

// DeleteBudget removes one budget.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return expectAffected(res, "budget", id)
}

// ClearBudgets removes every budget.
func (s *SQLiteStorage) ClearBudgets(ctx context.Context) error {
	return s.clear(ctx, "budgets")
}

// ReplaceAll swaps the four collections for the snapshot's contents in a
// single transaction. The reserved category is restored if the snapshot
// lacks it.
func (s *SQLiteStorage) ReplaceAll(ctx context.Context, snapshot model.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"transactions", "categories", "rules", "budgets"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		for _, cat := range withReserved(snapshot.Categories) {
			if err := upsertCategory(ctx, tx, cat); err != nil {
				return err
			}
		}
		for _, rule := range snapshot.Rules {
			if err := upsertRule(ctx, tx, rule); err != nil {
				return err
			}
		}
		for _, budget := range snapshot.Budgets {
			if err := upsertBudget(ctx, tx, budget); err != nil {
				return err
			}
		}
		if len(snapshot.Transactions) == 0 {
			return nil
		}
		return insertTransactions(ctx, tx, snapshot.Transactions, `INSERT INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	})
	if err != nil {
		return err
	}

	slog.Info("replaced ledger",
		"transactions", len(snapshot.Transactions),
		"categories", len(snapshot.Categories),
		"rules", len(snapshot.Rules),
		"budgets", len(snapshot.Budgets))
	return nil
}

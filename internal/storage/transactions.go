package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

const transactionColumns = `id, date, raw_date, description, amount, category_id, categorized_by_rule, categorized_by_ai`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var txn model.Transaction
	err := row.Scan(&txn.ID, &txn.Date, &txn.RawDate, &txn.Description, &txn.Amount,
		&txn.CategoryID, &txn.CategorizedByRule, &txn.CategorizedByAI)
	txn.Date = txn.Date.UTC()
	return txn, err
}

// GetTransactions returns the whole ledger ordered by date.
func (s *SQLiteStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	slog.Debug("retrieved transactions", "count", len(transactions))
	return transactions, nil
}

// GetTransactionByID returns a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return model.Transaction{}, err
	}
	if err := validateString(id, "id"); err != nil {
		return model.Transaction{}, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, fmt.Errorf("transaction %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to query transaction: %w", err)
	}
	return txn, nil
}

// AddTransactions inserts new transactions. The batch is atomic and fails
// with ErrDuplicateEntry when any id already exists.
func (s *SQLiteStorage) AddTransactions(ctx context.Context, transactions []model.Transaction) error {
	return s.writeTransactions(ctx, transactions, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
}

// PutTransactions inserts or replaces transactions in one atomic batch.
func (s *SQLiteStorage) PutTransactions(ctx context.Context, transactions []model.Transaction) error {
	return s.writeTransactions(ctx, transactions, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			raw_date = excluded.raw_date,
			description = excluded.description,
			amount = excluded.amount,
			category_id = excluded.category_id,
			categorized_by_rule = excluded.categorized_by_rule,
			categorized_by_ai = excluded.categorized_by_ai`)
}

func (s *SQLiteStorage) writeTransactions(ctx context.Context, transactions []model.Transaction, query string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(transactions) == 0 {
		return nil
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertTransactions(ctx, tx, transactions, query)
	})
	if err != nil {
		return err
	}

	slog.Debug("saved transactions", "count", len(transactions))
	return nil
}

func insertTransactions(ctx context.Context, tx *sql.Tx, transactions []model.Transaction, query string) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		_, err := stmt.ExecContext(ctx, txn.ID, txn.Date.UTC(), txn.RawDate, txn.Description, txn.Amount,
			txn.CategoryID, txn.CategorizedByRule, txn.CategorizedByAI)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, translateError(err))
		}
	}
	return nil
}

// DeleteTransaction removes one transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectAffected(res, "transaction", id)
}

// ClearTransactions removes the whole ledger.
func (s *SQLiteStorage) ClearTransactions(ctx context.Context) error {
	return s.clear(ctx, "transactions")
}

func (s *SQLiteStorage) clear(ctx context.Context, table string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	slog.Info("cleared collection", "collection", table)
	return nil
}

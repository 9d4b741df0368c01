package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
)

// Export writes every collection in store to w as a snapshot document.
func Export(ctx context.Context, store service.Storage, w io.Writer) (model.Snapshot, error) {
	snapshot, err := Collect(ctx, store)
	if err != nil {
		return model.Snapshot{}, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("exported ledger",
		"transactions", len(snapshot.Transactions),
		"categories", len(snapshot.Categories),
		"rules", len(snapshot.Rules),
		"budgets", len(snapshot.Budgets))
	return snapshot, nil
}

// Collect reads every collection in store into a snapshot stamped with the
// current time.
func Collect(ctx context.Context, store service.Storage) (model.Snapshot, error) {
	snapshot := model.Snapshot{
		Version:      model.SnapshotVersion,
		ExportedAt:   time.Now().UTC().Truncate(time.Second),
		Categories:   []model.Category{},
		Rules:        []model.Rule{},
		Transactions: []model.Transaction{},
		Budgets:      []model.Budget{},
	}

	txns, err := store.GetTransactions(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read transactions: %w", err)
	}
	cats, err := store.GetCategories(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read categories: %w", err)
	}
	ruleSet, err := store.GetRules(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read rules: %w", err)
	}
	budgets, err := store.GetBudgets(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read budgets: %w", err)
	}

	snapshot.Transactions = append(snapshot.Transactions, txns...)
	snapshot.Categories = append(snapshot.Categories, cats...)
	snapshot.Rules = append(snapshot.Rules, ruleSet...)
	snapshot.Budgets = append(snapshot.Budgets, budgets...)
	return snapshot, nil
}

// Import replaces every collection in store with the snapshot read from r.
// Nothing is merged: records absent from the snapshot are gone afterwards.
func Import(ctx context.Context, store service.Storage, r io.Reader) (model.Snapshot, error) {
	snapshot, err := DecodeSnapshot(r)
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := store.ReplaceAll(ctx, snapshot); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to replace ledger: %w", err)
	}
	return snapshot, nil
}

// DecodeSnapshot reads and checks a snapshot document.
func DecodeSnapshot(r io.Reader) (model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return model.Snapshot{}, common.NewUserError("backup file is not a valid snapshot", err)
	}
	if snapshot.Version != model.SnapshotVersion {
		return model.Snapshot{}, fmt.Errorf("%w: %d", common.ErrUnsupportedSnapshot, snapshot.Version)
	}
	if err := validateSnapshot(snapshot); err != nil {
		return model.Snapshot{}, common.NewUserError("backup file contains invalid records", err)
	}
	return snapshot, nil
}

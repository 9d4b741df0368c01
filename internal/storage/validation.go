// Package storage provides the data persistence layer for the sift application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/rules"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidBudget      = errors.New("invalid budget")
)

// validateContext ensures the context is usable.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return ctx.Err()
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if txn.CategorizedByRule && txn.CategorizedByAI {
		return fmt.Errorf("%w: both provenance flags set", ErrInvalidTransaction)
	}
	return nil
}

func validateCategory(cat model.Category) error {
	if strings.TrimSpace(cat.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCategory)
	}
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	return nil
}

func validateRule(rule model.Rule) error {
	if err := validateString(rule.ID, "rule ID"); err != nil {
		return err
	}
	return rules.Validate(rule)
}

func validateBudget(budget model.Budget) error {
	if strings.TrimSpace(budget.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBudget)
	}
	if strings.TrimSpace(budget.CategoryID) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	}
	if !budget.Period.Valid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidBudget, budget.Period)
	}
	if budget.Amount < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidBudget)
	}
	return nil
}

func validateSnapshot(snapshot model.Snapshot) error {
	if err := validateTransactions(snapshot.Transactions); err != nil {
		return err
	}
	for _, cat := range snapshot.Categories {
		if err := validateCategory(cat); err != nil {
			return err
		}
	}
	for _, rule := range snapshot.Rules {
		if err := validateRule(rule); err != nil {
			return err
		}
	}
	for _, budget := range snapshot.Budgets {
		if err := validateBudget(budget); err != nil {
			return err
		}
	}
	return nil
}

// missingDefaults returns the defaults an existing catalog lacks. An empty
// catalog receives every default; otherwise only reserved categories are
// restored so that user deletions stick.
func missingDefaults(existing, defaults []model.Category) []model.Category {
	var missing []model.Category
	for _, def := range defaults {
		if len(existing) > 0 && !def.IsReserved() {
			continue
		}
		if _, ok := model.FindCategory(existing, def.ID); ok {
			continue
		}
		missing = append(missing, def)
	}
	return missing
}

// withReserved appends the reserved category to cats when it is absent.
func withReserved(cats []model.Category) []model.Category {
	if _, ok := model.FindCategory(cats, model.UncategorizedID); ok {
		return cats
	}
	return append(slices.Clone(cats), model.UncategorizedCategory())
}

// sortCategories orders a catalog by case-insensitive name, then id.
func sortCategories(cats []model.Category) {
	slices.SortStableFunc(cats, func(a, b model.Category) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// sortTransactions orders a ledger by date, then id.
func sortTransactions(txns []model.Transaction) {
	slices.SortStableFunc(txns, func(a, b model.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// nameTaken reports whether another category already uses name.
func nameTaken(existing []model.Category, cat model.Category) bool {
	other, ok := model.FindCategoryByName(existing, cat.Name)
	return ok && other.ID != cat.ID
}

// Package service defines the interfaces shared between the pipeline and its
// collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/sift/internal/model"
)

// Storage defines the contract for our persistence layer. Each collection
// supports get-all, put, add, delete and clear. Batch writes are atomic: they
// either fully succeed or leave the store untouched.
type Storage interface {
	// Transaction operations
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (model.Transaction, error)
	AddTransactions(ctx context.Context, transactions []model.Transaction) error
	PutTransactions(ctx context.Context, transactions []model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ClearTransactions(ctx context.Context) error

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	PutCategory(ctx context.Context, category model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	ClearCategories(ctx context.Context) error
	EnsureCategories(ctx context.Context, defaults []model.Category) error

	// Rule operations
	GetRules(ctx context.Context) ([]model.Rule, error)
	AddRule(ctx context.Context, rule model.Rule) (model.Rule, error)
	PutRule(ctx context.Context, rule model.Rule) error
	DeleteRule(ctx context.Context, id string) error
	ReorderRules(ctx context.Context, orderedIDs []string) error
	ClearRules(ctx context.Context) error

	// Budget operations
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	PutBudget(ctx context.Context, budget model.Budget) error
	DeleteBudget(ctx context.Context, id string) error
	ClearBudgets(ctx context.Context) error

	// Wholesale replacement used by snapshot import
	ReplaceAll(ctx context.Context, snapshot model.Snapshot) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ProgressFunc receives incremental pipeline progress.
type ProgressFunc func(processed, total int)

// Report invokes f when it is set.
func (f ProgressFunc) Report(processed, total int) {
	if f != nil {
		f(processed, total)
	}
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

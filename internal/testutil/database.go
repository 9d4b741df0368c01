// Package testutil provides helpers for tests that need a populated ledger.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/storage"
)

// TestDB is an in-memory store seeded for a single test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory SQLite store holding the default
// catalog. The store is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.OpenReady(context.Background(), storage.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// WithRules appends rules in the given order.
func (db *TestDB) WithRules(rules ...model.Rule) *TestDB {
	db.t.Helper()
	for _, rule := range rules {
		if _, err := db.Storage.AddRule(context.Background(), rule); err != nil {
			db.t.Fatalf("failed to seed rule %q: %v", rule.ConditionValue, err)
		}
	}
	return db
}

// WithCategories adds categories to the seeded catalog.
func (db *TestDB) WithCategories(cats ...model.Category) *TestDB {
	db.t.Helper()
	for _, cat := range cats {
		if err := db.Storage.PutCategory(context.Background(), cat); err != nil {
			db.t.Fatalf("failed to seed category %q: %v", cat.Name, err)
		}
	}
	return db
}

// WithTransactions commits transactions as-is.
func (db *TestDB) WithTransactions(txns ...model.Transaction) *TestDB {
	db.t.Helper()
	if err := db.Storage.AddTransactions(context.Background(), txns); err != nil {
		db.t.Fatalf("failed to seed transactions: %v", err)
	}
	return db
}

// Transactions returns the current ledger or fails the test.
func (db *TestDB) Transactions() []model.Transaction {
	db.t.Helper()
	txns, err := db.Storage.GetTransactions(context.Background())
	if err != nil {
		db.t.Fatalf("failed to read transactions: %v", err)
	}
	return txns
}

// Rule builds a rule for seeding.
func Rule(condition model.ConditionType, value, categoryID string) model.Rule {
	return model.Rule{ConditionType: condition, ConditionValue: value, CategoryID: categoryID}
}

// Transaction builds an uncategorized ledger entry dated at UTC midnight.
func Transaction(id string, date string, description string, amount float64) model.Transaction {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return model.NewTransaction(id, model.ParsedTransaction{
		Date:        d,
		RawDate:     date,
		Description: description,
		Amount:      amount,
	})
}

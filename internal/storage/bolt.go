package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/rules"
	"github.com/boltdb/bolt"
	"github.com/google/uuid"
)

// BoltSchemaVersion is the bucket layout version written by Migrate.
const BoltSchemaVersion = 1

var (
	bucketTransactions = []byte("transactions")
	bucketCategories   = []byte("categories")
	bucketRules        = []byte("rules")
	bucketBudgets      = []byte("budgets")
	bucketMeta         = []byte("meta")

	keySchemaVersion = []byte("schema_version")

	collectionBuckets = [][]byte{bucketTransactions, bucketCategories, bucketRules, bucketBudgets}
)

// BoltStorage implements the Storage interface on an embedded bolt file.
// Each collection lives in its own bucket keyed by id with JSON values.
type BoltStorage struct {
	db   *bolt.DB
	path string
}

// NewBoltStorage opens (or creates) the bolt file at path.
func NewBoltStorage(path string) (*BoltStorage, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	return &BoltStorage{db: db, path: path}, nil
}

// Close closes the bolt file.
func (s *BoltStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file the store was opened with.
func (s *BoltStorage) Path() string {
	return s.path
}

// Migrate creates the collection buckets and records the layout version.
func (s *BoltStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create meta bucket: %w", err)
		}
		current := 0
		if raw := meta.Get(keySchemaVersion); raw != nil {
			if current, err = strconv.Atoi(string(raw)); err != nil {
				return fmt.Errorf("invalid schema version %q: %w", raw, err)
			}
		}
		if current > BoltSchemaVersion {
			return fmt.Errorf("database schema version mismatch: expected %d, got %d", BoltSchemaVersion, current)
		}
		for _, name := range collectionBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		if current < BoltSchemaVersion {
			slog.Info("Applied migration", "version", BoltSchemaVersion, "description", "Create collection buckets")
		}
		return meta.Put(keySchemaVersion, []byte(strconv.Itoa(BoltSchemaVersion)))
	})
}

func bucket(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("bucket %s missing, run migrations first", name)
	}
	return b, nil
}

func readAll[T any](s *BoltStorage, name []byte) ([]T, error) {
	var out []T
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = readBucket[T](tx, name)
		return err
	})
	return out, err
}

func readBucket[T any](tx *bolt.Tx, name []byte) ([]T, error) {
	b, err := bucket(tx, name)
	if err != nil {
		return nil, err
	}
	var out []T
	err = b.ForEach(func(k, v []byte) error {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", name, k, err)
		}
		out = append(out, item)
		return nil
	})
	return out, err
}

func putJSON(b *bolt.Bucket, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", id, err)
	}
	return b.Put([]byte(id), data)
}

func (s *BoltStorage) deleteKey(ctx context.Context, name []byte, what, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%s %q: %w", what, id, common.ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStorage) clearBucket(ctx context.Context, name []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return recreateBucket(tx, name)
	})
	if err != nil {
		return err
	}
	slog.Info("cleared collection", "collection", string(name))
	return nil
}

func recreateBucket(tx *bolt.Tx, name []byte) error {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return fmt.Errorf("failed to drop bucket %s: %w", name, err)
	}
	if _, err := tx.CreateBucket(name); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return nil
}

// GetTransactions returns the whole ledger ordered by date.
func (s *BoltStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	txns, err := readAll[model.Transaction](s, bucketTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	sortTransactions(txns)
	return txns, nil
}

// GetTransactionByID returns a single transaction.
func (s *BoltStorage) GetTransactionByID(ctx context.Context, id string) (model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return model.Transaction{}, err
	}
	if err := validateString(id, "id"); err != nil {
		return model.Transaction{}, err
	}

	var txn model.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketTransactions)
		if err != nil {
			return err
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("transaction %q: %w", id, common.ErrNotFound)
		}
		return json.Unmarshal(raw, &txn)
	})
	return txn, err
}

// AddTransactions inserts new transactions. The batch is atomic and fails
// with ErrDuplicateEntry when any id already exists.
func (s *BoltStorage) AddTransactions(ctx context.Context, transactions []model.Transaction) error {
	return s.writeTransactions(ctx, transactions, true)
}

// PutTransactions inserts or replaces transactions in one atomic batch.
func (s *BoltStorage) PutTransactions(ctx context.Context, transactions []model.Transaction) error {
	return s.writeTransactions(ctx, transactions, false)
}

func (s *BoltStorage) writeTransactions(ctx context.Context, transactions []model.Transaction, insertOnly bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(transactions) == 0 {
		return nil
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketTransactions)
		if err != nil {
			return err
		}
		return putTransactions(b, transactions, insertOnly)
	})
	if err != nil {
		return err
	}
	slog.Debug("saved transactions", "count", len(transactions))
	return nil
}

func putTransactions(b *bolt.Bucket, transactions []model.Transaction, insertOnly bool) error {
	for _, txn := range transactions {
		if insertOnly && b.Get([]byte(txn.ID)) != nil {
			return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrDuplicateEntry)
		}
		txn.Date = txn.Date.UTC()
		if err := putJSON(b, txn.ID, txn); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTransaction removes one transaction.
func (s *BoltStorage) DeleteTransaction(ctx context.Context, id string) error {
	return s.deleteKey(ctx, bucketTransactions, "transaction", id)
}

// ClearTransactions removes the whole ledger.
func (s *BoltStorage) ClearTransactions(ctx context.Context) error {
	return s.clearBucket(ctx, bucketTransactions)
}

// GetCategories returns the catalog ordered by name.
func (s *BoltStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	cats, err := readAll[model.Category](s, bucketCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	sortCategories(cats)
	return cats, nil
}

// PutCategory creates or updates a category. Names are unique regardless of case.
func (s *BoltStorage) PutCategory(ctx context.Context, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		existing, err := readBucket[model.Category](tx, bucketCategories)
		if err != nil {
			return err
		}
		if nameTaken(existing, category) {
			return fmt.Errorf("category name %q: %w", category.Name, common.ErrDuplicateEntry)
		}
		return putJSON(tx.Bucket(bucketCategories), category.ID, category)
	})
}

// DeleteCategory removes a category. Its transactions fall back to
// uncategorized and the rules and budgets pointing at it are removed.
func (s *BoltStorage) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if id == model.UncategorizedID {
		return fmt.Errorf("category %q: %w", id, common.ErrReservedCategory)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		cats, err := bucket(tx, bucketCategories)
		if err != nil {
			return err
		}
		if cats.Get([]byte(id)) == nil {
			return fmt.Errorf("category %q: %w", id, common.ErrNotFound)
		}
		if err := cats.Delete([]byte(id)); err != nil {
			return err
		}

		txns, err := readBucket[model.Transaction](tx, bucketTransactions)
		if err != nil {
			return err
		}
		var moved []model.Transaction
		for _, txn := range txns {
			if txn.CategoryID == id {
				txn.SetCategory(model.UncategorizedID, model.ProvenanceNone)
				moved = append(moved, txn)
			}
		}
		if err := putTransactions(tx.Bucket(bucketTransactions), moved, false); err != nil {
			return err
		}

		ruleSet, err := readBucket[model.Rule](tx, bucketRules)
		if err != nil {
			return err
		}
		for _, rule := range ruleSet {
			if rule.CategoryID == id {
				if err := tx.Bucket(bucketRules).Delete([]byte(rule.ID)); err != nil {
					return err
				}
			}
		}

		budgets, err := readBucket[model.Budget](tx, bucketBudgets)
		if err != nil {
			return err
		}
		for _, budget := range budgets {
			if budget.CategoryID == id {
				if err := tx.Bucket(bucketBudgets).Delete([]byte(budget.ID)); err != nil {
					return err
				}
			}
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
func (s *BoltStorage) ClearCategories(ctx context.Context) error {
	return s.clearBucket(ctx, bucketCategories)
}

// EnsureCategories seeds defaults into an empty catalog and restores the
// reserved category when it is missing.
func (s *BoltStorage) EnsureCategories(ctx context.Context, defaults []model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		existing, err := readBucket[model.Category](tx, bucketCategories)
		if err != nil {
			return err
		}
		missing := missingDefaults(existing, defaults)
		for _, cat := range missing {
			if err := putJSON(tx.Bucket(bucketCategories), cat.ID, cat); err != nil {
				return err
			}
		}
		if len(missing) > 0 {
			slog.Info("seeded categories", "count", len(missing))
		}
		return nil
	})
}

// GetRules returns every rule in evaluation order.
func (s *BoltStorage) GetRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	ruleSet, err := readAll[model.Rule](s, bucketRules)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return rules.Sorted(ruleSet), nil
}

// AddRule appends a rule after every existing one. An empty id is replaced
// with a generated one. The stored rule is returned.
func (s *BoltStorage) AddRule(ctx context.Context, rule model.Rule) (model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return model.Rule{}, err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := validateRule(rule); err != nil {
		return model.Rule{}, err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		existing, err := readBucket[model.Rule](tx, bucketRules)
		if err != nil {
			return err
		}
		if tx.Bucket(bucketRules).Get([]byte(rule.ID)) != nil {
			return fmt.Errorf("rule %s: %w", rule.ID, common.ErrDuplicateEntry)
		}
		rule.Order = rules.NextOrder(existing)
		return putJSON(tx.Bucket(bucketRules), rule.ID, rule)
	})
	if err != nil {
		return model.Rule{}, err
	}

	slog.Info("added rule", "id", rule.ID, "order", rule.Order)
	return rule, nil
}

// PutRule creates or replaces a rule, keeping the order it carries.
func (s *BoltStorage) PutRule(ctx context.Context, rule model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketRules)
		if err != nil {
			return err
		}
		return putJSON(b, rule.ID, rule)
	})
}

// DeleteRule removes one rule. The remaining rules keep their order values.
func (s *BoltStorage) DeleteRule(ctx context.Context, id string) error {
	return s.deleteKey(ctx, bucketRules, "rule", id)
}

// ReorderRules rewrites every rule's order from its position in orderedIDs.
func (s *BoltStorage) ReorderRules(ctx context.Context, orderedIDs []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		existing, err := readBucket[model.Rule](tx, bucketRules)
		if err != nil {
			return err
		}
		reordered, err := rules.Reorder(existing, orderedIDs)
		if err != nil {
			return err
		}
		for _, rule := range reordered {
			if err := putJSON(tx.Bucket(bucketRules), rule.ID, rule); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearRules removes every rule.
func (s *BoltStorage) ClearRules(ctx context.Context) error {
	return s.clearBucket(ctx, bucketRules)
}

// GetBudgets returns every budget.
func (s *BoltStorage) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	budgets, err := readAll[model.Budget](s, bucketBudgets)
	if err != nil {
		return nil, fmt.Errorf("failed to read budgets: %w", err)
	}
	slices.SortFunc(budgets, func(a, b model.Budget) int { return strings.Compare(a.ID, b.ID) })
	return budgets, nil
}

// PutBudget creates or replaces a budget.
func (s *BoltStorage) PutBudget(ctx context.Context, budget model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketBudgets)
		if err != nil {
			return err
		}
		return putJSON(b, budget.ID, budget)
	})
}

// DeleteBudget removes one budget.
func (s *BoltStorage) DeleteBudget(ctx context.Context, id string) error {
	return s.deleteKey(ctx, bucketBudgets, "budget", id)
}

// ClearBudgets removes every budget.
func (s *BoltStorage) ClearBudgets(ctx context.Context) error {
	return s.clearBucket(ctx, bucketBudgets)
}

// ReplaceAll swaps the four collections for the snapshot's contents in a
// single update. The reserved category is restored if the snapshot lacks it.
func (s *BoltStorage) ReplaceAll(ctx context.Context, snapshot model.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range collectionBuckets {
			if err := recreateBucket(tx, name); err != nil {
				return err
			}
		}
		cats := withReserved(snapshot.Categories)
		for i, cat := range cats {
			if nameTaken(cats[:i], cat) {
				return fmt.Errorf("category name %q: %w", cat.Name, common.ErrDuplicateEntry)
			}
			if err := putJSON(tx.Bucket(bucketCategories), cat.ID, cat); err != nil {
				return err
			}
		}
		for _, rule := range snapshot.Rules {
			if err := putJSON(tx.Bucket(bucketRules), rule.ID, rule); err != nil {
				return err
			}
		}
		for _, budget := range snapshot.Budgets {
			if err := putJSON(tx.Bucket(bucketBudgets), budget.ID, budget); err != nil {
				return err
			}
		}
		return putTransactions(tx.Bucket(bucketTransactions), snapshot.Transactions, true)
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

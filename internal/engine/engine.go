package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/config"
	"github.com/Veraticus/sift/internal/dates"
	"github.com/Veraticus/sift/internal/llm"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/rules"
	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/statement"
)

// Engine runs the pipeline against a store. Every operation reads the
// store immediately before acting and returns a fresh read-back of the
// ledger afterwards.
type Engine struct {
	storage  service.Storage
	parser   *statement.Parser
	pipeline *Pipeline
	logger   *slog.Logger
}

// New creates an engine. classifier may be nil when AI is disabled.
func New(storage service.Storage, classifier llm.Classifier, logger *slog.Logger) *Engine {
	logger = common.LoggerOrDefault(logger)
	return &Engine{
		storage:  storage,
		parser:   statement.NewParser(logger),
		pipeline: NewPipeline(classifier, logger),
		logger:   logger,
	}
}

// WithParser replaces the statement parser, mainly to pin the locale in tests.
func (e *Engine) WithParser(p *statement.Parser) *Engine {
	e.parser = p
	return e
}

// ImportOptions configures ImportStatement.
type ImportOptions struct {
	Progress service.ProgressFunc
	FileType statement.FileType
	DateHint dates.Hint
	AI       config.AIConfig
	UseAI    bool
	// DryRun categorizes without writing to the store.
	DryRun bool
}

// RecategorizeOptions configures RecategorizeUncategorized.
type RecategorizeOptions struct {
	Progress service.ProgressFunc
	AI       config.AIConfig
	UseAI    bool
	DryRun   bool
}

// Outcome is the result of a storage-backed operation.
type Outcome struct {
	*Result
	// Ledger is the store's content after the operation.
	Ledger []model.Transaction
	// Parsed is the number of statement rows read.
	Parsed int
}

// ImportStatement parses content, categorizes the new rows and appends them
// to the ledger in one atomic write.
func (e *Engine) ImportStatement(ctx context.Context, content []byte, opts ImportOptions) (*Outcome, error) {
	parsed, err := e.parser.Parse(content, opts.FileType, statement.Options{DateHint: opts.DateHint})
	if err != nil {
		return nil, err
	}

	ledger, ruleSet, catalog, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result, err := e.pipeline.CategorizeImported(ctx, parsed, ledger, ruleSet, catalog, Options{
		AI:       opts.AI,
		UseAI:    opts.UseAI,
		Progress: opts.Progress,
	})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun && len(result.Transactions) > 0 {
		if err := e.storage.AddTransactions(ctx, result.Transactions); err != nil {
			return nil, fmt.Errorf("failed to save imported transactions: %w", err)
		}
	}

	return e.readBack(ctx, result, len(parsed))
}

// RecategorizeUncategorized runs the rule, AI and income tiers over every
// uncategorized transaction and saves the ones that changed.
func (e *Engine) RecategorizeUncategorized(ctx context.Context, opts RecategorizeOptions) (*Outcome, error) {
	ledger, ruleSet, catalog, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result, err := e.pipeline.Recategorize(ctx, ledger, ruleSet, catalog, Options{
		AI:       opts.AI,
		UseAI:    opts.UseAI,
		Progress: opts.Progress,
	})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun && len(result.Transactions) > 0 {
		if err := e.storage.PutTransactions(ctx, result.Transactions); err != nil {
			return nil, fmt.Errorf("failed to save recategorized transactions: %w", err)
		}
	}

	return e.readBack(ctx, result, 0)
}

// AssignCategory records a manual category choice. Manual edits clear both
// provenance flags.
func (e *Engine) AssignCategory(ctx context.Context, txID, categoryID string) (model.Transaction, error) {
	if categoryID == "" {
		categoryID = model.UncategorizedID
	}

	catalog, err := e.storage.GetCategories(ctx)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to load categories: %w", err)
	}
	if _, ok := model.FindCategory(catalog, categoryID); !ok {
		return model.Transaction{}, fmt.Errorf("category %q: %w", categoryID, common.ErrNotFound)
	}

	txn, err := e.storage.GetTransactionByID(ctx, txID)
	if err != nil {
		return model.Transaction{}, err
	}

	txn.SetCategory(categoryID, model.ProvenanceNone)
	if err := e.storage.PutTransactions(ctx, []model.Transaction{txn}); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to save transaction: %w", err)
	}

	return e.storage.GetTransactionByID(ctx, txID)
}

// RuleMatch describes which rule would categorize a description.
type RuleMatch struct {
	Rule     model.Rule
	Category model.Category
}

// TestRule reports the rule and category the rule tier would pick for
// description.
func (e *Engine) TestRule(ctx context.Context, description string) (RuleMatch, bool, error) {
	ruleSet, err := e.storage.GetRules(ctx)
	if err != nil {
		return RuleMatch{}, false, fmt.Errorf("failed to load rules: %w", err)
	}
	rule, ok := rules.FirstMatch(strings.TrimSpace(description), ruleSet)
	if !ok {
		return RuleMatch{}, false, nil
	}

	catalog, err := e.storage.GetCategories(ctx)
	if err != nil {
		return RuleMatch{}, false, fmt.Errorf("failed to load categories: %w", err)
	}
	cat, found := model.FindCategory(catalog, rule.CategoryID)
	if !found {
		cat = model.Category{ID: rule.CategoryID, Name: rule.CategoryID}
	}
	return RuleMatch{Rule: rule, Category: cat}, true, nil
}

func (e *Engine) snapshot(ctx context.Context) ([]model.Transaction, []model.Rule, []model.Category, error) {
	ledger, err := e.storage.GetTransactions(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	ruleSet, err := e.storage.GetRules(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}
	catalog, err := e.storage.GetCategories(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return ledger, ruleSet, catalog, nil
}

func (e *Engine) readBack(ctx context.Context, result *Result, parsed int) (*Outcome, error) {
	ledger, err := e.storage.GetTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload transactions: %w", err)
	}
	return &Outcome{Result: result, Ledger: ledger, Parsed: parsed}, nil
}

// Package engine turns parsed statement rows into categorized ledger entries.
//
// Categorization runs in tiers: exact duplicates are dropped, user rules are
// applied, the AI classifier handles what is left in batches, and finally
// uncategorized inflows fall back to the Income category.
package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/config"
	"github.com/Veraticus/sift/internal/dedup"
	"github.com/Veraticus/sift/internal/llm"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/rules"
	"github.com/Veraticus/sift/internal/service"
)

// Options configures a single pipeline run.
type Options struct {
	Progress service.ProgressFunc
	AI       config.AIConfig
	// UseAI disables the AI tier when false. The rule and income tiers
	// always run.
	UseAI bool
}

// Result summarizes a pipeline run.
type Result struct {
	Transactions   []model.Transaction
	Logs           []model.AICategorizationLog
	Usage          llm.Usage
	Duplicates     int
	RuleMatched    int
	AICategorized  int
	IncomeAssigned int
	Uncategorized  int
}

// Pipeline is the storage-free categorization pipeline.
type Pipeline struct {
	classifier llm.Classifier
	logger     *slog.Logger
	newID      func() string
}

// NewPipeline creates a pipeline. classifier may be nil, in which case the
// AI tier is skipped.
func NewPipeline(classifier llm.Classifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		logger:     common.LoggerOrDefault(logger),
		newID:      uuid.NewString,
	}
}

// CategorizeImported deduplicates parsed rows against ledger, commits the
// fresh ones as new transactions and categorizes them. The result keeps the
// statement's row order.
func (p *Pipeline) CategorizeImported(ctx context.Context, parsed []model.ParsedTransaction, ledger []model.Transaction, ruleSet []model.Rule, catalog []model.Category, opts Options) (*Result, error) {
	fresh, duplicates := dedup.Filter(parsed, ledger)

	txns := make([]model.Transaction, len(fresh))
	for i, row := range fresh {
		txns[i] = model.NewTransaction(p.newID(), row)
	}

	result, err := p.categorize(ctx, txns, ledger, ruleSet, catalog, opts)
	if err != nil {
		return nil, err
	}
	result.Duplicates = duplicates
	result.Transactions = txns

	common.LogInfo(ctx, p.logger, "categorized imported transactions", common.Fields{
		"parsed":          len(parsed),
		"duplicates":      duplicates,
		"rule_matched":    result.RuleMatched,
		"ai_categorized":  result.AICategorized,
		"income_assigned": result.IncomeAssigned,
		"uncategorized":   result.Uncategorized,
	})

	return result, nil
}

// Recategorize runs the rule, AI and income tiers over the uncategorized
// transactions in ledger and returns only those whose category changed.
func (p *Pipeline) Recategorize(ctx context.Context, ledger []model.Transaction, ruleSet []model.Rule, catalog []model.Category, opts Options) (*Result, error) {
	var pending []model.Transaction
	for _, t := range ledger {
		if t.IsUncategorized() {
			pending = append(pending, t)
		}
	}

	result, err := p.categorize(ctx, pending, ledger, ruleSet, catalog, opts)
	if err != nil {
		return nil, err
	}

	changed := make([]model.Transaction, 0, len(pending))
	for _, t := range pending {
		if !t.IsUncategorized() {
			changed = append(changed, t)
		}
	}
	result.Transactions = changed

	common.LogInfo(ctx, p.logger, "recategorized transactions", common.Fields{
		"candidates":      len(pending),
		"changed":         len(changed),
		"rule_matched":    result.RuleMatched,
		"ai_categorized":  result.AICategorized,
		"income_assigned": result.IncomeAssigned,
	})

	return result, nil
}

// categorize assigns categories to txns in place.
func (p *Pipeline) categorize(ctx context.Context, txns, ledger []model.Transaction, ruleSet []model.Rule, catalog []model.Category, opts Options) (*Result, error) {
	result := &Result{}
	logs := NewLogRecorder(p.logger)
	total := len(txns)

	reported := -1
	report := func(processed int) {
		if processed != reported {
			reported = processed
			opts.Progress.Report(processed, total)
		}
	}

	ordered := rules.Sorted(ruleSet)
	var remaining []BatchItem
	for i := range txns {
		if categoryID, ok := rules.Match(txns[i].Description, ordered); ok {
			txns[i].SetCategory(categoryID, model.ProvenanceRule)
			result.RuleMatched++
			continue
		}
		remaining = append(remaining, BatchItem{Description: txns[i].Description, Index: i})
	}
	report(result.RuleMatched)

	if opts.UseAI && p.classifier != nil && len(remaining) > 0 {
		if trainer, ok := p.classifier.(llm.Trainer); ok {
			trainer.Train(trainingExamples(ledger))
		}

		offset := result.RuleMatched
		progress := func(processed, _ int) { report(offset + processed) }

		outcome := NewBatchCategorizer(p.classifier, logs).Categorize(ctx, remaining, catalog, opts.AI, progress)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for idx, categoryID := range outcome.Assignments {
			txns[idx].SetCategory(categoryID, model.ProvenanceAI)
		}
		result.AICategorized = len(outcome.Assignments)
		result.Usage = outcome.Usage
	}

	result.IncomeAssigned = applyIncomeFallback(txns, catalog)
	// Every row has been through all tiers even when AI was skipped or failed.
	report(total)
	for i := range txns {
		if txns[i].IsUncategorized() {
			result.Uncategorized++
		}
	}
	result.Logs = logs.Entries()
	return result, nil
}

func trainingExamples(ledger []model.Transaction) []llm.Example {
	examples := make([]llm.Example, 0, len(ledger))
	for _, t := range ledger {
		if !t.IsUncategorized() {
			examples = append(examples, llm.Example{Description: t.Description, CategoryID: t.CategoryID})
		}
	}
	return examples
}

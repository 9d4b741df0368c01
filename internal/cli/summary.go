package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sift/internal/engine"
	"github.com/Veraticus/sift/internal/model"
)

// RenderImportSummary describes an import run.
func RenderImportSummary(outcome *engine.Outcome, dryRun bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  • Rows parsed: %d\n", outcome.Parsed)
	fmt.Fprintf(&b, "  • Duplicates skipped: %d\n", outcome.Duplicates)
	writeTierCounts(&b, outcome.Result)
	if dryRun {
		b.WriteString(SubtleStyle.Render("  Dry run: nothing was saved"))
	} else {
		fmt.Fprintf(&b, "  • Ledger size: %d", len(outcome.Ledger))
	}
	return RenderBox("Import Complete", b.String())
}

// RenderRecategorizeSummary describes a recategorization run.
func RenderRecategorizeSummary(outcome *engine.Outcome, dryRun bool) string {
	var b strings.Builder
	writeTierCounts(&b, outcome.Result)
	fmt.Fprintf(&b, "  • Transactions updated: %d", len(outcome.Transactions))
	if dryRun {
		b.WriteString("\n" + SubtleStyle.Render("  Dry run: nothing was saved"))
	}
	return RenderBox("Recategorization Complete", b.String())
}

func writeTierCounts(b *strings.Builder, r *engine.Result) {
	fmt.Fprintf(b, "  • Matched by rules: %d\n", r.RuleMatched)
	fmt.Fprintf(b, "  • Categorized by AI: %d %s\n", r.AICategorized, RobotIcon)
	fmt.Fprintf(b, "  • Income fallback: %d\n", r.IncomeAssigned)
	fmt.Fprintf(b, "  • Still uncategorized: %d\n", r.Uncategorized)
	if r.Usage.InputTokens > 0 || r.Usage.OutputTokens > 0 {
		fmt.Fprintf(b, "  • Tokens: %d in / %d out\n", r.Usage.InputTokens, r.Usage.OutputTokens)
	}
}

// RenderAILog formats categorization log entries, one per line.
func RenderAILog(entries []model.AICategorizationLog) string {
	var b strings.Builder
	for _, e := range entries {
		line := fmt.Sprintf("%s [%s] %s", e.Timestamp.Format("15:04:05"), e.Type, e.Message)
		switch e.Type {
		case model.AILogError:
			line = ErrorStyle.Render(line)
		case model.AILogSuccess:
			line = SuccessStyle.Render(line)
		case model.AILogDebug:
			line = SubtleStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// TransactionRows formats ledger entries for RenderTable.
func TransactionRows(txns []model.Transaction, catalog []model.Category) [][]string {
	rows := make([][]string, 0, len(txns))
	for _, txn := range txns {
		name := txn.CategoryID
		if cat, ok := model.FindCategory(catalog, txn.CategoryID); ok {
			name = cat.Name
		} else if txn.IsUncategorized() {
			name = model.UncategorizedCategory().Name
		}
		rows = append(rows, []string{
			txn.ID,
			txn.Date.Format("2006-01-02"),
			txn.Description,
			fmt.Sprintf("%.2f", txn.Amount),
			name,
			provenanceLabel(txn),
		})
	}
	return rows
}

func provenanceLabel(txn model.Transaction) string {
	switch {
	case txn.CategorizedByRule:
		return "rule"
	case txn.CategorizedByAI:
		return "ai"
	case txn.IsUncategorized():
		return ""
	default:
		return "manual"
	}
}

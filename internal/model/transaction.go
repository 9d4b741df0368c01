// Package model defines the core data structures for the sift application.
package model

import "time"

// Provenance records which mechanism last set a transaction's category.
type Provenance int

const (
	// ProvenanceNone is used for manual edits and the income fallback.
	ProvenanceNone Provenance = iota
	// ProvenanceRule marks a category assigned by a user-defined rule.
	ProvenanceRule
	// ProvenanceAI marks a category assigned by the AI classifier.
	ProvenanceAI
)

// ParsedTransaction is a statement row that has been parsed but not yet committed.
type ParsedTransaction struct {
	Date        time.Time `json:"date"`
	RawDate     string    `json:"rawDate"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
}

// Transaction is a committed ledger entry.
type Transaction struct {
	Date              time.Time `json:"date"`
	ID                string    `json:"id"`
	RawDate           string    `json:"rawDate"`
	Description       string    `json:"description"`
	CategoryID        string    `json:"categoryId,omitempty"`
	Amount            float64   `json:"amount"`
	CategorizedByRule bool      `json:"categorizedByRule"`
	CategorizedByAI   bool      `json:"categorizedByAI"`
}

// NewTransaction commits a parsed row under the given id. The new transaction
// starts out uncategorized.
func NewTransaction(id string, p ParsedTransaction) Transaction {
	return Transaction{
		ID:          id,
		Date:        p.Date,
		RawDate:     p.RawDate,
		Description: p.Description,
		Amount:      p.Amount,
		CategoryID:  UncategorizedID,
	}
}

// IsUncategorized reports whether the transaction has no category.
func (t *Transaction) IsUncategorized() bool {
	return IsUncategorizedID(t.CategoryID)
}

// IsIncome reports whether the transaction is an inflow.
func (t *Transaction) IsIncome() bool {
	return t.Amount > 0
}

// SetCategory assigns a category and updates the provenance flags so that at
// most one of them is set.
func (t *Transaction) SetCategory(categoryID string, by Provenance) {
	if categoryID == "" {
		categoryID = UncategorizedID
	}
	t.CategoryID = categoryID
	t.CategorizedByRule = by == ProvenanceRule
	t.CategorizedByAI = by == ProvenanceAI
}

// Parsed returns the statement fields of the transaction.
func (t *Transaction) Parsed() ParsedTransaction {
	return ParsedTransaction{
		Date:        t.Date,
		RawDate:     t.RawDate,
		Description: t.Description,
		Amount:      t.Amount,
	}
}

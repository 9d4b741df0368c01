package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_SetCategory(t *testing.T) {
	tests := []struct {
		name       string
		categoryID string
		wantID     string
		by         Provenance
		wantRule   bool
		wantAI     bool
	}{
		{name: "rule", categoryID: "cat-a", by: ProvenanceRule, wantID: "cat-a", wantRule: true},
		{name: "ai", categoryID: "cat-b", by: ProvenanceAI, wantID: "cat-b", wantAI: true},
		{name: "manual clears both flags", categoryID: "cat-c", by: ProvenanceNone, wantID: "cat-c"},
		{name: "empty becomes uncategorized", categoryID: "", by: ProvenanceNone, wantID: UncategorizedID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := Transaction{CategorizedByRule: true, CategorizedByAI: true}
			txn.SetCategory(tt.categoryID, tt.by)

			assert.Equal(t, tt.wantID, txn.CategoryID)
			assert.Equal(t, tt.wantRule, txn.CategorizedByRule)
			assert.Equal(t, tt.wantAI, txn.CategorizedByAI)
			assert.False(t, txn.CategorizedByRule && txn.CategorizedByAI)
		})
	}
}

func TestNewTransaction(t *testing.T) {
	parsed := ParsedTransaction{
		Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		RawDate:     "01/02/2024",
		Description: "WOOLWORTHS 123",
		Amount:      -45.20,
	}

	txn := NewTransaction("txn-1", parsed)

	assert.Equal(t, "txn-1", txn.ID)
	assert.True(t, txn.IsUncategorized())
	assert.False(t, txn.IsIncome())
	assert.Equal(t, parsed, txn.Parsed())
}

func TestIsUncategorizedID(t *testing.T) {
	assert.True(t, IsUncategorizedID(""))
	assert.True(t, IsUncategorizedID(UncategorizedID))
	assert.False(t, IsUncategorizedID("cat-income"))
}

func TestFindCategoryByName(t *testing.T) {
	cats := DefaultCategories()

	income, ok := FindCategoryByName(cats, "  income ")
	assert.True(t, ok)
	assert.Equal(t, "cat-income", income.ID)

	_, ok = FindCategoryByName(cats, "Salary")
	assert.False(t, ok)

	found, ok := FindCategory(cats, UncategorizedID)
	assert.True(t, ok)
	assert.True(t, found.IsReserved())
}

func TestConditionAndPeriodValidity(t *testing.T) {
	assert.True(t, ConditionStartsWith.Valid())
	assert.False(t, ConditionType("regex").Valid())
	assert.True(t, PeriodMonthly.Valid())
	assert.False(t, BudgetPeriod("daily").Valid())
}

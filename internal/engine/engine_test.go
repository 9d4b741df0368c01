package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/config"
	"github.com/Veraticus/sift/internal/dates"
	"github.com/Veraticus/sift/internal/llm"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/statement"
	"github.com/Veraticus/sift/internal/testutil"
)

const bankCSV = `Date,Description,Debit,Credit
02/01/2024,WOOLWORTHS 123,45.20,
03/01/2024,CORNER CAFE,4.50,
05/01/2024,ACME PAYROLL,,2500.00
`

func newTestEngine(t *testing.T, classifier llm.Classifier) (*Engine, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	e := New(db.Storage, classifier, nil).
		WithParser(statement.NewParserWithResolver(nil, dates.NewResolver(dates.DayFirst)))
	return e, db
}

func importOptions() ImportOptions {
	return ImportOptions{FileType: statement.FileTypeCSV, AI: config.ImportAI(), UseAI: true}
}

func TestImportStatement_PersistsCategorizedRows(t *testing.T) {
	mock := NewMockClassifier(map[string]string{"cafe": "cat-dining"})
	e, db := newTestEngine(t, mock)
	db.WithRules(testutil.Rule(model.ConditionStartsWith, "woolworths", "cat-groceries"))

	outcome, err := e.ImportStatement(context.Background(), []byte(bankCSV), importOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Parsed)
	assert.Equal(t, 1, outcome.RuleMatched)
	assert.Equal(t, 1, outcome.AICategorized)
	assert.Equal(t, 1, outcome.IncomeAssigned)

	ledger := db.Transactions()
	require.Len(t, ledger, 3)
	assert.Equal(t, outcome.Ledger, ledger)

	byDesc := map[string]model.Transaction{}
	for _, txn := range ledger {
		byDesc[txn.Description] = txn
	}
	assert.Equal(t, "cat-groceries", byDesc["WOOLWORTHS 123"].CategoryID)
	assert.True(t, byDesc["WOOLWORTHS 123"].CategorizedByRule)
	assert.Equal(t, "cat-dining", byDesc["CORNER CAFE"].CategoryID)
	assert.True(t, byDesc["CORNER CAFE"].CategorizedByAI)
	assert.Equal(t, "cat-income", byDesc["ACME PAYROLL"].CategoryID)
	assert.Equal(t, "2024-01-03", byDesc["CORNER CAFE"].Date.Format("2006-01-02"))
}

func TestImportStatement_ReimportAddsNothing(t *testing.T) {
	e, db := newTestEngine(t, NewMockClassifier(nil))
	ctx := context.Background()

	_, err := e.ImportStatement(ctx, []byte(bankCSV), importOptions())
	require.NoError(t, err)

	outcome, err := e.ImportStatement(ctx, []byte(bankCSV), importOptions())
	require.NoError(t, err)
	assert.Empty(t, outcome.Transactions)
	assert.Equal(t, 3, outcome.Duplicates)
	assert.Len(t, db.Transactions(), 3)
}

func TestImportStatement_DryRunLeavesStoreUntouched(t *testing.T) {
	e, db := newTestEngine(t, NewMockClassifier(nil))
	opts := importOptions()
	opts.DryRun = true

	outcome, err := e.ImportStatement(context.Background(), []byte(bankCSV), opts)
	require.NoError(t, err)
	assert.Len(t, outcome.Transactions, 3)
	assert.Empty(t, outcome.Ledger)
	assert.Empty(t, db.Transactions())
}

func TestImportStatement_ParseErrorPersistsNothing(t *testing.T) {
	e, db := newTestEngine(t, NewMockClassifier(nil))

	_, err := e.ImportStatement(context.Background(), []byte("Foo,Bar\n1,2\n"), importOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrParse)
	assert.Empty(t, db.Transactions())
}

func TestRecategorizeUncategorized_SavesOnlyChanges(t *testing.T) {
	mock := NewMockClassifier(map[string]string{"netflix": "cat-entertainment"})
	e, db := newTestEngine(t, mock)

	done := testutil.Transaction("t1", "2024-01-01", "RENT", -1200)
	done.SetCategory("cat-housing", model.ProvenanceNone)
	db.WithTransactions(
		done,
		testutil.Transaction("t2", "2024-01-02", "NETFLIX.COM", -15.99),
		testutil.Transaction("t3", "2024-01-03", "UNKNOWN SHOP", -9),
	)

	outcome, err := e.RecategorizeUncategorized(context.Background(), RecategorizeOptions{AI: config.RecategorizeAI(), UseAI: true})
	require.NoError(t, err)
	require.Len(t, outcome.Transactions, 1)
	assert.Equal(t, "t2", outcome.Transactions[0].ID)

	require.Len(t, mock.Requests(), 1)
	assert.Len(t, mock.Requests()[0].Batch, 2, "categorized rows are not sent again")

	saved, err := db.Storage.GetTransactionByID(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, "cat-entertainment", saved.CategoryID)
	assert.True(t, saved.CategorizedByAI)

	untouched, err := db.Storage.GetTransactionByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, done, untouched)
}

func TestAssignCategory_ClearsProvenance(t *testing.T) {
	e, db := newTestEngine(t, nil)
	txn := testutil.Transaction("t1", "2024-01-01", "CORNER CAFE", -4.5)
	txn.SetCategory("cat-dining", model.ProvenanceAI)
	db.WithTransactions(txn)

	got, err := e.AssignCategory(context.Background(), "t1", "cat-shopping")
	require.NoError(t, err)
	assert.Equal(t, "cat-shopping", got.CategoryID)
	assert.False(t, got.CategorizedByAI)
	assert.False(t, got.CategorizedByRule)

	_, err = e.AssignCategory(context.Background(), "t1", "cat-missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = e.AssignCategory(context.Background(), "nope", "cat-shopping")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTestRule(t *testing.T) {
	e, db := newTestEngine(t, nil)
	db.WithRules(
		testutil.Rule(model.ConditionContains, "uber", "cat-transport"),
		testutil.Rule(model.ConditionContains, "uber eats", "cat-dining"),
	)

	match, ok, err := e.TestRule(context.Background(), "  UBER EATS SYDNEY ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Transport", match.Category.Name)

	_, ok, err = e.TestRule(context.Background(), "WOOLWORTHS")
	require.NoError(t, err)
	assert.False(t, ok)
}

var errDiskFull = errors.New("disk full")

// failingWrites is a store whose batch writes always fail.
type failingWrites struct {
	service.Storage
}

func (failingWrites) AddTransactions(context.Context, []model.Transaction) error {
	return errDiskFull
}

func (failingWrites) PutTransactions(context.Context, []model.Transaction) error {
	return errDiskFull
}

func newFailingEngine(t *testing.T, classifier llm.Classifier) (*Engine, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	e := New(failingWrites{Storage: db.Storage}, classifier, nil).
		WithParser(statement.NewParserWithResolver(nil, dates.NewResolver(dates.DayFirst)))
	return e, db
}

func TestImportStatement_StorageFailureCommitsNothing(t *testing.T) {
	e, db := newFailingEngine(t, NewMockClassifier(map[string]string{"cafe": "cat-dining"}))

	outcome, err := e.ImportStatement(context.Background(), []byte(bankCSV), importOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Nil(t, outcome)
	assert.Empty(t, db.Transactions())
}

func TestRecategorizeUncategorized_StorageFailureCommitsNothing(t *testing.T) {
	e, db := newFailingEngine(t, NewMockClassifier(map[string]string{"netflix": "cat-entertainment"}))
	db.WithTransactions(testutil.Transaction("t1", "2024-01-02", "NETFLIX.COM", -15.99))

	outcome, err := e.RecategorizeUncategorized(context.Background(), RecategorizeOptions{AI: config.RecategorizeAI(), UseAI: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Nil(t, outcome)

	saved, err := db.Storage.GetTransactionByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, saved.IsUncategorized())
	assert.False(t, saved.CategorizedByAI)
}

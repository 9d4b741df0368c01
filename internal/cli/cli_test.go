package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/engine"
	"github.com/Veraticus/sift/internal/model"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes with spaces", input: "  YES  \n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "eof", input: "", want: false},
		{name: "no trailing newline", input: "yes", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := Confirm(context.Background(), strings.NewReader(tt.input), &out, "Replace everything?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Replace everything?")
		})
	}
}

type blockingReader struct{ release chan struct{} }

func (b blockingReader) Read(_ []byte) (int, error) {
	<-b.release
	return 0, nil
}

func TestReadLine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	r := blockingReader{release: make(chan struct{})}
	defer close(r.release)

	_, err := ReadLine(ctx, r)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestInterruptHandler_PrintsOnce(t *testing.T) {
	var out bytes.Buffer
	h := NewInterruptHandler(&out)
	h.SetMessage("Import interrupted")

	assert.False(t, h.WasInterrupted())
	h.Interrupt()
	h.Interrupt()

	assert.True(t, h.WasInterrupted())
	assert.Equal(t, 1, strings.Count(out.String(), "Import interrupted"))
}

func TestInterruptHandler_StopCancels(t *testing.T) {
	h := NewInterruptHandler(&bytes.Buffer{})
	ctx, stop := h.HandleInterrupts(context.Background())
	stop()
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled by stop")
	}
	assert.False(t, h.WasInterrupted())
}

func TestProgressReporter(t *testing.T) {
	var out bytes.Buffer
	r := NewProgressReporter(&out, "Categorizing")
	progress := r.Func()

	progress(0, 0)
	assert.Empty(t, out.String(), "no bar before the total is known")

	progress(2, 4)
	progress(4, 4)
	r.Finish()
	assert.Contains(t, out.String(), "Categorizing")
}

func TestRenderImportSummary(t *testing.T) {
	outcome := &engine.Outcome{
		Result: &engine.Result{RuleMatched: 2, AICategorized: 1, IncomeAssigned: 1, Duplicates: 3},
		Parsed: 7,
	}

	out := RenderImportSummary(outcome, true)
	assert.Contains(t, out, "Rows parsed: 7")
	assert.Contains(t, out, "Duplicates skipped: 3")
	assert.Contains(t, out, "Matched by rules: 2")
	assert.Contains(t, out, "Dry run")
}

func TestTransactionRows(t *testing.T) {
	catalog := model.DefaultCategories()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	ruled := model.Transaction{ID: "a", Date: date, Description: "BUS", Amount: -2.5}
	ruled.SetCategory("cat-transport", model.ProvenanceRule)
	manual := model.Transaction{ID: "b", Date: date, Description: "GIFT", Amount: -10}
	manual.SetCategory("cat-shopping", model.ProvenanceNone)
	plain := model.Transaction{ID: "c", Date: date, Description: "???", Amount: -1}

	rows := TransactionRows([]model.Transaction{ruled, manual, plain}, catalog)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "2024-01-02", "BUS", "-2.50", "Transport", "rule"}, rows[0])
	assert.Equal(t, "manual", rows[1][5])
	assert.Equal(t, "Uncategorized", rows[2][4])
	assert.Equal(t, "", rows[2][5])

	assert.Contains(t, RenderTable([]string{"ID"}, [][]string{{"a"}}), "ID")
}

package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/service"
)

func update(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	require.True(t, ok)
	return pm, cmd
}

func TestProgressModel_Lifecycle(t *testing.T) {
	m := NewProgressModel("Importing", nil)
	assert.Contains(t, m.View(), "Preparing")

	m, _ = update(t, m, progressMsg{processed: 1, total: 4})
	assert.InDelta(t, 0.25, m.Percent(), 0.001)
	assert.Contains(t, m.View(), "1 / 4 transactions")

	m, cmd := update(t, m, doneMsg{})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Done")
}

func TestProgressModel_CancelKey(t *testing.T) {
	canceled := false
	m := NewProgressModel("Importing", func() { canceled = true })

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, canceled)
	assert.Contains(t, m.View(), "Stopping")

	m, _ = update(t, m, doneMsg{err: context.Canceled})
	assert.Contains(t, m.View(), "Canceled")
}

func TestProgressModel_Failure(t *testing.T) {
	m := NewProgressModel("Importing", nil)
	m, _ = update(t, m, doneMsg{err: errors.New("disk full")})
	assert.Contains(t, m.View(), "disk full")
}

func TestRun_ReturnsWorkError(t *testing.T) {
	boom := errors.New("boom")
	var reported [][2]int

	err := Run(context.Background(), "Testing", func(_ context.Context, progress service.ProgressFunc) error {
		progress(1, 2)
		reported = append(reported, [2]int{1, 2})
		return boom
	}, tea.WithInput(nil), tea.WithOutput(&bytes.Buffer{}), tea.WithoutRenderer())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, [][2]int{{1, 2}}, reported)
}

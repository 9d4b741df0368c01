// Package tui renders long-running pipeline work as an interactive
// terminal view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/tui/themes"
)

// Work is the job a progress view runs. It reports progress through the
// callback and should stop when ctx is canceled.
type Work func(ctx context.Context, progress service.ProgressFunc) error

type progressMsg struct {
	processed int
	total     int
}

type doneMsg struct {
	err error
}

// ProgressModel shows a spinner until the total is known, then a bar.
type ProgressModel struct {
	started   time.Time
	err       error
	cancel    context.CancelFunc
	theme     themes.Theme
	title     string
	spinner   spinner.Model
	bar       progress.Model
	processed int
	total     int
	done      bool
	canceled  bool
}

// NewProgressModel creates the view. cancel is called when the user quits.
func NewProgressModel(title string, cancel context.CancelFunc) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = s.Style.Foreground(themes.Default.Primary)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return ProgressModel{
		title:   title,
		cancel:  cancel,
		theme:   themes.Default,
		spinner: s,
		bar:     bar,
		started: time.Now(),
	}
}

// Init starts the spinner.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.canceled && m.cancel != nil {
				m.cancel()
			}
			m.canceled = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-8, 60))
		return m, nil

	case progressMsg:
		m.processed = msg.processed
		m.total = msg.total
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current state.
func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.title) + "\n")

	switch {
	case m.done && m.err != nil && !errors.Is(m.err, context.Canceled):
		b.WriteString(m.theme.StatusError.Render("Failed: "+m.err.Error()) + "\n")
	case m.done && m.canceled:
		b.WriteString(m.theme.StatusError.Render("Canceled") + "\n")
	case m.done:
		b.WriteString(m.theme.StatusSuccess.Render(fmt.Sprintf("Done in %s", time.Since(m.started).Round(time.Second))) + "\n")
	case m.total == 0:
		b.WriteString(m.spinner.View() + " " + m.theme.Subtitle.Render("Preparing...") + "\n")
	default:
		b.WriteString(m.bar.ViewAs(m.Percent()) + "\n")
		b.WriteString(m.theme.Subtitle.Render(fmt.Sprintf("%d / %d transactions", m.processed, m.total)) + "\n")
	}

	if m.canceled && !m.done {
		b.WriteString(m.theme.StatusInfo.Render("Stopping after the current batch...") + "\n")
	} else if !m.done {
		b.WriteString(m.theme.Subtitle.Render("q to cancel") + "\n")
	}
	return b.String()
}

// Percent is the completed fraction in [0, 1].
func (m ProgressModel) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return min(1, float64(m.processed)/float64(m.total))
}

// Run executes work while showing progress. It returns work's error.
func Run(ctx context.Context, title string, work Work, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewProgressModel(title, cancel), opts...)

	errCh := make(chan error, 1)
	go func() {
		err := work(ctx, func(processed, total int) {
			program.Send(progressMsg{processed: processed, total: total})
		})
		errCh <- err
		program.Send(doneMsg{err: err})
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-errCh
		return fmt.Errorf("progress view failed: %w", err)
	}
	return <-errCh
}

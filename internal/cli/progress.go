package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/sift/internal/service"
)

// ProgressReporter draws pipeline progress as a terminal bar. The bar is
// created on the first report, once the total is known.
type ProgressReporter struct {
	writer      io.Writer
	bar         *progressbar.ProgressBar
	description string
	total       int
	mu          sync.Mutex
}

// NewProgressReporter creates a reporter that writes to w.
func NewProgressReporter(w io.Writer, description string) *ProgressReporter {
	return &ProgressReporter{writer: w, description: description}
}

// Func returns the callback to hand to the pipeline.
func (r *ProgressReporter) Func() service.ProgressFunc {
	return r.Report
}

// Report moves the bar to processed of total.
func (r *ProgressReporter) Report(processed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if total <= 0 {
		return
	}
	if r.bar == nil || total != r.total {
		r.bar = r.newBar(total)
		r.total = total
	}
	if err := r.bar.Set(processed); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar if one was drawn.
func (r *ProgressReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar == nil || r.bar.IsFinished() {
		return
	}
	if err := r.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

func (r *ProgressReporter) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+r.description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(r.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

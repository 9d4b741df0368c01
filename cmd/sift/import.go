package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/engine"
	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/statement"
	"github.com/Veraticus/sift/internal/tui"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import bank statements",
		Long: `Parse CSV or OFX/QFX statements, skip rows already in the ledger and
categorize the rest with rules, the AI classifier and the income fallback.

Examples:
  sift import march.csv
  sift import --date-format DMY statement.csv
  sift import --no-ai --dry-run export.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("format", "", "statement format (csv, ofx); detected from the extension by default")
	cmd.Flags().String("date-format", "", "how to read ambiguous dates (auto, DMY, MDY)")
	cmd.Flags().Bool("dry-run", false, "categorize without saving")
	cmd.Flags().Bool("no-ai", false, "skip the AI classifier")
	cmd.Flags().Bool("tui", false, "show an interactive progress view")
	cmd.Flags().Bool("show-log", false, "print the AI categorization log")

	_ = viper.BindPFlag("import.date_format", cmd.Flags().Lookup("date-format"))

	return cmd
}

type runFlags struct {
	dryRun  bool
	noAI    bool
	useTUI  bool
	showLog bool
}

func readRunFlags(cmd *cobra.Command) runFlags {
	var f runFlags
	f.dryRun, _ = cmd.Flags().GetBool("dry-run")
	f.noAI, _ = cmd.Flags().GetBool("no-ai")
	f.useTUI, _ = cmd.Flags().GetBool("tui")
	f.showLog, _ = cmd.Flags().GetBool("show-log")
	return f
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := readRunFlags(cmd)
	format, _ := cmd.Flags().GetString("format")

	store, settings, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	useAI := settings.AI.Enabled && !flags.noAI
	eng, cleanup, err := newEngine(ctx, store, settings, useAI)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	for _, path := range args {
		fileType, err := statementType(path, format)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("cannot read %s", path), err)
		}

		opts := engine.ImportOptions{
			FileType: fileType,
			DateHint: settings.DateHint,
			AI:       settings.AI.Import,
			UseAI:    useAI,
			DryRun:   flags.dryRun,
		}

		slog.Info("Importing statement", "file", path, "type", fileType, "dry_run", flags.dryRun)
		outcome, err := withProgress(ctx, out, flags.useTUI, "Importing "+filepath.Base(path),
			func(ctx context.Context, progress service.ProgressFunc) (*engine.Outcome, error) {
				opts.Progress = progress
				return eng.ImportStatement(ctx, content, opts)
			})
		if err != nil {
			if statement.IsParseError(err) {
				return common.NewUserError(fmt.Sprintf("%s: %v", path, err), err)
			}
			return err
		}

		if _, err := fmt.Fprintln(out, cli.RenderImportSummary(outcome, flags.dryRun)); err != nil {
			return err
		}
		if flags.showLog {
			if _, err := fmt.Fprint(out, cli.RenderAILog(outcome.Logs)); err != nil {
				return err
			}
		}
	}
	return nil
}

func statementType(path, format string) (statement.FileType, error) {
	switch format {
	case "":
		fileType, err := statement.DetectFileType(path)
		if err != nil {
			return "", common.NewUserError(fmt.Sprintf("cannot tell the format of %s, pass --format", path), err)
		}
		return fileType, nil
	case string(statement.FileTypeCSV), string(statement.FileTypeOFX):
		return statement.FileType(format), nil
	default:
		return "", common.NewUserError(fmt.Sprintf("unknown format %q (use csv or ofx)", format), common.ErrInvalidConfig)
	}
}

type outcomeFunc func(ctx context.Context, progress service.ProgressFunc) (*engine.Outcome, error)

// withProgress runs fn under the bubbletea view or a plain progress bar.
func withProgress(ctx context.Context, out io.Writer, useTUI bool, title string, fn outcomeFunc) (*engine.Outcome, error) {
	if useTUI {
		var outcome *engine.Outcome
		err := tui.Run(ctx, title, func(ctx context.Context, progress service.ProgressFunc) error {
			var err error
			outcome, err = fn(ctx, progress)
			return err
		})
		return outcome, err
	}

	reporter := cli.NewProgressReporter(out, title)
	outcome, err := fn(ctx, reporter.Func())
	reporter.Finish()
	return outcome, err
}

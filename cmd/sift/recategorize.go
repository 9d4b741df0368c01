package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/engine"
	"github.com/Veraticus/sift/internal/service"
)

func recategorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recategorize",
		Short: "Categorize transactions that are still uncategorized",
		Long: `Run the rule, AI and income tiers again over every uncategorized
transaction. The AI tier uses the recategorize model settings, which default
to a stronger model with thinking enabled.`,
		Args: cobra.NoArgs,
		RunE: runRecategorize,
	}

	cmd.Flags().Bool("dry-run", false, "categorize without saving")
	cmd.Flags().Bool("no-ai", false, "skip the AI classifier")
	cmd.Flags().Bool("tui", false, "show an interactive progress view")
	cmd.Flags().Bool("show-log", false, "print the AI categorization log")

	return cmd
}

func runRecategorize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := readRunFlags(cmd)

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

	slog.Info("Recategorizing uncategorized transactions", "model", settings.AI.Recategorize.ModelName, "ai", useAI)
	out := cmd.OutOrStdout()
	outcome, err := withProgress(ctx, out, flags.useTUI, "Recategorizing",
		func(ctx context.Context, progress service.ProgressFunc) (*engine.Outcome, error) {
			return eng.RecategorizeUncategorized(ctx, engine.RecategorizeOptions{
				Progress: progress,
				AI:       settings.AI.Recategorize,
				UseAI:    useAI,
				DryRun:   flags.dryRun,
			})
		})
	if err != nil {
		if ctx.Err() != nil {
			return common.NewUserError("recategorization canceled, nothing was saved", err)
		}
		return err
	}

	if _, err := fmt.Fprintln(out, cli.RenderRecategorizeSummary(outcome, flags.dryRun)); err != nil {
		return err
	}
	if flags.showLog {
		_, err = fmt.Fprint(out, cli.RenderAILog(outcome.Logs))
	}
	return err
}

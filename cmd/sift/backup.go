package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the whole ledger",
		Long: `Export writes transactions, categories, rules and budgets to a JSON
snapshot. Restore replaces everything in the database with a snapshot.`,
	}

	cmd.AddCommand(exportCmd())
	cmd.AddCommand(restoreCmd())

	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a snapshot to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return common.NewUserError("cannot create backup file", err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil {
						cmd.PrintErrln(cli.FormatWarning("failed to close backup file: " + cerr.Error()))
					}
				}()
				w = f
			}

			snapshot, err := storage.Export(ctx, store, w)
			if err != nil {
				return err
			}
			if len(args) == 1 && args[0] != "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Exported %s to %s", snapshotCounts(snapshot), args[0])))
			}
			return err
		},
	}
}

func restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			yes, _ := cmd.Flags().GetBool("yes")

			f, err := os.Open(args[0])
			if err != nil {
				return common.NewUserError("cannot open backup file", err)
			}
			defer func() { _ = f.Close() }()

			if !yes {
				ok, err := cli.Confirm(ctx, cmd.InOrStdin(), cmd.OutOrStdout(),
					"This replaces every transaction, category, rule and budget. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Restore cancelled"))
					return err
				}
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			snapshot, err := storage.Import(ctx, store, f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Restored "+snapshotCounts(snapshot)))
			return err
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func snapshotCounts(s model.Snapshot) string {
	return fmt.Sprintf("%d transactions, %d categories, %d rules, %d budgets",
		len(s.Transactions), len(s.Categories), len(s.Rules), len(s.Budgets))
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Inspect and edit the ledger",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(setCategoryCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			uncategorized, _ := cmd.Flags().GetBool("uncategorized")
			category, _ := cmd.Flags().GetString("category")
			limit, _ := cmd.Flags().GetInt("limit")

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			txns, err := store.GetTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}
			catalog, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			var filterID string
			if category != "" {
				cat, err := resolveCategory(catalog, category)
				if err != nil {
					return err
				}
				filterID = cat.ID
			}

			var shown []model.Transaction
			for _, txn := range txns {
				if uncategorized && !txn.IsUncategorized() {
					continue
				}
				if filterID != "" && txn.CategoryID != filterID {
					continue
				}
				shown = append(shown, txn)
			}
			// Most recent last; the limit keeps the newest rows.
			if limit > 0 && len(shown) > limit {
				shown = shown[len(shown)-limit:]
			}

			return cli.PrintTable(cmd.OutOrStdout(),
				[]string{"ID", "Date", "Description", "Amount", "Category", "By"},
				cli.TransactionRows(shown, catalog),
				"No transactions found. Use 'sift import' to add some.")
		},
	}

	cmd.Flags().Bool("uncategorized", false, "only show uncategorized transactions")
	cmd.Flags().String("category", "", "only show transactions in this category")
	cmd.Flags().Int("limit", 0, "show at most this many of the newest transactions")

	return cmd
}

func setCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-category <transaction-id> <category>",
		Short: "Assign a category by hand",
		Long:  `Assign a category manually. Manual choices clear the rule and AI markers.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, settings, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			catalog, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}
			cat, err := resolveCategory(catalog, args[1])
			if err != nil {
				return err
			}

			eng, cleanup, err := newEngine(ctx, store, settings, false)
			if err != nil {
				return err
			}
			defer cleanup()

			txn, err := eng.AssignCategory(ctx, args[0], cat.ID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s → %s", txn.Description, cat.Name)))
			return err
		},
	}
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Remove a transaction from the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.DeleteTransaction(ctx, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted transaction "+args[0]))
			return err
		},
	}
}

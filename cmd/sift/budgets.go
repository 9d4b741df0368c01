package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage category budgets",
	}

	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(deleteBudgetCmd())

	return cmd
}

// budgetID keys budgets by category and period so setting one again
// replaces it.
func budgetID(categoryID string, period model.BudgetPeriod) string {
	return "budget-" + strings.TrimPrefix(categoryID, "cat-") + "-" + string(period)
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			budgets, err := store.GetBudgets(ctx)
			if err != nil {
				return fmt.Errorf("failed to get budgets: %w", err)
			}
			catalog, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			rows := make([][]string, 0, len(budgets))
			for _, b := range budgets {
				name := b.CategoryID
				if cat, ok := model.FindCategory(catalog, b.CategoryID); ok {
					name = cat.Name
				}
				rows = append(rows, []string{
					b.ID,
					name,
					string(b.Period),
					decimal.NewFromFloat(b.Amount).StringFixed(2),
				})
			}
			return cli.PrintTable(cmd.OutOrStdout(),
				[]string{"ID", "Category", "Period", "Amount"}, rows,
				"No budgets set. Use 'sift budgets set' to add one.")
		},
	}
}

func setBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set <category> <amount>",
		Short:   "Set the budget for a category",
		Example: `  sift budgets set Groceries 600 --period monthly`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			periodFlag, _ := cmd.Flags().GetString("period")
			period := model.BudgetPeriod(strings.ToLower(periodFlag))
			if !period.Valid() {
				return common.NewUserError(fmt.Sprintf("period must be weekly, monthly or yearly, got %q", periodFlag), common.ErrInvalidConfig)
			}
			amount, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil || amount < 0 {
				return common.NewUserError(fmt.Sprintf("%q is not a valid amount", args[1]), err)
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			catalog, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}
			cat, err := resolveCategory(catalog, args[0])
			if err != nil {
				return err
			}

			budget := model.Budget{
				ID:         budgetID(cat.ID, period),
				CategoryID: cat.ID,
				Period:     period,
				Amount:     decimal.NewFromFloat(amount).Round(2).InexactFloat64(),
			}
			if err := store.PutBudget(ctx, budget); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("%s budget for %s set to %.2f", period, cat.Name, budget.Amount)))
			return err
		},
	}

	cmd.Flags().String("period", string(model.PeriodMonthly), "weekly, monthly or yearly")

	return cmd
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <budget-id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.DeleteBudget(ctx, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted budget "+args[0]))
			return err
		},
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long:  `List, add and delete the categories transactions are sorted into.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}
			txns, err := store.GetTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}
			counts := make(map[string]int)
			for _, txn := range txns {
				id := txn.CategoryID
				if txn.IsUncategorized() {
					id = model.UncategorizedID
				}
				counts[id]++
			}

			rows := make([][]string, 0, len(categories))
			for _, cat := range categories {
				rows = append(rows, []string{
					cli.ColorSwatch(cat.Color),
					cat.ID,
					cat.Name,
					fmt.Sprintf("%d", counts[cat.ID]),
					cat.Description,
				})
			}
			return cli.PrintTable(cmd.OutOrStdout(),
				[]string{"", "ID", "Name", "Transactions", "Description"}, rows,
				"No categories found. Use 'sift categories add' to create one.")
		},
	}
}

func addCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			color, _ := cmd.Flags().GetString("color")
			icon, _ := cmd.Flags().GetString("icon")
			description, _ := cmd.Flags().GetString("description")

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			cat := model.Category{
				ID:          categoryID(args[0]),
				Name:        args[0],
				Color:       color,
				Icon:        icon,
				Description: description,
			}
			catalog, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}
			if _, taken := model.FindCategory(catalog, cat.ID); taken {
				return common.NewUserError(fmt.Sprintf("category %q already exists", args[0]), common.ErrDuplicateEntry)
			}

			if err := store.PutCategory(ctx, cat); err != nil {
				if errors.Is(err, common.ErrDuplicateEntry) {
					return common.NewUserError(fmt.Sprintf("category %q already exists", args[0]), err)
				}
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added category %s (%s)", cat.Name, cat.ID)))
			return err
		},
	}

	cmd.Flags().String("color", "#94A3B8", "display color as a hex value")
	cmd.Flags().String("icon", "tag", "icon name")
	cmd.Flags().String("description", "", "what belongs in this category; shown to the AI classifier")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category>",
		Short: "Delete a category",
		Long: `Delete a category by id or name. Its transactions become uncategorized
and the rules and budgets that point at it are removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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

			if err := store.DeleteCategory(ctx, cat.ID); err != nil {
				if errors.Is(err, common.ErrReservedCategory) {
					return common.NewUserError(fmt.Sprintf("%s cannot be deleted", cat.Name), err)
				}
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted category "+cat.Name))
			return err
		},
	}
}

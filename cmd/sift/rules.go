package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long: `Rules map descriptions to categories. They are checked in order and
the first match wins; matching ignores case.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(deleteRuleCmd())
	cmd.AddCommand(reorderRulesCmd())
	cmd.AddCommand(loadRulesCmd())
	cmd.AddCommand(testRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			ruleSet, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}
			catalog, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			rows := make([][]string, 0, len(ruleSet))
			for i, rule := range ruleSet {
				name := rule.CategoryID
				if cat, ok := model.FindCategory(catalog, rule.CategoryID); ok {
					name = cat.Name
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					rule.ID,
					string(rule.ConditionType),
					strconv.Quote(rule.ConditionValue),
					name,
				})
			}
			return cli.PrintTable(cmd.OutOrStdout(),
				[]string{"#", "ID", "Condition", "Value", "Category"}, rows,
				"No rules yet. Use 'sift rules add' or 'sift rules load'.")
		},
	}
}

func addRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <value> <category>",
		Short: "Append a rule",
		Example: `  sift rules add woolworths Groceries
  sift rules add --condition startsWith "UBER EATS" Dining`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			condition, _ := cmd.Flags().GetString("condition")

			store, _, err := initStorage(ctx)
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

			rule, err := store.AddRule(ctx, model.Rule{
				ConditionType:  model.ConditionType(condition),
				ConditionValue: args[0],
				CategoryID:     cat.ID,
			})
			if err != nil {
				return common.NewUserError("rule not added", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Added rule %s: %s %q → %s", rule.ID, rule.ConditionType, rule.ConditionValue, cat.Name)))
			return err
		},
	}

	cmd.Flags().String("condition", string(model.ConditionContains), "contains, startsWith or equals")

	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.DeleteRule(ctx, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted rule "+args[0]))
			return err
		},
	}
}

func reorderRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <rule-id>...",
		Short: "Set the evaluation order",
		Long:  `Give every rule id in the order rules should be checked.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.ReorderRules(ctx, args); err != nil {
				return common.NewUserError("rules not reordered", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Reordered %d rules", len(args))))
			return err
		},
	}
}

func loadRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file.yaml>",
		Short: "Append rules from a YAML file",
		Long: `Append rules from a YAML file. Categories may be given by id or name.

  rules:
    - condition: contains
      value: woolworths
      category: Groceries`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defs, err := rules.LoadFile(args[0])
			if err != nil {
				return common.NewUserError("cannot read rules file", err)
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
			existing, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}
			resolved, err := rules.Resolve(defs, catalog, existing)
			if err != nil {
				return common.NewUserError("rules file is invalid", err)
			}
			for _, rule := range resolved {
				if _, err := store.AddRule(ctx, rule); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Loaded %d rules", len(resolved))))
			return err
		},
	}
}

func testRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <description>",
		Short: "Show which rule would categorize a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, settings, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			eng, cleanup, err := newEngine(ctx, store, settings, false)
			if err != nil {
				return err
			}
			defer cleanup()

			match, ok, err := eng.TestRule(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				_, err = fmt.Fprintln(out, cli.FormatInfo("No rule matches; the AI and income tiers would decide."))
				return err
			}
			_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Rule %s (%s %q) → %s",
				match.Rule.ID, match.Rule.ConditionType, match.Rule.ConditionValue, match.Category.Name)))
			return err
		},
	}
}

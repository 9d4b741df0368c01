package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/rules"
	"github.com/google/uuid"
)

// GetRules returns every rule in evaluation order.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return queryRules(ctx, s.db)
}

func queryRules(ctx context.Context, q querier) ([]model.Rule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, condition_type, condition_value, category_id, sort_order
		FROM rules
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.Rule
	for rows.Next() {
		var rule model.Rule
		if err := rows.Scan(&rule.ID, &rule.ConditionType, &rule.ConditionValue, &rule.CategoryID, &rule.Order); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return result, nil
}

// AddRule appends a rule after every existing one. An empty id is replaced
// with a generated one. The stored rule is returned.
func (s *SQLiteStorage) AddRule(ctx context.Context, rule model.Rule) (model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return model.Rule{}, err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := validateRule(rule); err != nil {
		return model.Rule{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := queryRules(ctx, tx)
		if err != nil {
			return err
		}
		rule.Order = rules.NextOrder(existing)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rules (id, condition_type, condition_value, category_id, sort_order)
			VALUES (?, ?, ?, ?, ?)`,
			rule.ID, rule.ConditionType, rule.ConditionValue, rule.CategoryID, rule.Order)
		if err != nil {
			return fmt.Errorf("failed to add rule: %w", translateError(err))
		}
		return nil
	})
	if err != nil {
		return model.Rule{}, err
	}

	slog.Info("added rule", "id", rule.ID, "order", rule.Order)
	return rule, nil
}

// PutRule creates or replaces a rule, keeping the order it carries.
func (s *SQLiteStorage) PutRule(ctx context.Context, rule model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertRule(ctx, tx, rule)
	})
}

func upsertRule(ctx context.Context, tx *sql.Tx, rule model.Rule) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO rules (id, condition_type, condition_value, category_id, sort_order)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			condition_type = excluded.condition_type,
			condition_value = excluded.condition_value,
			category_id = excluded.category_id,
			sort_order = excluded.sort_order`,
		rule.ID, rule.ConditionType, rule.ConditionValue, rule.CategoryID, rule.Order)
	if err != nil {
		return fmt.Errorf("failed to save rule %s: %w", rule.ID, err)
	}
	return nil
}

// DeleteRule removes one rule. The remaining rules keep their order values.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return expectAffected(res, "rule", id)
}

// ReorderRules rewrites every rule's order from its position in orderedIDs.
func (s *SQLiteStorage) ReorderRules(ctx context.Context, orderedIDs []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := queryRules(ctx, tx)
		if err != nil {
			return err
		}
		reordered, err := rules.Reorder(existing, orderedIDs)
		if err != nil {
			return err
		}
		for _, rule := range reordered {
			if err := upsertRule(ctx, tx, rule); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearRules removes every rule.
func (s *SQLiteStorage) ClearRules(ctx context.Context) error {
	return s.clear(ctx, "rules")
}

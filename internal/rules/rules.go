// Package rules evaluates user-defined description rules.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

// Matches reports whether description satisfies the rule's condition,
// ignoring case.
func Matches(description string, rule model.Rule) bool {
	desc := strings.ToLower(description)
	value := strings.ToLower(rule.ConditionValue)

	switch rule.ConditionType {
	case model.ConditionContains:
		return strings.Contains(desc, value)
	case model.ConditionStartsWith:
		return strings.HasPrefix(desc, value)
	case model.ConditionEquals:
		return desc == value
	}
	return false
}

// FirstMatch returns the lowest-ordered rule matching description.
func FirstMatch(description string, rules []model.Rule) (model.Rule, bool) {
	for _, rule := range Sorted(rules) {
		if Matches(description, rule) {
			return rule, true
		}
	}
	return model.Rule{}, false
}

// Match returns the category of the first matching rule.
func Match(description string, rules []model.Rule) (string, bool) {
	rule, ok := FirstMatch(description, rules)
	if !ok {
		return "", false
	}
	return rule.CategoryID, true
}

// Sorted returns a copy of rules in evaluation order. Ties keep their
// original relative order.
func Sorted(rules []model.Rule) []model.Rule {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b model.Rule) int {
		return a.Order - b.Order
	})
	return sorted
}

// NextOrder is the order a newly appended rule receives.
func NextOrder(rules []model.Rule) int {
	if len(rules) == 0 {
		return 0
	}
	highest := rules[0].Order
	for _, r := range rules[1:] {
		highest = max(highest, r.Order)
	}
	return highest + 1
}

// Reorder assigns every rule its position in orderedIDs. The list must name
// each rule exactly once.
func Reorder(rules []model.Rule, orderedIDs []string) ([]model.Rule, error) {
	if len(orderedIDs) != len(rules) {
		return nil, fmt.Errorf("%w: got %d ids for %d rules", common.ErrInvalidOrder, len(orderedIDs), len(rules))
	}

	byID := make(map[string]model.Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	out := make([]model.Rule, 0, len(rules))
	for i, id := range orderedIDs {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown or repeated rule %q", common.ErrInvalidOrder, id)
		}
		delete(byID, id)
		r.Order = i
		out = append(out, r)
	}
	return out, nil
}

// Validate checks that a rule can be stored.
func Validate(rule model.Rule) error {
	if !rule.ConditionType.Valid() {
		return fmt.Errorf("%w: unknown condition type %q", common.ErrInvalidRule, rule.ConditionType)
	}
	if strings.TrimSpace(rule.ConditionValue) == "" {
		return fmt.Errorf("%w: condition value is empty", common.ErrInvalidRule)
	}
	if strings.TrimSpace(rule.CategoryID) == "" {
		return fmt.Errorf("%w: category is empty", common.ErrInvalidRule)
	}
	return nil
}

package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

// Definition is a rule as written in a rules file. Category may be a
// category id or a category name.
type Definition struct {
	Condition model.ConditionType `yaml:"condition"`
	Value     string              `yaml:"value"`
	Category  string              `yaml:"category"`
}

type ruleFile struct {
	Rules []Definition `yaml:"rules"`
}

// LoadFile reads rule definitions from a YAML file of the form
//
//	rules:
//	  - condition: contains
//	    value: woolworths
//	    category: Groceries
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions decodes the YAML rules document.
func ParseDefinitions(data []byte) ([]Definition, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRule, err)
	}
	return f.Rules, nil
}

// Resolve turns definitions into rules against a category catalog. Rules are
// ordered after existing, in file order. Ids are left empty for the store to
// assign.
func Resolve(defs []Definition, catalog []model.Category, existing []model.Rule) ([]model.Rule, error) {
	next := NextOrder(existing)
	out := make([]model.Rule, 0, len(defs))
	for i, d := range defs {
		cat, ok := model.FindCategory(catalog, d.Category)
		if !ok {
			cat, ok = model.FindCategoryByName(catalog, d.Category)
		}
		if !ok {
			return nil, fmt.Errorf("%w: rule %d: unknown category %q", common.ErrInvalidRule, i+1, d.Category)
		}

		rule := model.Rule{
			ConditionType:  d.Condition,
			ConditionValue: d.Value,
			CategoryID:     cat.ID,
			Order:          next + i,
		}
		if err := Validate(rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

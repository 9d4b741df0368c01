package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

func rule(id string, ct model.ConditionType, value, category string, order int) model.Rule {
	return model.Rule{ID: id, ConditionType: ct, ConditionValue: value, CategoryID: category, Order: order}
}

func TestMatch_FirstRuleWins(t *testing.T) {
	rules := []model.Rule{
		rule("r2", model.ConditionContains, "STARBUCKS", "catB", 1),
		rule("r1", model.ConditionContains, "STAR", "catA", 0),
	}

	got, ok := Match("STARBUCKS #123", rules)
	require.True(t, ok)
	assert.Equal(t, "catA", got)
}

func TestMatches_Conditions(t *testing.T) {
	tests := []struct {
		name string
		rule model.Rule
		desc string
		want bool
	}{
		{"contains ignores case", rule("", model.ConditionContains, "bucks", "c", 0), "STARBUCKS #1", true},
		{"contains miss", rule("", model.ConditionContains, "peet", "c", 0), "STARBUCKS #1", false},
		{"startsWith", rule("", model.ConditionStartsWith, "star", "c", 0), "Starbucks", true},
		{"startsWith miss", rule("", model.ConditionStartsWith, "bucks", "c", 0), "Starbucks", false},
		{"equals", rule("", model.ConditionEquals, "netflix", "c", 0), "NETFLIX", true},
		{"equals partial", rule("", model.ConditionEquals, "netflix", "c", 0), "NETFLIX.COM", false},
		{"unknown type", rule("", model.ConditionType("regex"), "x", "c", 0), "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.desc, tt.rule))
		})
	}
}

func TestMatch_NoRules(t *testing.T) {
	_, ok := Match("anything", nil)
	assert.False(t, ok)
}

func TestNextOrder(t *testing.T) {
	assert.Equal(t, 0, NextOrder(nil))
	assert.Equal(t, 8, NextOrder([]model.Rule{{Order: 3}, {Order: 7}, {Order: 1}}))
}

func TestReorder(t *testing.T) {
	rules := []model.Rule{
		rule("a", model.ConditionContains, "a", "c", 0),
		rule("b", model.ConditionContains, "b", "c", 1),
		rule("c", model.ConditionContains, "c", "c", 2),
	}

	out, err := Reorder(rules, []string{"c", "a", "b"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].ID)
	assert.Equal(t, 0, out[0].Order)
	assert.Equal(t, "a", out[1].ID)
	assert.Equal(t, 1, out[1].Order)
	assert.Equal(t, 2, out[2].Order)

	_, err = Reorder(rules, []string{"a", "b"})
	assert.True(t, errors.Is(err, common.ErrInvalidOrder))

	_, err = Reorder(rules, []string{"a", "a", "b"})
	assert.True(t, errors.Is(err, common.ErrInvalidOrder))

	_, err = Reorder(rules, []string{"a", "b", "x"})
	assert.True(t, errors.Is(err, common.ErrInvalidOrder))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(rule("", model.ConditionEquals, "x", "cat", 0)))
	assert.ErrorIs(t, Validate(rule("", "fuzzy", "x", "cat", 0)), common.ErrInvalidRule)
	assert.ErrorIs(t, Validate(rule("", model.ConditionEquals, " ", "cat", 0)), common.ErrInvalidRule)
	assert.ErrorIs(t, Validate(rule("", model.ConditionEquals, "x", "", 0)), common.ErrInvalidRule)
}

func TestLoadFileAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - condition: contains
    value: woolworths
    category: Groceries
  - condition: startsWith
    value: uber
    category: cat-transport
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	defs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	existing := []model.Rule{{ID: "r0", Order: 4}}
	resolved, err := Resolve(defs, model.DefaultCategories(), existing)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "cat-groceries", resolved[0].CategoryID)
	assert.Equal(t, 5, resolved[0].Order)
	assert.Equal(t, model.ConditionStartsWith, resolved[1].ConditionType)
	assert.Equal(t, "cat-transport", resolved[1].CategoryID)
	assert.Equal(t, 6, resolved[1].Order)

	_, err = Resolve([]Definition{{Condition: model.ConditionContains, Value: "x", Category: "Nope"}}, model.DefaultCategories(), nil)
	assert.ErrorIs(t, err, common.ErrInvalidRule)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

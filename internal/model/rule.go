package model

// ConditionType selects how a rule's value is compared with a description.
type ConditionType string

// Rule condition types. All comparisons are case-insensitive.
const (
	ConditionContains   ConditionType = "contains"
	ConditionStartsWith ConditionType = "startsWith"
	ConditionEquals     ConditionType = "equals"
)

// Valid reports whether c is a known condition type.
func (c ConditionType) Valid() bool {
	switch c {
	case ConditionContains, ConditionStartsWith, ConditionEquals:
		return true
	}
	return false
}

// Rule maps descriptions matching a condition to a category. Rules are
// evaluated in ascending Order and the first match wins.
type Rule struct {
	ID             string        `json:"id" yaml:"id,omitempty"`
	ConditionType  ConditionType `json:"conditionType" yaml:"condition_type"`
	ConditionValue string        `json:"conditionValue" yaml:"condition_value"`
	CategoryID     string        `json:"categoryId" yaml:"category_id"`
	Order          int           `json:"order" yaml:"order,omitempty"`
}

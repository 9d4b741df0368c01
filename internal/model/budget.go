package model

// BudgetPeriod is the window a budget amount applies to.
type BudgetPeriod string

// Budget periods.
const (
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether p is a known budget period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Budget is a spending limit for a category.
type Budget struct {
	ID         string       `json:"id"`
	CategoryID string       `json:"categoryId"`
	Period     BudgetPeriod `json:"period"`
	Amount     float64      `json:"amount"`
}

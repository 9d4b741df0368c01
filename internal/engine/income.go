package engine

import "github.com/Veraticus/sift/internal/model"

// applyIncomeFallback gives every still-uncategorized inflow the catalog's
// Income category. Outflows are never touched. It returns the number of
// transactions changed.
func applyIncomeFallback(txns []model.Transaction, catalog []model.Category) int {
	income, ok := model.FindCategoryByName(catalog, model.IncomeCategoryName)
	if !ok {
		return 0
	}

	assigned := 0
	for i := range txns {
		if txns[i].IsUncategorized() && txns[i].IsIncome() {
			txns[i].SetCategory(income.ID, model.ProvenanceNone)
			assigned++
		}
	}
	return assigned
}

package model

import "strings"

// UncategorizedID is the reserved id of the category that means "no category".
const UncategorizedID = "cat-uncategorized"

// IncomeCategoryName is the name the income fallback looks for.
const IncomeCategoryName = "Income"

// Category is a user-visible spending or income bucket.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Description string `json:"description,omitempty"`
}

// IsUncategorizedID reports whether id means "no category".
func IsUncategorizedID(id string) bool {
	return id == "" || id == UncategorizedID
}

// IsReserved reports whether the category must always exist.
func (c *Category) IsReserved() bool {
	return c.ID == UncategorizedID
}

// UncategorizedCategory returns the reserved catch-all category.
func UncategorizedCategory() Category {
	return Category{
		ID:          UncategorizedID,
		Name:        "Uncategorized",
		Color:       "#9CA3AF",
		Icon:        "help-circle",
		Description: "Transactions without a category",
	}
}

// DefaultCategories returns the catalog seeded into an empty store.
func DefaultCategories() []Category {
	return []Category{
		UncategorizedCategory(),
		{ID: "cat-income", Name: IncomeCategoryName, Color: "#10B981", Icon: "trending-up", Description: "Salary, wages, refunds and other inflows"},
		{ID: "cat-groceries", Name: "Groceries", Color: "#22C55E", Icon: "shopping-cart", Description: "Supermarkets and food shopping"},
		{ID: "cat-dining", Name: "Dining", Color: "#F97316", Icon: "coffee", Description: "Restaurants, cafes and takeaway"},
		{ID: "cat-transport", Name: "Transport", Color: "#3B82F6", Icon: "car", Description: "Fuel, public transport, rideshare and parking"},
		{ID: "cat-utilities", Name: "Utilities", Color: "#EAB308", Icon: "zap", Description: "Electricity, gas, water, internet and phone"},
		{ID: "cat-housing", Name: "Housing", Color: "#8B5CF6", Icon: "home", Description: "Rent, mortgage and home maintenance"},
		{ID: "cat-entertainment", Name: "Entertainment", Color: "#EC4899", Icon: "film", Description: "Streaming, events, games and hobbies"},
		{ID: "cat-shopping", Name: "Shopping", Color: "#06B6D4", Icon: "shopping-bag", Description: "Retail, clothing and online shopping"},
		{ID: "cat-health", Name: "Health", Color: "#EF4444", Icon: "heart", Description: "Medical, pharmacy and fitness"},
		{ID: "cat-transfers", Name: "Transfers", Color: "#64748B", Icon: "repeat", Description: "Movements between own accounts"},
	}
}

// FindCategoryByName looks a category up by case-insensitive name.
func FindCategoryByName(categories []Category, name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c, true
		}
	}
	return Category{}, false
}

// FindCategory looks a category up by id.
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

package core

// Category sets are static configuration: the form and the type filter
// offer these, while the list-view category filter derives its options
// from the categories actually present in the data (see DistinctCategories).
var (
	IncomeCategories = []string{
		"Salary", "Freelance", "Investment", "Gift", "Bonus", "Other Income",
	}

	ExpenseCategories = []string{
		"Food", "Transport", "Shopping", "Health", "Entertainment", "Rent",
		"Utilities", "Education", "Other",
	}
)

var categoryEmoji = map[string]string{
	"Salary":       "💼",
	"Freelance":    "💻",
	"Investment":   "📈",
	"Gift":         "🎁",
	"Bonus":        "🎯",
	"Other Income": "💰",
	"Food":         "🍕",
	"Transport":    "🚗",
	"Shopping":     "🛍️",
	"Health":       "🏥",
	"Entertainment": "🎮",
	"Rent":         "🏠",
	"Utilities":    "⚡",
	"Education":    "📚",
	"Other":        "📦",
}

var categoryColor = map[string]string{
	"Salary":       "#6EE7B7",
	"Freelance":    "#34D399",
	"Investment":   "#10B981",
	"Gift":         "#A7F3D0",
	"Bonus":        "#059669",
	"Other Income": "#047857",
	"Food":         "#FCA5A5",
	"Transport":    "#F87171",
	"Shopping":     "#EF4444",
	"Health":       "#FDA4AF",
	"Entertainment": "#FB7185",
	"Rent":         "#F43F5E",
	"Utilities":    "#E11D48",
	"Education":    "#BE185D",
	"Other":        "#9D174D",
}

// CategoriesFor returns the category set for a transaction type.
func CategoriesFor(t TransactionType) []string {
	switch t {
	case Income:
		return IncomeCategories
	case Expense:
		return ExpenseCategories
	default:
		return nil
	}
}

// CategoryAllowed reports whether category belongs to the set for the
// given transaction type.
func CategoryAllowed(t TransactionType, category string) bool {
	for _, c := range CategoriesFor(t) {
		if c == category {
			return true
		}
	}
	return false
}

// CategoryEmoji returns the emoji for a category, with a generic
// fallback for unknown names.
func CategoryEmoji(category string) string {
	if e, ok := categoryEmoji[category]; ok {
		return e
	}
	return "💳"
}

// CategoryColor returns the display color for a category, with a
// neutral fallback for unknown names.
func CategoryColor(category string) string {
	if c, ok := categoryColor[category]; ok {
		return c
	}
	return "#4F8EF7"
}

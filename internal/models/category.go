package models

import "time"

// Category groups transactions of a user
type Category struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Color       string          `json:"color"`
	Icon        string          `json:"icon"`
	Type        TransactionType `json:"type"`
	IsDefault   bool            `json:"isDefault"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CategorySummary is the slice of a category embedded in transactions and stats
type CategorySummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Summary returns the display fields of c
func (c *Category) Summary() *CategorySummary {
	return &CategorySummary{ID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon}
}

const (
	DefaultCategoryColor = "#007bff"
	DefaultCategoryIcon  = "category"
)

// DefaultCategories is the protected set seeded for every user
var DefaultCategories = []Category{
	{Name: "Food & Dining", Type: Expense, Color: "#ff6b6b", Icon: "restaurant", IsDefault: true},
	{Name: "Transportation", Type: Expense, Color: "#4ecdc4", Icon: "directions_car", IsDefault: true},
	{Name: "Shopping", Type: Expense, Color: "#45b7d1", Icon: "shopping_cart", IsDefault: true},
	{Name: "Entertainment", Type: Expense, Color: "#f9ca24", Icon: "movie", IsDefault: true},
	{Name: "Bills & Utilities", Type: Expense, Color: "#6c5ce7", Icon: "receipt", IsDefault: true},
	{Name: "Healthcare", Type: Expense, Color: "#fd79a8", Icon: "local_hospital", IsDefault: true},
	{Name: "Salary", Type: Income, Color: "#00b894", Icon: "work", IsDefault: true},
	{Name: "Freelance", Type: Income, Color: "#00cec9", Icon: "business_center", IsDefault: true},
	{Name: "Investment", Type: Income, Color: "#fdcb6e", Icon: "trending_up", IsDefault: true},
	{Name: "Other Income", Type: Income, Color: "#e17055", Icon: "account_balance_wallet", IsDefault: true},
}

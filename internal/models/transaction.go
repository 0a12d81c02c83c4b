package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tells whether money came in or went out
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the known types
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction represents a financial transaction
type Transaction struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"userId"`
	CategoryID  int64            `json:"categoryId"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
	Type        TransactionType  `json:"type"`
	Date        time.Time        `json:"date"`
	Notes       string           `json:"notes"`
	Tags        []string         `json:"tags"`
	Location    string           `json:"location"`
	Receipt     string           `json:"receipt"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Category    *CategorySummary `json:"category,omitempty"`
}

// Contribution is the signed amount the transaction adds to its owner's balance:
// +amount for income, -amount for expense.
func (t *Transaction) Contribution() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// TransactionFilter narrows a transaction listing
type TransactionFilter struct {
	UserID     int64
	Type       TransactionType
	CategoryID int64
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the system
type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"` // Not serialized
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Avatar       string          `json:"avatar"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
	Currency     string          `json:"currency"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// DefaultCurrency is assigned to users registering without one
const DefaultCurrency = "USD"

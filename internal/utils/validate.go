package utils

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	minAmount = decimal.New(1, -2) // 0.01
	maxAmount = decimal.New(1, 13) // NUMERIC(15,2) bound
	colorRe   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidateAmount checks that amount is a positive money value with at most two decimals
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThan(minAmount) {
		return models.NewError(models.KindValidation, "Amount must be at least 0.01")
	}
	if !amount.Equal(amount.Round(2)) {
		return models.NewError(models.KindValidation, "Amount must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return models.NewError(models.KindValidation, "Amount is too large")
	}
	return nil
}

// ValidateLength checks the rune length of a field
func ValidateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		if min > 0 && n == 0 {
			return models.NewError(models.KindValidation, "%s is required", field)
		}
		return models.NewError(models.KindValidation, "%s must be between %d and %d characters", field, min, max)
	}
	return nil
}

// ValidateType checks a transaction or category type
func ValidateType(t models.TransactionType) error {
	if !t.Valid() {
		return models.NewError(models.KindValidation, "Type must be income or expense")
	}
	return nil
}

// ValidateEmail checks that email is a bare address
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > 100 {
		return models.NewError(models.KindValidation, "Please provide a valid email")
	}
	return nil
}

// ValidateColor checks a #rrggbb color
func ValidateColor(color string) error {
	if !colorRe.MatchString(color) {
		return models.NewError(models.KindValidation, "Color must be a hex value like #007bff")
	}
	return nil
}

// ValidateCurrency checks an ISO 4217 currency code
func ValidateCurrency(code string) error {
	if len(code) != 3 || money.GetCurrency(strings.ToUpper(code)) == nil {
		return models.NewError(models.KindValidation, "Unknown currency %q", code)
	}
	return nil
}

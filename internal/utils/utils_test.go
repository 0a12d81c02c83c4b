package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/shopspring/decimal"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d", id)
	}

	if _, err := ParseToken("other", token); err == nil {
		t.Fatalf("expected signature error")
	}
	expired, _ := GenerateToken("secret", 42, -time.Minute)
	if _, err := ParseToken("secret", expired); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0.01", true},
		{"100", true},
		{"9999999999999.99", true},
		{"0", false},
		{"-5", false},
		{"0.001", false},
		{"12.345", false},
		{"10000000000000", false},
	}
	for _, tc := range cases {
		err := ValidateAmount(decimal.RequireFromString(tc.in))
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, models.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.in, err)
		}
	}
}

func TestValidateFields(t *testing.T) {
	if err := ValidateLength("Name", "", 1, 50); err == nil || err.Error() != "Name is required" {
		t.Fatalf("got %v", err)
	}
	if err := ValidateLength("Name", "Food", 1, 50); err != nil {
		t.Fatalf("got %v", err)
	}
	if err := ValidateEmail("Alice <a@example.com>"); err == nil {
		t.Fatalf("display names must be rejected")
	}
	if err := ValidateEmail("a@example.com"); err != nil {
		t.Fatalf("got %v", err)
	}
	if err := ValidateColor("#12ab9F"); err != nil {
		t.Fatalf("got %v", err)
	}
	if err := ValidateColor("red"); err == nil {
		t.Fatalf("expected color error")
	}
	if err := ValidateCurrency("EUR"); err != nil {
		t.Fatalf("got %v", err)
	}
	if err := ValidateCurrency("ZZZ"); err == nil {
		t.Fatalf("expected currency error")
	}
	if err := ValidateType("transfer"); err == nil {
		t.Fatalf("expected type error")
	}
}

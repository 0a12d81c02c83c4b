package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestContribution(t *testing.T) {
	amount := decimal.RequireFromString("100.25")
	income := Transaction{Type: Income, Amount: amount}
	expense := Transaction{Type: Expense, Amount: amount}

	if got := income.Contribution(); !got.Equal(amount) {
		t.Fatalf("income contribution = %s, want %s", got, amount)
	}
	if got := expense.Contribution(); !got.Equal(amount.Neg()) {
		t.Fatalf("expense contribution = %s, want %s", got, amount.Neg())
	}
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		period Period
		want   time.Time
	}{
		{PeriodWeek, time.Date(2026, time.February, 25, 0, 0, 0, 0, time.UTC)},
		{PeriodMonth, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{PeriodYear, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{Period("decade"), time.Time{}},
	}
	for _, tc := range cases {
		if got := tc.period.WindowStart(now); !got.Equal(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.period, got, tc.want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("update: %w", NewError(KindNotFound, "Transaction not found"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Fatalf("not found must not match conflict")
	}
	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("plain errors are internal")
	}

	conflict := WrapError(KindConflict, errors.New("lock timeout"), "balance is being updated")
	if !conflict.Retryable() {
		t.Fatalf("conflict should be retryable")
	}
	if conflict.Error() != "balance is being updated: lock timeout" {
		t.Fatalf("unexpected message %q", conflict.Error())
	}
}

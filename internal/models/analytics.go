package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period selects the window of a statistics request
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// WindowStart returns the lower date bound of p relative to now.
// Week is a rolling 7 days starting at local midnight, month and year start on
// their first day. Unknown periods have no bound and return the zero time.
func (p Period) WindowStart(now time.Time) time.Time {
	y, m, d := now.Date()
	switch p {
	case PeriodWeek:
		return time.Date(y, m, d-7, 0, 0, 0, 0, now.Location())
	case PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	case PeriodYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, now.Location())
	}
	return time.Time{}
}

// TypeStats aggregates the transactions of one type
type TypeStats struct {
	Type      TransactionType `json:"type"`
	Total     decimal.Decimal `json:"total"`
	Count     int64           `json:"count"`
	AvgAmount decimal.Decimal `json:"avgAmount"`
}

// CategoryStats aggregates the transactions of one category
type CategoryStats struct {
	CategoryID int64            `json:"categoryId"`
	Total      decimal.Decimal  `json:"total"`
	Count      int64            `json:"count"`
	AvgAmount  decimal.Decimal  `json:"avgAmount"`
	Category   *CategorySummary `json:"category"`
}

// Stats is the result of a statistics request
type Stats struct {
	Overview          []TypeStats     `json:"overview"`
	CategoryBreakdown []CategoryStats `json:"categoryBreakdown"`
}

// BalanceDrift reports a user whose stored balance differs from the sum of their transactions
type BalanceDrift struct {
	UserID   int64           `json:"userId"`
	Stored   decimal.Decimal `json:"stored"`
	Computed decimal.Decimal `json:"computed"`
	Repaired bool            `json:"repaired"`
}

package domain

import (
	"fmt"
	"time"
)

// CategoryTotal is one expense bucket in the ranked breakdown.
type CategoryTotal struct {
	Category    string
	AmountMinor int64
}

// AggregateSummary is the deterministic reduction of one account's windowed
// records. It lives for the duration of a single request and is never
// persisted.
type AggregateSummary struct {
	BusinessName string
	Currency     string
	PayrollMinor int64
	WindowDays   int

	TransactionCount int
	IncomeMinor      int64
	ExpenseMinor     int64
	NetMinor         int64
	TopCategories    []CategoryTotal

	// Recent holds at most the newest transactions forwarded to the prompt;
	// the totals above always cover the full fetched set.
	Recent []Transaction

	OverdueInvoiceCount int
	OverdueInvoiceMinor int64
	InvoicesPaidCount   int
	IncidentsOpened     int
}

// ModelInstruction is a rendered prompt plus its generation parameters.
// Ephemeral, never persisted.
type ModelInstruction struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// FormatMinor renders integer minor units as major-unit text with two decimal
// places, e.g. 180000 "EUR" -> "1800.00 EUR". This is the only place amounts
// leave integer arithmetic.
func FormatMinor(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	if currency == "" {
		return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}

// WindowStart returns the inclusive lower bound of a trailing window.
func WindowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

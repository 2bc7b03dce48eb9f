package domain

import "time"

// Transaction is one financial movement on a business account. Amounts are
// signed integer minor currency units; the pipeline never converts them to
// floating point.
type Transaction struct {
	ID          string
	AccountID   string
	AmountMinor int64
	IsIncome    bool
	Category    string
	Merchant    string
	OccurredAt  time.Time
}

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
	InvoiceVoid    InvoiceStatus = "void"
)

type Invoice struct {
	ID          string
	AccountID   string
	AmountMinor int64
	Status      InvoiceStatus
	PaidAt      *time.Time
	CreatedAt   time.Time
}

type Incident struct {
	ID        string
	AccountID string
	Title     string
	Severity  string
	Status    string
	OpenedAt  time.Time
}

// Account is the business profile the pipelines read but never modify.
type Account struct {
	ID           string
	BusinessName string
	PayrollMinor int64
	Currency     string
}

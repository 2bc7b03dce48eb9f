package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/finpulse/insights/internal/core/domain"
)

// RecordRepository serves the read-only record sets both pipelines consume.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RecordRepository) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, business_name, payroll_minor, currency
FROM accounts
WHERE id = $1
`, accountID)

	var account domain.Account
	err := row.Scan(&account.ID, &account.BusinessName, &account.PayrollMinor, &account.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: id=%s", accountID)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

func (r *RecordRepository) ListTransactions(ctx context.Context, accountID string, since time.Time) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account_id, amount_minor, is_income, category, merchant, occurred_at
FROM transactions
WHERE account_id = $1 AND occurred_at >= $2
ORDER BY occurred_at DESC
`, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		var category, merchant sql.NullString
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.AmountMinor, &tx.IsIncome, &category, &merchant, &tx.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Category = category.String
		tx.Merchant = merchant.String
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// ListInvoices returns invoices relevant to the window: currently overdue
// ones regardless of age, plus any created or paid since the window start.
func (r *RecordRepository) ListInvoices(ctx context.Context, accountID string, since time.Time) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account_id, amount_minor, status, paid_at, created_at
FROM invoices
WHERE account_id = $1
  AND (status = 'overdue' OR created_at >= $2 OR (paid_at IS NOT NULL AND paid_at >= $2))
ORDER BY created_at DESC
`, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Invoice, 0)
	for rows.Next() {
		var invoice domain.Invoice
		var status string
		var paidAt sql.NullTime
		if err := rows.Scan(&invoice.ID, &invoice.AccountID, &invoice.AmountMinor, &status, &paidAt, &invoice.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoice.Status = domain.InvoiceStatus(status)
		if paidAt.Valid {
			paid := paidAt.Time
			invoice.PaidAt = &paid
		}
		out = append(out, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, nil
}

func (r *RecordRepository) ListIncidents(ctx context.Context, accountID string, since time.Time) ([]domain.Incident, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account_id, title, severity, status, opened_at
FROM incidents
WHERE account_id = $1 AND opened_at >= $2
ORDER BY opened_at DESC
`, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Incident, 0)
	for rows.Next() {
		var incident domain.Incident
		if err := rows.Scan(&incident.ID, &incident.AccountID, &incident.Title, &incident.Severity, &incident.Status, &incident.OpenedAt); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return out, nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/finpulse/insights/internal/core/domain"
)

// InsightRepository persists detected insights. Inserts append row by row:
// the pipeline makes no atomicity promise across a batch and performs no
// deduplication against previous runs.
type InsightRepository struct {
	db *sql.DB
}

func NewInsightRepository(db *sql.DB) *InsightRepository {
	return &InsightRepository{db: db}
}

func (r *InsightRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026090101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS insights (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	severity TEXT NOT NULL,
	action_label TEXT,
	action_type TEXT,
	dismissed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_insights_account ON insights(account_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *InsightRepository) InsertInsights(ctx context.Context, insights []domain.Insight) error {
	for _, insight := range insights {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO insights (id, account_id, title, message, severity, action_label, action_type, dismissed, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, insight.ID, insight.AccountID, insight.Title, insight.Message, string(insight.Severity),
			insight.ActionLabel, actionTypeValue(insight.ActionType), insight.Dismissed, insight.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert insight: %w", err)
		}
	}
	return nil
}

func (r *InsightRepository) ListInsights(ctx context.Context, accountID string, includeDismissed bool) ([]domain.Insight, error) {
	query := `
SELECT id, account_id, title, message, severity, action_label, action_type, dismissed, created_at
FROM insights
WHERE account_id = $1
`
	if !includeDismissed {
		query += "AND dismissed = FALSE\n"
	}
	query += "ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Insight, 0)
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, insight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w", err)
	}
	return out, nil
}

func (r *InsightRepository) DismissInsight(ctx context.Context, accountID, insightID string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE insights
SET dismissed = TRUE
WHERE account_id = $1 AND id = $2
`, accountID, insightID)
	if err != nil {
		return fmt.Errorf("dismiss insight: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("dismiss insight rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrInsightNotFound, "dismiss insight", fmt.Errorf("id=%s", insightID))
	}
	return nil
}

type insightScanner interface {
	Scan(dest ...interface{}) error
}

func scanInsight(row insightScanner) (domain.Insight, error) {
	var insight domain.Insight
	var severity string
	var actionLabel, actionType sql.NullString
	err := row.Scan(
		&insight.ID,
		&insight.AccountID,
		&insight.Title,
		&insight.Message,
		&severity,
		&actionLabel,
		&actionType,
		&insight.Dismissed,
		&insight.CreatedAt,
	)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("scan insight: %w", err)
	}
	insight.Severity = domain.Severity(severity)
	if actionLabel.Valid {
		label := actionLabel.String
		insight.ActionLabel = &label
	}
	if actionType.Valid {
		action := domain.ActionType(actionType.String)
		insight.ActionType = &action
	}
	return insight, nil
}

func actionTypeValue(action *domain.ActionType) *string {
	if action == nil {
		return nil
	}
	value := string(*action)
	return &value
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/finpulse/insights/internal/core/domain"
)

func TestInsightRepositoryListInsightsFiltersDismissedByDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInsightRepository(db)
	rows := sqlmock.NewRows([]string{"id", "account_id", "title", "message", "severity", "action_label", "action_type", "dismissed", "created_at"}).
		AddRow("ins-1", "acct-1", "Spend spike", "Software spend doubled", string(domain.SeverityWarning), "View transactions", string(domain.ActionViewTransactions), false, time.Now())

	mock.ExpectQuery("FROM insights").
		WithArgs("acct-1").
		WillReturnRows(rows)

	insights, err := repo.ListInsights(context.Background(), "acct-1", false)
	if err != nil {
		t.Fatalf("ListInsights() error = %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}
	if insights[0].ActionLabel == nil || *insights[0].ActionLabel != "View transactions" {
		t.Fatalf("expected action label, got %v", insights[0].ActionLabel)
	}
	if insights[0].ActionType == nil || *insights[0].ActionType != domain.ActionViewTransactions {
		t.Fatalf("expected action type, got %v", insights[0].ActionType)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsightRepositoryListInsightsNullAction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInsightRepository(db)
	rows := sqlmock.NewRows([]string{"id", "account_id", "title", "message", "severity", "action_label", "action_type", "dismissed", "created_at"}).
		AddRow("ins-1", "acct-1", "Spend spike", "Software spend doubled", string(domain.SeverityInfo), nil, nil, true, time.Now())

	mock.ExpectQuery("FROM insights").
		WithArgs("acct-1").
		WillReturnRows(rows)

	insights, err := repo.ListInsights(context.Background(), "acct-1", true)
	if err != nil {
		t.Fatalf("ListInsights() error = %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}
	if insights[0].ActionLabel != nil || insights[0].ActionType != nil {
		t.Fatalf("expected nil action fields, got %v %v", insights[0].ActionLabel, insights[0].ActionType)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsightRepositoryInsertInsightsRowPerInsight(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInsightRepository(db)
	mock.ExpectExec("INSERT INTO insights").
		WithArgs("ins-1", "acct-1", "t1", "m1", string(domain.SeverityWarning), nil, nil, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO insights").
		WithArgs("ins-2", "acct-1", "t2", "m2", string(domain.SeverityCritical), nil, nil, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.InsertInsights(context.Background(), []domain.Insight{
		{ID: "ins-1", AccountID: "acct-1", Title: "t1", Message: "m1", Severity: domain.SeverityWarning, CreatedAt: time.Now()},
		{ID: "ins-2", AccountID: "acct-1", Title: "t2", Message: "m2", Severity: domain.SeverityCritical, CreatedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("InsertInsights() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsightRepositoryDismissInsightNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewInsightRepository(db)
	mock.ExpectExec("UPDATE insights").
		WithArgs("acct-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DismissInsight(context.Background(), "acct-1", "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInsightNotFound) {
		t.Fatalf("expected not found kind, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

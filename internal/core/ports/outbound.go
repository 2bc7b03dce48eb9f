package ports

import (
	"context"
	"time"

	"github.com/finpulse/insights/internal/core/domain"
)

// RecordStore reads an account's financial records for a trailing window.
// All reads are account-scoped and never mutate.
type RecordStore interface {
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	ListTransactions(ctx context.Context, accountID string, since time.Time) ([]domain.Transaction, error)
	ListInvoices(ctx context.Context, accountID string, since time.Time) ([]domain.Invoice, error)
	ListIncidents(ctx context.Context, accountID string, since time.Time) ([]domain.Incident, error)
}

// InsightStore persists and reads detected insights.
type InsightStore interface {
	InsertInsights(ctx context.Context, insights []domain.Insight) error
	ListInsights(ctx context.Context, accountID string, includeDismissed bool) ([]domain.Insight, error)
	DismissInsight(ctx context.Context, accountID, insightID string) error
}

// TextGenerator performs one completion round trip against the generative
// backend. It returns raw model text; interpreting that text is the
// extractor's job, never the client's.
type TextGenerator interface {
	Complete(ctx context.Context, instruction domain.ModelInstruction) (string, error)
}

// EventPublisher announces newly persisted insights. Publishing is
// best-effort; failures are logged, never surfaced to the caller.
type EventPublisher interface {
	PublishInsightsCreated(ctx context.Context, accountID string, count int) error
}

// PipelineObserver records pipeline outcomes for operational metrics.
type PipelineObserver interface {
	PipelineRun(pipeline, status string)
	ModelCall(pipeline string, duration time.Duration, outputChars int)
	FallbackUsed(pipeline, reason string)
	InsightsPersisted(count int)
}

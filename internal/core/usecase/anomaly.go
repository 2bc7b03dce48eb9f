package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finpulse/insights/internal/core/domain"
	"github.com/finpulse/insights/internal/core/ports"
)

type AnomalyConfig struct {
	WindowDays      int
	MinTransactions int
	RecentLimit     int
	TopCategories   int
	MaxTokens       int
	Temperature     float64
}

func (c AnomalyConfig) normalize() AnomalyConfig {
	out := c
	if out.WindowDays <= 0 {
		out.WindowDays = 90
	}
	if out.MinTransactions <= 0 {
		out.MinTransactions = 5
	}
	if out.RecentLimit <= 0 {
		out.RecentLimit = 100
	}
	if out.TopCategories <= 0 {
		out.TopCategories = 5
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = 1024
	}
	if out.Temperature <= 0 {
		out.Temperature = 0.2
	}
	return out
}

// AnomalyUseCase runs the anomaly insight pipeline: aggregate, prompt,
// generate, validate, persist. One linear pass per request, no retries.
type AnomalyUseCase struct {
	records   ports.RecordStore
	insights  ports.InsightStore
	generator ports.TextGenerator
	events    ports.EventPublisher
	observer  ports.PipelineObserver
	cfg       AnomalyConfig
}

func NewAnomalyUseCase(
	records ports.RecordStore,
	insights ports.InsightStore,
	generator ports.TextGenerator,
	events ports.EventPublisher,
	observer ports.PipelineObserver,
	cfg AnomalyConfig,
) *AnomalyUseCase {
	return &AnomalyUseCase{
		records:   records,
		insights:  insights,
		generator: generator,
		events:    events,
		observer:  orNoopObserver(observer),
		cfg:       cfg.normalize(),
	}
}

func (uc *AnomalyUseCase) Detect(ctx context.Context, accountID string) (*domain.DetectionResult, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "detect insights", errors.New("account id is required"))
	}

	since := domain.WindowStart(time.Now().UTC(), uc.cfg.WindowDays)

	account, err := uc.records.GetAccount(ctx, accountID)
	if err != nil {
		uc.observer.PipelineRun(pipelineAnomaly, statusError)
		return nil, domain.WrapError(domain.ErrDataUnavailable, "load account", err)
	}
	transactions, err := uc.records.ListTransactions(ctx, accountID, since)
	if err != nil {
		uc.observer.PipelineRun(pipelineAnomaly, statusError)
		return nil, domain.WrapError(domain.ErrDataUnavailable, "list transactions", err)
	}

	if len(transactions) < uc.cfg.MinTransactions {
		uc.observer.PipelineRun(pipelineAnomaly, statusInsufficientData)
		return &domain.DetectionResult{
			Insights: []domain.Insight{},
			Message:  domain.InsufficientDataMessage,
		}, nil
	}

	summary := buildAnomalySummary(account, transactions, uc.cfg.WindowDays, uc.cfg.TopCategories, uc.cfg.RecentLimit)
	instruction := domain.ModelInstruction{
		Prompt:      buildDetectionPrompt(summary),
		MaxTokens:   uc.cfg.MaxTokens,
		Temperature: uc.cfg.Temperature,
	}

	start := time.Now()
	raw, err := uc.generator.Complete(ctx, instruction)
	if err != nil {
		uc.observer.PipelineRun(pipelineAnomaly, statusError)
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "generate insights", err)
	}
	uc.observer.ModelCall(pipelineAnomaly, time.Since(start), len(raw))

	parsed, fallbackReason := parseInsights(raw)
	if fallbackReason != "" {
		uc.observer.FallbackUsed(pipelineAnomaly, fallbackReason)
	}

	now := time.Now().UTC()
	for i := range parsed {
		parsed[i].ID = uuid.NewString()
		parsed[i].AccountID = accountID
		parsed[i].Dismissed = false
		parsed[i].CreatedAt = now
	}

	if len(parsed) > 0 {
		if err := uc.insights.InsertInsights(ctx, parsed); err != nil {
			uc.observer.PipelineRun(pipelineAnomaly, statusError)
			return nil, domain.WrapError(domain.ErrStorage, "persist insights", err)
		}
		uc.observer.InsightsPersisted(len(parsed))
		uc.publishCreated(ctx, accountID, len(parsed))
	}

	uc.observer.PipelineRun(pipelineAnomaly, statusSuccess)
	return &domain.DetectionResult{Insights: parsed}, nil
}

// publishCreated announces persisted insights. Best-effort: a publish failure
// is logged and never fails the request.
func (uc *AnomalyUseCase) publishCreated(ctx context.Context, accountID string, count int) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishInsightsCreated(ctx, accountID, count); err != nil {
		slog.Warn("insight_event_publish_failed",
			"pipeline", pipelineAnomaly,
			"account_id", accountID,
			"count", count,
			"error", err,
		)
	}
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finpulse/insights/internal/core/domain"
	"github.com/finpulse/insights/internal/core/ports"
)

type DigestConfig struct {
	WindowDays    int
	TopCategories int
	MaxTokens     int
	Temperature   float64
}

func (c DigestConfig) normalize() DigestConfig {
	out := c
	if out.WindowDays <= 0 {
		out.WindowDays = 7
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

// DigestUseCase runs the weekly digest pipeline. Nothing is persisted; the
// validated digest is the response itself.
type DigestUseCase struct {
	records   ports.RecordStore
	generator ports.TextGenerator
	observer  ports.PipelineObserver
	cfg       DigestConfig
}

func NewDigestUseCase(
	records ports.RecordStore,
	generator ports.TextGenerator,
	observer ports.PipelineObserver,
	cfg DigestConfig,
) *DigestUseCase {
	return &DigestUseCase{
		records:   records,
		generator: generator,
		observer:  orNoopObserver(observer),
		cfg:       cfg.normalize(),
	}
}

func (uc *DigestUseCase) Generate(ctx context.Context, accountID string) (*domain.WeeklyDigest, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "generate digest", errors.New("account id is required"))
	}

	since := domain.WindowStart(time.Now().UTC(), uc.cfg.WindowDays)

	// The four reads are independent; fan out and fail fast on the first
	// error, cancelling the remaining fetches through the group context.
	var (
		account      *domain.Account
		transactions []domain.Transaction
		invoices     []domain.Invoice
		incidents    []domain.Incident
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = uc.records.GetAccount(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = uc.records.ListTransactions(gctx, accountID, since)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = uc.records.ListInvoices(gctx, accountID, since)
		return err
	})
	g.Go(func() error {
		var err error
		incidents, err = uc.records.ListIncidents(gctx, accountID, since)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.observer.PipelineRun(pipelineDigest, statusError)
		return nil, domain.WrapError(domain.ErrDataUnavailable, "load account records", err)
	}

	summary := buildDigestSummary(account, transactions, invoices, incidents, since, uc.cfg.WindowDays, uc.cfg.TopCategories)
	instruction := domain.ModelInstruction{
		Prompt:      buildDigestPrompt(summary),
		MaxTokens:   uc.cfg.MaxTokens,
		Temperature: uc.cfg.Temperature,
	}

	start := time.Now()
	raw, err := uc.generator.Complete(ctx, instruction)
	if err != nil {
		uc.observer.PipelineRun(pipelineDigest, statusError)
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "generate digest", err)
	}
	uc.observer.ModelCall(pipelineDigest, time.Since(start), len(raw))

	digest, fallbackReason := parseDigest(raw)
	if fallbackReason != "" {
		uc.observer.FallbackUsed(pipelineDigest, fallbackReason)
	}

	uc.observer.PipelineRun(pipelineDigest, statusSuccess)
	return &digest, nil
}

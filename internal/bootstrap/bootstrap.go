package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	httpadapter "github.com/finpulse/insights/internal/adapters/http"
	"github.com/finpulse/insights/internal/config"
	"github.com/finpulse/insights/internal/core/ports"
	"github.com/finpulse/insights/internal/core/usecase"
	"github.com/finpulse/insights/internal/infrastructure/llm/openaicompat"
	"github.com/finpulse/insights/internal/infrastructure/queue/nats"
	"github.com/finpulse/insights/internal/infrastructure/repository/postgres"
	"github.com/finpulse/insights/internal/infrastructure/resilience"
	"github.com/finpulse/insights/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Handler http.Handler

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	records := postgres.NewRecordRepository(db)
	insightRepo := postgres.NewInsightRepository(db)
	if err := insightRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	generator := openaicompat.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)

	// The event stream is optional: without a NATS URL the pipeline runs
	// with publishing disabled.
	var publisher *nats.Publisher
	if cfg.NATSURL != "" {
		publisher, err = nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			Executor: resilience.NewExecutor(resilience.DefaultPolicy()),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
	} else {
		slog.Info("nats_publishing_disabled")
	}

	observer := metrics.New("insights-api")

	detector := usecase.NewAnomalyUseCase(records, insightRepo, generator, eventPublisher(publisher), observer, usecase.AnomalyConfig{
		WindowDays:      cfg.AnomalyWindowDays,
		MinTransactions: cfg.AnomalyMinTransactions,
		RecentLimit:     cfg.AnomalyRecentLimit,
		TopCategories:   cfg.TopCategories,
		MaxTokens:       cfg.LLMMaxTokens,
		Temperature:     cfg.LLMTemperature,
	})
	digester := usecase.NewDigestUseCase(records, generator, observer, usecase.DigestConfig{
		WindowDays:    cfg.DigestWindowDays,
		TopCategories: cfg.TopCategories,
		MaxTokens:     cfg.LLMMaxTokens,
		Temperature:   cfg.LLMTemperature,
	})

	router := httpadapter.NewRouter(detector, digester, insightRepo, observer.Handler(), httpadapter.TrafficPolicy{
		RateLimitRPS:     cfg.APIRateLimitRPS,
		RateLimitBurst:   cfg.APIRateLimitBurst,
		MaxInFlight:      cfg.APIMaxInFlight,
		BackpressureWait: cfg.APIBackpressureWait,
	})
	handler := observer.Middleware("insights-api", router.Handler())

	return &App{
		Config:  cfg,
		Handler: handler,

		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// eventPublisher keeps a typed nil from masquerading as a live publisher
// behind the interface.
func eventPublisher(p *nats.Publisher) ports.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

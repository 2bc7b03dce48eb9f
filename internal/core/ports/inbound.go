package ports

import (
	"context"

	"github.com/finpulse/insights/internal/core/domain"
)

// AnomalyDetector is the inbound contract for the anomaly insight pipeline.
type AnomalyDetector interface {
	Detect(ctx context.Context, accountID string) (*domain.DetectionResult, error)
}

// DigestGenerator is the inbound contract for the weekly digest pipeline.
type DigestGenerator interface {
	Generate(ctx context.Context, accountID string) (*domain.WeeklyDigest, error)
}

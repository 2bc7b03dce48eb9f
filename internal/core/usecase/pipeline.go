package usecase

import (
	"time"

	"github.com/finpulse/insights/internal/core/ports"
)

// Pipeline names and run statuses reported to the observer.
const (
	pipelineAnomaly = "anomaly"
	pipelineDigest  = "digest"

	statusSuccess          = "success"
	statusInsufficientData = "insufficient_data"
	statusError            = "error"
)

type noopObserver struct{}

func (noopObserver) PipelineRun(string, string)           {}
func (noopObserver) ModelCall(string, time.Duration, int) {}
func (noopObserver) FallbackUsed(string, string)          {}
func (noopObserver) InsightsPersisted(int)                {}

func orNoopObserver(observer ports.PipelineObserver) ports.PipelineObserver {
	if observer == nil {
		return noopObserver{}
	}
	return observer
}

package repository

import (
	"context"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

// HistoryPublisher streams optimizer iteration records to an external audit
// log. Publishing failures must never affect the optimizer's committed state.
type HistoryPublisher interface {
	PublishIteration(ctx context.Context, runID string, rec *models.IterationRecord) error
	Close() error
}

// Metrics records operational counters for runs and iterations.
type Metrics interface {
	RecordBacktest(symbol string, seconds float64)
	RecordTrades(symbol string, n int)
	RecordIteration(result string)
	RecordBestObjective(objective string, value float64)
	RecordError(kind string)
}

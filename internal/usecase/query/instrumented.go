package query

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// InstrumentedBackend wraps a Backend with batch metrics and logging.
// Every batch gets a batch_id shared by its log lines.
type InstrumentedBackend struct {
	inner  Backend
	logger *zap.Logger
}

// NewInstrumentedBackend wraps a backend with observability.
func NewInstrumentedBackend(inner Backend, logger *zap.Logger) *InstrumentedBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedBackend{inner: inner, logger: logger}
}

// ExecuteBatch delegates to the inner backend and records the outcome.
func (b *InstrumentedBackend) ExecuteBatch(
	ctx context.Context, queries []db.NamedQuery,
) (map[string]*db.Response, error) {
	batchID := uuid.NewString()
	start := time.Now()

	responses, err := b.inner.ExecuteBatch(ctx, queries)

	duration := time.Since(start)
	metrics.BatchDuration.Observe(duration.Seconds())
	metrics.BatchEntries.Observe(float64(len(queries)))

	if err != nil {
		metrics.BatchErrorsTotal.WithLabelValues("batch").Inc()
		b.logger.Warn("Search batch failed",
			zap.String("batch_id", batchID),
			zap.Int("entries", len(queries)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	for code, resp := range responses {
		if resp != nil && resp.Err != nil {
			metrics.BatchErrorsTotal.WithLabelValues("entry").Inc()
			b.logger.Warn("Search batch entry failed",
				zap.String("batch_id", batchID),
				zap.String("code", code),
				zap.Error(resp.Err),
			)
		}
	}

	b.logger.Debug("Search batch completed",
		zap.String("batch_id", batchID),
		zap.Int("entries", len(queries)),
		zap.Duration("duration", duration),
	)
	return responses, nil
}

package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bmarket-ims/bmarket/internal/jobs"
	"github.com/bmarket-ims/bmarket/internal/stock"
)

// StockReconcileJob repairs reservations orphaned by denied orders.
type StockReconcileJob struct {
	reconciler *stock.Reconciler
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
}

// NewStockReconcileJob constructs the job handler.
func NewStockReconcileJob(reconciler *stock.Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockReconcileJob {
	return &StockReconcileJob{reconciler: reconciler, logger: logger, metrics: metrics}
}

// Handle processes TaskStockReconcile tasks.
func (j *StockReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("stock_reconcile")
	var payload StockReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	repaired, err := j.reconciler.Run(ctx)
	if err != nil {
		j.logger.Error("stock reconcile", slog.Any("error", err))
		return tracker.End(err)
	}
	if repaired > 0 {
		j.logger.Info("stock reconcile", slog.Int("repaired", repaired))
		j.metrics.AddRepaired(repaired)
	}
	return tracker.End(nil)
}

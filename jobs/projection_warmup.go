package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bmarket-ims/bmarket/internal/jobs"
	"github.com/bmarket-ims/bmarket/internal/projections"
)

// ProjectionWarmupJob preloads the per-role work-queue listings so the
// first dashboard hit after an invalidation stays fast.
type ProjectionWarmupJob struct {
	service *projections.Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewProjectionWarmupJob constructs the job handler.
func NewProjectionWarmupJob(service *projections.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProjectionWarmupJob {
	return &ProjectionWarmupJob{service: service, logger: logger, metrics: metrics}
}

// Handle processes TaskProjectionWarmup tasks.
func (j *ProjectionWarmupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("projection_warmup")
	if err := j.service.Warm(ctx); err != nil {
		j.logger.Error("projection warmup", slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}

package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-pharma/meridian-erp/internal/jobs"
)

// Reallocator re-runs landed cost allocation across import containers.
type Reallocator interface {
	ReallocateAll(ctx context.Context) error
}

// ReallocateContainersJob refreshes per-batch landed costs after out-of-band
// cost corrections.
type ReallocateContainersJob struct {
	Costs   Reallocator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReallocateContainersJob initialises the reallocation handler.
func NewReallocateContainersJob(costs Reallocator, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReallocateContainersJob {
	return &ReallocateContainersJob{Costs: costs, Logger: logger, Metrics: metrics}
}

// Handle reallocates every container.
func (j *ReallocateContainersJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Costs == nil {
		return errors.New("reallocate containers: handler not configured")
	}
	tracker := j.Metrics.Track(TaskReallocateContainers)
	if err := j.Costs.ReallocateAll(ctx); err != nil {
		j.logger().Error("reallocation failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("container reallocation done")
	return tracker.End(nil)
}

func (j *ReallocateContainersJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

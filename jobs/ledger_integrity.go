package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-pharma/meridian-erp/internal/jobs"
)

// IntegrityChecker reports journal entries whose debits and credits disagree.
type IntegrityChecker interface {
	CheckIntegrity(ctx context.Context) ([]string, error)
}

// LedgerIntegrityJob runs the balance scan across all journal entries.
type LedgerIntegrityJob struct {
	Ledger  IntegrityChecker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob initialises the integrity scan handler.
func NewLedgerIntegrityJob(ledger IntegrityChecker, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Ledger: ledger, Logger: logger, Metrics: metrics}
}

// Handle executes the scan and records the number of violations found.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	numbers, err := j.Ledger.CheckIntegrity(ctx)
	if err != nil {
		j.logger().Error("integrity scan failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.SetUnbalanced(len(numbers))
	for _, number := range numbers {
		j.logger().Error("unbalanced journal entry", slog.String("entry_number", number))
	}
	if len(numbers) == 0 {
		j.logger().Info("integrity scan clean")
	}
	return tracker.End(nil)
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

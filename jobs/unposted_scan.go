package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-pharma/meridian-erp/internal/finance"
	jobmetrics "github.com/meridian-pharma/meridian-erp/internal/jobs"
)

// UnpostedLister surfaces finance documents that never got a journal entry.
type UnpostedLister interface {
	UnpostedDocuments(ctx context.Context) ([]finance.UnpostedDocument, error)
}

// UnpostedScanJob reconciles document tables against journal source links and
// alerts on documents whose posting was swallowed.
type UnpostedScanJob struct {
	Finance UnpostedLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewUnpostedScanJob initialises the reconciliation handler.
func NewUnpostedScanJob(fin UnpostedLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *UnpostedScanJob {
	return &UnpostedScanJob{Finance: fin, Logger: logger, Metrics: metrics}
}

// Handle lists unposted documents and publishes per-source gauges.
func (j *UnpostedScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Finance == nil {
		return errors.New("unposted scan: handler not configured")
	}
	tracker := j.Metrics.Track(TaskUnpostedScan)
	docs, err := j.Finance.UnpostedDocuments(ctx)
	if err != nil {
		j.logger().Error("unposted scan failed", slog.Any("error", err))
		return tracker.End(err)
	}
	perSource := map[string]int{}
	for _, doc := range docs {
		perSource[doc.SourceModule]++
		j.logger().Warn("document without journal entry",
			slog.String("source_module", doc.SourceModule),
			slog.String("document_number", doc.DocumentNumber),
			slog.Float64("amount", doc.Amount),
		)
	}
	for _, source := range knownSources {
		j.Metrics.SetUnposted(source, perSource[source])
	}
	j.logger().Info("unposted scan done", slog.Int("unposted", len(docs)))
	return tracker.End(nil)
}

// knownSources keeps gauges from going stale when a source drops to zero.
var knownSources = []string{
	"finance_expense",
	"receipt_voucher",
	"payment_voucher",
	"fund_transfer",
	"petty_cash",
}

func (j *UnpostedScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

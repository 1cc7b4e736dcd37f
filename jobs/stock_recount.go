package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-pharma/meridian-erp/internal/jobs"
)

// StockRecounter rebuilds the denormalized stock counters.
type StockRecounter interface {
	RecountBatch(ctx context.Context, batchID int64) (float64, error)
	RecountProduct(ctx context.Context, productID int64) (float64, error)
}

// StockRecountJob walks active batches and recomputes reserved and product
// stock from their source rows.
type StockRecountJob struct {
	Pool    *pgxpool.Pool
	Stock   StockRecounter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStockRecountJob initialises the recount handler.
func NewStockRecountJob(pool *pgxpool.Pool, stock StockRecounter, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockRecountJob {
	return &StockRecountJob{Pool: pool, Stock: stock, Logger: logger, Metrics: metrics}
}

// Handle recounts every active batch, then every touched product. A payload
// with a product ID narrows the scan to that product's batches.
func (j *StockRecountJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Stock == nil {
		return errors.New("stock recount: handler not configured")
	}
	var payload StockRecountPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.Metrics.Track(TaskStockRecount)

	batches, products, err := j.listBatches(ctx, payload.ProductID)
	if err != nil {
		j.logger().Error("list batches failed", slog.Any("error", err))
		return tracker.End(err)
	}
	for _, batchID := range batches {
		if _, err := j.Stock.RecountBatch(ctx, batchID); err != nil {
			j.logger().Error("recount batch failed", slog.Int64("batch_id", batchID), slog.Any("error", err))
			return tracker.End(err)
		}
	}
	for _, productID := range products {
		if _, err := j.Stock.RecountProduct(ctx, productID); err != nil {
			j.logger().Error("recount product failed", slog.Int64("product_id", productID), slog.Any("error", err))
			return tracker.End(err)
		}
	}
	j.logger().Info("stock recount done",
		slog.Int("batches", len(batches)),
		slog.Int("products", len(products)),
	)
	return tracker.End(nil)
}

func (j *StockRecountJob) listBatches(ctx context.Context, productID int64) ([]int64, []int64, error) {
	query := `SELECT id, product_id FROM batches WHERE is_active = TRUE`
	args := []any{}
	if productID > 0 {
		query += ` AND product_id = $1`
		args = append(args, productID)
	}
	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var batches []int64
	seen := map[int64]struct{}{}
	var products []int64
	for rows.Next() {
		var batchID, prodID int64
		if err := rows.Scan(&batchID, &prodID); err != nil {
			return nil, nil, err
		}
		batches = append(batches, batchID)
		if _, ok := seen[prodID]; !ok {
			seen[prodID] = struct{}{}
			products = append(products, prodID)
		}
	}
	return batches, products, rows.Err()
}

func (j *StockRecountJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

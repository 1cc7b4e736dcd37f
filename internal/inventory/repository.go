package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists batches and reservations in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service. Batch
// reads inside a reservation run lock the rows so concurrent runs against the
// same product serialise on the database.
type TxRepository interface {
	ListEligibleBatchesForUpdate(ctx context.Context, productID int64) ([]Batch, error)
	GetBatchForUpdate(ctx context.Context, batchID int64) (Batch, error)
	InsertReservation(ctx context.Context, r StockReservation) (int64, error)
	DeleteActiveReservationsForOrder(ctx context.Context, orderID int64) ([]int64, error)
	ListActiveReservations(ctx context.Context, orderID, productID, batchID int64) ([]StockReservation, error)
	ListActiveReservationsForOrder(ctx context.Context, orderID int64) ([]StockReservation, error)
	ShrinkReservation(ctx context.Context, reservationID int64, newQty float64) error
	ReleaseReservation(ctx context.Context, reservationID int64) error
	RecountBatchReservations(ctx context.Context, batchID int64) (float64, error)
	AdjustBatchStock(ctx context.Context, batchID int64, delta float64) (float64, error)
	RecomputeProductStock(ctx context.Context, productID int64) (float64, error)
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const batchColumns = `id, product_id, batch_number, import_container_id, import_price, import_quantity,
current_stock, reserved_stock, import_cost_allocated, final_landed_cost, landed_cost_per_unit,
expiry_date, is_active, created_at, updated_at`

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.ProductID, &b.BatchNumber, &b.ImportContainerID, &b.ImportPrice, &b.ImportQuantity,
		&b.CurrentStock, &b.ReservedStock, &b.ImportCostAllocated, &b.FinalLandedCost, &b.LandedCostPerUnit,
		&b.ExpiryDate, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// GetBatch loads one batch outside a transaction.
func (r *Repository) GetBatch(ctx context.Context, batchID int64) (Batch, error) {
	b, err := scanBatch(r.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id=$1`, batchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Batch{}, ErrBatchNotFound
		}
		return Batch{}, err
	}
	return b, nil
}

// ListReservationsForOrder returns reservations for an order, newest last.
func (r *Repository) ListReservationsForOrder(ctx context.Context, orderID int64) ([]StockReservation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sales_order_id, sales_order_item_id, product_id, batch_id, reserved_quantity, status, created_at, updated_at
FROM stock_reservations WHERE sales_order_id=$1 ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

type txRepo struct {
	tx pgx.Tx
}

// ListEligibleBatchesForUpdate returns active, unexpired batches for a
// product in FEFO order (earliest expiry first, then earliest receipt) and
// locks them for the duration of the reservation transaction.
func (r *txRepo) ListEligibleBatchesForUpdate(ctx context.Context, productID int64) ([]Batch, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+batchColumns+` FROM batches
WHERE product_id=$1 AND is_active AND (expiry_date IS NULL OR expiry_date > NOW())
ORDER BY expiry_date ASC NULLS LAST, created_at ASC, id ASC
FOR UPDATE`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (r *txRepo) GetBatchForUpdate(ctx context.Context, batchID int64) (Batch, error) {
	b, err := scanBatch(r.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id=$1 FOR UPDATE`, batchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Batch{}, ErrBatchNotFound
		}
		return Batch{}, err
	}
	return b, nil
}

func (r *txRepo) InsertReservation(ctx context.Context, res StockReservation) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_reservations
(sales_order_id, sales_order_item_id, product_id, batch_id, reserved_quantity, status)
VALUES ($1,$2,$3,$4,$5,'active') RETURNING id`,
		res.SalesOrderID, res.SalesOrderItemID, res.ProductID, res.BatchID, res.ReservedQuantity).Scan(&id)
	return id, err
}

// DeleteActiveReservationsForOrder clears an order's active reservations and
// returns the touched batch ids so their counters can be recounted.
func (r *txRepo) DeleteActiveReservationsForOrder(ctx context.Context, orderID int64) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `DELETE FROM stock_reservations
WHERE sales_order_id=$1 AND status='active' RETURNING batch_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var batchIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		batchIDs = append(batchIDs, id)
	}
	return batchIDs, rows.Err()
}

func (r *txRepo) ListActiveReservations(ctx context.Context, orderID, productID, batchID int64) ([]StockReservation, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, sales_order_id, sales_order_item_id, product_id, batch_id, reserved_quantity, status, created_at, updated_at
FROM stock_reservations
WHERE sales_order_id=$1 AND product_id=$2 AND batch_id=$3 AND status='active'
ORDER BY created_at ASC, id ASC FOR UPDATE`, orderID, productID, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *txRepo) ListActiveReservationsForOrder(ctx context.Context, orderID int64) ([]StockReservation, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, sales_order_id, sales_order_item_id, product_id, batch_id, reserved_quantity, status, created_at, updated_at
FROM stock_reservations WHERE sales_order_id=$1 AND status='active'
ORDER BY created_at ASC, id ASC FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *txRepo) ShrinkReservation(ctx context.Context, reservationID int64, newQty float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_reservations SET reserved_quantity=$2, updated_at=NOW() WHERE id=$1`, reservationID, newQty)
	return err
}

func (r *txRepo) ReleaseReservation(ctx context.Context, reservationID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_reservations SET status='released', updated_at=NOW() WHERE id=$1`, reservationID)
	return err
}

// RecountBatchReservations is the only writer of Batch.ReservedStock.
func (r *txRepo) RecountBatchReservations(ctx context.Context, batchID int64) (float64, error) {
	var reserved float64
	err := r.tx.QueryRow(ctx, `UPDATE batches SET
 reserved_stock = (SELECT COALESCE(SUM(reserved_quantity),0) FROM stock_reservations WHERE batch_id=$1 AND status='active'),
 updated_at = NOW()
WHERE id=$1 RETURNING reserved_stock`, batchID).Scan(&reserved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBatchNotFound
		}
		return 0, err
	}
	return reserved, nil
}

func (r *txRepo) AdjustBatchStock(ctx context.Context, batchID int64, delta float64) (float64, error) {
	var current float64
	err := r.tx.QueryRow(ctx, `UPDATE batches SET current_stock = current_stock + $2, updated_at = NOW()
WHERE id=$1 RETURNING current_stock`, batchID, delta).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBatchNotFound
		}
		return 0, err
	}
	return current, nil
}

// RecomputeProductStock is the only writer of Product.CurrentStock.
func (r *txRepo) RecomputeProductStock(ctx context.Context, productID int64) (float64, error) {
	var total float64
	err := r.tx.QueryRow(ctx, `UPDATE products SET
 current_stock = (SELECT COALESCE(SUM(current_stock),0) FROM batches WHERE product_id=$1 AND is_active),
 updated_at = NOW()
WHERE id=$1 RETURNING current_stock`, productID).Scan(&total)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return total, err
}

func collectReservations(rows pgx.Rows) ([]StockReservation, error) {
	var out []StockReservation
	for rows.Next() {
		var res StockReservation
		if err := rows.Scan(&res.ID, &res.SalesOrderID, &res.SalesOrderItemID, &res.ProductID, &res.BatchID,
			&res.ReservedQuantity, &res.Status, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

var _ TxRepository = (*txRepo)(nil)

package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pharma/meridian-erp/internal/numbering"
	"github.com/meridian-pharma/meridian-erp/internal/platform/db"
)

// Repository persists sales documents.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertOrder stores an order and its items under a fresh order number.
func (r *Repository) InsertOrder(ctx context.Context, in OrderInput, createdBy int64) (SalesOrder, error) {
	var order SalesOrder
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindSalesOrder, in.OrderDate)
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `INSERT INTO sales_orders (order_number, customer_id, order_date, status, created_by)
VALUES ($1,$2,$3,'draft',$4)
RETURNING id, order_number, customer_id, order_date, status, created_by, created_at, updated_at`,
			number, in.CustomerID, in.OrderDate, createdBy).
			Scan(&order.ID, &order.OrderNumber, &order.CustomerID, &order.OrderDate,
				&order.Status, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return err
		}
		for _, item := range in.Items {
			var it SalesOrderItem
			err := tx.QueryRow(ctx, `INSERT INTO sales_order_items (sales_order_id, product_id, quantity, unit_price)
VALUES ($1,$2,$3,$4)
RETURNING id, sales_order_id, product_id, quantity, unit_price, delivered_qty`,
				order.ID, item.ProductID, item.Quantity, item.UnitPrice).
				Scan(&it.ID, &it.SalesOrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.DeliveredQty)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, it)
		}
		return nil
	})
	return order, err
}

// GetOrder loads an order with its items.
func (r *Repository) GetOrder(ctx context.Context, orderID int64) (SalesOrder, error) {
	var order SalesOrder
	err := r.pool.QueryRow(ctx, `SELECT id, order_number, customer_id, order_date, status, created_by, created_at, updated_at
FROM sales_orders WHERE id=$1`, orderID).
		Scan(&order.ID, &order.OrderNumber, &order.CustomerID, &order.OrderDate,
			&order.Status, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalesOrder{}, ErrOrderNotFound
		}
		return SalesOrder{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, sales_order_id, product_id, quantity, unit_price, delivered_qty
FROM sales_order_items WHERE sales_order_id=$1 ORDER BY id ASC`, orderID)
	if err != nil {
		return SalesOrder{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it SalesOrderItem
		if err := rows.Scan(&it.ID, &it.SalesOrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.DeliveredQty); err != nil {
			return SalesOrder{}, err
		}
		order.Items = append(order.Items, it)
	}
	return order, rows.Err()
}

// SetOrderStatus transitions the order.
func (r *Repository) SetOrderStatus(ctx context.Context, orderID int64, status OrderStatus) error {
	ct, err := r.pool.Exec(ctx, `UPDATE sales_orders SET status=$2, updated_at=NOW() WHERE id=$1`, orderID, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// AddDeliveredQty accumulates delivered quantity on an order item.
func (r *Repository) AddDeliveredQty(ctx context.Context, itemID int64, qty float64) error {
	_, err := r.pool.Exec(ctx, `UPDATE sales_order_items SET delivered_qty = delivered_qty + $2 WHERE id=$1`, itemID, qty)
	return err
}

// InsertChallan stores a draft challan with a fresh number. productByItem
// maps order item ids to product ids so lines carry the product denormalised.
func (r *Repository) InsertChallan(ctx context.Context, in ChallanInput, productByItem map[int64]int64, createdBy int64) (DeliveryChallan, error) {
	var ch DeliveryChallan
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindDeliveryChallan, in.ChallanDate)
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `INSERT INTO delivery_challans (challan_number, sales_order_id, challan_date, status, created_by)
VALUES ($1,$2,$3,'draft',$4)
RETURNING id, challan_number, sales_order_id, challan_date, status, created_by, created_at`,
			number, in.SalesOrderID, in.ChallanDate, createdBy).
			Scan(&ch.ID, &ch.ChallanNumber, &ch.SalesOrderID, &ch.ChallanDate, &ch.Status, &ch.CreatedBy, &ch.CreatedAt)
		if err != nil {
			return err
		}
		for _, line := range in.Lines {
			var l ChallanLine
			err := tx.QueryRow(ctx, `INSERT INTO delivery_challan_lines (challan_id, sales_order_item_id, product_id, batch_id, quantity)
VALUES ($1,$2,$3,$4,$5)
RETURNING id, challan_id, sales_order_item_id, product_id, batch_id, quantity`,
				ch.ID, line.SalesOrderItemID, productByItem[line.SalesOrderItemID], line.BatchID, line.Quantity).
				Scan(&l.ID, &l.ChallanID, &l.SalesOrderItemID, &l.ProductID, &l.BatchID, &l.Quantity)
			if err != nil {
				return err
			}
			ch.Lines = append(ch.Lines, l)
		}
		return nil
	})
	return ch, err
}

// GetChallan loads a challan with its lines.
func (r *Repository) GetChallan(ctx context.Context, challanID int64) (DeliveryChallan, error) {
	var ch DeliveryChallan
	err := r.pool.QueryRow(ctx, `SELECT id, challan_number, sales_order_id, challan_date, status, approved_by, approved_at, created_by, created_at
FROM delivery_challans WHERE id=$1`, challanID).
		Scan(&ch.ID, &ch.ChallanNumber, &ch.SalesOrderID, &ch.ChallanDate, &ch.Status,
			&ch.ApprovedBy, &ch.ApprovedAt, &ch.CreatedBy, &ch.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeliveryChallan{}, ErrChallanNotFound
		}
		return DeliveryChallan{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, challan_id, sales_order_item_id, product_id, batch_id, quantity
FROM delivery_challan_lines WHERE challan_id=$1 ORDER BY id ASC`, challanID)
	if err != nil {
		return DeliveryChallan{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l ChallanLine
		if err := rows.Scan(&l.ID, &l.ChallanID, &l.SalesOrderItemID, &l.ProductID, &l.BatchID, &l.Quantity); err != nil {
			return DeliveryChallan{}, err
		}
		ch.Lines = append(ch.Lines, l)
	}
	return ch, rows.Err()
}

// MarkChallanApproved flips a draft challan to approved. The status guard in
// the WHERE clause makes double approval impossible even under races.
func (r *Repository) MarkChallanApproved(ctx context.Context, challanID, approverID int64, at time.Time) error {
	ct, err := r.pool.Exec(ctx, `UPDATE delivery_challans SET status='approved', approved_by=$2, approved_at=$3
WHERE id=$1 AND status='draft'`, challanID, approverID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrChallanAlreadyApproved
	}
	return nil
}

// RevertChallanApproval returns a claimed challan to draft after a failed
// stock deduction.
func (r *Repository) RevertChallanApproval(ctx context.Context, challanID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE delivery_challans SET status='draft', approved_by=NULL, approved_at=NULL
WHERE id=$1 AND status='approved'`, challanID)
	return err
}

// BatchUnitCost returns a batch's landed cost per unit, zero when the
// allocation has not run yet.
func (r *Repository) BatchUnitCost(ctx context.Context, batchID int64) (float64, error) {
	var cost float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(landed_cost_per_unit, 0) FROM batches WHERE id=$1`, batchID).Scan(&cost)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return cost, err
}

// InsertInvoice stores an invoice and its lines under a fresh number.
func (r *Repository) InsertInvoice(ctx context.Context, inv SalesInvoice) (SalesInvoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindSalesInvoice, inv.InvoiceDate)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		err = tx.QueryRow(ctx, `INSERT INTO sales_invoices
(id, invoice_number, invoice_date, customer_id, sales_order_id, subtotal, tax_amount, total_amount, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at`,
			inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.CustomerID, inv.SalesOrderID,
			inv.Subtotal, inv.TaxAmount, inv.TotalAmount, inv.CreatedBy).Scan(&inv.CreatedAt)
		if err != nil {
			return err
		}
		for i := range inv.Lines {
			line := &inv.Lines[i]
			line.InvoiceID = inv.ID
			err := tx.QueryRow(ctx, `INSERT INTO sales_invoice_lines
(invoice_id, product_id, batch_id, quantity, unit_price, amount, cogs_amount)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
				line.InvoiceID, line.ProductID, line.BatchID, line.Quantity,
				line.UnitPrice, line.Amount, line.COGSAmount).Scan(&line.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return inv, err
}

package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pharma/meridian-erp/internal/numbering"
	"github.com/meridian-pharma/meridian-erp/internal/platform/db"
)

// Repository persists procurement records.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertRequirements stores one requirement row per shortage.
func (r *Repository) InsertRequirements(ctx context.Context, reqs []ImportRequirement) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, req := range reqs {
			_, err := tx.Exec(ctx, `INSERT INTO import_requirements
(product_id, quantity_needed, source_sales_order_id, status)
VALUES ($1,$2,$3,'open')`,
				req.ProductID, req.QuantityNeeded, req.SourceSalesOrderID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListOpenRequirements returns requirements not yet closed, oldest first.
func (r *Repository) ListOpenRequirements(ctx context.Context) ([]ImportRequirement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, quantity_needed, source_sales_order_id, status, created_at, updated_at
FROM import_requirements WHERE status <> 'closed' ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ImportRequirement
	for rows.Next() {
		var req ImportRequirement
		if err := rows.Scan(&req.ID, &req.ProductID, &req.QuantityNeeded, &req.SourceSalesOrderID,
			&req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// SetRequirementStatus transitions a requirement.
func (r *Repository) SetRequirementStatus(ctx context.Context, id int64, status RequirementStatus) error {
	ct, err := r.pool.Exec(ctx, `UPDATE import_requirements SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrRequirementNotFound
	}
	return nil
}

// InsertInvoice stores a purchase invoice and its lines under a fresh number.
func (r *Repository) InsertInvoice(ctx context.Context, inv PurchaseInvoice) (PurchaseInvoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindPurchaseInvoice, inv.InvoiceDate)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		err = tx.QueryRow(ctx, `INSERT INTO purchase_invoices
(id, invoice_number, invoice_date, supplier_id, subtotal, tax_amount, total_amount, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING created_at`,
			inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.SupplierID,
			inv.Subtotal, inv.TaxAmount, inv.TotalAmount, inv.CreatedBy).Scan(&inv.CreatedAt)
		if err != nil {
			return err
		}
		for i := range inv.Lines {
			line := &inv.Lines[i]
			line.InvoiceID = inv.ID
			err := tx.QueryRow(ctx, `INSERT INTO purchase_invoice_lines
(invoice_id, kind, product_id, batch_id, expense_category, description, amount)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
				line.InvoiceID, line.Kind, line.ProductID, line.BatchID,
				line.ExpenseCategory, line.Description, line.Amount).Scan(&line.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return inv, err
}

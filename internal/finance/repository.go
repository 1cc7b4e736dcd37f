package finance

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

// Repository persists finance documents. Document numbers are issued by the
// numbering sequencer inside the same transaction as the insert, so a failed
// insert never burns a number into an external system.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const expenseColumns = `id, expense_number, expense_date, category, description, amount,
payment_method, bank_account_id, import_container_id, petty_cash_transaction_id,
created_by, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.ExpenseNumber, &e.ExpenseDate, &e.Category, &e.Description, &e.Amount,
		&e.PaymentMethod, &e.BankAccountID, &e.ImportContainerID, &e.PettyCashTransactionID,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// InsertExpense assigns an id and expense number and stores the row.
func (r *Repository) InsertExpense(ctx context.Context, in ExpenseInput, createdBy int64) (Expense, error) {
	var e Expense
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindExpense, in.ExpenseDate)
		if err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `INSERT INTO finance_expenses
(id, expense_number, expense_date, category, description, amount, payment_method,
 bank_account_id, import_container_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING `+expenseColumns,
			uuid.New(), number, in.ExpenseDate, in.Category, in.Description, in.Amount,
			in.PaymentMethod, in.BankAccountID, in.ImportContainerID, createdBy)
		e, err = scanExpense(row)
		return err
	})
	return e, err
}

// UpdateExpense overwrites the writable fields of an expense.
func (r *Repository) UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseInput) (Expense, error) {
	e, err := scanExpense(r.pool.QueryRow(ctx, `UPDATE finance_expenses SET
 expense_date=$2, category=$3, description=$4, amount=$5, payment_method=$6,
 bank_account_id=$7, import_container_id=$8, updated_at=NOW()
WHERE id=$1 RETURNING `+expenseColumns,
		id, in.ExpenseDate, in.Category, in.Description, in.Amount, in.PaymentMethod,
		in.BankAccountID, in.ImportContainerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, ErrDocumentNotFound
	}
	return e, err
}

// GetExpense loads one expense.
func (r *Repository) GetExpense(ctx context.Context, id uuid.UUID) (Expense, error) {
	e, err := scanExpense(r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM finance_expenses WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, ErrDocumentNotFound
	}
	return e, err
}

// DeleteExpense removes an expense row.
func (r *Repository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM finance_expenses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// LinkPettyCash cross-references an expense with the petty cash transaction
// created on its behalf.
func (r *Repository) LinkPettyCash(ctx context.Context, expenseID, pettyCashID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE finance_expenses SET petty_cash_transaction_id=$2, updated_at=NOW() WHERE id=$1`,
		expenseID, pettyCashID)
	return err
}

// UnlinkPettyCash clears the cross-reference so the transaction can be
// removed without tripping the foreign key.
func (r *Repository) UnlinkPettyCash(ctx context.Context, expenseID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE finance_expenses SET petty_cash_transaction_id=NULL, updated_at=NOW() WHERE id=$1`,
		expenseID)
	return err
}

// UpdatePettyCash rewrites a petty cash transaction in place, keeping its
// number and expense linkage.
func (r *Repository) UpdatePettyCash(ctx context.Context, id uuid.UUID, in PettyCashInput) (PettyCashTransaction, error) {
	var t PettyCashTransaction
	err := r.pool.QueryRow(ctx, `UPDATE petty_cash_transactions SET
 transaction_date=$2, direction=$3, amount=$4, description=$5
WHERE id=$1
RETURNING id, transaction_number, transaction_date, direction, amount, description, finance_expense_id, created_by, created_at`,
		id, in.TransactionDate, in.Direction, in.Amount, in.Description).
		Scan(&t.ID, &t.TransactionNumber, &t.TransactionDate, &t.Direction, &t.Amount,
			&t.Description, &t.FinanceExpenseID, &t.CreatedBy, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PettyCashTransaction{}, ErrDocumentNotFound
	}
	return t, err
}

// DeletePettyCash removes a petty cash transaction row.
func (r *Repository) DeletePettyCash(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM petty_cash_transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// InsertReceiptVoucher stores a receipt voucher with a fresh number.
func (r *Repository) InsertReceiptVoucher(ctx context.Context, in ReceiptVoucherInput, createdBy int64) (ReceiptVoucher, error) {
	var v ReceiptVoucher
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindReceiptVoucher, in.VoucherDate)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx, `INSERT INTO receipt_vouchers
(id, voucher_number, voucher_date, customer_id, amount, payment_method, bank_account_id, description, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id, voucher_number, voucher_date, customer_id, amount, payment_method, bank_account_id, description, created_by, created_at`,
			uuid.New(), number, in.VoucherDate, in.CustomerID, in.Amount, in.PaymentMethod,
			in.BankAccountID, in.Description, createdBy).
			Scan(&v.ID, &v.VoucherNumber, &v.VoucherDate, &v.CustomerID, &v.Amount,
				&v.PaymentMethod, &v.BankAccountID, &v.Description, &v.CreatedBy, &v.CreatedAt)
	})
	return v, err
}

// InsertPaymentVoucher stores a payment voucher with a fresh number.
func (r *Repository) InsertPaymentVoucher(ctx context.Context, in PaymentVoucherInput, createdBy int64) (PaymentVoucher, error) {
	var v PaymentVoucher
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindPaymentVoucher, in.VoucherDate)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx, `INSERT INTO payment_vouchers
(id, voucher_number, voucher_date, supplier_id, amount, pph_amount, payment_method, bank_account_id, description, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id, voucher_number, voucher_date, supplier_id, amount, pph_amount, payment_method, bank_account_id, description, created_by, created_at`,
			uuid.New(), number, in.VoucherDate, in.SupplierID, in.Amount, in.PPhAmount,
			in.PaymentMethod, in.BankAccountID, in.Description, createdBy).
			Scan(&v.ID, &v.VoucherNumber, &v.VoucherDate, &v.SupplierID, &v.Amount, &v.PPhAmount,
				&v.PaymentMethod, &v.BankAccountID, &v.Description, &v.CreatedBy, &v.CreatedAt)
	})
	return v, err
}

// InsertFundTransfer stores a fund transfer with a fresh number.
func (r *Repository) InsertFundTransfer(ctx context.Context, in FundTransferInput, createdBy int64) (FundTransfer, error) {
	var t FundTransfer
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindFundTransfer, in.TransferDate)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx, `INSERT INTO fund_transfers
(id, transfer_number, transfer_date, from_method, from_bank_account_id, to_method, to_bank_account_id,
 from_amount, to_amount, from_currency, to_currency, exchange_rate, description, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING id, transfer_number, transfer_date, from_method, from_bank_account_id, to_method, to_bank_account_id,
 from_amount, to_amount, from_currency, to_currency, exchange_rate, description, created_by, created_at`,
			uuid.New(), number, in.TransferDate, in.FromMethod, in.FromBankAccountID, in.ToMethod, in.ToBankAccountID,
			in.FromAmount, in.ToAmount, in.FromCurrency, in.ToCurrency, in.ExchangeRate, in.Description, createdBy).
			Scan(&t.ID, &t.TransferNumber, &t.TransferDate, &t.FromMethod, &t.FromBankAccountID,
				&t.ToMethod, &t.ToBankAccountID, &t.FromAmount, &t.ToAmount, &t.FromCurrency,
				&t.ToCurrency, &t.ExchangeRate, &t.Description, &t.CreatedBy, &t.CreatedAt)
	})
	return t, err
}

// InsertPettyCash stores a petty cash transaction with a fresh number.
// expenseID links the transaction back to the expense that spawned it.
func (r *Repository) InsertPettyCash(ctx context.Context, in PettyCashInput, expenseID *uuid.UUID, createdBy int64) (PettyCashTransaction, error) {
	var t PettyCashTransaction
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := numbering.NewTxSequencer(tx).Next(ctx, numbering.KindPettyCash, in.TransactionDate)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx, `INSERT INTO petty_cash_transactions
(id, transaction_number, transaction_date, direction, amount, description, finance_expense_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id, transaction_number, transaction_date, direction, amount, description, finance_expense_id, created_by, created_at`,
			uuid.New(), number, in.TransactionDate, in.Direction, in.Amount, in.Description, expenseID, createdBy).
			Scan(&t.ID, &t.TransactionNumber, &t.TransactionDate, &t.Direction, &t.Amount,
				&t.Description, &t.FinanceExpenseID, &t.CreatedBy, &t.CreatedAt)
	})
	return t, err
}

// UnpostedDocument is one finance document missing its journal entry.
type UnpostedDocument struct {
	SourceModule   string    `json:"source_module"`
	DocumentID     uuid.UUID `json:"document_id"`
	DocumentNumber string    `json:"document_number"`
	DocumentDate   time.Time `json:"document_date"`
	Amount         float64   `json:"amount"`
}

// ListUnpostedDocuments surfaces documents whose posting was swallowed, for
// the reconciliation report and the maintenance scan.
func (r *Repository) ListUnpostedDocuments(ctx context.Context) ([]UnpostedDocument, error) {
	rows, err := r.pool.Query(ctx, `
SELECT d.source_module, d.id, d.number, d.doc_date, d.amount FROM (
  SELECT 'finance_expense' AS source_module, id, expense_number AS number, expense_date AS doc_date, amount FROM finance_expenses
  UNION ALL
  SELECT 'receipt_voucher', id, voucher_number, voucher_date, amount FROM receipt_vouchers
  UNION ALL
  SELECT 'payment_voucher', id, voucher_number, voucher_date, amount FROM payment_vouchers
  UNION ALL
  SELECT 'fund_transfer', id, transfer_number, transfer_date, from_amount FROM fund_transfers
  UNION ALL
  -- Expense-linked rows never post on their own; the expense carries the entry.
  SELECT 'petty_cash', id, transaction_number, transaction_date, amount FROM petty_cash_transactions WHERE finance_expense_id IS NULL
) d
LEFT JOIN journal_source_links l ON l.source_module = d.source_module AND l.reference_id = d.id
WHERE l.journal_entry_id IS NULL
ORDER BY d.doc_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UnpostedDocument
	for rows.Next() {
		var doc UnpostedDocument
		if err := rows.Scan(&doc.SourceModule, &doc.DocumentID, &doc.DocumentNumber, &doc.DocumentDate, &doc.Amount); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// PPNMonth is one month of input and output tax.
type PPNMonth struct {
	Period    string  `json:"period"`
	InputPPN  float64 `json:"input_ppn"`
	OutputPPN float64 `json:"output_ppn"`
	NetPPN    float64 `json:"net_ppn"`
}

// PPNReport aggregates input PPN (import tax expenses) and output PPN (sales
// invoice tax) per month. Net is output minus input.
func (r *Repository) PPNReport(ctx context.Context, year int) ([]PPNMonth, error) {
	rows, err := r.pool.Query(ctx, `
WITH input AS (
  SELECT to_char(expense_date, 'YYYY-MM') AS period, SUM(amount) AS total
  FROM finance_expenses WHERE category = 'ppn_import' AND EXTRACT(YEAR FROM expense_date) = $1
  GROUP BY 1
), output AS (
  SELECT to_char(invoice_date, 'YYYY-MM') AS period, SUM(tax_amount) AS total
  FROM sales_invoices WHERE EXTRACT(YEAR FROM invoice_date) = $1
  GROUP BY 1
)
SELECT COALESCE(i.period, o.period) AS period,
       COALESCE(i.total, 0), COALESCE(o.total, 0), COALESCE(o.total, 0) - COALESCE(i.total, 0)
FROM input i FULL OUTER JOIN output o ON i.period = o.period
ORDER BY 1`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PPNMonth
	for rows.Next() {
		var m PPNMonth
		if err := rows.Scan(&m.Period, &m.InputPPN, &m.OutputPPN, &m.NetPPN); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

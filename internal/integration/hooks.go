// Package integration wires domain document events into the general ledger.
// One hook per document type builds the balanced journal lines for that
// document; all of them resolve accounts through the same resolver and post
// through the same idempotent ledger operation.
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-pharma/meridian-erp/internal/coa"
	"github.com/meridian-pharma/meridian-erp/internal/finance"
	"github.com/meridian-pharma/meridian-erp/internal/ledger"
	"github.com/meridian-pharma/meridian-erp/internal/procurement"
	"github.com/meridian-pharma/meridian-erp/internal/sales"
)

// Source module tags recorded on journal entries and their source links.
// The unposted-documents report joins on these exact strings.
const (
	SourceExpense         = "finance_expense"
	SourceReceiptVoucher  = "receipt_voucher"
	SourcePaymentVoucher  = "payment_voucher"
	SourceFundTransfer    = "fund_transfer"
	SourcePettyCash       = "petty_cash"
	SourceSalesInvoice    = "sales_invoice"
	SourcePurchaseInvoice = "purchase_invoice"
)

// Ledger exposes the posting operations the hooks drive.
type Ledger interface {
	Post(ctx context.Context, input ledger.PostingInput) (ledger.JournalEntry, error)
	Unpost(ctx context.Context, module string, refID uuid.UUID, actorID int64) error
}

// Accounts resolves semantic categories to ledger accounts.
type Accounts interface {
	ResolveExpenseAccount(ctx context.Context, category string) (coa.Account, error)
	ResolvePaymentAccount(ctx context.Context, method string, bankAccountID *int64) (coa.Account, error)
	ResolveCode(ctx context.Context, code string) (coa.Account, error)
}

// Hooks posts journal entries for finance, sales, and procurement documents.
// A posting that fails to resolve its accounts or write its entry is logged
// and counted, never raised: the business operation that produced the
// document must not be blocked by accounting configuration gaps.
type Hooks struct {
	ledger   Ledger
	accounts Accounts
	log      *slog.Logger
	failures prometheus.Counter
	amounts  *message.Printer
}

// NewHooks constructs the hook set. failures may be nil.
func NewHooks(ledger Ledger, accounts Accounts, log *slog.Logger, failures prometheus.Counter) *Hooks {
	if log == nil {
		log = slog.Default()
	}
	return &Hooks{
		ledger:   ledger,
		accounts: accounts,
		log:      log,
		failures: failures,
		amounts:  message.NewPrinter(language.English),
	}
}

// tryPost swallows posting failures. Re-posting an already posted document
// is an idempotent no-op, not a failure.
func (h *Hooks) tryPost(ctx context.Context, input ledger.PostingInput) error {
	_, err := h.ledger.Post(ctx, input)
	if err != nil && !errors.Is(err, ledger.ErrAlreadyPosted) {
		h.swallow(input.SourceModule, input.ReferenceNumber, err)
	}
	return nil
}

func (h *Hooks) swallow(module, number string, err error) {
	h.log.Warn("journal posting failed, document saved unposted",
		"source_module", module, "reference_number", number, "error", err)
	if h.failures != nil {
		h.failures.Inc()
	}
}

// ExpenseRecorded posts an expense: inventory when capitalized against an
// import container, the mapped expense account otherwise, against the
// payment (or payable) account.
func (h *Hooks) ExpenseRecorded(ctx context.Context, e finance.Expense) error {
	var debit coa.Account
	var err error
	if e.Capitalized() {
		debit, err = h.accounts.ResolveCode(ctx, coa.CodeInventory)
	} else {
		debit, err = h.accounts.ResolveExpenseAccount(ctx, e.Category)
	}
	if err != nil {
		h.swallow(SourceExpense, e.ExpenseNumber, err)
		return nil
	}
	credit, err := h.accounts.ResolvePaymentAccount(ctx, e.PaymentMethod, e.BankAccountID)
	if err != nil {
		h.swallow(SourceExpense, e.ExpenseNumber, err)
		return nil
	}
	return h.tryPost(ctx, ledger.PostingInput{
		EntryDate:       e.ExpenseDate,
		SourceModule:    SourceExpense,
		ReferenceID:     e.ID,
		ReferenceNumber: e.ExpenseNumber,
		Description:     fmt.Sprintf("Expense %s: %s", e.ExpenseNumber, e.Description),
		CreatedBy:       e.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountID: debit.ID, Debit: e.Amount, Description: e.Description},
			{AccountID: credit.ID, Credit: e.Amount, Description: e.Description},
		},
	})
}

// ExpenseCorrected deletes the old entry and posts a fresh one. Posted
// amounts are never mutated in place.
func (h *Hooks) ExpenseCorrected(ctx context.Context, e finance.Expense) error {
	if err := h.ledger.Unpost(ctx, SourceExpense, e.ID, e.CreatedBy); err != nil {
		h.swallow(SourceExpense, e.ExpenseNumber, err)
		return nil
	}
	return h.ExpenseRecorded(ctx, e)
}

// ExpenseRemoved deletes the journal entry of a deleted expense.
func (h *Hooks) ExpenseRemoved(ctx context.Context, e finance.Expense) error {
	if err := h.ledger.Unpost(ctx, SourceExpense, e.ID, e.CreatedBy); err != nil {
		h.swallow(SourceExpense, e.ExpenseNumber, err)
	}
	return nil
}

// ReceiptVoucherRecorded posts money in: debit the receiving cash or bank
// account, credit accounts receivable against the customer.
func (h *Hooks) ReceiptVoucherRecorded(ctx context.Context, v finance.ReceiptVoucher) error {
	debit, err := h.accounts.ResolvePaymentAccount(ctx, v.PaymentMethod, v.BankAccountID)
	if err != nil {
		h.swallow(SourceReceiptVoucher, v.VoucherNumber, err)
		return nil
	}
	credit, err := h.accounts.ResolveCode(ctx, coa.CodeAR)
	if err != nil {
		h.swallow(SourceReceiptVoucher, v.VoucherNumber, err)
		return nil
	}
	return h.tryPost(ctx, ledger.PostingInput{
		EntryDate:       v.VoucherDate,
		SourceModule:    SourceReceiptVoucher,
		ReferenceID:     v.ID,
		ReferenceNumber: v.VoucherNumber,
		Description:     fmt.Sprintf("Receipt %s: %s", v.VoucherNumber, v.Description),
		CreatedBy:       v.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountID: debit.ID, Debit: v.Amount, Description: v.Description},
			{AccountID: credit.ID, Credit: v.Amount, Description: v.Description, CustomerID: v.CustomerID},
		},
	})
}

// PaymentVoucherRecorded posts money out: debit accounts payable for the
// gross amount, credit withheld PPh (if any) and the paying account for the
// net.
func (h *Hooks) PaymentVoucherRecorded(ctx context.Context, v finance.PaymentVoucher) error {
	debit, err := h.accounts.ResolveCode(ctx, coa.CodeAP)
	if err != nil {
		h.swallow(SourcePaymentVoucher, v.VoucherNumber, err)
		return nil
	}
	paying, err := h.accounts.ResolvePaymentAccount(ctx, v.PaymentMethod, v.BankAccountID)
	if err != nil {
		h.swallow(SourcePaymentVoucher, v.VoucherNumber, err)
		return nil
	}
	lines := []ledger.LineInput{
		{AccountID: debit.ID, Debit: v.Amount, Description: v.Description, SupplierID: v.SupplierID},
	}
	if v.PPhAmount > 0 {
		withholding, err := h.accounts.ResolveCode(ctx, coa.CodePPhPayable)
		if err != nil {
			h.swallow(SourcePaymentVoucher, v.VoucherNumber, err)
			return nil
		}
		lines = append(lines, ledger.LineInput{
			AccountID:   withholding.ID,
			Credit:      v.PPhAmount,
			Description: fmt.Sprintf("PPh withheld on %s", v.VoucherNumber),
		})
	}
	lines = append(lines, ledger.LineInput{
		AccountID:   paying.ID,
		Credit:      v.Amount - v.PPhAmount,
		Description: v.Description,
	})
	return h.tryPost(ctx, ledger.PostingInput{
		EntryDate:       v.VoucherDate,
		SourceModule:    SourcePaymentVoucher,
		ReferenceID:     v.ID,
		ReferenceNumber: v.VoucherNumber,
		Description:     fmt.Sprintf("Payment %s: %s", v.VoucherNumber, v.Description),
		CreatedBy:       v.CreatedBy,
		Lines:           lines,
	})
}

// FundTransferRecorded posts a transfer between money accounts. Both sides
// post at the from-side amount; on a cross-currency transfer each line
// description carries the counterpart currency amount so the implicit FX
// difference can be reconciled by hand.
func (h *Hooks) FundTransferRecorded(ctx context.Context, t finance.FundTransfer) error {
	from, err := h.accounts.ResolvePaymentAccount(ctx, t.FromMethod, t.FromBankAccountID)
	if err != nil {
		h.swallow(SourceFundTransfer, t.TransferNumber, err)
		return nil
	}
	to, err := h.accounts.ResolvePaymentAccount(ctx, t.ToMethod, t.ToBankAccountID)
	if err != nil {
		h.swallow(SourceFundTransfer, t.TransferNumber, err)
		return nil
	}
	debitDesc := t.Description
	creditDesc := t.Description
	if t.CrossCurrency() {
		debitDesc = h.amounts.Sprintf("%s (received %s %.2f at rate %.4f)",
			t.Description, t.ToCurrency, t.ToAmount, t.ExchangeRate)
		creditDesc = h.amounts.Sprintf("%s (sent %s %.2f)",
			t.Description, t.FromCurrency, t.FromAmount)
	}
	return h.tryPost(ctx, ledger.PostingInput{
		EntryDate:       t.TransferDate,
		SourceModule:    SourceFundTransfer,
		ReferenceID:     t.ID,
		ReferenceNumber: t.TransferNumber,
		Description:     fmt.Sprintf("Transfer %s: %s", t.TransferNumber, t.Description),
		CreatedBy:       t.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountID: to.ID, Debit: t.FromAmount, Description: debitDesc},
			{AccountID: from.ID, Credit: t.FromAmount, Description: creditDesc},
		},
	})
}

// PettyCashRecorded posts a standalone petty cash movement: replenishment
// (in) moves cash on hand into the fund, spending (out) books the cost
// against misc expense. Movements spawned by petty-cash expenses never reach
// this hook; the expense entry already credits the fund.
func (h *Hooks) PettyCashRecorded(ctx context.Context, t finance.PettyCashTransaction) error {
	fund, err := h.accounts.ResolveCode(ctx, coa.CodePettyCash)
	if err != nil {
		h.swallow(SourcePettyCash, t.TransactionNumber, err)
		return nil
	}
	var lines []ledger.LineInput
	switch t.Direction {
	case finance.PettyCashIn:
		cash, err := h.accounts.ResolveCode(ctx, coa.CodeCashOnHand)
		if err != nil {
			h.swallow(SourcePettyCash, t.TransactionNumber, err)
			return nil
		}
		lines = []ledger.LineInput{
			{AccountID: fund.ID, Debit: t.Amount, Description: t.Description},
			{AccountID: cash.ID, Credit: t.Amount, Description: t.Description},
		}
	case finance.PettyCashOut:
		expense, err := h.accounts.ResolveCode(ctx, coa.CodeMiscExpense)
		if err != nil {
			h.swallow(SourcePettyCash, t.TransactionNumber, err)
			return nil
		}
		lines = []ledger.LineInput{
			{AccountID: expense.ID, Debit: t.Amount, Description: t.Description},
			{AccountID: fund.ID, Credit: t.Amount, Description: t.Description},
		}
	default:
		h.swallow(SourcePettyCash, t.TransactionNumber,
			fmt.Errorf("unknown direction %q", t.Direction))
		return nil
	}
	return h.tryPost(ctx, ledger.PostingInput{
		EntryDate:       t.TransactionDate,
		SourceModule:    SourcePettyCash,
		ReferenceID:     t.ID,
		ReferenceNumber: t.TransactionNumber,
		Description:     fmt.Sprintf("Petty cash %s: %s", t.TransactionNumber, t.Description),
		CreatedBy:       t.CreatedBy,
		Lines:           lines,
	})
}

// SalesInvoiceRecorded posts revenue: debit receivable for the total, credit
// revenue and output PPN. When line costs are known a COGS/inventory pair is
// added per batch line.
func (h *Hooks) SalesInvoiceRecorded(ctx context.Context, inv sales.SalesInvoice) error {
	ar, err := h.accounts.ResolveCode(ctx, coa.CodeAR)
	if err != nil {
		h.swallow(SourceSalesInvoice, inv.InvoiceNumber, err)
		return nil
	}
	revenue, err := h.accounts.ResolveCode(ctx, coa.CodeSalesRevenue)
	if err != nil {
		h.swallow(SourceSalesInvoice, inv.InvoiceNumber, err)
		return nil
	}
	customerID := inv.CustomerID
	lines := []ledger.LineInput{
		{AccountID: ar.ID, Debit: inv.TotalAmount, Description: inv.InvoiceNumber, CustomerID: &customerID},
		{AccountID: revenue.ID, Credit: inv.Subtotal, Description: inv.InvoiceNumber},
	}
	if inv.TaxAmount > 0 {
		outputTax, err := h.accounts.ResolveCode(ctx, coa.CodeOutputPPN)
		if err != nil {
			h.swallow(SourceSalesInvoice, inv.InvoiceNumber, err)
			return nil
		}
		lines = append(lines, ledger.LineInput{
			AccountID:   outputTax.ID,
			Credit:      inv.TaxAmount,
			Description: fmt.Sprintf("Output PPN %s", inv.InvoiceNumber),
		})
	}
	if inv.TotalCOGS() > 0 {
		cogs, err := h.accounts.ResolveCode(ctx, coa.CodeCOGS)
		if err != nil {
			h.swallow(SourceSalesInvoice, inv.InvoiceNumber, err)
			return nil
		}
		stock, err := h.accounts.ResolveCode(ctx, coa.CodeInventory)
		if err != nil {
			h.swallow(SourceSalesInvoice, inv.InvoiceNumber, err)
			return nil
		}
		for _, l := range inv.Lines {
			if l.COGSAmount <= 0 {
				continue
			}
			desc := fmt.Sprintf("COGS %s", inv.InvoiceNumber)
			lines = append(lines,
				ledger.LineInput{AccountID: cogs.ID, Debit: l.COGSAmount, Description: desc, BatchID: l.BatchID},
				ledger.LineInput{AccountID: stock.ID, Credit: l.COGSAmount, Description: desc, BatchID: l.BatchID},
			)
		}
	}
	return h.tryPost(ctx, ledger.PostingInput{
		EntryDate:       inv.InvoiceDate,
		SourceModule:    SourceSalesInvoice,
		ReferenceID:     inv.ID,
		ReferenceNumber: inv.InvoiceNumber,
		Description:     fmt.Sprintf("Sales invoice %s", inv.InvoiceNumber),
		CreatedBy:       inv.CreatedBy,
		Lines:           lines,
	})
}

// PurchaseInvoiceRecorded posts supplier billing: debit inventory or the
// mapped expense account per line plus recoverable input PPN, credit
// accounts payable for the total.
func (h *Hooks) PurchaseInvoiceRecorded(ctx context.Context, inv procurement.PurchaseInvoice) error {
	var lines []ledger.LineInput
	for _, l := range inv.Lines {
		var acct coa.Account
		var err error
		if l.Kind == procurement.LineInventory {
			acct, err = h.accounts.ResolveCode(ctx, coa.CodeInventory)
		} else {
			acct, err = h.accounts.ResolveExpenseAccount(ctx, l.ExpenseCategory)
		}
		if err != nil {
			h.swallow(SourcePurchaseInvoice, inv.InvoiceNumber, err)
			return nil
		}
		lines = append(lines, ledger.LineInput{
			AccountID:   acct.ID,
			Debit:       l.Amount,
			Description: l.Description,
			BatchID:     l.BatchID,
		})
	}
	if inv.TaxAmount > 0 {
		inputTax, err := h.accounts.ResolveCode(ctx, coa.CodeInputPPN)
		if err != nil {
			h.swallow(SourcePurchaseInvoice, inv.InvoiceNumber, err)
			return nil
		}
		lines = append(lines, ledger.LineInput{
			AccountID:   inputTax.ID,
			Debit:       inv.TaxAmount,
			Description: fmt.Sprintf("Input PPN %s", inv.InvoiceNumber),
		})
	}
	ap, err := h.accounts.ResolveCode(ctx, coa.CodeAP)
	if err != nil {
		h.swallow(SourcePurchaseInvoice, inv.InvoiceNumber, err)
		return nil
	}
	supplierID := inv.SupplierID
	lines = append(lines, ledger.LineInput{
		AccountID:   ap.ID,
		Credit:      inv.TotalAmount,
		Description: inv.InvoiceNumber,
		SupplierID:  &supplierID,
	})
	return h.tryPost(ctx, ledger.PostingInput{
		EntryDate:       inv.InvoiceDate,
		SourceModule:    SourcePurchaseInvoice,
		ReferenceID:     inv.ID,
		ReferenceNumber: inv.InvoiceNumber,
		Description:     fmt.Sprintf("Purchase invoice %s", inv.InvoiceNumber),
		CreatedBy:       inv.CreatedBy,
		Lines:           lines,
	})
}

var (
	_ finance.PostingHooks     = (*Hooks)(nil)
	_ sales.InvoiceHooks       = (*Hooks)(nil)
	_ procurement.InvoiceHooks = (*Hooks)(nil)
)

// Package finance owns the financial source documents: expenses, receipt and
// payment vouchers, fund transfers, and petty cash transactions. Creating or
// correcting a document emits an event consumed synchronously by the posting
// hooks; the documents themselves never write journal rows.
package finance

import (
	"time"

	"github.com/google/uuid"
)

// DocStatus marks whether a document's journal entry exists.
type DocStatus string

const (
	DocDraft  DocStatus = "draft"
	DocPosted DocStatus = "posted"
)

// Expense is a single paid or payable cost item. A non-nil
// ImportContainerID capitalizes the expense into inventory instead of P&L.
// An empty PaymentMethod means unpaid, so the credit side is accounts
// payable.
type Expense struct {
	ID                     uuid.UUID
	ExpenseNumber          string
	ExpenseDate            time.Time
	Category               string
	Description            string
	Amount                 float64
	PaymentMethod          string
	BankAccountID          *int64
	ImportContainerID      *int64
	PettyCashTransactionID *uuid.UUID
	CreatedBy              int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Capitalized reports whether the expense lands on inventory.
func (e Expense) Capitalized() bool {
	return e.ImportContainerID != nil
}

// ReceiptVoucher records money received from a customer.
type ReceiptVoucher struct {
	ID            uuid.UUID
	VoucherNumber string
	VoucherDate   time.Time
	CustomerID    *int64
	Amount        float64
	PaymentMethod string
	BankAccountID *int64
	Description   string
	CreatedBy     int64
	CreatedAt     time.Time
}

// PaymentVoucher records money paid to a supplier. PPhAmount is the
// withholding tax deducted from the cash side.
type PaymentVoucher struct {
	ID            uuid.UUID
	VoucherNumber string
	VoucherDate   time.Time
	SupplierID    *int64
	Amount        float64
	PPhAmount     float64
	PaymentMethod string
	BankAccountID *int64
	Description   string
	CreatedBy     int64
	CreatedAt     time.Time
}

// FundTransfer moves money between cash, petty cash, and bank accounts,
// optionally across currencies. Amounts are stored in each side's own
// currency; the journal posts at the from-side (functional currency) amount.
type FundTransfer struct {
	ID                uuid.UUID
	TransferNumber    string
	TransferDate      time.Time
	FromMethod        string
	FromBankAccountID *int64
	ToMethod          string
	ToBankAccountID   *int64
	FromAmount        float64
	ToAmount          float64
	FromCurrency      string
	ToCurrency        string
	ExchangeRate      float64
	Description       string
	CreatedBy         int64
	CreatedAt         time.Time
}

// CrossCurrency reports whether the two sides are in different currencies.
func (t FundTransfer) CrossCurrency() bool {
	return t.FromCurrency != "" && t.ToCurrency != "" && t.FromCurrency != t.ToCurrency
}

// PettyCashDirection is the flow direction of a petty cash transaction.
type PettyCashDirection string

const (
	PettyCashIn  PettyCashDirection = "in"
	PettyCashOut PettyCashDirection = "out"
)

// PettyCashTransaction is one movement of the petty cash fund. When created
// as the side effect of a petty-cash expense the two rows cross-reference
// each other.
type PettyCashTransaction struct {
	ID                uuid.UUID
	TransactionNumber string
	TransactionDate   time.Time
	Direction         PettyCashDirection
	Amount            float64
	Description       string
	FinanceExpenseID  *uuid.UUID
	CreatedBy         int64
	CreatedAt         time.Time
}

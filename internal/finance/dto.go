package finance

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrDocumentNotFound indicates a missing finance document.
var ErrDocumentNotFound = errors.New("finance: document not found")

// ExpenseInput carries the writable fields of an expense.
type ExpenseInput struct {
	ExpenseDate       time.Time `json:"expense_date" validate:"required"`
	Category          string    `json:"category" validate:"required"`
	Description       string    `json:"description" validate:"required"`
	Amount            float64   `json:"amount" validate:"required,gt=0"`
	PaymentMethod     string    `json:"payment_method" validate:"omitempty,oneof=cash bank_transfer petty_cash"`
	BankAccountID     *int64    `json:"bank_account_id" validate:"omitempty,gt=0"`
	ImportContainerID *int64    `json:"import_container_id" validate:"omitempty,gt=0"`
}

func (in ExpenseInput) Validate() error { return validate.Struct(in) }

// ReceiptVoucherInput carries the writable fields of a receipt voucher.
type ReceiptVoucherInput struct {
	VoucherDate   time.Time `json:"voucher_date" validate:"required"`
	CustomerID    *int64    `json:"customer_id" validate:"omitempty,gt=0"`
	Amount        float64   `json:"amount" validate:"required,gt=0"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=cash bank_transfer"`
	BankAccountID *int64    `json:"bank_account_id" validate:"omitempty,gt=0"`
	Description   string    `json:"description" validate:"required"`
}

func (in ReceiptVoucherInput) Validate() error { return validate.Struct(in) }

// PaymentVoucherInput carries the writable fields of a payment voucher.
type PaymentVoucherInput struct {
	VoucherDate   time.Time `json:"voucher_date" validate:"required"`
	SupplierID    *int64    `json:"supplier_id" validate:"omitempty,gt=0"`
	Amount        float64   `json:"amount" validate:"required,gt=0"`
	PPhAmount     float64   `json:"pph_amount" validate:"gte=0,ltfield=Amount"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=cash bank_transfer"`
	BankAccountID *int64    `json:"bank_account_id" validate:"omitempty,gt=0"`
	Description   string    `json:"description" validate:"required"`
}

func (in PaymentVoucherInput) Validate() error { return validate.Struct(in) }

// FundTransferInput carries the writable fields of a fund transfer.
type FundTransferInput struct {
	TransferDate      time.Time `json:"transfer_date" validate:"required"`
	FromMethod        string    `json:"from_method" validate:"required,oneof=cash bank_transfer petty_cash"`
	FromBankAccountID *int64    `json:"from_bank_account_id" validate:"omitempty,gt=0"`
	ToMethod          string    `json:"to_method" validate:"required,oneof=cash bank_transfer petty_cash"`
	ToBankAccountID   *int64    `json:"to_bank_account_id" validate:"omitempty,gt=0"`
	FromAmount        float64   `json:"from_amount" validate:"required,gt=0"`
	ToAmount          float64   `json:"to_amount" validate:"required,gt=0"`
	FromCurrency      string    `json:"from_currency" validate:"omitempty,len=3"`
	ToCurrency        string    `json:"to_currency" validate:"omitempty,len=3"`
	ExchangeRate      float64   `json:"exchange_rate" validate:"gte=0"`
	Description       string    `json:"description" validate:"required"`
}

func (in FundTransferInput) Validate() error { return validate.Struct(in) }

// PettyCashInput carries the writable fields of a petty cash transaction.
type PettyCashInput struct {
	TransactionDate time.Time `json:"transaction_date" validate:"required"`
	Direction       string    `json:"direction" validate:"required,oneof=in out"`
	Amount          float64   `json:"amount" validate:"required,gt=0"`
	Description     string    `json:"description" validate:"required"`
}

func (in PettyCashInput) Validate() error { return validate.Struct(in) }

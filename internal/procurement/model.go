// Package procurement tracks import requirements raised by stock shortages
// and records purchase invoices from suppliers.
package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// RequirementStatus is the import requirement lifecycle.
type RequirementStatus string

const (
	RequirementOpen    RequirementStatus = "open"
	RequirementOrdered RequirementStatus = "ordered"
	RequirementClosed  RequirementStatus = "closed"
)

// ImportRequirement is unsatisfied demand waiting for procurement. Rows are
// generated automatically when a sales order reservation comes up short.
type ImportRequirement struct {
	ID                 int64
	ProductID          int64
	QuantityNeeded     float64
	SourceSalesOrderID *int64
	Status             RequirementStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LineKind classifies a purchase invoice line.
type LineKind string

const (
	// LineInventory receives goods into a batch.
	LineInventory LineKind = "inventory"
	// LineExpense books a cost straight to P&L.
	LineExpense LineKind = "expense"
)

// PurchaseInvoice bills us for goods or services received. TaxAmount is the
// recoverable input PPN.
type PurchaseInvoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	InvoiceDate   time.Time
	SupplierID    int64
	Subtotal      float64
	TaxAmount     float64
	TotalAmount   float64
	Lines         []PurchaseInvoiceLine
	CreatedBy     int64
	CreatedAt     time.Time
}

// PurchaseInvoiceLine is one billed line. Inventory lines carry the batch
// they were received into; expense lines carry their category.
type PurchaseInvoiceLine struct {
	ID              int64
	InvoiceID       uuid.UUID
	Kind            LineKind
	ProductID       *int64
	BatchID         *int64
	ExpenseCategory string
	Description     string
	Amount          float64
}

// PurchaseLineInput is one line of a new purchase invoice.
type PurchaseLineInput struct {
	Kind            string  `json:"kind" validate:"required,oneof=inventory expense"`
	ProductID       *int64  `json:"product_id" validate:"omitempty,gt=0"`
	BatchID         *int64  `json:"batch_id" validate:"omitempty,gt=0"`
	ExpenseCategory string  `json:"expense_category"`
	Description     string  `json:"description"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
}

// PurchaseInvoiceInput carries the writable fields of a purchase invoice.
type PurchaseInvoiceInput struct {
	SupplierID  int64               `json:"supplier_id" validate:"required,gt=0"`
	InvoiceDate time.Time           `json:"invoice_date" validate:"required"`
	TaxAmount   float64             `json:"tax_amount" validate:"gte=0"`
	Lines       []PurchaseLineInput `json:"lines" validate:"required,min=1,dive"`
}

func (in PurchaseInvoiceInput) Validate() error { return validate.Struct(in) }

// InvoiceHooks is consumed by the ledger integration layer.
type InvoiceHooks interface {
	PurchaseInvoiceRecorded(ctx context.Context, inv PurchaseInvoice) error
}

// NopHooks satisfies InvoiceHooks without side effects.
type NopHooks struct{}

func (NopHooks) PurchaseInvoiceRecorded(context.Context, PurchaseInvoice) error { return nil }

// ErrRequirementNotFound indicates a missing import requirement.
var ErrRequirementNotFound = errors.New("procurement: requirement not found")

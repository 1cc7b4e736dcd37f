package sales

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// OrderItemInput is one line of a new sales order.
type OrderItemInput struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// OrderInput carries the writable fields of a sales order.
type OrderInput struct {
	CustomerID int64            `json:"customer_id" validate:"required,gt=0"`
	OrderDate  time.Time        `json:"order_date" validate:"required"`
	Items      []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

func (in OrderInput) Validate() error { return validate.Struct(in) }

// ChallanLineInput delivers a quantity of one order item from one batch.
type ChallanLineInput struct {
	SalesOrderItemID int64   `json:"sales_order_item_id" validate:"required,gt=0"`
	BatchID          int64   `json:"batch_id" validate:"required,gt=0"`
	Quantity         float64 `json:"quantity" validate:"required,gt=0"`
}

// ChallanInput carries the writable fields of a delivery challan.
type ChallanInput struct {
	SalesOrderID int64              `json:"sales_order_id" validate:"required,gt=0"`
	ChallanDate  time.Time          `json:"challan_date" validate:"required"`
	Lines        []ChallanLineInput `json:"lines" validate:"required,min=1,dive"`
}

func (in ChallanInput) Validate() error { return validate.Struct(in) }

// InvoiceLineInput is one billed line of a new invoice.
type InvoiceLineInput struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	BatchID   *int64  `json:"batch_id" validate:"omitempty,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// InvoiceInput carries the writable fields of a sales invoice.
type InvoiceInput struct {
	CustomerID   int64              `json:"customer_id" validate:"required,gt=0"`
	SalesOrderID *int64             `json:"sales_order_id" validate:"omitempty,gt=0"`
	InvoiceDate  time.Time          `json:"invoice_date" validate:"required"`
	TaxAmount    float64            `json:"tax_amount" validate:"gte=0"`
	Lines        []InvoiceLineInput `json:"lines" validate:"required,min=1,dive"`
}

func (in InvoiceInput) Validate() error { return validate.Struct(in) }

// InvoiceHooks is consumed by the ledger integration layer.
type InvoiceHooks interface {
	SalesInvoiceRecorded(ctx context.Context, inv SalesInvoice) error
}

// NopHooks satisfies InvoiceHooks without side effects.
type NopHooks struct{}

func (NopHooks) SalesInvoiceRecorded(context.Context, SalesInvoice) error { return nil }

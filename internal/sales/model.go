// Package sales owns sales orders, delivery challans, and sales invoices.
// Order approval drives stock reservation, challan approval is the single
// place physical stock leaves the warehouse, and invoices post revenue with
// batch cost of goods when the landed cost is known.
package sales

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the sales order state machine.
type OrderStatus string

const (
	OrderDraft         OrderStatus = "draft"
	OrderStockReserved OrderStatus = "stock_reserved"
	OrderShortage      OrderStatus = "shortage"
	OrderDelivered     OrderStatus = "delivered"
	OrderCancelled     OrderStatus = "cancelled"
)

// SalesOrder groups the items a customer ordered.
type SalesOrder struct {
	ID          int64
	OrderNumber string
	CustomerID  int64
	OrderDate   time.Time
	Status      OrderStatus
	Items       []SalesOrderItem
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SalesOrderItem is one ordered product line. DeliveredQty accumulates as
// challans are approved.
type SalesOrderItem struct {
	ID           int64
	SalesOrderID int64
	ProductID    int64
	Quantity     float64
	UnitPrice    float64
	DeliveredQty float64
}

// Remaining is the quantity not yet delivered.
func (i SalesOrderItem) Remaining() float64 {
	return i.Quantity - i.DeliveredQty
}

// ChallanStatus is the delivery challan state machine.
type ChallanStatus string

const (
	ChallanDraft    ChallanStatus = "draft"
	ChallanApproved ChallanStatus = "approved"
)

// DeliveryChallan is a proposed or executed delivery against an order.
type DeliveryChallan struct {
	ID            int64
	ChallanNumber string
	SalesOrderID  int64
	ChallanDate   time.Time
	Status        ChallanStatus
	Lines         []ChallanLine
	ApprovedBy    *int64
	ApprovedAt    *time.Time
	CreatedBy     int64
	CreatedAt     time.Time
}

// ChallanLine delivers a quantity of one order item from one batch.
type ChallanLine struct {
	ID               int64
	ChallanID        int64
	SalesOrderItemID int64
	ProductID        int64
	BatchID          int64
	Quantity         float64
}

// SalesInvoice bills a customer, optionally for a delivered order.
type SalesInvoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	InvoiceDate   time.Time
	CustomerID    int64
	SalesOrderID  *int64
	Subtotal      float64
	TaxAmount     float64
	TotalAmount   float64
	Lines         []SalesInvoiceLine
	CreatedBy     int64
	CreatedAt     time.Time
}

// SalesInvoiceLine is one billed product line. COGSAmount is zero when the
// batch landed cost is not yet known; the posting hook then skips the
// COGS/inventory pair.
type SalesInvoiceLine struct {
	ID         int64
	InvoiceID  uuid.UUID
	ProductID  int64
	BatchID    *int64
	Quantity   float64
	UnitPrice  float64
	Amount     float64
	COGSAmount float64
}

// TotalCOGS sums cost of goods across lines.
func (inv SalesInvoice) TotalCOGS() float64 {
	var sum float64
	for _, l := range inv.Lines {
		sum += l.COGSAmount
	}
	return sum
}

var (
	// ErrOrderNotFound indicates a missing sales order.
	ErrOrderNotFound = errors.New("sales: order not found")
	// ErrChallanNotFound indicates a missing delivery challan.
	ErrChallanNotFound = errors.New("sales: challan not found")
	// ErrChallanAlreadyApproved guards the single-deduction rule.
	ErrChallanAlreadyApproved = errors.New("sales: challan already approved")
	// ErrOrderNotOpen indicates an operation on a delivered or cancelled order.
	ErrOrderNotOpen = errors.New("sales: order is not open")
)

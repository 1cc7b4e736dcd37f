package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-pharma/meridian-erp/internal/inventory"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// Store is the persistence surface the service needs.
type Store interface {
	InsertOrder(ctx context.Context, in OrderInput, createdBy int64) (SalesOrder, error)
	GetOrder(ctx context.Context, orderID int64) (SalesOrder, error)
	SetOrderStatus(ctx context.Context, orderID int64, status OrderStatus) error
	AddDeliveredQty(ctx context.Context, itemID int64, qty float64) error
	InsertChallan(ctx context.Context, in ChallanInput, productByItem map[int64]int64, createdBy int64) (DeliveryChallan, error)
	GetChallan(ctx context.Context, challanID int64) (DeliveryChallan, error)
	MarkChallanApproved(ctx context.Context, challanID, approverID int64, at time.Time) error
	RevertChallanApproval(ctx context.Context, challanID int64) error
	BatchUnitCost(ctx context.Context, batchID int64) (float64, error)
	InsertInvoice(ctx context.Context, inv SalesInvoice) (SalesInvoice, error)
}

// StockPort is the inventory surface the sales flows drive.
// *inventory.Service satisfies it.
type StockPort interface {
	ReserveForOrder(ctx context.Context, orderID int64, reqs []inventory.ItemRequirement) (inventory.ReservationOutcome, error)
	ReleaseForOrder(ctx context.Context, orderID int64) error
	ApplyDelivery(ctx context.Context, lines []inventory.DeliveryLine) error
}

// ShortageSink receives unsatisfied demand so procurement can act on it.
type ShortageSink interface {
	RecordShortages(ctx context.Context, orderID int64, shortages []inventory.Shortage) error
}

// Service owns the sales order lifecycle.
type Service struct {
	store     Store
	stock     StockPort
	shortages ShortageSink
	hooks     InvoiceHooks
	log       *slog.Logger
	now       func() time.Time
}

func NewService(store Store, stock StockPort, shortages ShortageSink, hooks InvoiceHooks, log *slog.Logger) *Service {
	if hooks == nil {
		hooks = NopHooks{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, stock: stock, shortages: shortages, hooks: hooks, log: log, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateOrder records a draft order.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput, actorID int64) (SalesOrder, error) {
	if err := in.Validate(); err != nil {
		return SalesOrder{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return s.store.InsertOrder(ctx, in, actorID)
}

// ReserveOrder runs stock reservation for the order. A fully reserved order
// moves to stock_reserved; partial coverage moves it to shortage and hands
// the missing quantities to procurement. Re-running replaces the previous
// reservation set.
func (s *Service) ReserveOrder(ctx context.Context, orderID int64) (SalesOrder, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return SalesOrder{}, err
	}
	switch order.Status {
	case OrderDelivered, OrderCancelled:
		return SalesOrder{}, fmt.Errorf("%s: %w", order.OrderNumber, ErrOrderNotOpen)
	}
	reqs := make([]inventory.ItemRequirement, 0, len(order.Items))
	for _, item := range order.Items {
		reqs = append(reqs, inventory.ItemRequirement{
			SalesOrderItemID: item.ID,
			ProductID:        item.ProductID,
			OrderedQty:       item.Quantity,
			DeliveredQty:     item.DeliveredQty,
		})
	}
	outcome, err := s.stock.ReserveForOrder(ctx, orderID, reqs)
	if err != nil {
		return SalesOrder{}, err
	}
	status := OrderStockReserved
	if !outcome.FullyReserved() {
		status = OrderShortage
		if s.shortages != nil {
			if err := s.shortages.RecordShortages(ctx, orderID, outcome.Shortages); err != nil {
				return SalesOrder{}, fmt.Errorf("record shortages: %w", err)
			}
		}
	}
	if err := s.store.SetOrderStatus(ctx, orderID, status); err != nil {
		return SalesOrder{}, err
	}
	order.Status = status
	return order, nil
}

// CancelOrder releases the order's reservations and closes it.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) error {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == OrderDelivered {
		return fmt.Errorf("%s: %w", order.OrderNumber, ErrOrderNotOpen)
	}
	if err := s.stock.ReleaseForOrder(ctx, orderID); err != nil {
		return err
	}
	return s.store.SetOrderStatus(ctx, orderID, OrderCancelled)
}

// CreateChallan records a draft delivery challan against an order. Lines
// must reference items of that order.
func (s *Service) CreateChallan(ctx context.Context, in ChallanInput, actorID int64) (DeliveryChallan, error) {
	if err := in.Validate(); err != nil {
		return DeliveryChallan{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	order, err := s.store.GetOrder(ctx, in.SalesOrderID)
	if err != nil {
		return DeliveryChallan{}, err
	}
	productByItem := map[int64]int64{}
	for _, item := range order.Items {
		productByItem[item.ID] = item.ProductID
	}
	for _, line := range in.Lines {
		if _, ok := productByItem[line.SalesOrderItemID]; !ok {
			return DeliveryChallan{}, fmt.Errorf("%w: item %d does not belong to order %s",
				shared.ErrInvalidInput, line.SalesOrderItemID, order.OrderNumber)
		}
	}
	return s.store.InsertChallan(ctx, in, productByItem, actorID)
}

// ApproveChallan executes a delivery. Approval is claimed first so two
// approvers cannot both deduct stock; the deduction then happens exactly
// once, here and nowhere else. Insufficient stock reverts the claim and
// propagates, since shipping more than the warehouse holds is not allowed.
func (s *Service) ApproveChallan(ctx context.Context, challanID, approverID int64) (DeliveryChallan, error) {
	ch, err := s.store.GetChallan(ctx, challanID)
	if err != nil {
		return DeliveryChallan{}, err
	}
	if ch.Status != ChallanDraft {
		return DeliveryChallan{}, fmt.Errorf("%s: %w", ch.ChallanNumber, ErrChallanAlreadyApproved)
	}
	at := s.now()
	if err := s.store.MarkChallanApproved(ctx, challanID, approverID, at); err != nil {
		return DeliveryChallan{}, err
	}
	lines := make([]inventory.DeliveryLine, 0, len(ch.Lines))
	for _, l := range ch.Lines {
		lines = append(lines, inventory.DeliveryLine{
			SalesOrderID:     ch.SalesOrderID,
			SalesOrderItemID: l.SalesOrderItemID,
			ProductID:        l.ProductID,
			BatchID:          l.BatchID,
			Quantity:         l.Quantity,
		})
	}
	if err := s.stock.ApplyDelivery(ctx, lines); err != nil {
		if revertErr := s.store.RevertChallanApproval(ctx, challanID); revertErr != nil {
			s.log.Error("challan approval revert failed",
				"challan", ch.ChallanNumber, "error", revertErr)
		}
		return DeliveryChallan{}, err
	}
	for _, l := range ch.Lines {
		if err := s.store.AddDeliveredQty(ctx, l.SalesOrderItemID, l.Quantity); err != nil {
			return DeliveryChallan{}, err
		}
	}
	ch.Status = ChallanApproved
	ch.ApprovedBy = &approverID
	ch.ApprovedAt = &at

	order, err := s.store.GetOrder(ctx, ch.SalesOrderID)
	if err != nil {
		return DeliveryChallan{}, err
	}
	fullyDelivered := true
	for _, item := range order.Items {
		if item.Remaining() > 0 {
			fullyDelivered = false
			break
		}
	}
	if fullyDelivered {
		if err := s.store.SetOrderStatus(ctx, order.ID, OrderDelivered); err != nil {
			return DeliveryChallan{}, err
		}
	}
	return ch, nil
}

// CreateInvoice records an invoice and triggers its posting. Line cost of
// goods comes from the batch's landed cost per unit when the line names a
// batch whose allocation has run.
func (s *Service) CreateInvoice(ctx context.Context, in InvoiceInput, actorID int64) (SalesInvoice, error) {
	if err := in.Validate(); err != nil {
		return SalesInvoice{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	inv := SalesInvoice{
		InvoiceDate:  in.InvoiceDate,
		CustomerID:   in.CustomerID,
		SalesOrderID: in.SalesOrderID,
		TaxAmount:    in.TaxAmount,
		CreatedBy:    actorID,
	}
	for _, line := range in.Lines {
		amount := line.Quantity * line.UnitPrice
		var cogs float64
		if line.BatchID != nil {
			unitCost, err := s.store.BatchUnitCost(ctx, *line.BatchID)
			if err != nil {
				return SalesInvoice{}, err
			}
			cogs = line.Quantity * unitCost
		}
		inv.Subtotal += amount
		inv.Lines = append(inv.Lines, SalesInvoiceLine{
			ProductID:  line.ProductID,
			BatchID:    line.BatchID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			Amount:     amount,
			COGSAmount: cogs,
		})
	}
	inv.TotalAmount = inv.Subtotal + inv.TaxAmount
	inv, err := s.store.InsertInvoice(ctx, inv)
	if err != nil {
		return SalesInvoice{}, err
	}
	if err := s.hooks.SalesInvoiceRecorded(ctx, inv); err != nil {
		return SalesInvoice{}, err
	}
	return inv, nil
}

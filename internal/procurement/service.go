package procurement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-pharma/meridian-erp/internal/inventory"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// Store is the persistence surface the service needs.
type Store interface {
	InsertRequirements(ctx context.Context, reqs []ImportRequirement) error
	ListOpenRequirements(ctx context.Context) ([]ImportRequirement, error)
	SetRequirementStatus(ctx context.Context, id int64, status RequirementStatus) error
	InsertInvoice(ctx context.Context, inv PurchaseInvoice) (PurchaseInvoice, error)
}

// Service owns procurement workflows.
type Service struct {
	store Store
	hooks InvoiceHooks
	log   *slog.Logger
}

func NewService(store Store, hooks InvoiceHooks, log *slog.Logger) *Service {
	if hooks == nil {
		hooks = NopHooks{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, hooks: hooks, log: log}
}

// RecordShortages converts reservation shortages into open import
// requirements. Satisfies the sales shortage sink.
func (s *Service) RecordShortages(ctx context.Context, orderID int64, shortages []inventory.Shortage) error {
	if len(shortages) == 0 {
		return nil
	}
	reqs := make([]ImportRequirement, 0, len(shortages))
	for _, sh := range shortages {
		orderRef := orderID
		reqs = append(reqs, ImportRequirement{
			ProductID:          sh.ProductID,
			QuantityNeeded:     sh.Quantity,
			SourceSalesOrderID: &orderRef,
		})
	}
	if err := s.store.InsertRequirements(ctx, reqs); err != nil {
		return err
	}
	s.log.Info("import requirements raised", "sales_order_id", orderID, "count", len(reqs))
	return nil
}

// OpenRequirements lists requirements awaiting action.
func (s *Service) OpenRequirements(ctx context.Context) ([]ImportRequirement, error) {
	return s.store.ListOpenRequirements(ctx)
}

// UpdateRequirementStatus transitions a requirement.
func (s *Service) UpdateRequirementStatus(ctx context.Context, id int64, status RequirementStatus) error {
	switch status {
	case RequirementOpen, RequirementOrdered, RequirementClosed:
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, status)
	}
	return s.store.SetRequirementStatus(ctx, id, status)
}

// CreateInvoice records a purchase invoice and triggers its posting.
func (s *Service) CreateInvoice(ctx context.Context, in PurchaseInvoiceInput, actorID int64) (PurchaseInvoice, error) {
	if err := in.Validate(); err != nil {
		return PurchaseInvoice{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	inv := PurchaseInvoice{
		InvoiceDate: in.InvoiceDate,
		SupplierID:  in.SupplierID,
		TaxAmount:   in.TaxAmount,
		CreatedBy:   actorID,
	}
	for _, line := range in.Lines {
		if LineKind(line.Kind) == LineInventory && line.ProductID == nil {
			return PurchaseInvoice{}, fmt.Errorf("%w: inventory line requires product", shared.ErrInvalidInput)
		}
		inv.Subtotal += line.Amount
		inv.Lines = append(inv.Lines, PurchaseInvoiceLine{
			Kind:            LineKind(line.Kind),
			ProductID:       line.ProductID,
			BatchID:         line.BatchID,
			ExpenseCategory: line.ExpenseCategory,
			Description:     line.Description,
			Amount:          line.Amount,
		})
	}
	inv.TotalAmount = inv.Subtotal + inv.TaxAmount
	inv, err := s.store.InsertInvoice(ctx, inv)
	if err != nil {
		return PurchaseInvoice{}, err
	}
	if err := s.hooks.PurchaseInvoiceRecorded(ctx, inv); err != nil {
		return PurchaseInvoice{}, err
	}
	return inv, nil
}

package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// Store is the persistence surface the service needs. *Repository satisfies
// it; tests plug an in-memory implementation.
type Store interface {
	InsertExpense(ctx context.Context, in ExpenseInput, createdBy int64) (Expense, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseInput) (Expense, error)
	GetExpense(ctx context.Context, id uuid.UUID) (Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	LinkPettyCash(ctx context.Context, expenseID, pettyCashID uuid.UUID) error
	UnlinkPettyCash(ctx context.Context, expenseID uuid.UUID) error
	UpdatePettyCash(ctx context.Context, id uuid.UUID, in PettyCashInput) (PettyCashTransaction, error)
	DeletePettyCash(ctx context.Context, id uuid.UUID) error
	InsertReceiptVoucher(ctx context.Context, in ReceiptVoucherInput, createdBy int64) (ReceiptVoucher, error)
	InsertPaymentVoucher(ctx context.Context, in PaymentVoucherInput, createdBy int64) (PaymentVoucher, error)
	InsertFundTransfer(ctx context.Context, in FundTransferInput, createdBy int64) (FundTransfer, error)
	InsertPettyCash(ctx context.Context, in PettyCashInput, expenseID *uuid.UUID, createdBy int64) (PettyCashTransaction, error)
	ListUnpostedDocuments(ctx context.Context) ([]UnpostedDocument, error)
	PPNReport(ctx context.Context, year int) ([]PPNMonth, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the finance document workflows and emits posting events.
type Service struct {
	store Store
	hooks PostingHooks
	audit AuditPort
}

func NewService(store Store, hooks PostingHooks, audit AuditPort) *Service {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Service{store: store, hooks: hooks, audit: audit}
}

// CreateExpense records an expense and triggers its posting. Paying from
// petty cash additionally creates a cross-referenced petty cash transaction
// so the fund book and the expense ledger can find each other.
func (s *Service) CreateExpense(ctx context.Context, in ExpenseInput, actorID int64) (Expense, error) {
	if err := in.Validate(); err != nil {
		return Expense{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	e, err := s.store.InsertExpense(ctx, in, actorID)
	if err != nil {
		return Expense{}, err
	}
	if e.PaymentMethod == "petty_cash" {
		pct, err := s.store.InsertPettyCash(ctx, PettyCashInput{
			TransactionDate: e.ExpenseDate,
			Direction:       string(PettyCashOut),
			Amount:          e.Amount,
			Description:     fmt.Sprintf("%s (%s)", e.Description, e.ExpenseNumber),
		}, &e.ID, actorID)
		if err != nil {
			return Expense{}, fmt.Errorf("petty cash side effect: %w", err)
		}
		if err := s.store.LinkPettyCash(ctx, e.ID, pct.ID); err != nil {
			return Expense{}, err
		}
		e.PettyCashTransactionID = &pct.ID
	}
	if err := s.hooks.ExpenseRecorded(ctx, e); err != nil {
		return Expense{}, err
	}
	s.record(ctx, actorID, "finance.expense.create", "finance_expense", e.ID.String())
	return e, nil
}

// UpdateExpense applies a correction: the document is rewritten and the hook
// deletes the old journal entry and posts a fresh one. The petty cash side
// transaction follows the payment method: switching to petty_cash creates
// one, editing refreshes it, switching away voids it.
func (s *Service) UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseInput, actorID int64) (Expense, error) {
	if err := in.Validate(); err != nil {
		return Expense{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	prev, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	e, err := s.store.UpdateExpense(ctx, id, in)
	if err != nil {
		return Expense{}, err
	}
	switch {
	case e.PaymentMethod == "petty_cash" && prev.PettyCashTransactionID != nil:
		pct, err := s.store.UpdatePettyCash(ctx, *prev.PettyCashTransactionID, PettyCashInput{
			TransactionDate: e.ExpenseDate,
			Direction:       string(PettyCashOut),
			Amount:          e.Amount,
			Description:     fmt.Sprintf("%s (%s)", e.Description, e.ExpenseNumber),
		})
		if err != nil {
			return Expense{}, fmt.Errorf("petty cash side effect: %w", err)
		}
		e.PettyCashTransactionID = &pct.ID
	case e.PaymentMethod == "petty_cash":
		pct, err := s.store.InsertPettyCash(ctx, PettyCashInput{
			TransactionDate: e.ExpenseDate,
			Direction:       string(PettyCashOut),
			Amount:          e.Amount,
			Description:     fmt.Sprintf("%s (%s)", e.Description, e.ExpenseNumber),
		}, &e.ID, actorID)
		if err != nil {
			return Expense{}, fmt.Errorf("petty cash side effect: %w", err)
		}
		if err := s.store.LinkPettyCash(ctx, e.ID, pct.ID); err != nil {
			return Expense{}, err
		}
		e.PettyCashTransactionID = &pct.ID
	case prev.PettyCashTransactionID != nil:
		if err := s.store.UnlinkPettyCash(ctx, e.ID); err != nil {
			return Expense{}, err
		}
		if err := s.store.DeletePettyCash(ctx, *prev.PettyCashTransactionID); err != nil {
			return Expense{}, fmt.Errorf("petty cash side effect: %w", err)
		}
		e.PettyCashTransactionID = nil
	}
	if err := s.hooks.ExpenseCorrected(ctx, e); err != nil {
		return Expense{}, err
	}
	s.record(ctx, actorID, "finance.expense.update", "finance_expense", e.ID.String())
	return e, nil
}

// DeleteExpense removes the document, its petty cash side transaction and
// its journal entry.
func (s *Service) DeleteExpense(ctx context.Context, id uuid.UUID, actorID int64) error {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if e.PettyCashTransactionID != nil {
		if err := s.store.UnlinkPettyCash(ctx, e.ID); err != nil {
			return err
		}
		if err := s.store.DeletePettyCash(ctx, *e.PettyCashTransactionID); err != nil {
			return fmt.Errorf("petty cash side effect: %w", err)
		}
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	if err := s.hooks.ExpenseRemoved(ctx, e); err != nil {
		return err
	}
	s.record(ctx, actorID, "finance.expense.delete", "finance_expense", e.ID.String())
	return nil
}

// CreateReceiptVoucher records a customer receipt and triggers its posting.
func (s *Service) CreateReceiptVoucher(ctx context.Context, in ReceiptVoucherInput, actorID int64) (ReceiptVoucher, error) {
	if err := in.Validate(); err != nil {
		return ReceiptVoucher{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	v, err := s.store.InsertReceiptVoucher(ctx, in, actorID)
	if err != nil {
		return ReceiptVoucher{}, err
	}
	if err := s.hooks.ReceiptVoucherRecorded(ctx, v); err != nil {
		return ReceiptVoucher{}, err
	}
	s.record(ctx, actorID, "finance.receipt_voucher.create", "receipt_voucher", v.ID.String())
	return v, nil
}

// CreatePaymentVoucher records a supplier payment and triggers its posting.
func (s *Service) CreatePaymentVoucher(ctx context.Context, in PaymentVoucherInput, actorID int64) (PaymentVoucher, error) {
	if err := in.Validate(); err != nil {
		return PaymentVoucher{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	v, err := s.store.InsertPaymentVoucher(ctx, in, actorID)
	if err != nil {
		return PaymentVoucher{}, err
	}
	if err := s.hooks.PaymentVoucherRecorded(ctx, v); err != nil {
		return PaymentVoucher{}, err
	}
	s.record(ctx, actorID, "finance.payment_voucher.create", "payment_voucher", v.ID.String())
	return v, nil
}

// CreateFundTransfer records a transfer between money accounts.
func (s *Service) CreateFundTransfer(ctx context.Context, in FundTransferInput, actorID int64) (FundTransfer, error) {
	if err := in.Validate(); err != nil {
		return FundTransfer{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	t, err := s.store.InsertFundTransfer(ctx, in, actorID)
	if err != nil {
		return FundTransfer{}, err
	}
	if err := s.hooks.FundTransferRecorded(ctx, t); err != nil {
		return FundTransfer{}, err
	}
	s.record(ctx, actorID, "finance.fund_transfer.create", "fund_transfer", t.ID.String())
	return t, nil
}

// CreatePettyCash records a standalone petty cash movement. Movements spawned
// by petty-cash expenses are created through CreateExpense instead and do not
// post separately; the expense carries the journal entry.
func (s *Service) CreatePettyCash(ctx context.Context, in PettyCashInput, actorID int64) (PettyCashTransaction, error) {
	if err := in.Validate(); err != nil {
		return PettyCashTransaction{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	t, err := s.store.InsertPettyCash(ctx, in, nil, actorID)
	if err != nil {
		return PettyCashTransaction{}, err
	}
	if err := s.hooks.PettyCashRecorded(ctx, t); err != nil {
		return PettyCashTransaction{}, err
	}
	s.record(ctx, actorID, "finance.petty_cash.create", "petty_cash_transaction", t.ID.String())
	return t, nil
}

// UnpostedDocuments returns the reconciliation list of documents without a
// journal entry.
func (s *Service) UnpostedDocuments(ctx context.Context) ([]UnpostedDocument, error) {
	return s.store.ListUnpostedDocuments(ctx)
}

// PPNReport returns monthly input/output tax totals for a year.
func (s *Service) PPNReport(ctx context.Context, year int) ([]PPNMonth, error) {
	return s.store.PPNReport(ctx, year)
}

func (s *Service) record(ctx context.Context, actorID int64, action, entity, entityID string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
	})
}

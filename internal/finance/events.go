package finance

import "context"

// PostingHooks is the event surface consumed by the ledger integration
// layer. Handlers run synchronously inside the document operation. A handler
// that cannot post logs and returns nil; a non-nil error aborts the document
// operation itself.
type PostingHooks interface {
	ExpenseRecorded(ctx context.Context, e Expense) error
	ExpenseCorrected(ctx context.Context, e Expense) error
	ExpenseRemoved(ctx context.Context, e Expense) error
	ReceiptVoucherRecorded(ctx context.Context, v ReceiptVoucher) error
	PaymentVoucherRecorded(ctx context.Context, v PaymentVoucher) error
	FundTransferRecorded(ctx context.Context, t FundTransfer) error
	PettyCashRecorded(ctx context.Context, t PettyCashTransaction) error
}

// NopHooks satisfies PostingHooks without side effects.
type NopHooks struct{}

func (NopHooks) ExpenseRecorded(context.Context, Expense) error               { return nil }
func (NopHooks) ExpenseCorrected(context.Context, Expense) error              { return nil }
func (NopHooks) ExpenseRemoved(context.Context, Expense) error                { return nil }
func (NopHooks) ReceiptVoucherRecorded(context.Context, ReceiptVoucher) error { return nil }
func (NopHooks) PaymentVoucherRecorded(context.Context, PaymentVoucher) error { return nil }
func (NopHooks) FundTransferRecorded(context.Context, FundTransfer) error     { return nil }
func (NopHooks) PettyCashRecorded(context.Context, PettyCashTransaction) error {
	return nil
}

package finance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

type memoryStore struct {
	expenses  map[uuid.UUID]*Expense
	pettyCash map[uuid.UUID]*PettyCashTransaction
	seq       int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		expenses:  map[uuid.UUID]*Expense{},
		pettyCash: map[uuid.UUID]*PettyCashTransaction{},
	}
}

func (m *memoryStore) InsertExpense(_ context.Context, in ExpenseInput, createdBy int64) (Expense, error) {
	m.seq++
	e := Expense{
		ID:                uuid.New(),
		ExpenseNumber:     fmt.Sprintf("EXP2602-%04d", m.seq),
		ExpenseDate:       in.ExpenseDate,
		Category:          in.Category,
		Description:       in.Description,
		Amount:            in.Amount,
		PaymentMethod:     in.PaymentMethod,
		BankAccountID:     in.BankAccountID,
		ImportContainerID: in.ImportContainerID,
		CreatedBy:         createdBy,
	}
	m.expenses[e.ID] = &e
	return e, nil
}

func (m *memoryStore) UpdateExpense(_ context.Context, id uuid.UUID, in ExpenseInput) (Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return Expense{}, ErrDocumentNotFound
	}
	e.ExpenseDate = in.ExpenseDate
	e.Category = in.Category
	e.Description = in.Description
	e.Amount = in.Amount
	e.PaymentMethod = in.PaymentMethod
	e.BankAccountID = in.BankAccountID
	e.ImportContainerID = in.ImportContainerID
	return *e, nil
}

func (m *memoryStore) GetExpense(_ context.Context, id uuid.UUID) (Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return Expense{}, ErrDocumentNotFound
	}
	return *e, nil
}

func (m *memoryStore) DeleteExpense(_ context.Context, id uuid.UUID) error {
	if _, ok := m.expenses[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *memoryStore) LinkPettyCash(_ context.Context, expenseID, pettyCashID uuid.UUID) error {
	e, ok := m.expenses[expenseID]
	if !ok {
		return ErrDocumentNotFound
	}
	e.PettyCashTransactionID = &pettyCashID
	return nil
}

func (m *memoryStore) UnlinkPettyCash(_ context.Context, expenseID uuid.UUID) error {
	e, ok := m.expenses[expenseID]
	if !ok {
		return ErrDocumentNotFound
	}
	e.PettyCashTransactionID = nil
	return nil
}

func (m *memoryStore) UpdatePettyCash(_ context.Context, id uuid.UUID, in PettyCashInput) (PettyCashTransaction, error) {
	t, ok := m.pettyCash[id]
	if !ok {
		return PettyCashTransaction{}, ErrDocumentNotFound
	}
	t.TransactionDate = in.TransactionDate
	t.Direction = PettyCashDirection(in.Direction)
	t.Amount = in.Amount
	t.Description = in.Description
	return *t, nil
}

func (m *memoryStore) DeletePettyCash(_ context.Context, id uuid.UUID) error {
	if _, ok := m.pettyCash[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(m.pettyCash, id)
	return nil
}

func (m *memoryStore) InsertReceiptVoucher(_ context.Context, in ReceiptVoucherInput, createdBy int64) (ReceiptVoucher, error) {
	m.seq++
	return ReceiptVoucher{
		ID: uuid.New(), VoucherNumber: fmt.Sprintf("RV2602-%04d", m.seq),
		VoucherDate: in.VoucherDate, CustomerID: in.CustomerID, Amount: in.Amount,
		PaymentMethod: in.PaymentMethod, BankAccountID: in.BankAccountID,
		Description: in.Description, CreatedBy: createdBy,
	}, nil
}

func (m *memoryStore) InsertPaymentVoucher(_ context.Context, in PaymentVoucherInput, createdBy int64) (PaymentVoucher, error) {
	m.seq++
	return PaymentVoucher{
		ID: uuid.New(), VoucherNumber: fmt.Sprintf("PV2602-%04d", m.seq),
		VoucherDate: in.VoucherDate, SupplierID: in.SupplierID, Amount: in.Amount,
		PPhAmount: in.PPhAmount, PaymentMethod: in.PaymentMethod,
		BankAccountID: in.BankAccountID, Description: in.Description, CreatedBy: createdBy,
	}, nil
}

func (m *memoryStore) InsertFundTransfer(_ context.Context, in FundTransferInput, createdBy int64) (FundTransfer, error) {
	m.seq++
	return FundTransfer{
		ID: uuid.New(), TransferNumber: fmt.Sprintf("FT2602-%04d", m.seq),
		TransferDate: in.TransferDate, FromMethod: in.FromMethod,
		FromBankAccountID: in.FromBankAccountID, ToMethod: in.ToMethod,
		ToBankAccountID: in.ToBankAccountID, FromAmount: in.FromAmount,
		ToAmount: in.ToAmount, FromCurrency: in.FromCurrency, ToCurrency: in.ToCurrency,
		ExchangeRate: in.ExchangeRate, Description: in.Description, CreatedBy: createdBy,
	}, nil
}

func (m *memoryStore) InsertPettyCash(_ context.Context, in PettyCashInput, expenseID *uuid.UUID, createdBy int64) (PettyCashTransaction, error) {
	m.seq++
	t := PettyCashTransaction{
		ID:                uuid.New(),
		TransactionNumber: fmt.Sprintf("PC-20260210-%04d", m.seq),
		TransactionDate:   in.TransactionDate,
		Direction:         PettyCashDirection(in.Direction),
		Amount:            in.Amount,
		Description:       in.Description,
		FinanceExpenseID:  expenseID,
		CreatedBy:         createdBy,
	}
	m.pettyCash[t.ID] = &t
	return t, nil
}

func (m *memoryStore) ListUnpostedDocuments(context.Context) ([]UnpostedDocument, error) {
	return nil, nil
}

func (m *memoryStore) PPNReport(context.Context, int) ([]PPNMonth, error) {
	return nil, nil
}

type recordedEvents struct {
	NopHooks
	expenses   []Expense
	corrected  []Expense
	removed    []Expense
	pettyCash  []PettyCashTransaction
	transfers  []FundTransfer
	receipts   []ReceiptVoucher
	payments   []PaymentVoucher
}

func (r *recordedEvents) ExpenseRecorded(_ context.Context, e Expense) error {
	r.expenses = append(r.expenses, e)
	return nil
}

func (r *recordedEvents) ExpenseCorrected(_ context.Context, e Expense) error {
	r.corrected = append(r.corrected, e)
	return nil
}

func (r *recordedEvents) ExpenseRemoved(_ context.Context, e Expense) error {
	r.removed = append(r.removed, e)
	return nil
}

func (r *recordedEvents) ReceiptVoucherRecorded(_ context.Context, v ReceiptVoucher) error {
	r.receipts = append(r.receipts, v)
	return nil
}

func (r *recordedEvents) PaymentVoucherRecorded(_ context.Context, v PaymentVoucher) error {
	r.payments = append(r.payments, v)
	return nil
}

func (r *recordedEvents) FundTransferRecorded(_ context.Context, t FundTransfer) error {
	r.transfers = append(r.transfers, t)
	return nil
}

func (r *recordedEvents) PettyCashRecorded(_ context.Context, t PettyCashTransaction) error {
	r.pettyCash = append(r.pettyCash, t)
	return nil
}

func feb(d int) time.Time {
	return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateExpenseEmitsEvent(t *testing.T) {
	store := newMemoryStore()
	events := &recordedEvents{}
	svc := NewService(store, events, nil)

	e, err := svc.CreateExpense(context.Background(), ExpenseInput{
		ExpenseDate: feb(10), Category: "freight", Description: "ocean freight",
		Amount: 1500000, PaymentMethod: "cash",
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "EXP2602-0001", e.ExpenseNumber)
	require.Len(t, events.expenses, 1)
	require.Nil(t, e.PettyCashTransactionID)
}

func TestCreateExpenseValidation(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, nil)
	_, err := svc.CreateExpense(context.Background(), ExpenseInput{
		ExpenseDate: feb(10), Category: "freight", Description: "x", Amount: -5,
	}, 1)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPettyCashExpenseCreatesCrossReferencedTransaction(t *testing.T) {
	store := newMemoryStore()
	events := &recordedEvents{}
	svc := NewService(store, events, nil)

	e, err := svc.CreateExpense(context.Background(), ExpenseInput{
		ExpenseDate: feb(11), Category: "other", Description: "courier",
		Amount: 50000, PaymentMethod: "petty_cash",
	}, 1)
	require.NoError(t, err)
	require.NotNil(t, e.PettyCashTransactionID)

	pct := store.pettyCash[*e.PettyCashTransactionID]
	require.NotNil(t, pct)
	require.NotNil(t, pct.FinanceExpenseID)
	require.Equal(t, e.ID, *pct.FinanceExpenseID)
	require.Equal(t, PettyCashOut, pct.Direction)
	require.Equal(t, e.Amount, pct.Amount)
	// The expense carries the journal entry; the fund row must not post.
	require.Empty(t, events.pettyCash)
	require.Len(t, events.expenses, 1)
}

func TestUpdateExpenseEmitsCorrection(t *testing.T) {
	store := newMemoryStore()
	events := &recordedEvents{}
	svc := NewService(store, events, nil)

	e, err := svc.CreateExpense(context.Background(), ExpenseInput{
		ExpenseDate: feb(10), Category: "rent", Description: "warehouse", Amount: 100,
	}, 1)
	require.NoError(t, err)

	updated, err := svc.UpdateExpense(context.Background(), e.ID, ExpenseInput{
		ExpenseDate: feb(10), Category: "rent", Description: "warehouse", Amount: 250,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 250.0, updated.Amount)
	require.Len(t, events.corrected, 1)
}

func TestUpdateExpenseToPettyCashCreatesFundTransaction(t *testing.T) {
	store := newMemoryStore()
	events := &recordedEvents{}
	svc := NewService(store, events, nil)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, ExpenseInput{
		ExpenseDate: feb(10), Category: "other", Description: "courier",
		Amount: 50000, PaymentMethod: "cash",
	}, 1)
	require.NoError(t, err)
	require.Empty(t, store.pettyCash)

	updated, err := svc.UpdateExpense(ctx, e.ID, ExpenseInput{
		ExpenseDate: feb(10), Category: "other", Description: "courier",
		Amount: 50000, PaymentMethod: "petty_cash",
	}, 1)
	require.NoError(t, err)
	require.NotNil(t, updated.PettyCashTransactionID)

	pct := store.pettyCash[*updated.PettyCashTransactionID]
	require.NotNil(t, pct)
	require.NotNil(t, pct.FinanceExpenseID)
	require.Equal(t, e.ID, *pct.FinanceExpenseID)
	require.Equal(t, 50000.0, pct.Amount)
	require.Equal(t, PettyCashOut, pct.Direction)
}

func TestUpdateExpenseRefreshesPettyCashTransaction(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, &recordedEvents{}, nil)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, ExpenseInput{
		ExpenseDate: feb(11), Category: "other", Description: "courier",
		Amount: 50000, PaymentMethod: "petty_cash",
	}, 1)
	require.NoError(t, err)
	originalID := *e.PettyCashTransactionID

	updated, err := svc.UpdateExpense(ctx, e.ID, ExpenseInput{
		ExpenseDate: feb(12), Category: "other", Description: "courier and packaging",
		Amount: 75000, PaymentMethod: "petty_cash",
	}, 1)
	require.NoError(t, err)
	require.NotNil(t, updated.PettyCashTransactionID)
	require.Equal(t, originalID, *updated.PettyCashTransactionID)
	require.Len(t, store.pettyCash, 1)

	pct := store.pettyCash[originalID]
	require.Equal(t, 75000.0, pct.Amount)
	require.Equal(t, feb(12), pct.TransactionDate)
}

func TestUpdateExpenseAwayFromPettyCashVoidsTransaction(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, &recordedEvents{}, nil)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, ExpenseInput{
		ExpenseDate: feb(11), Category: "other", Description: "courier",
		Amount: 50000, PaymentMethod: "petty_cash",
	}, 1)
	require.NoError(t, err)
	require.Len(t, store.pettyCash, 1)

	bank := int64(3)
	updated, err := svc.UpdateExpense(ctx, e.ID, ExpenseInput{
		ExpenseDate: feb(11), Category: "other", Description: "courier",
		Amount: 50000, PaymentMethod: "bank_transfer", BankAccountID: &bank,
	}, 1)
	require.NoError(t, err)
	require.Nil(t, updated.PettyCashTransactionID)
	require.Empty(t, store.pettyCash)
	require.Nil(t, store.expenses[e.ID].PettyCashTransactionID)
}

func TestDeletePettyCashExpenseVoidsFundTransaction(t *testing.T) {
	store := newMemoryStore()
	events := &recordedEvents{}
	svc := NewService(store, events, nil)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, ExpenseInput{
		ExpenseDate: feb(11), Category: "other", Description: "courier",
		Amount: 50000, PaymentMethod: "petty_cash",
	}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExpense(ctx, e.ID, 1))
	require.Empty(t, store.pettyCash)
	require.Len(t, events.removed, 1)
}

func TestDeleteExpenseEmitsRemoval(t *testing.T) {
	store := newMemoryStore()
	events := &recordedEvents{}
	svc := NewService(store, events, nil)

	e, err := svc.CreateExpense(context.Background(), ExpenseInput{
		ExpenseDate: feb(10), Category: "rent", Description: "warehouse", Amount: 100,
	}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExpense(context.Background(), e.ID, 1))
	require.Len(t, events.removed, 1)
	_, err = store.GetExpense(context.Background(), e.ID)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestStandalonePettyCashEmitsEvent(t *testing.T) {
	store := newMemoryStore()
	events := &recordedEvents{}
	svc := NewService(store, events, nil)

	pct, err := svc.CreatePettyCash(context.Background(), PettyCashInput{
		TransactionDate: feb(12), Direction: "in", Amount: 2000000, Description: "replenish",
	}, 1)
	require.NoError(t, err)
	require.Nil(t, pct.FinanceExpenseID)
	require.Len(t, events.pettyCash, 1)
}

func TestCreateVouchersAndTransferEmitEvents(t *testing.T) {
	store := newMemoryStore()
	events := &recordedEvents{}
	svc := NewService(store, events, nil)
	ctx := context.Background()

	_, err := svc.CreateReceiptVoucher(ctx, ReceiptVoucherInput{
		VoucherDate: feb(13), Amount: 100, PaymentMethod: "cash", Description: "AR settlement",
	}, 1)
	require.NoError(t, err)

	_, err = svc.CreatePaymentVoucher(ctx, PaymentVoucherInput{
		VoucherDate: feb(13), Amount: 100, PPhAmount: 2,
		PaymentMethod: "bank_transfer", Description: "AP settlement",
	}, 1)
	require.NoError(t, err)

	_, err = svc.CreateFundTransfer(ctx, FundTransferInput{
		TransferDate: feb(14), FromMethod: "bank_transfer", ToMethod: "cash",
		FromAmount: 1000000, ToAmount: 65,
		FromCurrency: "IDR", ToCurrency: "USD", ExchangeRate: 15384.62,
		Description: "USD purchase",
	}, 1)
	require.NoError(t, err)

	require.Len(t, events.receipts, 1)
	require.Len(t, events.payments, 1)
	require.Len(t, events.transfers, 1)
	require.True(t, events.transfers[0].CrossCurrency())
}

package e2e

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pharma/meridian-erp/internal/coa"
	"github.com/meridian-pharma/meridian-erp/internal/finance"
	"github.com/meridian-pharma/meridian-erp/internal/importcost"
	"github.com/meridian-pharma/meridian-erp/internal/inventory"
	"github.com/meridian-pharma/meridian-erp/internal/ledger"
	"github.com/meridian-pharma/meridian-erp/internal/numbering"
	"github.com/meridian-pharma/meridian-erp/internal/procurement"
	"github.com/meridian-pharma/meridian-erp/internal/sales"
)

// In-memory stores backing the full router. They mirror the SQL
// repositories closely enough to drive the cross-module flows without a
// database; transactional fakes restore a snapshot on callback error.

// --- ledger ---

type memLedger struct {
	seq     *numbering.MemorySequencer
	entries map[int64]ledger.JournalEntry
	links   map[string]int64
	byRef   map[string]int64
	nextID  int64
}

func newMemLedger() *memLedger {
	return &memLedger{
		seq:     numbering.NewMemorySequencer(),
		entries: map[int64]ledger.JournalEntry{},
		links:   map[string]int64{},
		byRef:   map[string]int64{},
	}
}

func srcKey(module string, refID uuid.UUID) string {
	return module + ":" + refID.String()
}

func (m *memLedger) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	return fn(ctx, (*memLedgerTx)(m))
}

func (m *memLedger) GetEntryWithLines(_ context.Context, entryID int64) (ledger.JournalEntry, error) {
	if e, ok := m.entries[entryID]; ok {
		return e, nil
	}
	return ledger.JournalEntry{}, ledger.ErrEntryNotFound
}

func (m *memLedger) ListBySourceModule(_ context.Context, module string, _, _ time.Time) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	for _, e := range m.entries {
		if e.SourceModule == module {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLedger) ListUnbalanced(context.Context) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	for _, e := range m.entries {
		if !e.IsPosted {
			continue
		}
		var debit, credit float64
		for _, l := range e.Lines {
			debit += l.Debit
			credit += l.Credit
		}
		if fmt.Sprintf("%.2f", debit) != fmt.Sprintf("%.2f", credit) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLedger) entryFor(module string, refID uuid.UUID) (ledger.JournalEntry, bool) {
	id, ok := m.links[srcKey(module, refID)]
	if !ok {
		return ledger.JournalEntry{}, false
	}
	return m.entries[id], true
}

type memLedgerTx memLedger

func (tx *memLedgerTx) NextEntryNumber(ctx context.Context, date time.Time) (string, error) {
	return tx.seq.Next(ctx, numbering.KindJournalEntry, date)
}

func (tx *memLedgerTx) FindEntryBySource(_ context.Context, module string, refID uuid.UUID) (ledger.JournalEntry, error) {
	if id, ok := tx.links[srcKey(module, refID)]; ok {
		return tx.entries[id], nil
	}
	return ledger.JournalEntry{}, ledger.ErrEntryNotFound
}

func (tx *memLedgerTx) FindEntryByReferenceNumber(_ context.Context, refNumber string) (ledger.JournalEntry, error) {
	if id, ok := tx.byRef[refNumber]; ok {
		return tx.entries[id], nil
	}
	return ledger.JournalEntry{}, ledger.ErrEntryNotFound
}

func (tx *memLedgerTx) InsertEntry(_ context.Context, in ledger.PostingInput, entryNumber string) (ledger.JournalEntry, error) {
	tx.nextID++
	entry := ledger.JournalEntry{
		ID:              tx.nextID,
		EntryNumber:     entryNumber,
		EntryDate:       in.EntryDate,
		SourceModule:    in.SourceModule,
		ReferenceID:     in.ReferenceID,
		ReferenceNumber: in.ReferenceNumber,
		Description:     in.Description,
		CreatedBy:       in.CreatedBy,
	}
	tx.entries[entry.ID] = entry
	if in.ReferenceNumber != "" {
		tx.byRef[in.ReferenceNumber] = entry.ID
	}
	return entry, nil
}

func (tx *memLedgerTx) InsertLines(_ context.Context, entryID int64, lines []ledger.LineInput) error {
	entry := tx.entries[entryID]
	for idx, line := range lines {
		entry.Lines = append(entry.Lines, ledger.JournalEntryLine{
			EntryID: entryID, LineNumber: idx + 1, AccountID: line.AccountID,
			Debit: line.Debit, Credit: line.Credit, Description: line.Description,
			CustomerID: line.CustomerID, SupplierID: line.SupplierID, BatchID: line.BatchID,
		})
	}
	tx.entries[entryID] = entry
	return nil
}

func (tx *memLedgerTx) FinalizeTotals(_ context.Context, entryID int64) (float64, float64, error) {
	entry := tx.entries[entryID]
	var debit, credit float64
	for _, l := range entry.Lines {
		debit += l.Debit
		credit += l.Credit
	}
	entry.TotalDebit, entry.TotalCredit, entry.IsPosted = debit, credit, true
	tx.entries[entryID] = entry
	return debit, credit, nil
}

func (tx *memLedgerTx) LinkSource(_ context.Context, module string, refID uuid.UUID, entryID int64) error {
	key := srcKey(module, refID)
	if _, exists := tx.links[key]; exists {
		return ledger.ErrSourceConflict
	}
	tx.links[key] = entryID
	return nil
}

func (tx *memLedgerTx) DeleteEntry(_ context.Context, entryID int64) error {
	entry, ok := tx.entries[entryID]
	if !ok {
		return ledger.ErrEntryNotFound
	}
	delete(tx.byRef, entry.ReferenceNumber)
	delete(tx.entries, entryID)
	return nil
}

func (tx *memLedgerTx) UnlinkSource(_ context.Context, module string, refID uuid.UUID) error {
	delete(tx.links, srcKey(module, refID))
	return nil
}

// --- chart of accounts ---

type staticAccounts struct{}

var accountIDs = map[string]int64{
	coa.CodeCashOnHand:   1,
	coa.CodePettyCash:    2,
	coa.CodeBankGeneric:  3,
	coa.CodeAR:           4,
	coa.CodeInventory:    5,
	coa.CodeInputPPN:     6,
	coa.CodeAP:           7,
	coa.CodeOutputPPN:    8,
	coa.CodePPhPayable:   9,
	coa.CodeSalesRevenue: 10,
	coa.CodeCOGS:         11,
	coa.CodeMiscExpense:  12,
}

func (staticAccounts) lookup(code string) (coa.Account, error) {
	id, ok := accountIDs[code]
	if !ok {
		id = 99
	}
	return coa.Account{ID: id, Code: code, IsActive: true}, nil
}

func (a staticAccounts) ResolveExpenseAccount(_ context.Context, _ string) (coa.Account, error) {
	return a.lookup(coa.CodeMiscExpense)
}

func (a staticAccounts) ResolvePaymentAccount(_ context.Context, method string, _ *int64) (coa.Account, error) {
	if method == coa.PaymentCash {
		return a.lookup(coa.CodeCashOnHand)
	}
	return a.lookup(coa.CodeBankGeneric)
}

func (a staticAccounts) ResolveCode(_ context.Context, code string) (coa.Account, error) {
	return a.lookup(code)
}

// --- inventory ---

type memStock struct {
	now          time.Time
	batches      map[int64]*inventory.Batch
	reservations map[int64]*inventory.StockReservation
	products     map[int64]float64
	nextResID    int64
}

func newMemStock(now time.Time) *memStock {
	return &memStock{
		now:          now,
		batches:      map[int64]*inventory.Batch{},
		reservations: map[int64]*inventory.StockReservation{},
		products:     map[int64]float64{},
	}
}

func (m *memStock) addBatch(b inventory.Batch) {
	cp := b
	m.batches[b.ID] = &cp
}

func (m *memStock) snapshot() *memStock {
	cp := newMemStock(m.now)
	cp.nextResID = m.nextResID
	for id, b := range m.batches {
		bb := *b
		cp.batches[id] = &bb
	}
	for id, r := range m.reservations {
		rr := *r
		cp.reservations[id] = &rr
	}
	for id, v := range m.products {
		cp.products[id] = v
	}
	return cp
}

func (m *memStock) WithTx(ctx context.Context, fn func(context.Context, inventory.TxRepository) error) error {
	snap := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.nextResID = snap.nextResID
		m.batches = snap.batches
		m.reservations = snap.reservations
		m.products = snap.products
		return err
	}
	return nil
}

func (m *memStock) ListEligibleBatchesForUpdate(_ context.Context, productID int64) ([]inventory.Batch, error) {
	var out []inventory.Batch
	for _, b := range m.batches {
		if b.ProductID != productID || !b.IsActive || b.Expired(m.now) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
		case a.ExpiryDate == nil:
			return false
		case b.ExpiryDate == nil:
			return true
		case !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *memStock) GetBatchForUpdate(_ context.Context, batchID int64) (inventory.Batch, error) {
	b, ok := m.batches[batchID]
	if !ok {
		return inventory.Batch{}, inventory.ErrBatchNotFound
	}
	return *b, nil
}

func (m *memStock) InsertReservation(_ context.Context, r inventory.StockReservation) (int64, error) {
	m.nextResID++
	r.ID = m.nextResID
	r.CreatedAt = m.now.Add(time.Duration(m.nextResID) * time.Millisecond)
	m.reservations[r.ID] = &r
	return r.ID, nil
}

func (m *memStock) DeleteActiveReservationsForOrder(_ context.Context, orderID int64) ([]int64, error) {
	var batchIDs []int64
	for id, r := range m.reservations {
		if r.SalesOrderID == orderID && r.Status == inventory.ReservationActive {
			batchIDs = append(batchIDs, r.BatchID)
			delete(m.reservations, id)
		}
	}
	return batchIDs, nil
}

func (m *memStock) activeSorted(filter func(*inventory.StockReservation) bool) []inventory.StockReservation {
	var out []inventory.StockReservation
	for _, r := range m.reservations {
		if r.Status == inventory.ReservationActive && filter(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStock) ListActiveReservations(_ context.Context, orderID, productID, batchID int64) ([]inventory.StockReservation, error) {
	return m.activeSorted(func(r *inventory.StockReservation) bool {
		return r.SalesOrderID == orderID && r.ProductID == productID && r.BatchID == batchID
	}), nil
}

func (m *memStock) ListActiveReservationsForOrder(_ context.Context, orderID int64) ([]inventory.StockReservation, error) {
	return m.activeSorted(func(r *inventory.StockReservation) bool { return r.SalesOrderID == orderID }), nil
}

func (m *memStock) ShrinkReservation(_ context.Context, reservationID int64, newQty float64) error {
	r, ok := m.reservations[reservationID]
	if !ok {
		return fmt.Errorf("reservation %d not found", reservationID)
	}
	r.ReservedQuantity = newQty
	return nil
}

func (m *memStock) ReleaseReservation(_ context.Context, reservationID int64) error {
	r, ok := m.reservations[reservationID]
	if !ok {
		return fmt.Errorf("reservation %d not found", reservationID)
	}
	r.Status = inventory.ReservationReleased
	return nil
}

func (m *memStock) RecountBatchReservations(_ context.Context, batchID int64) (float64, error) {
	b, ok := m.batches[batchID]
	if !ok {
		return 0, inventory.ErrBatchNotFound
	}
	var sum float64
	for _, r := range m.reservations {
		if r.BatchID == batchID && r.Status == inventory.ReservationActive {
			sum += r.ReservedQuantity
		}
	}
	b.ReservedStock = sum
	return sum, nil
}

func (m *memStock) AdjustBatchStock(_ context.Context, batchID int64, delta float64) (float64, error) {
	b, ok := m.batches[batchID]
	if !ok {
		return 0, inventory.ErrBatchNotFound
	}
	b.CurrentStock += delta
	return b.CurrentStock, nil
}

func (m *memStock) RecomputeProductStock(_ context.Context, productID int64) (float64, error) {
	var sum float64
	for _, b := range m.batches {
		if b.ProductID == productID && b.IsActive {
			sum += b.CurrentStock
		}
	}
	m.products[productID] = sum
	return sum, nil
}

// Read side for the inventory handler.

func (m *memStock) GetBatch(ctx context.Context, batchID int64) (inventory.Batch, error) {
	return m.GetBatchForUpdate(ctx, batchID)
}

func (m *memStock) ListReservationsForOrder(ctx context.Context, orderID int64) ([]inventory.StockReservation, error) {
	return m.ListActiveReservationsForOrder(ctx, orderID)
}

// --- sales ---

type memSales struct {
	orders      map[int64]*sales.SalesOrder
	challans    map[int64]*sales.DeliveryChallan
	invoices    []sales.SalesInvoice
	batchCosts  map[int64]float64
	nextOrder   int64
	nextChallan int64
}

func newMemSales() *memSales {
	return &memSales{
		orders:     map[int64]*sales.SalesOrder{},
		challans:   map[int64]*sales.DeliveryChallan{},
		batchCosts: map[int64]float64{},
	}
}

func (m *memSales) InsertOrder(_ context.Context, in sales.OrderInput, createdBy int64) (sales.SalesOrder, error) {
	m.nextOrder++
	order := sales.SalesOrder{
		ID:          m.nextOrder,
		OrderNumber: fmt.Sprintf("SO2602-%04d", m.nextOrder),
		CustomerID:  in.CustomerID,
		OrderDate:   in.OrderDate,
		Status:      sales.OrderDraft,
		CreatedBy:   createdBy,
	}
	for i, item := range in.Items {
		order.Items = append(order.Items, sales.SalesOrderItem{
			ID: m.nextOrder*100 + int64(i), SalesOrderID: order.ID,
			ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice,
		})
	}
	m.orders[order.ID] = &order
	return order, nil
}

func (m *memSales) GetOrder(_ context.Context, orderID int64) (sales.SalesOrder, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return sales.SalesOrder{}, sales.ErrOrderNotFound
	}
	return *o, nil
}

func (m *memSales) SetOrderStatus(_ context.Context, orderID int64, status sales.OrderStatus) error {
	o, ok := m.orders[orderID]
	if !ok {
		return sales.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (m *memSales) AddDeliveredQty(_ context.Context, itemID int64, qty float64) error {
	for _, o := range m.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].DeliveredQty += qty
				return nil
			}
		}
	}
	return sales.ErrOrderNotFound
}

func (m *memSales) InsertChallan(_ context.Context, in sales.ChallanInput, productByItem map[int64]int64, createdBy int64) (sales.DeliveryChallan, error) {
	m.nextChallan++
	ch := sales.DeliveryChallan{
		ID:            m.nextChallan,
		ChallanNumber: fmt.Sprintf("DC2602-%04d", m.nextChallan),
		SalesOrderID:  in.SalesOrderID,
		ChallanDate:   in.ChallanDate,
		Status:        sales.ChallanDraft,
		CreatedBy:     createdBy,
	}
	for i, line := range in.Lines {
		ch.Lines = append(ch.Lines, sales.ChallanLine{
			ID: m.nextChallan*100 + int64(i), ChallanID: ch.ID,
			SalesOrderItemID: line.SalesOrderItemID,
			ProductID:        productByItem[line.SalesOrderItemID],
			BatchID:          line.BatchID, Quantity: line.Quantity,
		})
	}
	m.challans[ch.ID] = &ch
	return ch, nil
}

func (m *memSales) GetChallan(_ context.Context, challanID int64) (sales.DeliveryChallan, error) {
	ch, ok := m.challans[challanID]
	if !ok {
		return sales.DeliveryChallan{}, sales.ErrChallanNotFound
	}
	return *ch, nil
}

func (m *memSales) MarkChallanApproved(_ context.Context, challanID, approverID int64, at time.Time) error {
	ch, ok := m.challans[challanID]
	if !ok {
		return sales.ErrChallanNotFound
	}
	if ch.Status != sales.ChallanDraft {
		return sales.ErrChallanAlreadyApproved
	}
	ch.Status = sales.ChallanApproved
	ch.ApprovedBy = &approverID
	ch.ApprovedAt = &at
	return nil
}

func (m *memSales) RevertChallanApproval(_ context.Context, challanID int64) error {
	ch, ok := m.challans[challanID]
	if !ok {
		return sales.ErrChallanNotFound
	}
	ch.Status = sales.ChallanDraft
	ch.ApprovedBy = nil
	ch.ApprovedAt = nil
	return nil
}

func (m *memSales) BatchUnitCost(_ context.Context, batchID int64) (float64, error) {
	return m.batchCosts[batchID], nil
}

func (m *memSales) InsertInvoice(_ context.Context, inv sales.SalesInvoice) (sales.SalesInvoice, error) {
	inv.ID = uuid.New()
	inv.InvoiceNumber = fmt.Sprintf("SI2602-%04d", len(m.invoices)+1)
	m.invoices = append(m.invoices, inv)
	return inv, nil
}

// --- procurement ---

type memProcurement struct {
	requirements []procurement.ImportRequirement
	invoices     []procurement.PurchaseInvoice
	nextReqID    int64
}

func (m *memProcurement) InsertRequirements(_ context.Context, reqs []procurement.ImportRequirement) error {
	for _, r := range reqs {
		m.nextReqID++
		r.ID = m.nextReqID
		r.Status = procurement.RequirementOpen
		m.requirements = append(m.requirements, r)
	}
	return nil
}

func (m *memProcurement) ListOpenRequirements(context.Context) ([]procurement.ImportRequirement, error) {
	var out []procurement.ImportRequirement
	for _, r := range m.requirements {
		if r.Status == procurement.RequirementOpen {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memProcurement) SetRequirementStatus(_ context.Context, id int64, status procurement.RequirementStatus) error {
	for i := range m.requirements {
		if m.requirements[i].ID == id {
			m.requirements[i].Status = status
			return nil
		}
	}
	return procurement.ErrRequirementNotFound
}

func (m *memProcurement) InsertInvoice(_ context.Context, inv procurement.PurchaseInvoice) (procurement.PurchaseInvoice, error) {
	inv.ID = uuid.New()
	inv.InvoiceNumber = fmt.Sprintf("PI2602-%04d", len(m.invoices)+1)
	m.invoices = append(m.invoices, inv)
	return inv, nil
}

// --- finance ---

type memFinance struct {
	expenses  map[uuid.UUID]*finance.Expense
	pettyCash map[uuid.UUID]*finance.PettyCashTransaction
	seq       int64
}

func newMemFinance() *memFinance {
	return &memFinance{
		expenses:  map[uuid.UUID]*finance.Expense{},
		pettyCash: map[uuid.UUID]*finance.PettyCashTransaction{},
	}
}

func (m *memFinance) number(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s2602-%04d", prefix, m.seq)
}

func (m *memFinance) InsertExpense(_ context.Context, in finance.ExpenseInput, createdBy int64) (finance.Expense, error) {
	e := finance.Expense{
		ID:                uuid.New(),
		ExpenseNumber:     m.number("EXP"),
		ExpenseDate:       in.ExpenseDate,
		Category:          in.Category,
		Description:       in.Description,
		Amount:            in.Amount,
		PaymentMethod:     in.PaymentMethod,
		BankAccountID:     in.BankAccountID,
		ImportContainerID: in.ImportContainerID,
		CreatedBy:         createdBy,
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = coa.PaymentCash
	}
	m.expenses[e.ID] = &e
	return e, nil
}

func (m *memFinance) UpdateExpense(_ context.Context, id uuid.UUID, in finance.ExpenseInput) (finance.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return finance.Expense{}, finance.ErrDocumentNotFound
	}
	e.ExpenseDate, e.Category, e.Description = in.ExpenseDate, in.Category, in.Description
	e.Amount, e.BankAccountID, e.ImportContainerID = in.Amount, in.BankAccountID, in.ImportContainerID
	if in.PaymentMethod != "" {
		e.PaymentMethod = in.PaymentMethod
	}
	return *e, nil
}

func (m *memFinance) GetExpense(_ context.Context, id uuid.UUID) (finance.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return finance.Expense{}, finance.ErrDocumentNotFound
	}
	return *e, nil
}

func (m *memFinance) DeleteExpense(_ context.Context, id uuid.UUID) error {
	delete(m.expenses, id)
	return nil
}

func (m *memFinance) LinkPettyCash(_ context.Context, expenseID, pettyCashID uuid.UUID) error {
	if e, ok := m.expenses[expenseID]; ok {
		e.PettyCashTransactionID = &pettyCashID
	}
	return nil
}

func (m *memFinance) UnlinkPettyCash(_ context.Context, expenseID uuid.UUID) error {
	if e, ok := m.expenses[expenseID]; ok {
		e.PettyCashTransactionID = nil
	}
	return nil
}

func (m *memFinance) UpdatePettyCash(_ context.Context, id uuid.UUID, in finance.PettyCashInput) (finance.PettyCashTransaction, error) {
	t, ok := m.pettyCash[id]
	if !ok {
		return finance.PettyCashTransaction{}, finance.ErrDocumentNotFound
	}
	t.TransactionDate = in.TransactionDate
	t.Direction = finance.PettyCashDirection(in.Direction)
	t.Amount = in.Amount
	t.Description = in.Description
	return *t, nil
}

func (m *memFinance) DeletePettyCash(_ context.Context, id uuid.UUID) error {
	delete(m.pettyCash, id)
	return nil
}

func (m *memFinance) InsertReceiptVoucher(_ context.Context, in finance.ReceiptVoucherInput, createdBy int64) (finance.ReceiptVoucher, error) {
	return finance.ReceiptVoucher{
		ID: uuid.New(), VoucherNumber: m.number("RV"), VoucherDate: in.VoucherDate,
		CustomerID: in.CustomerID, Amount: in.Amount, PaymentMethod: in.PaymentMethod,
		BankAccountID: in.BankAccountID, Description: in.Description, CreatedBy: createdBy,
	}, nil
}

func (m *memFinance) InsertPaymentVoucher(_ context.Context, in finance.PaymentVoucherInput, createdBy int64) (finance.PaymentVoucher, error) {
	return finance.PaymentVoucher{
		ID: uuid.New(), VoucherNumber: m.number("PV"), VoucherDate: in.VoucherDate,
		SupplierID: in.SupplierID, Amount: in.Amount, PPhAmount: in.PPhAmount,
		PaymentMethod: in.PaymentMethod, BankAccountID: in.BankAccountID,
		Description: in.Description, CreatedBy: createdBy,
	}, nil
}

func (m *memFinance) InsertFundTransfer(_ context.Context, in finance.FundTransferInput, createdBy int64) (finance.FundTransfer, error) {
	return finance.FundTransfer{
		ID: uuid.New(), TransferNumber: m.number("FT"), TransferDate: in.TransferDate,
		FromMethod: in.FromMethod, FromBankAccountID: in.FromBankAccountID,
		ToMethod: in.ToMethod, ToBankAccountID: in.ToBankAccountID,
		FromAmount: in.FromAmount, ToAmount: in.ToAmount,
		FromCurrency: in.FromCurrency, ToCurrency: in.ToCurrency,
		ExchangeRate: in.ExchangeRate, Description: in.Description, CreatedBy: createdBy,
	}, nil
}

func (m *memFinance) InsertPettyCash(_ context.Context, in finance.PettyCashInput, expenseID *uuid.UUID, createdBy int64) (finance.PettyCashTransaction, error) {
	t := finance.PettyCashTransaction{
		ID: uuid.New(), TransactionNumber: m.number("PC"), TransactionDate: in.TransactionDate,
		Direction: finance.PettyCashDirection(in.Direction), Amount: in.Amount,
		Description: in.Description, FinanceExpenseID: expenseID, CreatedBy: createdBy,
	}
	m.pettyCash[t.ID] = &t
	return t, nil
}

func (m *memFinance) ListUnpostedDocuments(context.Context) ([]finance.UnpostedDocument, error) {
	return nil, nil
}

func (m *memFinance) PPNReport(context.Context, int) ([]finance.PPNMonth, error) {
	return nil, nil
}

// --- import costs ---

type memCosts struct {
	containers map[int64]importcost.Container
	shares     map[int64][]importcost.BatchShare
	applied    map[int64][]importcost.Allocation
	links      map[int64]*int64
}

func newMemCosts() *memCosts {
	return &memCosts{
		containers: map[int64]importcost.Container{},
		shares:     map[int64][]importcost.BatchShare{},
		applied:    map[int64][]importcost.Allocation{},
		links:      map[int64]*int64{},
	}
}

func (m *memCosts) GetContainer(_ context.Context, id int64) (importcost.Container, error) {
	c, ok := m.containers[id]
	if !ok {
		return importcost.Container{}, importcost.ErrContainerNotFound
	}
	return c, nil
}

func (m *memCosts) UpdateContainerCosts(_ context.Context, c importcost.Container) error {
	if _, ok := m.containers[c.ID]; !ok {
		return importcost.ErrContainerNotFound
	}
	m.containers[c.ID] = c
	return nil
}

func (m *memCosts) ListBatchShares(_ context.Context, containerID int64) ([]importcost.BatchShare, error) {
	return m.shares[containerID], nil
}

func (m *memCosts) ApplyAllocations(_ context.Context, containerID int64, allocs []importcost.Allocation) error {
	m.applied[containerID] = allocs
	return nil
}

func (m *memCosts) GetBatchContainer(_ context.Context, batchID int64) (*int64, error) {
	link, ok := m.links[batchID]
	if !ok {
		return nil, importcost.ErrBatchNotFound
	}
	return link, nil
}

func (m *memCosts) SetBatchContainer(_ context.Context, batchID int64, containerID *int64) error {
	old, ok := m.links[batchID]
	if !ok {
		return importcost.ErrBatchNotFound
	}
	share := importcost.BatchShare{BatchID: batchID}
	if old != nil {
		list := m.shares[*old]
		for i, b := range list {
			if b.BatchID == batchID {
				share = b
				m.shares[*old] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	if containerID != nil {
		m.shares[*containerID] = append(m.shares[*containerID], share)
	}
	m.links[batchID] = containerID
	return nil
}

func (m *memCosts) ListContainerIDs(context.Context) ([]int64, error) {
	var out []int64
	for id := range m.containers {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

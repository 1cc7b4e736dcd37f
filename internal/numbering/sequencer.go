package numbering

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// Sequencer issues the next number in a document series.
type Sequencer interface {
	Next(ctx context.Context, kind Kind, date time.Time) (string, error)
}

// source locates the column that stores issued numbers for a series.
type source struct {
	table  string
	column string
}

var sources = map[Kind]source{
	KindJournalEntry:    {"journal_entries", "entry_number"},
	KindFundTransfer:    {"fund_transfers", "transfer_number"},
	KindPettyCash:       {"petty_cash_transactions", "transaction_number"},
	KindExpense:         {"finance_expenses", "expense_number"},
	KindReceiptVoucher:  {"receipt_vouchers", "voucher_number"},
	KindPaymentVoucher:  {"payment_vouchers", "voucher_number"},
	KindSalesOrder:      {"sales_orders", "order_number"},
	KindDeliveryChallan: {"delivery_challans", "challan_number"},
	KindSalesInvoice:    {"sales_invoices", "invoice_number"},
	KindPurchaseInvoice: {"purchase_invoices", "invoice_number"},
}

// TxSequencer issues numbers inside an open pgx transaction. The advisory
// lock it takes is released automatically at transaction end, so the MAX scan
// and the caller's subsequent insert commit as one serialised unit.
type TxSequencer struct {
	tx pgx.Tx
}

// NewTxSequencer wraps an open transaction.
func NewTxSequencer(tx pgx.Tx) *TxSequencer {
	return &TxSequencer{tx: tx}
}

// Next returns the next number for the series. Racing transactions on the
// same prefix queue behind the advisory lock; without it two MAX scans could
// read the same value and issue duplicates.
func (s *TxSequencer) Next(ctx context.Context, kind Kind, date time.Time) (string, error) {
	src, ok := sources[kind]
	if !ok {
		return "", fmt.Errorf("numbering: unknown kind %q", kind)
	}
	prefix := PeriodPrefix(kind, date)
	if _, err := s.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, LockKey(prefix)); err != nil {
		return "", fmt.Errorf("numbering: advisory lock: %w", err)
	}
	query := fmt.Sprintf(`SELECT COALESCE(MAX(NULLIF(regexp_replace(%s, '^.*-', ''), '')::int), 0)
FROM %s WHERE %s LIKE $1 || '%%'`, src.column, src.table, src.column)
	var last int
	if err := s.tx.QueryRow(ctx, query, prefix).Scan(&last); err != nil {
		return "", fmt.Errorf("numbering: max scan: %w", err)
	}
	return Format(kind, date, last+1), nil
}

// MemorySequencer is an in-process Sequencer used by tests and by services
// running against in-memory repositories. A per-prefix mutex stands in for
// the database advisory lock.
type MemorySequencer struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	last  map[string]int
}

// NewMemorySequencer constructs an empty sequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{locks: make(map[string]*sync.Mutex), last: make(map[string]int)}
}

// Next issues the next number for the prefix.
func (s *MemorySequencer) Next(_ context.Context, kind Kind, date time.Time) (string, error) {
	prefix := PeriodPrefix(kind, date)
	s.mu.Lock()
	lock, ok := s.locks[prefix]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[prefix] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	s.mu.Lock()
	seq := s.last[prefix] + 1
	s.last[prefix] = seq
	s.mu.Unlock()
	return Format(kind, date, seq), nil
}

// Observe records an externally issued number so later Next calls continue
// after it. Mirrors the MAX-scan behaviour when rows already exist.
func (s *MemorySequencer) Observe(number string, kind Kind, date time.Time) {
	prefix := PeriodPrefix(kind, date)
	suffix := Suffix(number)
	s.mu.Lock()
	if suffix > s.last[prefix] {
		s.last[prefix] = suffix
	}
	s.mu.Unlock()
}

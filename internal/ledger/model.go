// Package ledger is the append-only journal store. Every financial document
// posts exactly one balanced entry here; corrections delete the entry and
// repost, amounts are never mutated in place.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry captures the header of a double-entry posting.
type JournalEntry struct {
	ID              int64
	EntryNumber     string
	EntryDate       time.Time
	SourceModule    string
	ReferenceID     uuid.UUID
	ReferenceNumber string
	Description     string
	TotalDebit      float64
	TotalCredit     float64
	IsPosted        bool
	CreatedBy       int64
	CreatedAt       time.Time
	Lines           []JournalEntryLine
}

// JournalEntryLine stores one debit or credit against an account. The
// customer/supplier/batch dimensions feed sub-ledger drill-down reports.
type JournalEntryLine struct {
	ID          int64
	EntryID     int64
	LineNumber  int
	AccountID   int64
	Debit       float64
	Credit      float64
	Description string
	CustomerID  *int64
	SupplierID  *int64
	BatchID     *int64
	CreatedAt   time.Time
}

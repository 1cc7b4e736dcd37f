// Package numbering issues gap-tolerant sequential document numbers.
//
// Numbers are derived from MAX(numeric suffix)+1 within a period prefix, not
// from row counts, so deleting a document never causes a reissued number to
// collide. Concurrent issuance for the same prefix is serialised by a
// transaction-scoped Postgres advisory lock keyed on the prefix hash;
// unrelated prefixes never block each other.
package numbering

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a numbered document series.
type Kind string

const (
	KindJournalEntry    Kind = "JE"
	KindFundTransfer    Kind = "FT"
	KindPettyCash       Kind = "PC"
	KindExpense         Kind = "EXP"
	KindReceiptVoucher  Kind = "RV"
	KindPaymentVoucher  Kind = "PV"
	KindSalesOrder      Kind = "SO"
	KindDeliveryChallan Kind = "DC"
	KindSalesInvoice    Kind = "SI"
	KindPurchaseInvoice Kind = "PI"
)

// PeriodPrefix returns the series prefix for a document date, including the
// trailing separator. The JE/FT/PC layouts are fixed wire formats printed on
// vouchers and must not change.
func PeriodPrefix(kind Kind, date time.Time) string {
	switch kind {
	case KindPettyCash:
		return fmt.Sprintf("PC-%s-", date.Format("20060102"))
	default:
		return fmt.Sprintf("%s%s-", string(kind), date.Format("0601"))
	}
}

// Format renders a full document number from its period prefix and sequence.
func Format(kind Kind, date time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", PeriodPrefix(kind, date), seq)
}

// Suffix extracts the numeric sequence from a document number. Numbers with a
// malformed tail contribute zero so a single corrupt row cannot stall a
// series.
func Suffix(number string) int {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0
	}
	n, err := strconv.Atoi(number[idx+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// LockKey hashes a prefix into the advisory lock keyspace.
func LockKey(prefix string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(prefix))
	return int64(h.Sum64())
}

package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrAlreadyPosted indicates the source document already has an entry.
	ErrAlreadyPosted = errors.New("ledger: source already posted")
	// ErrEntryNotFound indicates a missing entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("ledger: source link conflict")
)

// LineInput describes a journal line for a posting request.
type LineInput struct {
	AccountID   int64
	Debit       float64
	Credit      float64
	Description string
	CustomerID  *int64
	SupplierID  *int64
	BatchID     *int64
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	EntryDate       time.Time
	SourceModule    string
	ReferenceID     uuid.UUID
	ReferenceNumber string
	Description     string
	CreatedBy       int64
	Lines           []LineInput
}

// Validate ensures posting input meets minimum criteria. Balance is compared
// at two decimal places, matching the ledger's monetary precision.
func (in PostingInput) Validate() error {
	if in.SourceModule == "" {
		return errors.New("ledger: source module required")
	}
	if in.ReferenceID == uuid.Nil {
		return errors.New("ledger: reference id required")
	}
	if in.EntryDate.IsZero() {
		return errors.New("ledger: entry date required")
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("ledger: line %d missing account", idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("ledger: line %d negative amount", idx)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return fmt.Errorf("ledger: line %d cannot be both debit and credit", idx)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if fmt.Sprintf("%.2f", debit) != fmt.Sprintf("%.2f", credit) {
		return ErrUnbalanced
	}
	return nil
}

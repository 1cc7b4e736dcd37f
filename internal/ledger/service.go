package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pharma/meridian-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates journal postings.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Post creates one balanced journal entry for a source document. It is
// idempotent: if the source is already linked, or an entry already carries
// the document's reference number, the existing entry is returned with
// ErrAlreadyPosted and no rows change. Both checks run because a manual
// repost racing the event hook historically double-posted documents that had
// a link cleared but an entry left behind.
func (s *Service) Post(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	var already bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.FindEntryBySource(ctx, input.SourceModule, input.ReferenceID)
		if err == nil {
			entry, already = existing, true
			return nil
		}
		if !errors.Is(err, ErrEntryNotFound) {
			return err
		}
		if input.ReferenceNumber != "" {
			existing, err = tx.FindEntryByReferenceNumber(ctx, input.ReferenceNumber)
			if err == nil {
				entry, already = existing, true
				return nil
			}
			if !errors.Is(err, ErrEntryNotFound) {
				return err
			}
		}
		number, err := tx.NextEntryNumber(ctx, input.EntryDate)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, input, number)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, input.Lines); err != nil {
			return err
		}
		debit, credit, err := tx.FinalizeTotals(ctx, inserted.ID)
		if err != nil {
			return err
		}
		if fmt.Sprintf("%.2f", debit) != fmt.Sprintf("%.2f", credit) {
			return ErrUnbalanced
		}
		if err := tx.LinkSource(ctx, input.SourceModule, input.ReferenceID, inserted.ID); err != nil {
			if errors.Is(err, ErrSourceConflict) {
				return ErrAlreadyPosted
			}
			return err
		}
		inserted.TotalDebit = debit
		inserted.TotalCredit = credit
		inserted.IsPosted = true
		inserted.Lines = toLines(inserted.ID, input.Lines, s.now())
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if already {
		return entry, ErrAlreadyPosted
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.CreatedBy,
			Action:   "ledger.post",
			Entity:   "journal_entry",
			EntityID: entry.EntryNumber,
			Meta: map[string]any{
				"source_module":    input.SourceModule,
				"reference_number": input.ReferenceNumber,
				"total":            entry.TotalDebit,
			},
			At: s.now(),
		})
	}
	return entry, nil
}

// Unpost removes the entry linked to a source document, clearing the link so
// the document can be reposted after an edit. Deleting and reposting is the
// only sanctioned correction path; posted amounts are never updated.
func (s *Service) Unpost(ctx context.Context, module string, refID uuid.UUID, actorID int64) error {
	if refID == uuid.Nil {
		return errors.New("ledger: reference id required")
	}
	var removed string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.FindEntryBySource(ctx, module, refID)
		if err != nil {
			if errors.Is(err, ErrEntryNotFound) {
				return nil
			}
			return err
		}
		if err := tx.UnlinkSource(ctx, module, refID); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, entry.ID); err != nil {
			return err
		}
		removed = entry.EntryNumber
		return nil
	})
	if err != nil {
		return err
	}
	if removed != "" && s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "ledger.unpost",
			Entity:   "journal_entry",
			EntityID: removed,
			Meta:     map[string]any{"module": module, "reference_id": refID.String()},
			At:       s.now(),
		})
	}
	return nil
}

// GetEntry loads an entry and its lines.
func (s *Service) GetEntry(ctx context.Context, entryID int64) (JournalEntry, error) {
	return s.repo.GetEntryWithLines(ctx, entryID)
}

// CheckIntegrity returns entry numbers violating the balance invariant.
func (s *Service) CheckIntegrity(ctx context.Context) ([]string, error) {
	entries, err := s.repo.ListUnbalanced(ctx)
	if err != nil {
		return nil, err
	}
	numbers := make([]string, 0, len(entries))
	for _, entry := range entries {
		numbers = append(numbers, entry.EntryNumber)
	}
	return numbers, nil
}

func toLines(entryID int64, lines []LineInput, ts time.Time) []JournalEntryLine {
	out := make([]JournalEntryLine, 0, len(lines))
	for idx, line := range lines {
		out = append(out, JournalEntryLine{
			EntryID:     entryID,
			LineNumber:  idx + 1,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
			CustomerID:  line.CustomerID,
			SupplierID:  line.SupplierID,
			BatchID:     line.BatchID,
			CreatedAt:   ts,
		})
	}
	return out
}

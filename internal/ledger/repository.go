package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pharma/meridian-erp/internal/numbering"
)

// Repository encapsulates DB operations for the journal store.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error)
	ListBySourceModule(ctx context.Context, module string, from, to time.Time) ([]JournalEntry, error)
	ListUnbalanced(ctx context.Context) ([]JournalEntry, error)
}

// TxRepository exposes methods available within a posting transaction.
type TxRepository interface {
	NextEntryNumber(ctx context.Context, date time.Time) (string, error)
	FindEntryBySource(ctx context.Context, module string, refID uuid.UUID) (JournalEntry, error)
	FindEntryByReferenceNumber(ctx context.Context, refNumber string) (JournalEntry, error)
	InsertEntry(ctx context.Context, in PostingInput, entryNumber string) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) error
	FinalizeTotals(ctx context.Context, entryID int64) (float64, float64, error)
	LinkSource(ctx context.Context, module string, refID uuid.UUID, entryID int64) error
	DeleteEntry(ctx context.Context, entryID int64) error
	UnlinkSource(ctx context.Context, module string, refID uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	wrapper := &txRepository{tx: tx, seq: numbering.NewTxSequencer(tx)}
	if err := fn(ctx, wrapper); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const entryColumns = `id, entry_number, entry_date, source_module, reference_id, reference_number, description, total_debit, total_credit, is_posted, created_by, created_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.EntryNumber, &e.EntryDate, &e.SourceModule, &e.ReferenceID, &e.ReferenceNumber,
		&e.Description, &e.TotalDebit, &e.TotalCredit, &e.IsPosted, &e.CreatedBy, &e.CreatedAt)
	return e, err
}

func (r *repository) GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, entry_id, line_number, account_id, debit, credit, description, customer_id, supplier_id, batch_id, created_at
FROM journal_entry_lines WHERE entry_id=$1 ORDER BY line_number ASC`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalEntryLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.LineNumber, &line.AccountID, &line.Debit, &line.Credit,
			&line.Description, &line.CustomerID, &line.SupplierID, &line.BatchID, &line.CreatedAt); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

func (r *repository) ListBySourceModule(ctx context.Context, module string, from, to time.Time) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE source_module=$1 AND entry_date >= $2 AND entry_date < $3 ORDER BY entry_number ASC`, module, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListUnbalanced surfaces posted entries whose stored totals disagree with
// their lines. A non-empty result is a data-integrity defect, not a runtime
// condition; the integrity job alerts on it.
func (r *repository) ListUnbalanced(ctx context.Context) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries e
WHERE e.is_posted AND (e.total_debit <> e.total_credit
   OR e.total_debit <> (SELECT COALESCE(SUM(l.debit),0) FROM journal_entry_lines l WHERE l.entry_id=e.id))
ORDER BY e.entry_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]JournalEntry, error) {
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type txRepository struct {
	tx  pgx.Tx
	seq *numbering.TxSequencer
}

func (r *txRepository) NextEntryNumber(ctx context.Context, date time.Time) (string, error) {
	return r.seq.Next(ctx, numbering.KindJournalEntry, date)
}

func (r *txRepository) FindEntryBySource(ctx context.Context, module string, refID uuid.UUID) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries e
WHERE e.id = (SELECT journal_entry_id FROM journal_source_links WHERE source_module=$1 AND reference_id=$2)`, module, refID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) FindEntryByReferenceNumber(ctx context.Context, refNumber string) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE reference_number=$1`, refNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, in PostingInput, entryNumber string) (JournalEntry, error) {
	// Totals start at zero and are finalized from the lines afterwards; the
	// initial insert values are never trusted as the balance.
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(entry_number, entry_date, source_module, reference_id, reference_number, description, total_debit, total_credit, is_posted, created_by)
VALUES ($1,$2,$3,$4,$5,$6,0,0,FALSE,$7) RETURNING id, created_at`,
		entryNumber, in.EntryDate, in.SourceModule, in.ReferenceID, in.ReferenceNumber, in.Description, nullInt(in.CreatedBy))
	entry := JournalEntry{
		EntryNumber:     entryNumber,
		EntryDate:       in.EntryDate,
		SourceModule:    in.SourceModule,
		ReferenceID:     in.ReferenceID,
		ReferenceNumber: in.ReferenceNumber,
		Description:     in.Description,
		CreatedBy:       in.CreatedBy,
	}
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for idx, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_entry_lines
(entry_id, line_number, account_id, debit, credit, description, customer_id, supplier_id, batch_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			entryID, idx+1, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit),
			line.Description, nullIntPtr(line.CustomerID), nullIntPtr(line.SupplierID), nullIntPtr(line.BatchID)); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeTotals recomputes header totals from the inserted lines and marks
// the entry posted, all inside the posting transaction.
func (r *txRepository) FinalizeTotals(ctx context.Context, entryID int64) (float64, float64, error) {
	var debit, credit float64
	err := r.tx.QueryRow(ctx, `UPDATE journal_entries SET
 total_debit = (SELECT COALESCE(SUM(debit),0) FROM journal_entry_lines WHERE entry_id=$1),
 total_credit = (SELECT COALESCE(SUM(credit),0) FROM journal_entry_lines WHERE entry_id=$1),
 is_posted = TRUE
WHERE id=$1 RETURNING total_debit, total_credit`, entryID).Scan(&debit, &credit)
	if err != nil {
		return 0, 0, err
	}
	return debit, credit, nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, refID uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO journal_source_links (source_module, reference_id, journal_entry_id) VALUES ($1,$2,$3)`, module, refID, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_source_links" {
			return ErrSourceConflict
		}
		return err
	}
	return nil
}

func (r *txRepository) DeleteEntry(ctx context.Context, entryID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id=$1`, entryID); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) UnlinkSource(ctx context.Context, module string, refID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_source_links WHERE source_module=$1 AND reference_id=$2`, module, refID)
	return err
}

// Helpers

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func nullIntPtr(val *int64) any {
	if val == nil || *val == 0 {
		return nil
	}
	return *val
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}

package coa

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides account lookups.
type Repository interface {
	GetByCode(ctx context.Context, code string) (Account, error)
	GetBankAccount(ctx context.Context, id int64) (BankAccount, error)
	ListActive(ctx context.Context) ([]Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(ctx context.Context, code string) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, account_type, parent_id, normal_balance, is_active, created_at, updated_at
FROM accounts WHERE code=$1 AND is_active`, code).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.NormalBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetBankAccount(ctx context.Context, id int64) (BankAccount, error) {
	var b BankAccount
	err := r.db.QueryRow(ctx, `SELECT id, name, account_number, currency, COALESCE(coa_code, ''), is_active
FROM bank_accounts WHERE id=$1`, id).
		Scan(&b.ID, &b.Name, &b.AccountNumber, &b.Currency, &b.COACode, &b.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, ErrBankAccountNotFound
		}
		return BankAccount{}, err
	}
	return b, nil
}

func (r *repository) ListActive(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, account_type, parent_id, normal_balance, is_active, created_at, updated_at
FROM accounts WHERE is_active ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.NormalBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

package coa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Payment method values shared with the finance documents.
const (
	PaymentCash         = "cash"
	PaymentBankTransfer = "bank_transfer"
	PaymentPettyCash    = "petty_cash"
)

const bankCOATTL = 10 * time.Minute

// Resolver maps semantic categories to concrete ledger accounts. Bank-account
// COA lookups are cached in redis since they sit on every voucher posting
// path and change rarely.
type Resolver struct {
	repo   Repository
	cache  *redis.Client
	logger *slog.Logger
}

// NewResolver constructs a Resolver. cache may be nil.
func NewResolver(repo Repository, cache *redis.Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, cache: cache, logger: logger}
}

// ResolveExpenseAccount maps an expense category to its P&L (or recoverable
// tax) account. Unmapped categories land on Misc rather than failing, so an
// operator adding a category ahead of configuration does not lose postings.
func (r *Resolver) ResolveExpenseAccount(ctx context.Context, category string) (Account, error) {
	code, ok := expenseCategoryCodes[category]
	if !ok {
		r.logger.Warn("expense category unmapped, falling back to misc",
			slog.String("category", category))
		code = CodeMiscExpense
	}
	return r.repo.GetByCode(ctx, code)
}

// ResolvePaymentAccount returns the balancing account for a payment method.
// An empty method means the document is unpaid and the credit belongs to
// accounts payable. Every posting hook must consult this method; vouchers
// hard-coding a generic bank account was the defect class this exists for.
func (r *Resolver) ResolvePaymentAccount(ctx context.Context, method string, bankAccountID *int64) (Account, error) {
	switch method {
	case PaymentCash:
		return r.repo.GetByCode(ctx, CodeCashOnHand)
	case PaymentPettyCash:
		return r.repo.GetByCode(ctx, CodePettyCash)
	case PaymentBankTransfer:
		if bankAccountID == nil {
			return r.repo.GetByCode(ctx, CodeBankGeneric)
		}
		code, err := r.bankCOACode(ctx, *bankAccountID)
		if err != nil || code == "" {
			if err != nil {
				r.logger.Warn("bank account COA lookup failed, using generic bank",
					slog.Int64("bank_account_id", *bankAccountID), slog.Any("error", err))
			}
			return r.repo.GetByCode(ctx, CodeBankGeneric)
		}
		return r.repo.GetByCode(ctx, code)
	case "":
		return r.repo.GetByCode(ctx, CodeAP)
	default:
		return Account{}, fmt.Errorf("coa: unknown payment method %q", method)
	}
}

// ResolveCode fetches an account by well-known code.
func (r *Resolver) ResolveCode(ctx context.Context, code string) (Account, error) {
	return r.repo.GetByCode(ctx, code)
}

func (r *Resolver) bankCOACode(ctx context.Context, bankAccountID int64) (string, error) {
	key := fmt.Sprintf("coa:bank:%d", bankAccountID)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, key).Result(); err == nil {
			return cached, nil
		}
	}
	bank, err := r.repo.GetBankAccount(ctx, bankAccountID)
	if err != nil {
		return "", err
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, bank.COACode, bankCOATTL).Err(); err != nil {
			r.logger.Warn("bank COA cache set failed", slog.Any("error", err))
		}
	}
	return bank.COACode, nil
}

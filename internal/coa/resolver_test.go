package coa

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryAccounts struct {
	byCode    map[string]Account
	banks     map[int64]BankAccount
	bankReads int
}

func newMemoryAccounts(codes ...string) *memoryAccounts {
	m := &memoryAccounts{byCode: make(map[string]Account), banks: make(map[int64]BankAccount)}
	for i, code := range codes {
		m.byCode[code] = Account{ID: int64(i + 1), Code: code, IsActive: true}
	}
	return m
}

func (m *memoryAccounts) GetByCode(_ context.Context, code string) (Account, error) {
	if a, ok := m.byCode[code]; ok {
		return a, nil
	}
	return Account{}, ErrAccountNotFound
}

func (m *memoryAccounts) GetBankAccount(_ context.Context, id int64) (BankAccount, error) {
	m.bankReads++
	if b, ok := m.banks[id]; ok {
		return b, nil
	}
	return BankAccount{}, ErrBankAccountNotFound
}

func (m *memoryAccounts) ListActive(context.Context) ([]Account, error) {
	out := make([]Account, 0, len(m.byCode))
	for _, a := range m.byCode {
		out = append(out, a)
	}
	return out, nil
}

func TestEveryCategoryMapped(t *testing.T) {
	for category, code := range expenseCategoryCodes {
		require.Len(t, code, 4, "category %s maps to malformed code %s", category, code)
	}
}

func TestResolveExpenseAccountFallsBackToMisc(t *testing.T) {
	repo := newMemoryAccounts(CodeMiscExpense, CodeFreightExpense)
	resolver := NewResolver(repo, nil, nil)

	acc, err := resolver.ResolveExpenseAccount(context.Background(), "freight")
	require.NoError(t, err)
	require.Equal(t, CodeFreightExpense, acc.Code)

	acc, err = resolver.ResolveExpenseAccount(context.Background(), "entirely-new-category")
	require.NoError(t, err)
	require.Equal(t, CodeMiscExpense, acc.Code)
}

func TestResolvePaymentAccountBranches(t *testing.T) {
	repo := newMemoryAccounts(CodeCashOnHand, CodePettyCash, CodeBankGeneric, CodeAP, "1111")
	repo.banks[7] = BankAccount{ID: 7, COACode: "1111", IsActive: true}
	resolver := NewResolver(repo, nil, nil)
	ctx := context.Background()

	acc, err := resolver.ResolvePaymentAccount(ctx, PaymentCash, nil)
	require.NoError(t, err)
	require.Equal(t, CodeCashOnHand, acc.Code)

	acc, err = resolver.ResolvePaymentAccount(ctx, PaymentPettyCash, nil)
	require.NoError(t, err)
	require.Equal(t, CodePettyCash, acc.Code)

	bankID := int64(7)
	acc, err = resolver.ResolvePaymentAccount(ctx, PaymentBankTransfer, &bankID)
	require.NoError(t, err)
	require.Equal(t, "1111", acc.Code)

	// Unlinked bank account falls back to the generic bank code.
	unknown := int64(99)
	acc, err = resolver.ResolvePaymentAccount(ctx, PaymentBankTransfer, &unknown)
	require.NoError(t, err)
	require.Equal(t, CodeBankGeneric, acc.Code)

	// Unpaid documents credit accounts payable.
	acc, err = resolver.ResolvePaymentAccount(ctx, "", nil)
	require.NoError(t, err)
	require.Equal(t, CodeAP, acc.Code)

	_, err = resolver.ResolvePaymentAccount(ctx, "carrier_pigeon", nil)
	require.Error(t, err)
}

func TestBankCOACacheHitsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryAccounts(CodeBankGeneric, "1112")
	repo.banks[3] = BankAccount{ID: 3, COACode: "1112", IsActive: true}
	resolver := NewResolver(repo, client, nil)
	ctx := context.Background()

	bankID := int64(3)
	for i := 0; i < 3; i++ {
		acc, err := resolver.ResolvePaymentAccount(ctx, PaymentBankTransfer, &bankID)
		require.NoError(t, err)
		require.Equal(t, "1112", acc.Code)
	}
	require.Equal(t, 1, repo.bankReads, "repeated lookups should come from cache")
}

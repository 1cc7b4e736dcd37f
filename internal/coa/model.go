// Package coa holds the chart of accounts and the account resolution rules
// every posting path shares. Posting code never hard-codes account ids; it
// asks the resolver, so receipt vouchers and payment vouchers cannot drift
// onto different bank accounts for the same payment method.
package coa

import (
	"errors"
	"time"
)

// AccountType classifies an account for reporting ranges.
type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeRevenue   AccountType = "revenue"
	TypeExpense   AccountType = "expense"
	TypeContra    AccountType = "contra"
)

// NormalBalance marks which side increases the account.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// Account is a chart-of-accounts row. Codes are 4-digit strings grouped by
// leading digit (1xxx asset .. 6xxx/7xxx expense); external reports key off
// these ranges.
type Account struct {
	ID            int64
	Code          string
	Name          string
	Type          AccountType
	ParentID      *int64
	NormalBalance NormalBalance
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BankAccount links an operating bank account to its ledger account code.
type BankAccount struct {
	ID            int64
	Name          string
	AccountNumber string
	Currency      string
	COACode       string
	IsActive      bool
}

var (
	// ErrAccountNotFound indicates a referenced COA row is missing or inactive.
	ErrAccountNotFound = errors.New("coa: account not found")
	// ErrBankAccountNotFound indicates an unknown bank account id.
	ErrBankAccountNotFound = errors.New("coa: bank account not found")
)

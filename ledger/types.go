/*
Package ledger provides the account and transaction-posting engine.

PURPOSE:
  This package contains the domain types and the two core components of the
  system: the AccountLedger, which owns account records and their balances,
  and the Poster, which validates and applies transactions against the ledger
  inside an atomic unit of work.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A named bucket of money with an anchored initial balance
  - Transaction: A debit, credit, or transfer between accounts
  - Date: A calendar day with no time component (how transactions are dated)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Single mutator: currentBalance changes only through AdjustBalance
  3. Immutability: Transactions are never edited; corrections are
     delete + repost

SEE ALSO:
  - accounts.go: AccountLedger operations
  - poster.go: Transaction posting and reversal
  - store.go: Persistence interfaces
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type TransactionID string

// =============================================================================
// ACCOUNT - A named bucket of money
// =============================================================================

type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// ValidAccountType reports whether t is one of the closed set of account
// categories.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment:
		return true
	}
	return false
}

// Account is a household bank account.
//
// INVARIANTS:
//   - InitialBalance is fixed at creation and never mutated afterward.
//   - CurrentBalance equals InitialBalance plus the signed sum of all
//     non-deleted transactions referencing this account (credits add,
//     debits subtract).
//   - CurrentBalance is mutated only by AccountLedger.AdjustBalance.
type Account struct {
	ID             AccountID
	Name           string
	Type           AccountType
	InitialBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// =============================================================================
// TRANSACTION - Atomic movement of money
// =============================================================================

type TransactionType string

const (
	TxDebit    TransactionType = "debit"    // Money leaves one account
	TxCredit   TransactionType = "credit"   // Money enters one account
	TxTransfer TransactionType = "transfer" // Debit + credit between two accounts
)

// ValidTransactionType reports whether t is one of the closed set of
// transaction kinds.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TxDebit, TxCredit, TxTransfer:
		return true
	}
	return false
}

// Transaction records a posted balance change. Once posted it is immutable;
// a correction is modeled as delete + repost.
//
// SourceAccountID is set iff Type is debit or transfer.
// DestinationAccountID is set iff Type is credit or transfer.
type Transaction struct {
	ID                   TransactionID
	Type                 TransactionType
	Amount               decimal.Decimal
	Date                 Date
	Description          string
	SourceAccountID      AccountID
	DestinationAccountID AccountID
	CreatedAt            time.Time
}

// References reports whether the transaction references the given account as
// source or destination.
func (t Transaction) References(id AccountID) bool {
	return t.SourceAccountID == id || t.DestinationAccountID == id
}

// AdjustDirection selects which side of AdjustBalance applies.
type AdjustDirection string

const (
	DirectionDebit  AdjustDirection = "debit"  // Decrement, guarded by sufficient funds
	DirectionCredit AdjustDirection = "credit" // Increment, unconditional
)

// =============================================================================
// DATE - Calendar day without a time component
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar date. Transactions carry dates, not timestamps; two
// transactions on the same day are ordered by creation order.
type Date struct {
	Time time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Time: t}, nil
}

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string         { return d.Time.Format(dateLayout) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

// =============================================================================
// LISTING FILTER
// =============================================================================

// TransactionFilter narrows Poster.List. Zero values mean "no constraint".
// AccountID matches transactions where the account appears as source OR
// destination. Date bounds are inclusive.
type TransactionFilter struct {
	AccountID AccountID
	StartDate Date
	EndDate   Date
}

// Matches reports whether tx satisfies the filter.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if f.AccountID != "" && !tx.References(f.AccountID) {
		return false
	}
	if !f.StartDate.IsZero() && tx.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && tx.Date.After(f.EndDate) {
		return false
	}
	return true
}

/*
store.go - Persistence interface for accounts and transactions

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Account and transaction persistence
  TxStore: Adds WithTx for atomic multi-write units of work

BALANCE MUTATION CONTRACT:
  The account write surface is split on purpose:
  - UpdateAccountInfo changes name/type only
  - UpdateAccountBalance changes currentBalance only
  Nothing in the store can touch initialBalance after InsertAccount, and
  the domain layer calls UpdateAccountBalance exclusively from
  AccountLedger.AdjustBalance.

UNITS OF WORK:
  WithTx() ensures all-or-nothing semantics. Posting a transfer (debit one
  account, credit another, write the record) either applies fully or not at
  all. Implementations must also serialize concurrent units of work touching
  the same account, so two debits cannot both pass the sufficient-funds
  check against a stale balance.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - store/memory: In-memory store for testing/dev

SEE ALSO:
  - accounts.go: AccountLedger using Store
  - poster.go: Poster using TxStore
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Persistence for accounts and transactions
// =============================================================================

// Store handles persistence. Get methods return (nil, nil) when the record
// does not exist; the domain layer converts that to not-found errors.
type Store interface {
	// InsertAccount persists a new account, including both balances.
	InsertAccount(ctx context.Context, a Account) error

	// GetAccount returns an account by ID, or (nil, nil) if absent.
	GetAccount(ctx context.Context, id AccountID) (*Account, error)

	// ListAccounts returns all accounts sorted by name ascending.
	ListAccounts(ctx context.Context) ([]Account, error)

	// UpdateAccountInfo mutates name and type only, stamping updatedAt. The
	// caller supplies the timestamp so the returned domain value and the
	// stored row carry the same one.
	UpdateAccountInfo(ctx context.Context, id AccountID, name string, accountType AccountType, updatedAt time.Time) error

	// UpdateAccountBalance mutates currentBalance only.
	// Called exclusively by AccountLedger.AdjustBalance.
	UpdateAccountBalance(ctx context.Context, id AccountID, balance decimal.Decimal) error

	// DeleteAccount removes the account row.
	DeleteAccount(ctx context.Context, id AccountID) error

	// CountAccountTransactions returns how many transactions reference the
	// account as source or destination.
	CountAccountTransactions(ctx context.Context, id AccountID) (int, error)

	// InsertTransaction persists a posted transaction.
	InsertTransaction(ctx context.Context, tx Transaction) error

	// GetTransaction returns a transaction by ID, or (nil, nil) if absent.
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)

	// ListTransactions returns transactions matching the filter, ordered by
	// date descending with creation order descending as tie-break.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	// DeleteTransaction removes the transaction row.
	DeleteTransaction(ctx context.Context, id TransactionID) error
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic units of work
// =============================================================================

// TxStore wraps Store with unit-of-work support.
type TxStore interface {
	Store

	// WithTx executes fn within one atomic unit of work. The Store passed to
	// fn is scoped to that unit: if fn returns an error, every write made
	// through it is discarded; if fn returns nil, all writes commit together.
	WithTx(ctx context.Context, fn func(Store) error) error
}

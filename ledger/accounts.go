/*
accounts.go - Account Ledger

PURPOSE:
  The AccountLedger owns account records and their balances. It exposes
  CRUD operations plus the single balance-adjustment primitive that every
  transaction posting and reversal goes through.

CRITICAL INVARIANTS:
  1. initialBalance is fixed at creation. There is no code path that
     changes it afterward - balance history must stay anchored.
  2. AdjustBalance is the SOLE mutator of currentBalance.
  3. Deleting an account is refused while any transaction references it.

WHY ONE ADJUSTMENT PRIMITIVE?
  Centralizing balance mutation in one primitive with a single
  pre-condition (sufficient funds on debit) guarantees the ledger
  invariant holds after every transaction regardless of type: a transfer
  is one debit + one credit through this same primitive.

SEE ALSO:
  - poster.go: Calls AdjustBalance inside units of work
  - store.go: Persistence interfaces
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT LEDGER
// =============================================================================

// AccountLedger owns account records and balances.
type AccountLedger struct {
	store TxStore
}

// NewAccountLedger creates an AccountLedger on top of the given store.
func NewAccountLedger(store TxStore) *AccountLedger {
	return &AccountLedger{store: store}
}

// CreateAccountInput carries the fields for account creation.
type CreateAccountInput struct {
	Name           string
	Type           AccountType
	InitialBalance decimal.Decimal
}

// AccountPatch carries optional updates for Update. Nil fields are left
// untouched. InitialBalance is deliberately absent: it is immutable
// post-creation.
type AccountPatch struct {
	Name *string
	Type *AccountType
}

// Create validates the input and persists a new account with
// currentBalance = initialBalance.
func (l *AccountLedger) Create(ctx context.Context, in CreateAccountInput) (*Account, error) {
	if in.Name == "" {
		return nil, validationErr("Name and type are required for account creation.")
	}
	if in.Type == "" {
		return nil, validationErr("Name and type are required for account creation.")
	}
	if !ValidAccountType(in.Type) {
		return nil, validationErr("Invalid account type.")
	}
	if in.InitialBalance.IsNegative() {
		return nil, validationErr("Initial balance cannot be negative.")
	}

	now := time.Now().UTC()
	account := Account{
		ID:             AccountID(uuid.New().String()),
		Name:           in.Name,
		Type:           in.Type,
		InitialBalance: in.InitialBalance,
		CurrentBalance: in.InitialBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := l.store.InsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

// Get returns the account with the given ID.
func (l *AccountLedger) Get(ctx context.Context, id AccountID) (*Account, error) {
	if id == "" {
		return nil, validationErr("Account ID is required.")
	}
	account, err := l.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// List returns all accounts sorted by name ascending.
func (l *AccountLedger) List(ctx context.Context) ([]Account, error) {
	return l.store.ListAccounts(ctx)
}

// Update mutates name and/or type. initialBalance is not updatable
// post-creation. The read-validate-write runs inside one unit of work so
// concurrent updates cannot interleave, and the stored row carries the same
// updatedAt as the returned account.
func (l *AccountLedger) Update(ctx context.Context, id AccountID, patch AccountPatch) (*Account, error) {
	if id == "" {
		return nil, validationErr("Account ID is required.")
	}

	var updated *Account
	err := l.store.WithTx(ctx, func(s Store) error {
		account, err := s.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}

		if patch.Name != nil {
			if *patch.Name == "" {
				return validationErr("Account name cannot be empty.")
			}
			account.Name = *patch.Name
		}
		if patch.Type != nil {
			if !ValidAccountType(*patch.Type) {
				return validationErr("Invalid account type.")
			}
			account.Type = *patch.Type
		}

		account.UpdatedAt = time.Now().UTC()
		if err := s.UpdateAccountInfo(ctx, id, account.Name, account.Type, account.UpdatedAt); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an account. It fails with AccountInUseError while any
// transaction references the account as source or destination, and with
// ErrAccountNotFound for unknown IDs. The existence check and the delete run
// inside one unit of work so a concurrent posting cannot slip a reference in
// between them.
func (l *AccountLedger) Delete(ctx context.Context, id AccountID) error {
	if id == "" {
		return validationErr("Account ID is required for deletion.")
	}

	return l.store.WithTx(ctx, func(s Store) error {
		account, err := s.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}

		count, err := s.CountAccountTransactions(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return &AccountInUseError{AccountID: id, Count: count}
		}

		return s.DeleteAccount(ctx, id)
	})
}

// =============================================================================
// BALANCE ADJUSTMENT - The sole mutator of currentBalance
// =============================================================================

// AdjustBalance applies a debit or credit of amount to the account, through
// the caller's unit-of-work-scoped store handle. Must run inside WithTx so
// the read-check-write sequence commits or aborts with the rest of the unit.
//
// Debits fail with InsufficientFundsError when currentBalance < amount.
// Credits increment unconditionally: overdraft is only checked on the
// debiting side.
func (l *AccountLedger) AdjustBalance(ctx context.Context, s Store, id AccountID, amount decimal.Decimal, direction AdjustDirection) (*Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", id, ErrAccountNotFound)
	}

	switch direction {
	case DirectionDebit:
		if account.CurrentBalance.LessThan(amount) {
			return nil, &InsufficientFundsError{
				AccountID:   account.ID,
				AccountName: account.Name,
				Available:   account.CurrentBalance,
				Requested:   amount,
			}
		}
		account.CurrentBalance = account.CurrentBalance.Sub(amount)
	case DirectionCredit:
		account.CurrentBalance = account.CurrentBalance.Add(amount)
	default:
		return nil, validationErr("Invalid adjustment direction %q.", direction)
	}

	if err := s.UpdateAccountBalance(ctx, id, account.CurrentBalance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	return account, nil
}

/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these onto HTTP status codes without inspecting
  error strings.

ERROR CATEGORIES:
  1. Validation errors - Missing or malformed input
  2. Funds errors - Debits exceeding the available balance
  3. Referential errors - Deletes blocked by existing references
  4. Not-found errors - Unknown account or transaction IDs

USAGE:
  Callers classify with errors.Is or the helpers below:

    if errors.Is(err, ledger.ErrInsufficientFunds) { ... }
    if ledger.IsNotFound(err) { ... }

SEE ALSO:
  - accounts.go: Uses these errors
  - poster.go: Uses these errors
  - api/handlers.go: Maps these to HTTP statuses
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a referenced transaction doesn't exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInsufficientFunds is returned when a debit exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountInUse is returned when deleting an account that transactions
	// still reference as source or destination.
	ErrAccountInUse = errors.New("account has associated transactions")

	// ErrNonPositiveAmount is returned when a transaction amount is zero or
	// negative.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError provides details about a balance shortage.
type InsufficientFundsError struct {
	AccountID   AccountID
	AccountName string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: available %s, requested %s",
		e.AccountName, e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// AccountInUseError provides details about a delete blocked by references.
type AccountInUseError struct {
	AccountID AccountID
	Count     int
}

func (e *AccountInUseError) Error() string {
	return fmt.Sprintf("cannot delete account %s: %d transaction(s) reference it", e.AccountID, e.Count)
}

func (e *AccountInUseError) Unwrap() error {
	return ErrAccountInUse
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsConflict returns true if the error indicates a delete blocked by
// referential integrity.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAccountInUse)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrInsufficientFunds)
}

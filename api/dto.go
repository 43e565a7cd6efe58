/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CONVENTIONS:
  Monetary amounts are JSON numbers; dates are YYYY-MM-DD strings.
  Field names are camelCase to match the frontend contract.

VALIDATION:
  Validation is done in the domain layer, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/finance-ledger/ledger"
)

// =============================================================================
// ACCOUNT TYPES
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	InitialBalance float64 `json:"initialBalance"`
	CurrentBalance float64 `json:"currentBalance"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	UpdatedAt      string  `json:"updatedAt,omitempty"`
}

// CreateAccountRequest is the request to create an account.
type CreateAccountRequest struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	InitialBalance float64 `json:"initialBalance"`
}

// UpdateAccountRequest is the request to rename or retype an account.
// initialBalance is absent on purpose: it is immutable post-creation.
type UpdateAccountRequest struct {
	Name *string `json:"name,omitempty"`
	Type *string `json:"type,omitempty"`
}

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// TransactionDTO represents a posted transaction in API responses.
type TransactionDTO struct {
	ID                   string  `json:"id"`
	Type                 string  `json:"type"`
	Amount               float64 `json:"amount"`
	Date                 string  `json:"date"`
	Description          string  `json:"description,omitempty"`
	SourceAccountID      string  `json:"sourceAccountId,omitempty"`
	DestinationAccountID string  `json:"destinationAccountId,omitempty"`
	CreatedAt            string  `json:"createdAt,omitempty"`
}

// CreateTransactionRequest is the request to post a transaction.
type CreateTransactionRequest struct {
	Type                 string  `json:"type"`
	Amount               float64 `json:"amount"`
	Date                 string  `json:"date"`
	Description          string  `json:"description,omitempty"`
	SourceAccountID      string  `json:"sourceAccountId,omitempty"`
	DestinationAccountID string  `json:"destinationAccountId,omitempty"`
}

// ErrorResponse is returned for all error statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toAccountDTO(a *ledger.Account) AccountDTO {
	initial, _ := a.InitialBalance.Float64()
	current, _ := a.CurrentBalance.Float64()
	return AccountDTO{
		ID:             string(a.ID),
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: initial,
		CurrentBalance: current,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTO(tx *ledger.Transaction) TransactionDTO {
	amount, _ := tx.Amount.Float64()
	return TransactionDTO{
		ID:                   string(tx.ID),
		Type:                 string(tx.Type),
		Amount:               amount,
		Date:                 tx.Date.String(),
		Description:          tx.Description,
		SourceAccountID:      string(tx.SourceAccountID),
		DestinationAccountID: string(tx.DestinationAccountID),
		CreatedAt:            tx.CreatedAt.Format(time.RFC3339),
	}
}

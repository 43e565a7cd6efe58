/*
handlers.go - HTTP API handlers for the finance ledger

PURPOSE:
  Exposes the account ledger and transaction poster via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/accounts           List all accounts (sorted by name)
    POST   /api/accounts           Create account
    GET    /api/accounts/{id}      Get account details
    PUT    /api/accounts/{id}      Rename/retype account
    DELETE /api/accounts/{id}      Delete account (refused while referenced)

  Transactions:
    GET    /api/transactions       List (filters: accountId, startDate, endDate)
    POST   /api/transactions       Post a transaction
    GET    /api/transactions/{id}  Get transaction details
    DELETE /api/transactions/{id}  Delete with inverse balance adjustments

ERROR HANDLING:
  Domain errors map onto HTTP statuses:
  - 400: Validation errors, non-positive amounts, insufficient funds
  - 404: Unknown account or transaction
  - 409: Account delete blocked by referencing transactions
  - 500: Internal errors (reported generically, no internals leaked)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/finance-ledger/ledger"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *ledger.AccountLedger
	Poster *ledger.Poster
}

// NewHandler creates a new handler over the ledger and poster.
func NewHandler(accountLedger *ledger.AccountLedger, poster *ledger.Poster) *Handler {
	return &Handler{Ledger: accountLedger, Poster: poster}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts sorted by name.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Ledger.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to list accounts")
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	account, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "Failed to get account")
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// CreateAccount creates a new account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account, err := h.Ledger.Create(r.Context(), ledger.CreateAccountInput{
		Name:           req.Name,
		Type:           ledger.AccountType(req.Type),
		InitialBalance: decimal.NewFromFloat(req.InitialBalance),
	})
	if err != nil {
		writeDomainError(w, err, "Failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

// UpdateAccount renames or retypes an account.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := ledger.AccountPatch{Name: req.Name}
	if req.Type != nil {
		t := ledger.AccountType(*req.Type)
		patch.Type = &t
	}

	account, err := h.Ledger.Update(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, err, "Failed to update account")
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// DeleteAccount removes an account with no referencing transactions.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns transactions matching the optional accountId,
// startDate and endDate query parameters, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter ledger.TransactionFilter
	q := r.URL.Query()

	filter.AccountID = ledger.AccountID(q.Get("accountId"))
	if s := q.Get("startDate"); s != "" {
		d, err := ledger.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid startDate (use YYYY-MM-DD)", err)
			return
		}
		filter.StartDate = d
	}
	if s := q.Get("endDate"); s != "" {
		d, err := ledger.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid endDate (use YYYY-MM-DD)", err)
			return
		}
		filter.EndDate = d
	}

	txs, err := h.Poster.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, "Failed to list transactions")
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i := range txs {
		dtos[i] = toTransactionDTO(&txs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTransaction returns a single transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	tx, err := h.Poster.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "Failed to get transaction")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// CreateTransaction posts a transaction atomically against the ledger.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := ledger.PostInput{
		Type:                 ledger.TransactionType(req.Type),
		Amount:               decimal.NewFromFloat(req.Amount),
		Description:          req.Description,
		SourceAccountID:      ledger.AccountID(req.SourceAccountID),
		DestinationAccountID: ledger.AccountID(req.DestinationAccountID),
	}
	if req.Date != "" {
		d, err := ledger.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		in.Date = d
	}

	tx, err := h.Poster.Post(r.Context(), in)
	if err != nil {
		writeDomainError(w, err, "Failed to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// DeleteTransaction reverses and removes a transaction atomically.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	if err := h.Poster.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "Failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses. Unexpected errors
// are reported generically so internals don't leak.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, fallback, nil)
	}
}

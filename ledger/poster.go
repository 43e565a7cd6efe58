/*
poster.go - Transaction Poster

PURPOSE:
  The Poster validates incoming transactions, classifies them by type,
  resolves the account roles each type requires, and applies the balance
  adjustments plus the record write inside one atomic unit of work.
  Deletion runs the inverse adjustments before removing the record.

ACCOUNT ROLES BY TYPE:
  debit:    source required        (balance decremented)
  credit:   destination required   (balance incremented)
  transfer: both required, must differ (one debit + one credit)

ATOMICITY:
  Every Post and Delete runs inside TxStore.WithTx. A failure at any step
  discards all balance changes attempted in that call; either the record
  and its full balance effect exist together or neither does.

REVERSAL EDGE CASE:
  Deleting a credit/transfer debits the destination back. If the
  destination balance has since dropped below the original amount through
  other transactions, the reversal fails with InsufficientFundsError and
  the transaction stays posted. This mirrors how posting never forces a
  balance negative.

SEE ALSO:
  - accounts.go: AdjustBalance primitive
  - store.go: TxStore unit-of-work contract
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
// POSTER
// =============================================================================

// Poster applies and reverses transactions against the AccountLedger.
// The ledger never calls back into the Poster.
type Poster struct {
	store  TxStore
	ledger *AccountLedger
}

// NewPoster creates a Poster using the given store and account ledger.
func NewPoster(store TxStore, ledger *AccountLedger) *Poster {
	return &Poster{store: store, ledger: ledger}
}

// PostInput carries the fields for transaction posting.
type PostInput struct {
	Type                 TransactionType
	Amount               decimal.Decimal
	Date                 Date
	Description          string
	SourceAccountID      AccountID
	DestinationAccountID AccountID
}

// Post validates the input and applies the transaction as one atomic unit of
// work: required balance adjustments first, then the record write. On any
// failure nothing is persisted.
func (p *Poster) Post(ctx context.Context, in PostInput) (*Transaction, error) {
	if !ValidTransactionType(in.Type) {
		return nil, validationErr("Invalid transaction type.")
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("transaction amount %s: %w", in.Amount, ErrNonPositiveAmount)
	}
	if in.Date.IsZero() {
		return nil, validationErr("Transaction date is required.")
	}

	tx := Transaction{
		ID:          TransactionID(uuid.New().String()),
		Type:        in.Type,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}

	err := p.store.WithTx(ctx, func(s Store) error {
		if in.Type == TxDebit || in.Type == TxTransfer {
			if in.SourceAccountID == "" {
				return validationErr("Source account is required for debit/transfer.")
			}
			if _, err := p.ledger.AdjustBalance(ctx, s, in.SourceAccountID, in.Amount, DirectionDebit); err != nil {
				return err
			}
			tx.SourceAccountID = in.SourceAccountID
		}

		if in.Type == TxCredit || in.Type == TxTransfer {
			if in.DestinationAccountID == "" {
				return validationErr("Destination account is required for credit/transfer.")
			}
			if in.Type == TxTransfer && in.SourceAccountID == in.DestinationAccountID {
				return validationErr("Source and destination accounts cannot be the same for a transfer.")
			}
			if _, err := p.ledger.AdjustBalance(ctx, s, in.DestinationAccountID, in.Amount, DirectionCredit); err != nil {
				return err
			}
			tx.DestinationAccountID = in.DestinationAccountID
		}

		return s.InsertTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Get returns the transaction with the given ID.
func (p *Poster) Get(ctx context.Context, id TransactionID) (*Transaction, error) {
	if id == "" {
		return nil, validationErr("Transaction ID is required.")
	}
	tx, err := p.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// List returns transactions matching the filter, ordered by date descending
// and tie-broken by creation order descending.
func (p *Poster) List(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	return p.store.ListTransactions(ctx, filter)
}

// Delete removes a posted transaction after applying the inverse balance
// adjustments, all inside one unit of work. For debit/transfer the source is
// credited back; for credit/transfer the destination is debited back, which
// fails with InsufficientFundsError if its balance has since dropped below
// the original amount. In that case the unit aborts and the transaction
// remains posted.
func (p *Poster) Delete(ctx context.Context, id TransactionID) error {
	if id == "" {
		return validationErr("Transaction ID is required for deletion.")
	}

	return p.store.WithTx(ctx, func(s Store) error {
		tx, err := s.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if tx == nil {
			return ErrTransactionNotFound
		}

		if tx.Type == TxDebit || tx.Type == TxTransfer {
			if _, err := p.ledger.AdjustBalance(ctx, s, tx.SourceAccountID, tx.Amount, DirectionCredit); err != nil {
				return err
			}
		}
		if tx.Type == TxCredit || tx.Type == TxTransfer {
			if _, err := p.ledger.AdjustBalance(ctx, s, tx.DestinationAccountID, tx.Amount, DirectionDebit); err != nil {
				return err
			}
		}

		return s.DeleteTransaction(ctx, id)
	})
}

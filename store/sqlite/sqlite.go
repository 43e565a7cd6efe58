/*
Package sqlite provides a SQLite-backed implementation of ledger.TxStore.

PURPOSE:
  Implements account and transaction persistence using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

UNITS OF WORK:
  WithTx wraps a database transaction: the store handle passed to the
  callback routes every read and write through the same sql.Tx, so a
  posting (adjust balances + write record) commits or rolls back as one.

CONCURRENCY:
  A sync.RWMutex serializes units of work. Combined with the transaction
  boundary this makes the balance check-then-write sequence safe: two
  concurrent debits against one account cannot both pass the
  sufficient-funds check against a stale balance.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

DECIMALS AND DATES:
  Monetary values are stored as TEXT decimal strings, never floats.
  Transaction dates are stored as YYYY-MM-DD TEXT, which compares
  correctly as a string for range filters.

USAGE:
  store, err := sqlite.New("./data/finance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/finance-ledger/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		account_type TEXT NOT NULL,
		initial_balance TEXT NOT NULL,
		current_balance TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_name ON accounts(name);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		tx_date TEXT NOT NULL,
		description TEXT,
		source_account_id TEXT,
		destination_account_id TEXT,
		created_at TEXT NOT NULL
	);

	-- Listing hot path: date descending, rowid breaks same-day ties
	CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(tx_date DESC);

	-- Referential-integrity checks on account deletion
	CREATE INDEX IF NOT EXISTS idx_transactions_source
		ON transactions(source_account_id) WHERE source_account_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_destination
		ON transactions(destination_account_id) WHERE destination_account_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same query helpers
// serve direct calls and units of work.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ACCOUNT STORE (ledger.Store interface)
// =============================================================================

func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertAccount(ctx, s.db, a)
}

func (s *Store) GetAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccount(ctx, s.db, id)
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAccounts(ctx, s.db)
}

func (s *Store) UpdateAccountInfo(ctx context.Context, id ledger.AccountID, name string, accountType ledger.AccountType, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateAccountInfo(ctx, s.db, id, name, accountType, updatedAt)
}

func (s *Store) UpdateAccountBalance(ctx context.Context, id ledger.AccountID, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateAccountBalance(ctx, s.db, id, balance)
}

func (s *Store) DeleteAccount(ctx context.Context, id ledger.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteAccount(ctx, s.db, id)
}

func (s *Store) CountAccountTransactions(ctx context.Context, id ledger.AccountID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countAccountTransactions(ctx, s.db, id)
}

// =============================================================================
// TRANSACTION STORE (ledger.Store interface)
// =============================================================================

func (s *Store) InsertTransaction(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertTransaction(ctx, s.db, tx)
}

func (s *Store) GetTransaction(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTransaction(ctx, s.db, id)
}

func (s *Store) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listTransactions(ctx, s.db, filter)
}

func (s *Store) DeleteTransaction(ctx context.Context, id ledger.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteTransaction(ctx, s.db, id)
}

// =============================================================================
// UNIT OF WORK (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The write lock is held
// for the whole unit, serializing concurrent balance read-modify-writes.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes every operation through one sql.Tx. The parent already
// holds the write lock, so no locking happens here.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) InsertAccount(ctx context.Context, a ledger.Account) error {
	return insertAccount(ctx, ts.tx, a)
}

func (ts *txStore) GetAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	return getAccount(ctx, ts.tx, id)
}

func (ts *txStore) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return listAccounts(ctx, ts.tx)
}

func (ts *txStore) UpdateAccountInfo(ctx context.Context, id ledger.AccountID, name string, accountType ledger.AccountType, updatedAt time.Time) error {
	return updateAccountInfo(ctx, ts.tx, id, name, accountType, updatedAt)
}

func (ts *txStore) UpdateAccountBalance(ctx context.Context, id ledger.AccountID, balance decimal.Decimal) error {
	return updateAccountBalance(ctx, ts.tx, id, balance)
}

func (ts *txStore) DeleteAccount(ctx context.Context, id ledger.AccountID) error {
	return deleteAccount(ctx, ts.tx, id)
}

func (ts *txStore) CountAccountTransactions(ctx context.Context, id ledger.AccountID) (int, error) {
	return countAccountTransactions(ctx, ts.tx, id)
}

func (ts *txStore) InsertTransaction(ctx context.Context, tx ledger.Transaction) error {
	return insertTransaction(ctx, ts.tx, tx)
}

func (ts *txStore) GetTransaction(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	return getTransaction(ctx, ts.tx, id)
}

func (ts *txStore) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	return listTransactions(ctx, ts.tx, filter)
}

func (ts *txStore) DeleteTransaction(ctx context.Context, id ledger.TransactionID) error {
	return deleteTransaction(ctx, ts.tx, id)
}

// =============================================================================
// QUERY HELPERS - Shared between *sql.DB and *sql.Tx
// =============================================================================

func insertAccount(ctx context.Context, db dbtx, a ledger.Account) error {
	query := `
		INSERT INTO accounts
		(id, name, account_type, initial_balance, current_balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.Type,
		a.InitialBalance.String(),
		a.CurrentBalance.String(),
		a.CreatedAt.Format(time.RFC3339Nano),
		a.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func getAccount(ctx context.Context, db dbtx, id ledger.AccountID) (*ledger.Account, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, account_type, initial_balance, current_balance, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id)

	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func listAccounts(ctx context.Context, db dbtx) ([]ledger.Account, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, account_type, initial_balance, current_balance, created_at, updated_at
		FROM accounts
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func updateAccountInfo(ctx context.Context, db dbtx, id ledger.AccountID, name string, accountType ledger.AccountType, updatedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, account_type = ?, updated_at = ?
		WHERE id = ?
	`, name, accountType, updatedAt.Format(time.RFC3339Nano), id)
	return err
}

func updateAccountBalance(ctx context.Context, db dbtx, id ledger.AccountID, balance decimal.Decimal) error {
	_, err := db.ExecContext(ctx, `
		UPDATE accounts SET current_balance = ?, updated_at = ?
		WHERE id = ?
	`, balance.String(), time.Now().UTC().Format(time.RFC3339Nano), id)
	return err
}

func deleteAccount(ctx context.Context, db dbtx, id ledger.AccountID) error {
	_, err := db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	return err
}

func countAccountTransactions(ctx context.Context, db dbtx, id ledger.AccountID) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE source_account_id = ? OR destination_account_id = ?
	`, id, id).Scan(&count)
	return count, err
}

func insertTransaction(ctx context.Context, db dbtx, tx ledger.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, tx_type, amount, tx_date, description, source_account_id, destination_account_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		tx.ID,
		tx.Type,
		tx.Amount.String(),
		tx.Date.String(),
		nullString(tx.Description),
		nullString(string(tx.SourceAccountID)),
		nullString(string(tx.DestinationAccountID)),
		tx.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func getTransaction(ctx context.Context, db dbtx, id ledger.TransactionID) (*ledger.Transaction, error) {
	txs, err := queryTransactions(ctx, db, `
		SELECT id, tx_type, amount, tx_date, description, source_account_id, destination_account_id, created_at
		FROM transactions WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

func listTransactions(ctx context.Context, db dbtx, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	var (
		conds []string
		args  []any
	)

	if filter.AccountID != "" {
		conds = append(conds, "(source_account_id = ? OR destination_account_id = ?)")
		args = append(args, filter.AccountID, filter.AccountID)
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "tx_date >= ?")
		args = append(args, filter.StartDate.String())
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "tx_date <= ?")
		args = append(args, filter.EndDate.String())
	}

	query := `
		SELECT id, tx_type, amount, tx_date, description, source_account_id, destination_account_id, created_at
		FROM transactions
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// rowid gives true creation order within a date
	query += " ORDER BY tx_date DESC, rowid DESC"

	return queryTransactions(ctx, db, query, args...)
}

func deleteTransaction(ctx context.Context, db dbtx, id ledger.TransactionID) error {
	_, err := db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	return err
}

func queryTransactions(ctx context.Context, db dbtx, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// =============================================================================
// SCANNING
// =============================================================================

type scannable interface {
	Scan(dest ...any) error
}

func scanAccount(row scannable) (*ledger.Account, error) {
	var (
		a              ledger.Account
		initialBalance string
		currentBalance string
		createdAt      string
		updatedAt      string
	)

	err := row.Scan(&a.ID, &a.Name, &a.Type, &initialBalance, &currentBalance, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	a.InitialBalance = mustDecimal(initialBalance)
	a.CurrentBalance = mustDecimal(currentBalance)
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &a, nil
}

func scanTransaction(row scannable) (ledger.Transaction, error) {
	var (
		tx          ledger.Transaction
		amount      string
		txDate      string
		description sql.NullString
		source      sql.NullString
		destination sql.NullString
		createdAt   string
	)

	err := row.Scan(&tx.ID, &tx.Type, &amount, &txDate, &description, &source, &destination, &createdAt)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Amount = mustDecimal(amount)
	tx.Date, _ = ledger.ParseDate(txDate)
	tx.Description = description.String
	tx.SourceAccountID = ledger.AccountID(source.String)
	tx.DestinationAccountID = ledger.AccountID(destination.String)
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return tx, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

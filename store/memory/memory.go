/*
Package memory provides an in-memory implementation of ledger.TxStore
for testing and development.

The store keeps accounts in a map and transactions in insertion order.
WithTx clones the whole state, runs the unit of work against the clone,
and swaps the clone in only when the function succeeds - a failed unit
leaves the original state untouched, matching the all-or-nothing
semantics of the SQLite store.
*/
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/finance-ledger/ledger"
)

// Memory is an in-memory ledger.TxStore.
type Memory struct {
	mu sync.RWMutex
	st *state
}

// posted pairs a transaction with its creation sequence number, the
// tie-break for same-date ordering.
type posted struct {
	tx  ledger.Transaction
	seq int64
}

type state struct {
	accounts map[ledger.AccountID]ledger.Account
	txs      []posted
	nextSeq  int64
}

func New() *Memory {
	return &Memory{
		st: &state{accounts: make(map[ledger.AccountID]ledger.Account)},
	}
}

// =============================================================================
// STORE METHODS - Lock and delegate to the unlocked state
// =============================================================================

func (m *Memory) InsertAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertAccount(a)
}

func (m *Memory) GetAccount(_ context.Context, id ledger.AccountID) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getAccount(id)
}

func (m *Memory) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listAccounts()
}

func (m *Memory) UpdateAccountInfo(_ context.Context, id ledger.AccountID, name string, accountType ledger.AccountType, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.updateAccountInfo(id, name, accountType, updatedAt)
}

func (m *Memory) UpdateAccountBalance(_ context.Context, id ledger.AccountID, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.updateAccountBalance(id, balance)
}

func (m *Memory) DeleteAccount(_ context.Context, id ledger.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.deleteAccount(id)
}

func (m *Memory) CountAccountTransactions(_ context.Context, id ledger.AccountID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.countAccountTransactions(id)
}

func (m *Memory) InsertTransaction(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertTransaction(tx)
}

func (m *Memory) GetTransaction(_ context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getTransaction(id)
}

func (m *Memory) ListTransactions(_ context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listTransactions(filter)
}

func (m *Memory) DeleteTransaction(_ context.Context, id ledger.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.deleteTransaction(id)
}

// =============================================================================
// UNIT OF WORK - Clone, mutate, swap on success
// =============================================================================

// WithTx runs fn against a clone of the current state. Only when fn returns
// nil does the clone replace the live state; on error every write made inside
// the unit is discarded.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	shadow := m.st.clone()
	if err := fn(&txView{st: shadow}); err != nil {
		return err
	}
	m.st = shadow
	return nil
}

// txView exposes a cloned state as a ledger.Store. The parent holds the
// write lock for the whole unit, so no locking happens here.
type txView struct {
	st *state
}

func (v *txView) InsertAccount(_ context.Context, a ledger.Account) error {
	return v.st.insertAccount(a)
}

func (v *txView) GetAccount(_ context.Context, id ledger.AccountID) (*ledger.Account, error) {
	return v.st.getAccount(id)
}

func (v *txView) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	return v.st.listAccounts()
}

func (v *txView) UpdateAccountInfo(_ context.Context, id ledger.AccountID, name string, accountType ledger.AccountType, updatedAt time.Time) error {
	return v.st.updateAccountInfo(id, name, accountType, updatedAt)
}

func (v *txView) UpdateAccountBalance(_ context.Context, id ledger.AccountID, balance decimal.Decimal) error {
	return v.st.updateAccountBalance(id, balance)
}

func (v *txView) DeleteAccount(_ context.Context, id ledger.AccountID) error {
	return v.st.deleteAccount(id)
}

func (v *txView) CountAccountTransactions(_ context.Context, id ledger.AccountID) (int, error) {
	return v.st.countAccountTransactions(id)
}

func (v *txView) InsertTransaction(_ context.Context, tx ledger.Transaction) error {
	return v.st.insertTransaction(tx)
}

func (v *txView) GetTransaction(_ context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	return v.st.getTransaction(id)
}

func (v *txView) ListTransactions(_ context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	return v.st.listTransactions(filter)
}

func (v *txView) DeleteTransaction(_ context.Context, id ledger.TransactionID) error {
	return v.st.deleteTransaction(id)
}

// =============================================================================
// STATE - Unlocked core shared by Memory and txView
// =============================================================================

func (st *state) clone() *state {
	accounts := make(map[ledger.AccountID]ledger.Account, len(st.accounts))
	for id, a := range st.accounts {
		accounts[id] = a
	}
	txs := make([]posted, len(st.txs))
	copy(txs, st.txs)
	return &state{accounts: accounts, txs: txs, nextSeq: st.nextSeq}
}

func (st *state) insertAccount(a ledger.Account) error {
	st.accounts[a.ID] = a
	return nil
}

func (st *state) getAccount(id ledger.AccountID) (*ledger.Account, error) {
	a, ok := st.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (st *state) listAccounts() ([]ledger.Account, error) {
	accounts := make([]ledger.Account, 0, len(st.accounts))
	for _, a := range st.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Name < accounts[j].Name
	})
	return accounts, nil
}

func (st *state) updateAccountInfo(id ledger.AccountID, name string, accountType ledger.AccountType, updatedAt time.Time) error {
	a, ok := st.accounts[id]
	if !ok {
		return nil
	}
	a.Name = name
	a.Type = accountType
	a.UpdatedAt = updatedAt
	st.accounts[id] = a
	return nil
}

func (st *state) updateAccountBalance(id ledger.AccountID, balance decimal.Decimal) error {
	a, ok := st.accounts[id]
	if !ok {
		return nil
	}
	a.CurrentBalance = balance
	st.accounts[id] = a
	return nil
}

func (st *state) deleteAccount(id ledger.AccountID) error {
	delete(st.accounts, id)
	return nil
}

func (st *state) countAccountTransactions(id ledger.AccountID) (int, error) {
	count := 0
	for _, p := range st.txs {
		if p.tx.References(id) {
			count++
		}
	}
	return count, nil
}

func (st *state) insertTransaction(tx ledger.Transaction) error {
	st.nextSeq++
	st.txs = append(st.txs, posted{tx: tx, seq: st.nextSeq})
	return nil
}

func (st *state) getTransaction(id ledger.TransactionID) (*ledger.Transaction, error) {
	for _, p := range st.txs {
		if p.tx.ID == id {
			tx := p.tx
			return &tx, nil
		}
	}
	return nil, nil
}

func (st *state) listTransactions(filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	var matched []posted
	for _, p := range st.txs {
		if filter.Matches(p.tx) {
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].tx.Date.Equal(matched[j].tx.Date) {
			return matched[i].tx.Date.After(matched[j].tx.Date)
		}
		return matched[i].seq > matched[j].seq
	})

	result := make([]ledger.Transaction, len(matched))
	for i, p := range matched {
		result[i] = p.tx
	}
	return result, nil
}

func (st *state) deleteTransaction(id ledger.TransactionID) error {
	for i, p := range st.txs {
		if p.tx.ID == id {
			st.txs = append(st.txs[:i], st.txs[i+1:]...)
			return nil
		}
	}
	return nil
}

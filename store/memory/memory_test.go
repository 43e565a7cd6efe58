package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/finance-ledger/ledger"
	"github.com/warp/finance-ledger/store/memory"
)

func testAccount(id, name string, balance int64) ledger.Account {
	now := time.Now().UTC()
	return ledger.Account{
		ID:             ledger.AccountID(id),
		Name:           name,
		Type:           ledger.AccountChecking,
		InitialBalance: decimal.NewFromInt(balance),
		CurrentBalance: decimal.NewFromInt(balance),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func testTransaction(id string, date ledger.Date, src, dst string) ledger.Transaction {
	return ledger.Transaction{
		ID:                   ledger.TransactionID(id),
		Type:                 ledger.TxTransfer,
		Amount:               decimal.NewFromInt(10),
		Date:                 date,
		SourceAccountID:      ledger.AccountID(src),
		DestinationAccountID: ledger.AccountID(dst),
		CreatedAt:            time.Now().UTC(),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestMemory_AccountLifecycle(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	require.NoError(t, m.InsertAccount(ctx, testAccount("a1", "Checking", 100)))

	got, err := m.GetAccount(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Checking", got.Name)
	assert.True(t, got.CurrentBalance.Equal(decimal.NewFromInt(100)))

	stamped := time.Now().UTC()
	require.NoError(t, m.UpdateAccountInfo(ctx, "a1", "Main", ledger.AccountSavings, stamped))
	require.NoError(t, m.UpdateAccountBalance(ctx, "a1", decimal.NewFromInt(42)))

	got, err = m.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Main", got.Name)
	assert.Equal(t, ledger.AccountSavings, got.Type)
	assert.True(t, got.UpdatedAt.Equal(stamped))
	assert.True(t, got.CurrentBalance.Equal(decimal.NewFromInt(42)))

	require.NoError(t, m.DeleteAccount(ctx, "a1"))
	got, err = m.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, got, "missing accounts return nil without error")
}

func TestMemory_ListAccounts_SortedByName(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	require.NoError(t, m.InsertAccount(ctx, testAccount("a1", "Zeta", 0)))
	require.NoError(t, m.InsertAccount(ctx, testAccount("a2", "Alpha", 0)))
	require.NoError(t, m.InsertAccount(ctx, testAccount("a3", "Mid", 0)))

	accounts, err := m.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "Alpha", accounts[0].Name)
	assert.Equal(t, "Mid", accounts[1].Name)
	assert.Equal(t, "Zeta", accounts[2].Name)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestMemory_ListTransactions_OrderAndFilter(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	d1 := ledger.NewDate(2025, 1, 1)
	d2 := ledger.NewDate(2025, 1, 2)

	require.NoError(t, m.InsertTransaction(ctx, testTransaction("t1", d1, "a", "b")))
	require.NoError(t, m.InsertTransaction(ctx, testTransaction("t2", d2, "a", "c")))
	require.NoError(t, m.InsertTransaction(ctx, testTransaction("t3", d2, "b", "c")))

	all, err := m.ListTransactions(ctx, ledger.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest date first, same-date ties newest insertion first
	assert.Equal(t, ledger.TransactionID("t3"), all[0].ID)
	assert.Equal(t, ledger.TransactionID("t2"), all[1].ID)
	assert.Equal(t, ledger.TransactionID("t1"), all[2].ID)

	// AccountID matches source or destination
	forB, err := m.ListTransactions(ctx, ledger.TransactionFilter{AccountID: "b"})
	require.NoError(t, err)
	require.Len(t, forB, 2)
	assert.Equal(t, ledger.TransactionID("t3"), forB[0].ID)
	assert.Equal(t, ledger.TransactionID("t1"), forB[1].ID)

	// Inclusive bounds
	ranged, err := m.ListTransactions(ctx, ledger.TransactionFilter{StartDate: d2, EndDate: d2})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestMemory_CountAccountTransactions(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	require.NoError(t, m.InsertTransaction(ctx, testTransaction("t1", ledger.NewDate(2025, 2, 1), "a", "b")))
	require.NoError(t, m.InsertTransaction(ctx, testTransaction("t2", ledger.NewDate(2025, 2, 2), "c", "a")))

	n, err := m.CountAccountTransactions(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.CountAccountTransactions(ctx, "z")
	require.NoError(t, err)
	assert.Zero(t, n)
}

// =============================================================================
// UNIT OF WORK
// =============================================================================

func TestMemory_WithTx_CommitsOnSuccess(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	err := m.WithTx(ctx, func(s ledger.Store) error {
		if err := s.InsertAccount(ctx, testAccount("a1", "Checking", 50)); err != nil {
			return err
		}
		return s.InsertTransaction(ctx, testTransaction("t1", ledger.NewDate(2025, 3, 1), "a1", "a2"))
	})
	require.NoError(t, err)

	got, err := m.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.NotNil(t, got)

	tx, err := m.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.NotNil(t, tx)
}

func TestMemory_WithTx_DiscardsOnError(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	require.NoError(t, m.InsertAccount(ctx, testAccount("a1", "Checking", 100)))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(s ledger.Store) error {
		if err := s.UpdateAccountBalance(ctx, "a1", decimal.NewFromInt(999)); err != nil {
			return err
		}
		if err := s.InsertTransaction(ctx, testTransaction("t1", ledger.NewDate(2025, 3, 2), "a1", "a2")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := m.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(decimal.NewFromInt(100)), "failed unit must not change balances")

	tx, err := m.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, tx, "failed unit must not persist writes")
}

func TestMemory_WithTx_ReadsSeeUnitWrites(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	require.NoError(t, m.InsertAccount(ctx, testAccount("a1", "Checking", 10)))

	err := m.WithTx(ctx, func(s ledger.Store) error {
		if err := s.UpdateAccountBalance(ctx, "a1", decimal.NewFromInt(70)); err != nil {
			return err
		}
		got, err := s.GetAccount(ctx, "a1")
		if err != nil {
			return err
		}
		assert.True(t, got.CurrentBalance.Equal(decimal.NewFromInt(70)), "reads inside the unit see its own writes")
		return nil
	})
	require.NoError(t, err)
}

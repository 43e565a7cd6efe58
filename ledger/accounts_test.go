package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/finance-ledger/ledger"
	"github.com/warp/finance-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*ledger.AccountLedger, *ledger.Poster) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	accountLedger := ledger.NewAccountLedger(store)
	poster := ledger.NewPoster(store, accountLedger)
	return accountLedger, poster
}

func mustCreateAccount(t *testing.T, l *ledger.AccountLedger, name string, initial int64) *ledger.Account {
	t.Helper()
	account, err := l.Create(context.Background(), ledger.CreateAccountInput{
		Name:           name,
		Type:           ledger.AccountChecking,
		InitialBalance: decimal.NewFromInt(initial),
	})
	require.NoError(t, err)
	return account
}

func assertBalance(t *testing.T, l *ledger.AccountLedger, id ledger.AccountID, want int64) {
	t.Helper()
	account, err := l.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, account.CurrentBalance.Equal(decimal.NewFromInt(want)),
		"expected balance %d, got %s", want, account.CurrentBalance)
}

// =============================================================================
// CREATION
// =============================================================================

func TestAccountLedger_Create_SetsCurrentToInitial(t *testing.T) {
	l, _ := newTestLedger(t)

	account := mustCreateAccount(t, l, "Checking", 100)

	assert.NotEmpty(t, account.ID)
	assert.True(t, account.CurrentBalance.Equal(account.InitialBalance))

	// Round-trips through the store unchanged
	got, err := l.Get(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.Name, got.Name)
	assert.True(t, got.InitialBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.CurrentBalance.Equal(decimal.NewFromInt(100)))
}

func TestAccountLedger_Create_RejectsNegativeInitialBalance(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Create(context.Background(), ledger.CreateAccountInput{
		Name:           "Broke",
		Type:           ledger.AccountChecking,
		InitialBalance: decimal.NewFromInt(-5),
	})

	require.Error(t, err)
	var ve *ledger.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestAccountLedger_Create_RequiresNameAndType(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Create(ctx, ledger.CreateAccountInput{Type: ledger.AccountSavings})
	assert.Error(t, err, "missing name should be rejected")

	_, err = l.Create(ctx, ledger.CreateAccountInput{Name: "No type"})
	assert.Error(t, err, "missing type should be rejected")

	_, err = l.Create(ctx, ledger.CreateAccountInput{Name: "Bad type", Type: "offshore"})
	assert.Error(t, err, "unknown type should be rejected")
}

// =============================================================================
// LISTING
// =============================================================================

func TestAccountLedger_List_SortedByName(t *testing.T) {
	l, _ := newTestLedger(t)

	mustCreateAccount(t, l, "Savings", 0)
	mustCreateAccount(t, l, "Checking", 0)
	mustCreateAccount(t, l, "Emergency", 0)

	accounts, err := l.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "Checking", accounts[0].Name)
	assert.Equal(t, "Emergency", accounts[1].Name)
	assert.Equal(t, "Savings", accounts[2].Name)
}

// =============================================================================
// UPDATE
// =============================================================================

func TestAccountLedger_Update_NameAndTypeOnly(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	account := mustCreateAccount(t, l, "Old Name", 250)

	newName := "New Name"
	newType := ledger.AccountSavings
	updated, err := l.Update(ctx, account.ID, ledger.AccountPatch{Name: &newName, Type: &newType})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, ledger.AccountSavings, updated.Type)

	// Balances are untouched by rename/retype
	got, err := l.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.InitialBalance.Equal(decimal.NewFromInt(250)))
	assert.True(t, got.CurrentBalance.Equal(decimal.NewFromInt(250)))
}

func TestAccountLedger_Update_TimestampMatchesStoredRow(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	account := mustCreateAccount(t, l, "Checking", 0)

	newName := "Renamed"
	updated, err := l.Update(ctx, account.ID, ledger.AccountPatch{Name: &newName})
	require.NoError(t, err)

	// The returned updatedAt and the stored row carry the same stamp
	got, err := l.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt),
		"stored updated_at %s, returned %s", got.UpdatedAt, updated.UpdatedAt)
	assert.False(t, updated.UpdatedAt.Before(account.CreatedAt))
}

func TestAccountLedger_Update_UnknownAccount(t *testing.T) {
	l, _ := newTestLedger(t)

	name := "Whatever"
	_, err := l.Update(context.Background(), "missing", ledger.AccountPatch{Name: &name})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

// =============================================================================
// DELETION
// =============================================================================

func TestAccountLedger_Delete_Unreferenced(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	account := mustCreateAccount(t, l, "Temp", 0)
	require.NoError(t, l.Delete(ctx, account.ID))

	_, err := l.Get(ctx, account.ID)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestAccountLedger_Delete_BlockedByReferences(t *testing.T) {
	// GIVEN: An account referenced by a posted transaction
	// WHEN: Deleting the account
	// THEN: Delete fails with a conflict and the account and balance survive

	l, p := newTestLedger(t)
	ctx := context.Background()

	account := mustCreateAccount(t, l, "Spender", 100)
	_, err := p.Post(ctx, ledger.PostInput{
		Type:            ledger.TxDebit,
		Amount:          decimal.NewFromInt(40),
		Date:            ledger.NewDate(2025, 3, 10),
		SourceAccountID: account.ID,
	})
	require.NoError(t, err)

	err = l.Delete(ctx, account.ID)
	require.Error(t, err)
	assert.True(t, ledger.IsConflict(err))

	var inUse *ledger.AccountInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 1, inUse.Count)

	assertBalance(t, l, account.ID, 60)
}

func TestAccountLedger_Delete_UnknownAccount(t *testing.T) {
	l, _ := newTestLedger(t)

	err := l.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

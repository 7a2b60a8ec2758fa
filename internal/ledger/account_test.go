package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminal-bench/txshard/internal/ledger"
	"github.com/terminal-bench/txshard/pkg/money"
)

func mustParse(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s)
	require.NoError(t, err)
	return m
}

func TestDepositAndWithdraw(t *testing.T) {
	a := ledger.NewAccount()
	require.NoError(t, a.Deposit(mustParse(t, "10.0")))
	require.NoError(t, a.Withdraw(mustParse(t, "4.0")))

	total, err := a.Total()
	require.NoError(t, err)
	assert.Equal(t, "6.0000", total.String())
	assert.Equal(t, "6.0000", a.Available.String())
	assert.True(t, a.Held.IsZero())
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	a := ledger.NewAccount()
	require.NoError(t, a.Deposit(mustParse(t, "1.0")))

	err := a.Withdraw(mustParse(t, "5.0"))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, "1.0000", a.Available.String())
}

func TestDisputeResolveDeposit(t *testing.T) {
	a := ledger.NewAccount()
	require.NoError(t, a.Deposit(mustParse(t, "10.0")))
	entry := &ledger.LedgerEntry{Kind: ledger.KindDeposit, Amount: mustParse(t, "10.0")}

	require.NoError(t, a.Dispute(entry))
	assert.True(t, a.Available.IsZero())
	assert.Equal(t, "10.0000", a.Held.String())

	require.NoError(t, a.Resolve(entry))
	assert.Equal(t, "10.0000", a.Available.String())
	assert.True(t, a.Held.IsZero())
}

func TestChargebackDepositLocksAccount(t *testing.T) {
	a := ledger.NewAccount()
	require.NoError(t, a.Deposit(mustParse(t, "10.0")))
	require.NoError(t, a.Deposit(mustParse(t, "5.0")))
	entry := &ledger.LedgerEntry{Kind: ledger.KindDeposit, Amount: mustParse(t, "10.0")}

	require.NoError(t, a.Dispute(entry))
	require.NoError(t, a.Chargeback(entry))

	assert.Equal(t, "5.0000", a.Available.String())
	assert.True(t, a.Held.IsZero())
	assert.True(t, a.Locked)

	err := a.Deposit(mustParse(t, "1.0"))
	assert.ErrorIs(t, err, ledger.ErrAccountLocked)
}

func TestChargebackCanProduceNegativeAvailable(t *testing.T) {
	a := ledger.NewAccount()
	require.NoError(t, a.Deposit(mustParse(t, "10.0")))
	require.NoError(t, a.Withdraw(mustParse(t, "8.0")))
	entry := &ledger.LedgerEntry{Kind: ledger.KindDeposit, Amount: mustParse(t, "10.0")}

	require.NoError(t, a.Dispute(entry))
	require.NoError(t, a.Chargeback(entry))

	assert.Equal(t, "-8.0000", a.Available.String())
	assert.True(t, a.Locked)
}

func TestDisputeOfWithdrawalRestoresFundsTentatively(t *testing.T) {
	a := ledger.NewAccount()
	require.NoError(t, a.Deposit(mustParse(t, "10.0")))
	require.NoError(t, a.Withdraw(mustParse(t, "4.0")))
	entry := &ledger.LedgerEntry{Kind: ledger.KindWithdrawal, Amount: mustParse(t, "4.0")}

	require.NoError(t, a.Dispute(entry))
	assert.Equal(t, "10.0000", a.Available.String())
	assert.Equal(t, "-4.0000", a.Held.String())

	require.NoError(t, a.Resolve(entry))
	assert.Equal(t, "6.0000", a.Available.String())
	assert.True(t, a.Held.IsZero())
}

func TestLockedAccountRejectsEverything(t *testing.T) {
	a := ledger.NewAccount()
	require.NoError(t, a.Deposit(mustParse(t, "10.0")))
	entry := &ledger.LedgerEntry{Kind: ledger.KindDeposit, Amount: mustParse(t, "10.0")}
	require.NoError(t, a.Dispute(entry))
	require.NoError(t, a.Chargeback(entry))

	assert.ErrorIs(t, a.Deposit(mustParse(t, "1.0")), ledger.ErrAccountLocked)
	assert.ErrorIs(t, a.Withdraw(mustParse(t, "1.0")), ledger.ErrAccountLocked)
	assert.ErrorIs(t, a.Dispute(entry), ledger.ErrAccountLocked)
	assert.ErrorIs(t, a.Resolve(entry), ledger.ErrAccountLocked)
	assert.ErrorIs(t, a.Chargeback(entry), ledger.ErrAccountLocked)
}

package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminal-bench/txshard/internal/ledger"
)

func TestRecordAndLookup(t *testing.T) {
	l := ledger.NewTransactionLedger()
	amt := mustParse(t, "10.0")

	require.NoError(t, l.Record(1, 5, ledger.KindDeposit, amt))

	entry, err := l.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(5), entry.Client)
	assert.Equal(t, ledger.KindDeposit, entry.Kind)
	assert.Equal(t, ledger.StateNone, entry.State)
}

func TestRecordDuplicateRejected(t *testing.T) {
	l := ledger.NewTransactionLedger()
	amt := mustParse(t, "10.0")

	require.NoError(t, l.Record(1, 5, ledger.KindDeposit, amt))
	err := l.Record(1, 5, ledger.KindDeposit, mustParse(t, "50.0"))
	assert.ErrorIs(t, err, ledger.ErrDuplicateTx)

	entry, err := l.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "10.0000", entry.Amount.String())
}

func TestLookupMissing(t *testing.T) {
	l := ledger.NewTransactionLedger()
	_, err := l.Lookup(99)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestDisputeLifecycleTransitions(t *testing.T) {
	l := ledger.NewTransactionLedger()
	require.NoError(t, l.Record(1, 5, ledger.KindDeposit, mustParse(t, "10.0")))

	entry, err := l.SetDisputeState(1, 5, ledger.StateDisputed)
	require.NoError(t, err)
	assert.Equal(t, ledger.StateDisputed, entry.State)

	entry, err = l.SetDisputeState(1, 5, ledger.StateNone)
	require.NoError(t, err)
	assert.Equal(t, ledger.StateNone, entry.State)
}

func TestResolveWithoutDisputeIsIllegal(t *testing.T) {
	l := ledger.NewTransactionLedger()
	require.NoError(t, l.Record(1, 5, ledger.KindDeposit, mustParse(t, "10.0")))

	_, err := l.SetDisputeState(1, 5, ledger.StateNone)
	assert.ErrorIs(t, err, ledger.ErrInvalidDisputeState)
}

func TestChargebackIsTerminal(t *testing.T) {
	l := ledger.NewTransactionLedger()
	require.NoError(t, l.Record(1, 5, ledger.KindDeposit, mustParse(t, "10.0")))
	_, err := l.SetDisputeState(1, 5, ledger.StateDisputed)
	require.NoError(t, err)
	_, err = l.SetDisputeState(1, 5, ledger.StateChargedBack)
	require.NoError(t, err)

	_, err = l.SetDisputeState(1, 5, ledger.StateDisputed)
	assert.ErrorIs(t, err, ledger.ErrInvalidDisputeState)
	_, err = l.SetDisputeState(1, 5, ledger.StateNone)
	assert.ErrorIs(t, err, ledger.ErrInvalidDisputeState)
}

func TestDisputeClientMismatchRejected(t *testing.T) {
	l := ledger.NewTransactionLedger()
	require.NoError(t, l.Record(1, 5, ledger.KindDeposit, mustParse(t, "10.0")))

	_, err := l.SetDisputeState(1, 6, ledger.StateDisputed)
	assert.ErrorIs(t, err, ledger.ErrClientMismatch)
}

func TestRemoveRollsBackRecord(t *testing.T) {
	l := ledger.NewTransactionLedger()
	require.NoError(t, l.Record(1, 5, ledger.KindDeposit, mustParse(t, "10.0")))
	l.Remove(1)

	_, err := l.Lookup(1)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

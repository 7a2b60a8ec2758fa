package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/txshard/internal/shard"
)

func TestSummarizeSumsAvailableAndHeld(t *testing.T) {
	rows := []shard.SnapshotRow{
		{Client: 1, Available: "10.5000", Held: "1.0000", Locked: false},
		{Client: 2, Available: "0.2500", Held: "0.0000", Locked: true},
	}

	agg, err := summarize(rows)
	require.NoError(t, err)

	assert.True(t, agg.totalAvailable.Equal(mustDecimal(t, "10.75")))
	assert.True(t, agg.totalHeld.Equal(mustDecimal(t, "1.00")))
	assert.Equal(t, 1, agg.lockedCount)
	assert.Equal(t, 2, agg.clientCount)
}

func TestSummarizeRejectsUnparsableAmount(t *testing.T) {
	rows := []shard.SnapshotRow{{Client: 1, Available: "not-a-number", Held: "0.0000"}}

	_, err := summarize(rows)
	assert.Error(t, err)
}

func TestSummarizeOfEmptySnapshotIsZero(t *testing.T) {
	agg, err := summarize(nil)
	require.NoError(t, err)
	assert.True(t, agg.totalAvailable.IsZero())
	assert.True(t, agg.totalHeld.IsZero())
	assert.Equal(t, 0, agg.clientCount)
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

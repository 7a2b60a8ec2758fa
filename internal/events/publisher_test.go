package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terminal-bench/txshard/internal/observe"
)

func TestBuildMessageMapsEveryEventKindToASubject(t *testing.T) {
	kinds := []observe.EventKind{
		observe.EventDepositApplied,
		observe.EventWithdrawalApplied,
		observe.EventDisputeOpened,
		observe.EventDisputeResolved,
		observe.EventChargedBack,
	}

	seen := map[string]bool{}
	for _, kind := range kinds {
		subject, msg, ok := buildMessage(observe.LifecycleEvent{Kind: kind, Shard: 1, Client: 7, Tx: 3})
		assert.True(t, ok, "kind %q should map to a subject", kind)
		assert.NotEmpty(t, subject)
		assert.Equal(t, string(kind), msg.Kind)
		assert.False(t, seen[subject], "subject %q reused across kinds", subject)
		seen[subject] = true
	}
}

func TestBuildMessageRejectsUnknownKind(t *testing.T) {
	_, _, ok := buildMessage(observe.LifecycleEvent{Kind: observe.EventKind("bogus")})
	assert.False(t, ok)
}

func TestBuildMessageCopiesAllFields(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	subject, msg, ok := buildMessage(observe.LifecycleEvent{
		Kind:      observe.EventChargedBack,
		Shard:     2,
		Client:    42,
		Tx:        9,
		Available: "1.2300",
		Held:      "0.0000",
		Locked:    true,
		At:        now,
	})

	assert.True(t, ok)
	assert.Equal(t, SubjectChargedBack, subject)
	assert.Equal(t, uint16(42), msg.Client)
	assert.Equal(t, uint32(9), msg.Tx)
	assert.Equal(t, "1.2300", msg.Available)
	assert.True(t, msg.Locked)
	assert.Equal(t, now, msg.At)
}

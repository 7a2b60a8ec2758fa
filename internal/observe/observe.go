// Package observe defines the narrow interface core dispatch uses to report
// what happened, without core importing any concrete transport. Concrete
// observers (the NATS publisher in internal/events) live in their own
// packages and satisfy this interface; core never imports them.
package observe

import "time"

// EventKind labels a LifecycleEvent.
type EventKind string

const (
	EventDepositApplied    EventKind = "deposit_applied"
	EventWithdrawalApplied EventKind = "withdrawal_applied"
	EventDisputeOpened     EventKind = "dispute_opened"
	EventDisputeResolved   EventKind = "dispute_resolved"
	EventChargedBack       EventKind = "charged_back"
)

// LifecycleEvent is a projection of a successful ledger mutation, published
// best-effort to whatever Observer is configured.
type LifecycleEvent struct {
	Kind      EventKind
	Shard     int
	Client    uint16
	Tx        uint32
	Available string
	Held      string
	Locked    bool
	At        time.Time
}

// Observer receives lifecycle events. Implementations must not block: a slow
// or unavailable observer must never stall a shard worker.
type Observer interface {
	Observe(LifecycleEvent)
}

// Noop is an Observer that discards every event. It is the default when no
// external sink is configured.
type Noop struct{}

// Observe implements Observer.
func (Noop) Observe(LifecycleEvent) {}

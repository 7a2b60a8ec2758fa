// Package events publishes shard lifecycle events to NATS. A Publisher
// satisfies observe.Observer so the core dispatch path never imports this
// package or nats.go directly.
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/terminal-bench/txshard/internal/observe"
)

// Subject constants, one per observe.EventKind.
const (
	SubjectDepositApplied    = "txshard.deposit.applied"
	SubjectWithdrawalApplied = "txshard.withdrawal.applied"
	SubjectDisputeOpened     = "txshard.dispute.opened"
	SubjectDisputeResolved   = "txshard.dispute.resolved"
	SubjectChargedBack       = "txshard.chargeback"
)

var subjectsByKind = map[observe.EventKind]string{
	observe.EventDepositApplied:    SubjectDepositApplied,
	observe.EventWithdrawalApplied: SubjectWithdrawalApplied,
	observe.EventDisputeOpened:     SubjectDisputeOpened,
	observe.EventDisputeResolved:   SubjectDisputeResolved,
	observe.EventChargedBack:       SubjectChargedBack,
}

// Message is the JSON payload published for every LifecycleEvent.
type Message struct {
	Kind      string    `json:"kind"`
	Shard     int       `json:"shard"`
	Client    uint16    `json:"client"`
	Tx        uint32    `json:"tx"`
	Available string    `json:"available"`
	Held      string    `json:"held"`
	Locked    bool      `json:"locked"`
	At        time.Time `json:"at"`
}

// Publisher publishes LifecycleEvents to NATS subjects. It is best-effort: a
// publish failure is logged and otherwise swallowed, since a down event bus
// must never stall or fail a shard worker.
type Publisher struct {
	conn *nats.Conn
	name string
}

// Connect dials url and returns a ready Publisher. name is passed to NATS as
// the connection name for server-side diagnostics.
func Connect(url, name string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(5),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, name: name}, nil
}

// Observe implements observe.Observer.
func (p *Publisher) Observe(evt observe.LifecycleEvent) {
	subject, msg, ok := buildMessage(evt)
	if !ok {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("events: marshal failed for %s: %v", subject, err)
		return
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		log.Printf("events: publish to %s failed: %v", subject, err)
	}
}

// buildMessage translates a LifecycleEvent into its subject and wire
// payload. Split out from Observe so the translation can be tested without a
// live NATS connection.
func buildMessage(evt observe.LifecycleEvent) (subject string, msg Message, ok bool) {
	subject, ok = subjectsByKind[evt.Kind]
	if !ok {
		return "", Message{}, false
	}
	return subject, Message{
		Kind:      string(evt.Kind),
		Shard:     evt.Shard,
		Client:    evt.Client,
		Tx:        evt.Tx,
		Available: evt.Available,
		Held:      evt.Held,
		Locked:    evt.Locked,
		At:        evt.At,
	}, true
}

// Close drains and closes the underlying NATS connection.
func (p *Publisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

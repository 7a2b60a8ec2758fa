// Package shard implements the single-writer per-shard state machine: one
// Account map plus one TransactionLedger, driven sequentially by a worker
// that owns it exclusively.
package shard

import "github.com/terminal-bench/txshard/pkg/money"

// Kind is the tagged variant of an input transaction.
type Kind int

const (
	Deposit Kind = iota
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

func (k Kind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	case Dispute:
		return "dispute"
	case Resolve:
		return "resolve"
	case Chargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// Transaction is a validated input record. Amount is present and strictly
// positive for Deposit/Withdrawal, absent (HasAmount=false) otherwise.
type Transaction struct {
	Kind      Kind
	Client    uint16
	Tx        uint32
	Amount    money.Money
	HasAmount bool
}

package ledger

import "github.com/terminal-bench/txshard/pkg/money"

// Kind distinguishes the two recordable transaction kinds. Dispute/Resolve/
// Chargeback are references into an existing entry, never entries themselves.
type Kind int

const (
	KindDeposit Kind = iota
	KindWithdrawal
)

// DisputeState is the lifecycle of a recorded transaction.
type DisputeState int

const (
	StateNone DisputeState = iota
	StateDisputed
	StateChargedBack
)

// LedgerEntry is a recorded Deposit or Withdrawal, carrying its dispute
// lifecycle and the client id that originated it (used to reject
// Dispute/Resolve/Chargeback references from a mismatched client).
type LedgerEntry struct {
	Client  uint16
	Kind    Kind
	Amount  money.Money
	State   DisputeState
}

// TransactionLedger is the per-shard map of TxId to LedgerEntry.
type TransactionLedger struct {
	entries map[uint32]*LedgerEntry
}

// NewTransactionLedger returns an empty ledger.
func NewTransactionLedger() *TransactionLedger {
	return &TransactionLedger{entries: make(map[uint32]*LedgerEntry)}
}

// Record inserts a fresh entry with DisputeState=None. Returns ErrDuplicateTx
// if txID already exists; the caller discards the incoming transaction in
// that case without mutating the account.
func (l *TransactionLedger) Record(txID uint32, client uint16, kind Kind, amount money.Money) error {
	if _, exists := l.entries[txID]; exists {
		return ErrDuplicateTx
	}
	l.entries[txID] = &LedgerEntry{Client: client, Kind: kind, Amount: amount, State: StateNone}
	return nil
}

// Remove deletes an entry, used to roll back a Record whose subsequent
// account mutation failed (e.g. overflow).
func (l *TransactionLedger) Remove(txID uint32) {
	delete(l.entries, txID)
}

// Lookup returns the entry for txID, or ErrNotFound.
func (l *TransactionLedger) Lookup(txID uint32) (*LedgerEntry, error) {
	entry, exists := l.entries[txID]
	if !exists {
		return nil, ErrNotFound
	}
	return entry, nil
}

// SetDisputeState enforces the legal transition table:
//
//	None      --Dispute-->    Disputed
//	Disputed  --Resolve-->    None
//	Disputed  --Chargeback--> ChargedBack
//
// Any other requested transition returns ErrInvalidDisputeState.
func (l *TransactionLedger) SetDisputeState(txID uint32, client uint16, to DisputeState) (*LedgerEntry, error) {
	entry, exists := l.entries[txID]
	if !exists {
		return nil, ErrNotFound
	}
	if entry.Client != client {
		return nil, ErrClientMismatch
	}

	var ok bool
	switch to {
	case StateDisputed:
		ok = entry.State == StateNone
	case StateNone:
		ok = entry.State == StateDisputed
	case StateChargedBack:
		ok = entry.State == StateDisputed
	}
	if !ok {
		return nil, ErrInvalidDisputeState
	}

	entry.State = to
	return entry, nil
}

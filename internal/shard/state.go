package shard

import (
	"errors"
	"log"
	"time"

	"github.com/terminal-bench/txshard/internal/ledger"
	"github.com/terminal-bench/txshard/internal/observe"
)

// State is one shard's Account map plus TransactionLedger. It has no locks:
// it is owned exclusively by a single worker goroutine (see worker.go) and
// must never be touched concurrently from two goroutines.
type State struct {
	Index    int
	accounts map[uint16]*ledger.Account
	ledger   *ledger.TransactionLedger
	observer observe.Observer
}

// NewState returns an empty shard state for the given shard index. A nil
// observer is replaced with a no-op so Dispatch never needs to nil-check it.
func NewState(index int, observer observe.Observer) *State {
	if observer == nil {
		observer = observe.Noop{}
	}
	return &State{
		Index:    index,
		accounts: make(map[uint16]*ledger.Account),
		ledger:   ledger.NewTransactionLedger(),
		observer: observer,
	}
}

// SnapshotRow is one client's final reported balances.
type SnapshotRow struct {
	Client    uint16
	Available string
	Held      string
	Total     string
	Locked    bool
}

// Snapshot returns this shard's accounts in ascending client-id order.
func (s *State) Snapshot() ([]SnapshotRow, error) {
	ids := make([]uint16, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sortUint16(ids)

	rows := make([]SnapshotRow, 0, len(ids))
	for _, id := range ids {
		acct := s.accounts[id]
		total, err := acct.Total()
		if err != nil {
			return nil, err
		}
		rows = append(rows, SnapshotRow{
			Client:    id,
			Available: acct.Available.String(),
			Held:      acct.Held.String(),
			Total:     total.String(),
			Locked:    acct.Locked,
		})
	}
	return rows, nil
}

func sortUint16(ids []uint16) {
	// Insertion sort: per-shard client counts are small, and this avoids
	// sort.Slice's reflection on the snapshot path.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// Dispatch applies a single transaction against this shard's accounts. It
// returns nothing: the documented recoverable kinds (AccountLocked,
// InsufficientFunds, DuplicateTx, NotFound, InvalidDisputeState,
// ClientMismatch, ArithmeticOverflow) are logged and treated as a no-op.
func (s *State) Dispatch(tx Transaction) {
	switch tx.Kind {
	case Deposit:
		s.dispatchDeposit(tx)
	case Withdrawal:
		s.dispatchWithdrawal(tx)
	case Dispute:
		s.dispatchDisputeTransition(tx, ledger.StateDisputed)
	case Resolve:
		s.dispatchDisputeTransition(tx, ledger.StateNone)
	case Chargeback:
		s.dispatchDisputeTransition(tx, ledger.StateChargedBack)
	}
}

func (s *State) dispatchDeposit(tx Transaction) {
	acct, exists := s.accounts[tx.Client]
	if !exists {
		acct = ledger.NewAccount()
		s.accounts[tx.Client] = acct
	}
	if acct.Locked {
		log.Printf("shard %d: ignoring deposit tx=%d client=%d: account locked", s.Index, tx.Tx, tx.Client)
		return
	}

	if err := s.ledger.Record(tx.Tx, tx.Client, ledger.KindDeposit, tx.Amount); err != nil {
		log.Printf("shard %d: ignoring deposit tx=%d client=%d: %v", s.Index, tx.Tx, tx.Client, err)
		return
	}
	if err := acct.Deposit(tx.Amount); err != nil {
		s.ledger.Remove(tx.Tx)
		log.Printf("shard %d: rolled back deposit tx=%d client=%d: %v", s.Index, tx.Tx, tx.Client, err)
		return
	}
	s.emit(observe.EventDepositApplied, acct, tx.Client, tx.Tx)
}

func (s *State) dispatchWithdrawal(tx Transaction) {
	acct, exists := s.accounts[tx.Client]
	if !exists || acct.Locked {
		log.Printf("shard %d: ignoring withdrawal tx=%d client=%d: no account or locked", s.Index, tx.Tx, tx.Client)
		return
	}

	if err := acct.Withdraw(tx.Amount); err != nil {
		log.Printf("shard %d: ignoring withdrawal tx=%d client=%d: %v", s.Index, tx.Tx, tx.Client, err)
		return
	}
	if err := s.ledger.Record(tx.Tx, tx.Client, ledger.KindWithdrawal, tx.Amount); err != nil {
		// Duplicate tx id: undo the withdrawal we just applied.
		if rollbackErr := acct.Deposit(tx.Amount); rollbackErr != nil {
			log.Printf("shard %d: failed to roll back withdrawal tx=%d client=%d: %v", s.Index, tx.Tx, tx.Client, rollbackErr)
		}
		log.Printf("shard %d: ignoring withdrawal tx=%d client=%d: %v", s.Index, tx.Tx, tx.Client, err)
		return
	}
	s.emit(observe.EventWithdrawalApplied, acct, tx.Client, tx.Tx)
}

func (s *State) dispatchDisputeTransition(tx Transaction, to ledger.DisputeState) {
	acct, exists := s.accounts[tx.Client]
	if !exists {
		return
	}
	if acct.Locked {
		log.Printf("shard %d: ignoring %s tx=%d client=%d: account locked", s.Index, tx.Kind, tx.Tx, tx.Client)
		return
	}

	entry, err := s.ledger.SetDisputeState(tx.Tx, tx.Client, to)
	if err != nil {
		log.Printf("shard %d: ignoring %s tx=%d client=%d: %v", s.Index, tx.Kind, tx.Tx, tx.Client, err)
		return
	}

	var applyErr error
	var eventKind observe.EventKind
	switch to {
	case ledger.StateDisputed:
		applyErr = acct.Dispute(entry)
		eventKind = observe.EventDisputeOpened
	case ledger.StateNone:
		applyErr = acct.Resolve(entry)
		eventKind = observe.EventDisputeResolved
	case ledger.StateChargedBack:
		applyErr = acct.Chargeback(entry)
		eventKind = observe.EventChargedBack
	}
	if applyErr != nil {
		// Undo the ledger transition so the failed step stays a no-op.
		if to == ledger.StateDisputed {
			entry.State = ledger.StateNone
		} else {
			entry.State = ledger.StateDisputed
		}
		if !errors.Is(applyErr, ledger.ErrAccountLocked) {
			log.Printf("shard %d: %s tx=%d client=%d failed applying to account: %v", s.Index, tx.Kind, tx.Tx, tx.Client, applyErr)
		}
		return
	}
	s.emit(eventKind, acct, tx.Client, tx.Tx)
}

func (s *State) emit(kind observe.EventKind, acct *ledger.Account, client uint16, txID uint32) {
	s.observer.Observe(observe.LifecycleEvent{
		Kind:      kind,
		Shard:     s.Index,
		Client:    client,
		Tx:        txID,
		Available: acct.Available.String(),
		Held:      acct.Held.String(),
		Locked:    acct.Locked,
		At:        time.Now(),
	})
}

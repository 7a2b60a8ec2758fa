package ledger

import "github.com/terminal-bench/txshard/pkg/money"

// Account holds one client's balances. Available may go negative as a
// consequence of a chargeback on a deposit whose funds were already spent,
// and held is negative while a withdrawal is under dispute; both are
// permitted and observable, not errors.
type Account struct {
	Available money.Money
	Held      money.Money
	Locked    bool
}

// NewAccount returns a fresh, unlocked, zero-balance account.
func NewAccount() *Account {
	return &Account{}
}

// Total is available+held, the externally reported balance.
func (a *Account) Total() (money.Money, error) {
	return a.Available.Add(a.Held)
}

// Deposit increases available funds by amount. Precondition: amount > 0.
func (a *Account) Deposit(amount money.Money) error {
	if a.Locked {
		return ErrAccountLocked
	}
	updated, err := a.Available.Add(amount)
	if err != nil {
		return err
	}
	a.Available = updated
	return nil
}

// Withdraw decreases available funds by amount, failing if insufficient.
func (a *Account) Withdraw(amount money.Money) error {
	if a.Locked {
		return ErrAccountLocked
	}
	if a.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	updated, err := a.Available.Sub(amount)
	if err != nil {
		return err
	}
	a.Available = updated
	return nil
}

// Dispute moves entry.Amount between available and held depending on the
// recorded entry's kind: a disputed deposit moves funds available->held; a
// disputed withdrawal tentatively restores funds held->available.
func (a *Account) Dispute(entry *LedgerEntry) error {
	if a.Locked {
		return ErrAccountLocked
	}
	switch entry.Kind {
	case KindDeposit:
		return a.shift(entry.Amount, -1)
	case KindWithdrawal:
		return a.shift(entry.Amount, 1)
	default:
		return nil
	}
}

// Resolve is the inverse of Dispute for the same entry.
func (a *Account) Resolve(entry *LedgerEntry) error {
	if a.Locked {
		return ErrAccountLocked
	}
	switch entry.Kind {
	case KindDeposit:
		return a.shift(entry.Amount, 1)
	case KindWithdrawal:
		return a.shift(entry.Amount, -1)
	default:
		return nil
	}
}

// Chargeback discharges held funds permanently and locks the account. A
// deposit chargeback removes the held deposit; a withdrawal chargeback makes
// the earlier tentative reversal permanent.
func (a *Account) Chargeback(entry *LedgerEntry) error {
	if a.Locked {
		return ErrAccountLocked
	}
	held := a.Held
	var err error
	switch entry.Kind {
	case KindDeposit:
		held, err = a.Held.Sub(entry.Amount)
	case KindWithdrawal:
		held, err = a.Held.Add(entry.Amount)
	}
	if err != nil {
		return err
	}
	a.Held = held
	a.Locked = true
	return nil
}

// shift moves amount between available and held. sign=-1 moves
// available->held (dispute of a deposit); sign=1 moves held->available
// (resolve of a deposit, or dispute of a withdrawal).
func (a *Account) shift(amount money.Money, sign int) error {
	var availDelta, heldDelta money.Money
	var err error
	if sign < 0 {
		availDelta, err = a.Available.Sub(amount)
		if err != nil {
			return err
		}
		heldDelta, err = a.Held.Add(amount)
		if err != nil {
			return err
		}
	} else {
		availDelta, err = a.Available.Add(amount)
		if err != nil {
			return err
		}
		heldDelta, err = a.Held.Sub(amount)
		if err != nil {
			return err
		}
	}
	a.Available = availDelta
	a.Held = heldDelta
	return nil
}

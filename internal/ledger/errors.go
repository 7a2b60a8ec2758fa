package ledger

import "errors"

// Sentinel errors for the per-transaction recoverable error taxonomy. None of
// these abort the stream; callers log and treat the transaction as a no-op.
var (
	ErrAccountLocked      = errors.New("ledger: account is locked")
	ErrInsufficientFunds  = errors.New("ledger: insufficient available funds")
	ErrDuplicateTx        = errors.New("ledger: duplicate transaction id")
	ErrNotFound           = errors.New("ledger: transaction not found")
	ErrInvalidDisputeState = errors.New("ledger: illegal dispute state transition")
	ErrClientMismatch     = errors.New("ledger: transaction client does not match recorded entry")
)

package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConsistency indicates a violated ledger invariant. It is not
	// recoverable by the caller; the write that detected it is aborted
	// and the owning aggregate is halted.
	ErrConsistency = errors.New("ledger consistency violation")
	// ErrAggregateHalted rejects writes to an aggregate that previously
	// failed a consistency check.
	ErrAggregateHalted = errors.New("aggregate halted after consistency violation")
)

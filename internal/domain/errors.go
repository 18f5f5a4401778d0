package domain

import "errors"

var (
	// ErrNotFound signals that a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals an attempted ledger invariant violation, such as
	// a parent transcription that does not belong to the same target.
	ErrConflict = errors.New("conflict")
)

package workout

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("workout not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrIdempotencyInFlight = errors.New("request with this idempotency key is still in progress")
	// ErrConcurrentDelete means the structured record vanished before the
	// pair could be marked synced.
	ErrConcurrentDelete = errors.New("workout deleted while being written")
)

// DualWriteKind tells how far a failed dual write got.
type DualWriteKind int

const (
	// NoWrite: nothing was persisted.
	NoWrite DualWriteKind = iota
	// Compensated: one record was written and has been removed again.
	Compensated
	// Uncompensated: a partial write could not be undone. Needs an operator.
	Uncompensated
)

func (k DualWriteKind) String() string {
	switch k {
	case NoWrite:
		return "no_write"
	case Compensated:
		return "compensated"
	case Uncompensated:
		return "uncompensated"
	}
	return "unknown"
}

type DualWriteError struct {
	Kind            DualWriteKind
	StructuredID    string
	LegacyID        string
	XrefID          string
	Cause           error
	CompensationErr error
}

func (e *DualWriteError) Error() string {
	msg := fmt.Sprintf("dual write failed (%s, xref %s): %v", e.Kind, e.XrefID, e.Cause)
	if e.CompensationErr != nil {
		msg += fmt.Sprintf("; compensation failed: %v", e.CompensationErr)
	}
	return msg
}

func (e *DualWriteError) Unwrap() []error {
	if e.CompensationErr != nil {
		return []error{e.Cause, e.CompensationErr}
	}
	return []error{e.Cause}
}

// NeedsOperator reports whether a record may have been left orphaned.
func (e *DualWriteError) NeedsOperator() bool {
	return e.Kind == Uncompensated
}

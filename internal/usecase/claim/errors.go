package claim

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies a failed claim
type Kind string

const (
	KindConflict Kind = "CONFLICT"  // already in flight or already claimed
	KindNotFound Kind = "NOT_FOUND" // not in the active set
	KindNotReady Kind = "NOT_READY"
	KindRejected Kind = "REJECTED" // server of record denied the claim
	KindNetwork  Kind = "NETWORK"
	KindInternal Kind = "INTERNAL"
)

// Error is returned by every failed claim transition.
// Unwrap exposes the domain sentinel so callers can match with errors.Is.
type Error struct {
	Kind       Kind
	PositionID uuid.UUID
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("claim %s: %s: %v", e.PositionID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, id uuid.UUID, retryable bool, err error) *Error {
	return &Error{Kind: kind, PositionID: id, Retryable: retryable, Err: err}
}

package domain

import "errors"

var (
	// ErrValidation marks input that violates a domain rule
	ErrValidation = errors.New("validation failed")

	ErrNotFound     = errors.New("not found")
	ErrNotReady     = errors.New("package has not reached maturity")
	ErrLockHeld     = errors.New("lock already held")
	ErrUnauthorized = errors.New("unauthorized")

	// Claim transition outcomes
	ErrClaimConflict  = errors.New("claim already in flight or completed")
	ErrClaimRejected  = errors.New("claim rejected by server")
	ErrNetworkFailure = errors.New("network failure")

	ErrInsufficientEarnings = errors.New("insufficient earnings")
	ErrRequestPending       = errors.New("request already submitted today")
	ErrRequestRejected      = errors.New("request rejected by server")
)

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Backend is the server of record. Every call reports acceptance through ok;
// a non-nil error means the call itself failed and may be retried.
type Backend interface {
	ConfirmClaim(ctx context.Context, memberID, positionID uuid.UUID) (ok bool, err error)
	SubmitWithdrawal(ctx context.Context, req *WithdrawalRequest) (ok bool, err error)
	SubmitDeposit(ctx context.Context, req *DepositRequest) (ok bool, err error)
}

// LockManager provides mutual exclusion across service instances
type LockManager interface {
	// Acquire returns an unlock function, or ErrLockHeld if another party holds the key
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RequestLimiter tracks once-per-period request allowances
type RequestLimiter interface {
	// Reserve claims the allowance for key until the given time.
	// It returns false if the allowance is already taken.
	Reserve(ctx context.Context, key string, until time.Time) (bool, error)

	// Release gives a reserved allowance back
	Release(ctx context.Context, key string) error
}

// ReceiptStore persists request attachments and returns their public URL
type ReceiptStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

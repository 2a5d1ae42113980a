package domain

import (
	"context"

	"github.com/google/uuid"
)

// PositionRepository defines the read side of the package position list source
type PositionRepository interface {
	// ListActive retrieves the member's unclaimed package positions
	ListActive(ctx context.Context, memberID uuid.UUID) ([]*PackagePosition, error)

	// GetByID retrieves a package position by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*PackagePosition, error)
}

// EarningsRepository defines the interface for loading the earnings snapshot of record
type EarningsRepository interface {
	// Get retrieves the member's earnings aggregate
	Get(ctx context.Context, memberID uuid.UUID) (*EarningsAggregate, error)
}

// LedgerRepository defines the interface for transaction history persistence operations
type LedgerRepository interface {
	// List retrieves a paginated list of ledger entries under a history tab
	// limit and offset are used for pagination
	List(ctx context.Context, memberID uuid.UUID, tab HistoryTab, limit, offset int) ([]*LedgerEntry, error)

	// Count returns the total number of ledger entries under a history tab
	Count(ctx context.Context, memberID uuid.UUID, tab HistoryTab) (int, error)
}

// BountyRepository defines the interface for referral bounty listings
type BountyRepository interface {
	// List retrieves a paginated list of bounties for the given referral level
	List(ctx context.Context, memberID uuid.UUID, level BountyLevel, limit, offset int) ([]*ReferralBounty, error)

	// Count returns the total number of bounties for the given referral level
	Count(ctx context.Context, memberID uuid.UUID, level BountyLevel) (int, error)
}

// PositionWriter inserts package positions; used to seed fixture data
type PositionWriter interface {
	Create(ctx context.Context, p *PackagePosition) error
}

// EarningsWriter inserts an earnings row; used to seed fixture data
type EarningsWriter interface {
	Create(ctx context.Context, a *EarningsAggregate) error
}

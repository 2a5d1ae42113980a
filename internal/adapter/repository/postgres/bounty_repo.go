package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/shopspring/decimal"
)

// bountyRepository implements domain.BountyRepository
type bountyRepository struct {
	db *DB
}

// NewBountyRepository creates a new referral bounty repository
func NewBountyRepository(db *DB) domain.BountyRepository {
	return &bountyRepository{db: db}
}

// List retrieves a paginated list of bounties for the given referral level
func (r *bountyRepository) List(ctx context.Context, memberID uuid.UUID, level domain.BountyLevel, limit, offset int) ([]*domain.ReferralBounty, error) {
	query := `
		SELECT member_id, referred_member_id, referred_username, level, total_bounty_earnings::text, date
		FROM referral_bounties
		WHERE member_id = $1 AND level = $2
		ORDER BY date DESC, referred_member_id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, memberID, string(level), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bounties: %w", err)
	}
	defer rows.Close()

	var bounties []*domain.ReferralBounty
	for rows.Next() {
		var b domain.ReferralBounty
		var totalStr string

		if err := rows.Scan(
			&b.MemberID,
			&b.ReferredMemberID,
			&b.ReferredUsername,
			&b.Level,
			&totalStr,
			&b.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bounty: %w", err)
		}

		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total_bounty_earnings: %w", err)
		}
		b.TotalBountyEarnings = total

		bounties = append(bounties, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bounties: %w", err)
	}

	return bounties, nil
}

// Count returns the total number of bounties for the given referral level
func (r *bountyRepository) Count(ctx context.Context, memberID uuid.UUID, level domain.BountyLevel) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM referral_bounties
		WHERE member_id = $1 AND level = $2
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, memberID, string(level)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bounties: %w", err)
	}
	return count, nil
}

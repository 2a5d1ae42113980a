package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/shopspring/decimal"
)

// earningsRepository implements domain.EarningsRepository
type earningsRepository struct {
	db *DB
}

// NewEarningsRepository creates a new earnings repository
func NewEarningsRepository(db *DB) domain.EarningsRepository {
	return &earningsRepository{db: db}
}

// Get retrieves the member's earnings aggregate
// combined_earnings is not read; the total is derived from its two components.
func (r *earningsRepository) Get(ctx context.Context, memberID uuid.UUID) (*domain.EarningsAggregate, error) {
	query := `
		SELECT package_earnings::text, referral_earnings::text
		FROM member_earnings
		WHERE member_id = $1
	`

	var packageStr, referralStr string
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(&packageStr, &referralStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("earnings for member %s: %w", memberID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get earnings: %w", err)
	}

	packageEarnings, err := decimal.NewFromString(packageStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse package_earnings: %w", err)
	}
	referralEarnings, err := decimal.NewFromString(referralStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse referral_earnings: %w", err)
	}

	aggregate := domain.NewEarningsAggregate(memberID, packageEarnings, referralEarnings)
	return &aggregate, nil
}

// NewEarningsWriter creates a writer over the member earnings table
func NewEarningsWriter(db *DB) domain.EarningsWriter {
	return &earningsRepository{db: db}
}

// Create inserts the member's earnings row; combined_earnings is generated by the database
func (r *earningsRepository) Create(ctx context.Context, a *domain.EarningsAggregate) error {
	query := `
		INSERT INTO member_earnings (member_id, package_earnings, referral_earnings)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, a.MemberID, a.PackageEarnings.String(), a.ReferralEarnings.String())
	if err != nil {
		return fmt.Errorf("failed to create earnings: %w", err)
	}

	return nil
}

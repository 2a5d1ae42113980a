package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarningsSource identifies which earnings bucket a request draws from
type EarningsSource string

const (
	EarningsSourcePackage  EarningsSource = "PACKAGE"
	EarningsSourceReferral EarningsSource = "REFERRAL"
)

// EarningsAggregate holds a member's running earnings totals
// Invariant: CombinedEarnings == PackageEarnings + ReferralEarnings
type EarningsAggregate struct {
	MemberID         uuid.UUID
	PackageEarnings  decimal.Decimal
	ReferralEarnings decimal.Decimal
	CombinedEarnings decimal.Decimal
}

// NewEarningsAggregate derives the combined total from its two components
func NewEarningsAggregate(memberID uuid.UUID, packageEarnings, referralEarnings decimal.Decimal) EarningsAggregate {
	return EarningsAggregate{
		MemberID:         memberID,
		PackageEarnings:  packageEarnings,
		ReferralEarnings: referralEarnings,
		CombinedEarnings: packageEarnings.Add(referralEarnings),
	}
}

// EarningsDelta is a signed change to the package and referral buckets
type EarningsDelta struct {
	Package  decimal.Decimal
	Referral decimal.Decimal
}

// DeltaFor returns a delta that moves only the given source's bucket
func DeltaFor(source EarningsSource, amount decimal.Decimal) EarningsDelta {
	if source == EarningsSourceReferral {
		return EarningsDelta{Referral: amount}
	}
	return EarningsDelta{Package: amount}
}

// Apply returns the aggregate that results from applying the delta
// The receiver is never modified
func (a EarningsAggregate) Apply(d EarningsDelta) (EarningsAggregate, error) {
	next := NewEarningsAggregate(
		a.MemberID,
		a.PackageEarnings.Add(d.Package),
		a.ReferralEarnings.Add(d.Referral),
	)
	if next.PackageEarnings.IsNegative() || next.ReferralEarnings.IsNegative() {
		return a, fmt.Errorf("%w: package %s, referral %s",
			ErrInsufficientEarnings, a.PackageEarnings.String(), a.ReferralEarnings.String())
	}
	return next, nil
}

// Available returns the balance of a single earnings bucket
func (a EarningsAggregate) Available(source EarningsSource) decimal.Decimal {
	if source == EarningsSourceReferral {
		return a.ReferralEarnings
	}
	return a.PackageEarnings
}

// Validate checks the non-negativity and combined-total invariants
func (a EarningsAggregate) Validate() error {
	if a.PackageEarnings.IsNegative() || a.ReferralEarnings.IsNegative() || a.CombinedEarnings.IsNegative() {
		return fmt.Errorf("%w: earnings cannot be negative", ErrValidation)
	}
	if !a.CombinedEarnings.Equal(a.PackageEarnings.Add(a.ReferralEarnings)) {
		return fmt.Errorf("%w: combined earnings must equal package plus referral earnings", ErrValidation)
	}
	return nil
}

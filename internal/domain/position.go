package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PackagePosition represents a purchased package that matures over time
// Created when a purchase is confirmed and removed exactly once, when its claim succeeds
type PackagePosition struct {
	ID           uuid.UUID // package connection id, stable for the lifetime of the position
	MemberID     uuid.UUID
	PackageName  string
	Principal    decimal.Decimal // amount invested
	Profit       decimal.Decimal // total profit promised at maturity
	StartTime    time.Time
	MaturityTime time.Time
	ColorTag     string // presentation only
}

// NewPackagePosition builds a position and rejects it if it violates the domain rules
func NewPackagePosition(
	id, memberID uuid.UUID,
	packageName string,
	principal, profit decimal.Decimal,
	start, maturity time.Time,
	colorTag string,
) (*PackagePosition, error) {
	p := &PackagePosition{
		ID:           id,
		MemberID:     memberID,
		PackageName:  packageName,
		Principal:    principal,
		Profit:       profit,
		StartTime:    start,
		MaturityTime: maturity,
		ColorTag:     colorTag,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate ensures the position adheres to domain rules
// CRITICAL: MaturityTime must be strictly after StartTime
func (p *PackagePosition) Validate() error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("%w: package position id cannot be empty", ErrValidation)
	}

	if p.Principal.IsNegative() {
		return fmt.Errorf("%w: package principal cannot be negative", ErrValidation)
	}

	if p.Profit.IsNegative() {
		return fmt.Errorf("%w: package profit cannot be negative", ErrValidation)
	}

	if !p.MaturityTime.After(p.StartTime) {
		return fmt.Errorf("%w: package maturity time must be after start time", ErrValidation)
	}

	return nil
}

// Payout is the full value realised when the position is claimed
func (p *PackagePosition) Payout() decimal.Decimal {
	return p.Principal.Add(p.Profit)
}

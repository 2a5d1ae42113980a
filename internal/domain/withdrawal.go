package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus is the approval state of a withdrawal or deposit request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// SupportedBanks lists the payout channels a withdrawal may target
var SupportedBanks = []string{"Gotyme", "Gcash", "BPI", "PayMaya"}

// WithdrawalRequest represents a member's request to cash out earnings
type WithdrawalRequest struct {
	ID            uuid.UUID
	MemberID      uuid.UUID
	Source        EarningsSource // 'PACKAGE' or 'REFERRAL'
	Bank          string
	AccountName   string
	AccountNumber string
	Amount        decimal.Decimal
	Status        RequestStatus
	CreatedAt     time.Time
}

// Validate ensures the withdrawal request adheres to domain rules
func (w *WithdrawalRequest) Validate() error {
	if w.Source != EarningsSourcePackage && w.Source != EarningsSourceReferral {
		return errors.New("withdrawal source must be PACKAGE or REFERRAL")
	}

	if !isSupportedBank(w.Bank) {
		return errors.New("withdrawal bank must be one of " + strings.Join(SupportedBanks, ", "))
	}

	if strings.TrimSpace(w.AccountName) == "" {
		return errors.New("withdrawal account name cannot be empty")
	}

	if strings.TrimSpace(w.AccountNumber) == "" {
		return errors.New("withdrawal account number cannot be empty")
	}

	return validateRequestAmount(w.Amount)
}

// RequestWindowEnd returns the start of the day after t in t's location.
// Members get one request per kind until then.
func RequestWindowEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

func isSupportedBank(bank string) bool {
	for _, b := range SupportedBanks {
		if b == bank {
			return true
		}
	}
	return false
}

// validateRequestAmount enforces a positive amount with at most two decimal places
func validateRequestAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("request amount must be positive")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return errors.New("request amount cannot have more than 2 decimal places")
	}
	return nil
}

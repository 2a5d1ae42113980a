package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of ledger entry
type TransactionType string

const (
	TransactionTypePackage    TransactionType = "PACKAGE"
	TransactionTypeReferral   TransactionType = "REFERRAL"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
)

// HistoryTab groups transaction types the way the history table shows them
type HistoryTab string

const (
	HistoryTabEarnings   HistoryTab = "EARNINGS"
	HistoryTabWithdrawal HistoryTab = "WITHDRAWAL"
	HistoryTabDeposit    HistoryTab = "DEPOSIT"
)

// Types returns the transaction types listed under the tab
func (t HistoryTab) Types() []TransactionType {
	switch t {
	case HistoryTabEarnings:
		return []TransactionType{TransactionTypePackage, TransactionTypeReferral}
	case HistoryTabWithdrawal:
		return []TransactionType{TransactionTypeWithdrawal}
	case HistoryTabDeposit:
		return []TransactionType{TransactionTypeDeposit}
	default:
		return nil
	}
}

// Includes reports whether an entry of the given type belongs under the tab
func (t HistoryTab) Includes(txType TransactionType) bool {
	for _, candidate := range t.Types() {
		if candidate == txType {
			return true
		}
	}
	return false
}

// LedgerEntry represents a single row of a member's transaction history
type LedgerEntry struct {
	ID               uuid.UUID
	MemberID         uuid.UUID
	Type             TransactionType
	Description      string
	Details          string
	Amount           decimal.Decimal // ABSOLUTE VALUE (Always Positive)
	Attachment       string          // receipt URL for deposits
	Date             time.Time
	SourcePositionID *uuid.UUID // set for PACKAGE entries only
}

// Validate ensures the ledger entry adheres to domain rules
func (e *LedgerEntry) Validate() error {
	if e.MemberID == uuid.Nil {
		return errors.New("ledger entry must reference a member")
	}

	switch e.Type {
	case TransactionTypePackage, TransactionTypeReferral, TransactionTypeWithdrawal, TransactionTypeDeposit:
	default:
		return errors.New("ledger entry type must be PACKAGE, REFERRAL, WITHDRAWAL, or DEPOSIT")
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("ledger entry amount must be positive (absolute value)")
	}

	if e.Type == TransactionTypePackage && e.SourcePositionID == nil {
		return errors.New("package ledger entry must reference its source position")
	}

	return nil
}

package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositRequest represents a member's top-up request backed by a payment receipt
type DepositRequest struct {
	ID            uuid.UUID
	MemberID      uuid.UUID
	Amount        decimal.Decimal
	TopUpMode     string // merchant channel the member paid through
	AccountName   string
	AccountNumber string
	ReceiptURL    string // NULL until the receipt is uploaded
	Status        RequestStatus
	CreatedAt     time.Time
}

// Validate ensures the deposit request adheres to domain rules
func (d *DepositRequest) Validate() error {
	if strings.TrimSpace(d.TopUpMode) == "" {
		return errors.New("deposit top-up mode cannot be empty")
	}

	if strings.TrimSpace(d.AccountName) == "" {
		return errors.New("deposit account name cannot be empty")
	}

	if strings.TrimSpace(d.AccountNumber) == "" {
		return errors.New("deposit account number cannot be empty")
	}

	return validateRequestAmount(d.Amount)
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BountyLevel separates direct referrals from the rest of the downline
type BountyLevel string

const (
	BountyLevelAlly   BountyLevel = "ALLY"   // direct referral
	BountyLevelLegion BountyLevel = "LEGION" // indirect referral
)

// ReferralBounty is one row of the ally or legion bounty tables
type ReferralBounty struct {
	MemberID            uuid.UUID // the earning member
	ReferredMemberID    uuid.UUID
	ReferredUsername    string
	Level               BountyLevel
	TotalBountyEarnings decimal.Decimal
	Date                time.Time
}

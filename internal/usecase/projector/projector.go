package projector

import (
	"time"

	"github.com/redcloud442/aurora/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Projection is the point-in-time claimable view of a package position
type Projection struct {
	PercentComplete decimal.Decimal // 0.00 to 100.00
	CurrentValue    decimal.Decimal
	ReadyToClaim    bool // now has reached maturity; independent of the rounded percent
}

// Project calculates how far a position has matured at the given instant
// Logic:
//  1. elapsed = max(now - start, 0) in milliseconds
//  2. total = max(maturity - start, 1) in milliseconds
//  3. percent = min(elapsed / total * 100, 100), rounded to 2 decimal places
//  4. value = (principal + profit) * percent / 100
//  5. ready = now >= maturity
//
// The function is total: invalid positions are rejected before they get here.
func Project(p *domain.PackagePosition, now time.Time) Projection {
	elapsed := now.Sub(p.StartTime).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	total := p.MaturityTime.Sub(p.StartTime).Milliseconds()
	if total < 1 {
		total = 1
	}

	percent := decimal.NewFromInt(elapsed).Mul(hundred).Div(decimal.NewFromInt(total))
	percent = decimal.Min(percent, hundred).Round(2)

	return Projection{
		PercentComplete: percent,
		CurrentValue:    p.Payout().Mul(percent).Div(hundred),
		ReadyToClaim:    !now.Before(p.MaturityTime),
	}
}

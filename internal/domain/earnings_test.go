package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEarningsAggregate_Apply(t *testing.T) {
	memberID := uuid.New()
	base := NewEarningsAggregate(memberID, decimal.NewFromInt(200), decimal.NewFromInt(50))

	tests := []struct {
		name         string
		delta        EarningsDelta
		wantErr      bool
		wantPackage  decimal.Decimal
		wantReferral decimal.Decimal
	}{
		{
			name:         "package credit",
			delta:        EarningsDelta{Package: decimal.NewFromInt(1500)},
			wantPackage:  decimal.NewFromInt(1700),
			wantReferral: decimal.NewFromInt(50),
		},
		{
			name:         "referral debit",
			delta:        EarningsDelta{Referral: decimal.NewFromInt(-50)},
			wantPackage:  decimal.NewFromInt(200),
			wantReferral: decimal.Zero,
		},
		{
			name:         "both buckets at once",
			delta:        EarningsDelta{Package: decimal.NewFromInt(-100), Referral: decimal.NewFromInt(25)},
			wantPackage:  decimal.NewFromInt(100),
			wantReferral: decimal.NewFromInt(75),
		},
		{
			name:    "overdraw package should fail",
			delta:   EarningsDelta{Package: decimal.NewFromInt(-201)},
			wantErr: true,
		},
		{
			name:    "overdraw referral should fail",
			delta:   EarningsDelta{Referral: decimal.RequireFromString("-50.01")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := base.Apply(tt.delta)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsufficientEarnings)
				assert.Equal(t, base, next)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.wantPackage.Equal(next.PackageEarnings))
			assert.True(t, tt.wantReferral.Equal(next.ReferralEarnings))
			assert.True(t, next.CombinedEarnings.Equal(next.PackageEarnings.Add(next.ReferralEarnings)))
			assert.NoError(t, next.Validate())
		})
	}
}

func TestEarningsAggregate_Validate(t *testing.T) {
	broken := EarningsAggregate{
		PackageEarnings:  decimal.NewFromInt(10),
		ReferralEarnings: decimal.NewFromInt(5),
		CombinedEarnings: decimal.NewFromInt(10),
	}
	assert.ErrorIs(t, broken.Validate(), ErrValidation)

	assert.NoError(t, NewEarningsAggregate(uuid.New(), decimal.Zero, decimal.Zero).Validate())
}

func TestDeltaFor(t *testing.T) {
	amount := decimal.NewFromInt(-30)

	assert.Equal(t, EarningsDelta{Package: amount}, DeltaFor(EarningsSourcePackage, amount))
	assert.Equal(t, EarningsDelta{Referral: amount}, DeltaFor(EarningsSourceReferral, amount))
}

package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

// MockLedgerRepository is a mock implementation of domain.LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) List(ctx context.Context, memberID uuid.UUID, tab domain.HistoryTab, limit, offset int) ([]*domain.LedgerEntry, error) {
	args := m.Called(ctx, memberID, tab, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Count(ctx context.Context, memberID uuid.UUID, tab domain.HistoryTab) (int, error) {
	args := m.Called(ctx, memberID, tab)
	return args.Int(0), args.Error(1)
}

// MockBountyRepository is a mock implementation of domain.BountyRepository
type MockBountyRepository struct {
	mock.Mock
}

func (m *MockBountyRepository) List(ctx context.Context, memberID uuid.UUID, level domain.BountyLevel, limit, offset int) ([]*domain.ReferralBounty, error) {
	args := m.Called(ctx, memberID, level, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReferralBounty), args.Error(1)
}

func (m *MockBountyRepository) Count(ctx context.Context, memberID uuid.UUID, level domain.BountyLevel) (int, error) {
	args := m.Called(ctx, memberID, level)
	return args.Int(0), args.Error(1)
}

func entry(memberID uuid.UUID, txType domain.TransactionType) *domain.LedgerEntry {
	e := &domain.LedgerEntry{
		ID:       uuid.New(),
		MemberID: memberID,
		Type:     txType,
		Amount:   decimal.NewFromInt(100),
		Date:     time.Now(),
	}
	if txType == domain.TransactionTypePackage {
		id := uuid.New()
		e.SourcePositionID = &id
	}
	return e
}

func TestLedger_RecordPrependsAndFilters(t *testing.T) {
	memberID := uuid.New()
	l := NewLedger()

	claim := entry(memberID, domain.TransactionTypePackage)
	withdrawal := entry(memberID, domain.TransactionTypeWithdrawal)
	referral := entry(memberID, domain.TransactionTypeReferral)
	for _, e := range []*domain.LedgerEntry{claim, withdrawal, referral} {
		require.NoError(t, l.Record(e))
	}

	earnings := l.Recent(domain.HistoryTabEarnings)
	require.Len(t, earnings, 2)
	assert.Equal(t, referral.ID, earnings[0].ID, "newest first")
	assert.Equal(t, claim.ID, earnings[1].ID)
	assert.Len(t, l.Recent(domain.HistoryTabWithdrawal), 1)
	assert.Empty(t, l.Recent(domain.HistoryTabDeposit))

	l.Clear()
	assert.Zero(t, l.Len())
}

func TestLedger_RecordRejectsInvalid(t *testing.T) {
	l := NewLedger()
	bad := entry(uuid.New(), domain.TransactionTypePackage)
	bad.SourcePositionID = nil

	assert.Error(t, l.Record(bad))
	assert.Zero(t, l.Len())
}

func TestHistoryService_TransactionsPaged(t *testing.T) {
	memberID := uuid.New()
	ledgerRepo := new(MockLedgerRepository)
	rows := []*domain.LedgerEntry{entry(memberID, domain.TransactionTypeDeposit)}
	ledgerRepo.On("Count", mock.Anything, memberID, domain.HistoryTabDeposit).Return(11, nil).Once()
	ledgerRepo.On("List", mock.Anything, memberID, domain.HistoryTabDeposit, 10, 10).Return(rows, nil).Once()

	s := NewHistoryService(memberID, ledgerRepo, new(MockBountyRepository), 10)
	page, err := s.Transactions(context.Background(), domain.HistoryTabDeposit, 2)

	require.NoError(t, err)
	assert.Equal(t, rows, page.Rows)
	assert.Equal(t, 11, page.Total)
	assert.False(t, page.HasNext)
	ledgerRepo.AssertExpectations(t)
}

func TestHistoryService_RecordInvalidatesMatchingTabOnly(t *testing.T) {
	memberID := uuid.New()
	ledgerRepo := new(MockLedgerRepository)
	for _, tab := range []domain.HistoryTab{domain.HistoryTabEarnings, domain.HistoryTabDeposit} {
		ledgerRepo.On("Count", mock.Anything, memberID, tab).Return(0, nil)
		ledgerRepo.On("List", mock.Anything, memberID, tab, 10, 0).Return([]*domain.LedgerEntry{}, nil)
	}

	s := NewHistoryService(memberID, ledgerRepo, new(MockBountyRepository), 10)
	ctx := context.Background()
	for _, tab := range []domain.HistoryTab{domain.HistoryTabEarnings, domain.HistoryTabDeposit} {
		_, err := s.Transactions(ctx, tab, 1)
		require.NoError(t, err)
	}

	require.NoError(t, s.Record(entry(memberID, domain.TransactionTypePackage)))

	for _, tab := range []domain.HistoryTab{domain.HistoryTabEarnings, domain.HistoryTabDeposit} {
		_, err := s.Transactions(ctx, tab, 1)
		require.NoError(t, err)
	}

	ledgerRepo.AssertNumberOfCalls(t, "Count", 3)
	assert.Len(t, s.Ledger.Recent(domain.HistoryTabEarnings), 1)
}

func TestHistoryService_Bounties(t *testing.T) {
	memberID := uuid.New()
	bountyRepo := new(MockBountyRepository)
	rows := []*domain.ReferralBounty{{MemberID: memberID, ReferredUsername: "ally1", Level: domain.BountyLevelAlly}}
	bountyRepo.On("Count", mock.Anything, memberID, domain.BountyLevelAlly).Return(1, nil)
	bountyRepo.On("List", mock.Anything, memberID, domain.BountyLevelAlly, 10, 0).Return(rows, nil)

	s := NewHistoryService(memberID, new(MockLedgerRepository), bountyRepo, 10)
	page, err := s.Bounties(context.Background(), domain.BountyLevelAlly, 1)

	require.NoError(t, err)
	assert.Equal(t, rows, page.Rows)

	_, err = s.Bounties(context.Background(), "GUILD", 1)
	assert.Error(t, err)
}

func TestHistoryService_UnknownTab(t *testing.T) {
	s := NewHistoryService(uuid.New(), new(MockLedgerRepository), new(MockBountyRepository), 10)

	_, err := s.Transactions(context.Background(), "BONUS", 1)

	assert.Error(t, err)
}

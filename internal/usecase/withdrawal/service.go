package withdrawal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/earnings"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequestWithdrawalInput represents the input for a withdrawal request
type RequestWithdrawalInput struct {
	Source        domain.EarningsSource
	Bank          string
	AccountName   string
	AccountNumber string
	Amount        decimal.Decimal
}

// Recorder journals ledger entries so they are visible immediately
type Recorder interface {
	Record(entry *domain.LedgerEntry) error
}

// WithdrawalService handles cash-out requests against the earnings buckets
type WithdrawalService struct {
	MemberID uuid.UUID
	Earnings *earnings.Store
	History  Recorder
	Backend  domain.Backend
	Limiter  domain.RequestLimiter // optional

	now    func() time.Time
	logger *zap.Logger

	// serializes the balance check with the debit
	mu sync.Mutex
}

// NewWithdrawalService creates a new WithdrawalService instance
func NewWithdrawalService(
	memberID uuid.UUID,
	store *earnings.Store,
	history Recorder,
	backend domain.Backend,
	logger *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		MemberID: memberID,
		Earnings: store,
		History:  history,
		Backend:  backend,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "withdrawal"), zap.String("member_id", memberID.String())),
	}
}

// WithClock overrides the time source used for request timestamps and daily windows
func (s *WithdrawalService) WithClock(now func() time.Time) *WithdrawalService {
	s.now = now
	return s
}

// RequestWithdrawal submits a withdrawal and debits the selected earnings bucket
// Logic:
//  1. Validate the request and check the bucket covers the amount
//  2. Reserve the member's daily allowance for the source
//  3. Submit to the server of record; on failure give the allowance back
//  4. Debit the bucket and journal a WITHDRAWAL ledger entry
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, input RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
	now := s.now()
	req := &domain.WithdrawalRequest{
		ID:            uuid.New(),
		MemberID:      s.MemberID,
		Source:        input.Source,
		Bank:          input.Bank,
		AccountName:   input.AccountName,
		AccountNumber: input.AccountNumber,
		Amount:        input.Amount,
		Status:        domain.RequestStatusPending,
		CreatedAt:     now,
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	available := s.Earnings.Snapshot().Available(req.Source)
	if req.Amount.GreaterThan(available) {
		return nil, fmt.Errorf("%w: requested %s, available %s",
			domain.ErrInsufficientEarnings, req.Amount.StringFixed(2), available.StringFixed(2))
	}

	key := s.limiterKey(req.Source, now)
	if s.Limiter != nil {
		reserved, err := s.Limiter.Reserve(ctx, key, domain.RequestWindowEnd(now))
		if err != nil {
			return nil, fmt.Errorf("%w: reserve withdrawal allowance: %v", domain.ErrNetworkFailure, err)
		}
		if !reserved {
			return nil, fmt.Errorf("%w: %s withdrawal", domain.ErrRequestPending, req.Source)
		}
	}

	accepted, err := s.Backend.SubmitWithdrawal(ctx, req)
	if err != nil || !accepted {
		s.release(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
		}
		return nil, fmt.Errorf("%w: withdrawal", domain.ErrRequestRejected)
	}

	if _, err := s.Earnings.Apply(domain.DeltaFor(req.Source, req.Amount.Neg())); err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:          req.ID,
		MemberID:    s.MemberID,
		Type:        domain.TransactionTypeWithdrawal,
		Description: fmt.Sprintf("%s Withdrawal (%s)", req.Bank, req.Source),
		Details:     req.AccountName + " " + req.AccountNumber,
		Amount:      req.Amount,
		Date:        now,
	}
	if err := s.History.Record(entry); err != nil {
		s.logger.Warn("failed to journal withdrawal", zap.Error(err))
	}

	s.logger.Info("withdrawal requested",
		zap.String("request_id", req.ID.String()),
		zap.String("source", string(req.Source)),
		zap.String("amount", req.Amount.StringFixed(2)),
	)
	return req, nil
}

func (s *WithdrawalService) limiterKey(source domain.EarningsSource, at time.Time) string {
	return fmt.Sprintf("withdraw:%s:%s:%s", s.MemberID, source, at.Format("2006-01-02"))
}

func (s *WithdrawalService) release(key string) {
	if s.Limiter == nil {
		return
	}
	// a fresh context: the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Limiter.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release withdrawal allowance", zap.String("key", key), zap.Error(err))
	}
}

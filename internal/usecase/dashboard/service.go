package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/claim"
	"github.com/redcloud442/aurora/internal/usecase/deposit"
	"github.com/redcloud442/aurora/internal/usecase/earnings"
	"github.com/redcloud442/aurora/internal/usecase/history"
	"github.com/redcloud442/aurora/internal/usecase/portfolio"
	"github.com/redcloud442/aurora/internal/usecase/ticker"
	"github.com/redcloud442/aurora/internal/usecase/withdrawal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options tunes the sessions a DashboardService creates
type Options struct {
	FrameInterval time.Duration
	PageSize      int
	Now           func() time.Time // defaults to time.Now
}

// DashboardService owns the live dashboard session of every connected member
type DashboardService struct {
	PositionRepo domain.PositionRepository
	EarningsRepo domain.EarningsRepository
	LedgerRepo   domain.LedgerRepository
	BountyRepo   domain.BountyRepository
	Backend      domain.Backend

	// optional collaborators
	Locks    domain.LockManager
	Limiter  domain.RequestLimiter
	Receipts domain.ReceiptStore
	Notifier claim.Notifier

	opts   Options
	logger *zap.Logger

	loads    singleflight.Group
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

// entry tracks who is holding a session and when it was last used
type entry struct {
	session  *Session
	refs     int
	lastUsed time.Time
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	positionRepo domain.PositionRepository,
	earningsRepo domain.EarningsRepository,
	ledgerRepo domain.LedgerRepository,
	bountyRepo domain.BountyRepository,
	backend domain.Backend,
	opts Options,
	logger *zap.Logger,
) *DashboardService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DashboardService{
		PositionRepo: positionRepo,
		EarningsRepo: earningsRepo,
		LedgerRepo:   ledgerRepo,
		BountyRepo:   bountyRepo,
		Backend:      backend,
		opts:         opts,
		logger:       logger.With(zap.String("component", "dashboard")),
		sessions:     make(map[uuid.UUID]*entry),
	}
}

// Session returns the member's session, loading it from the list source on first use
func (s *DashboardService) Session(ctx context.Context, memberID uuid.UUID) (*Session, error) {
	if sess, ok := s.lookup(memberID); ok {
		return sess, nil
	}

	v, err, _ := s.loads.Do(memberID.String(), func() (interface{}, error) {
		if sess, ok := s.lookup(memberID); ok {
			return sess, nil
		}
		sess, err := s.load(ctx, memberID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.sessions[memberID] = &entry{session: sess, lastUsed: s.opts.Now()}
		s.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Refresh reconciles the member's session with the server of record
// Logic:
//   - Earnings: overwritten wholesale by the authoritative snapshot
//   - Positions: the active set is reloaded, which replaces every ticker task
//   - History: cached pages and locally journaled entries are dropped
func (s *DashboardService) Refresh(ctx context.Context, memberID uuid.UUID) (*Session, error) {
	sess, err := s.Session(ctx, memberID)
	if err != nil {
		return nil, err
	}

	positions, aggregate, err := s.fetch(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if err := sess.Earnings.Reset(*aggregate); err != nil {
		return nil, err
	}
	if err := sess.Positions.Load(positions); err != nil {
		s.logger.Warn("refresh skipped invalid positions", zap.String("member_id", memberID.String()), zap.Error(err))
	}
	sess.History.Invalidate()
	sess.History.Ledger.Clear()

	s.logger.Info("session refreshed",
		zap.String("member_id", memberID.String()),
		zap.Int("positions", len(positions)),
	)
	return sess, nil
}

// Acquire returns the member's session and holds it open until release is called.
// The session is closed when the last holder releases it.
func (s *DashboardService) Acquire(ctx context.Context, memberID uuid.UUID) (*Session, func(), error) {
	for {
		sess, err := s.Session(ctx, memberID)
		if err != nil {
			return nil, nil, err
		}

		s.mu.Lock()
		e, ok := s.sessions[memberID]
		if !ok || e.session != sess {
			// dropped between load and hold
			s.mu.Unlock()
			continue
		}
		e.refs++
		s.mu.Unlock()

		var once sync.Once
		return sess, func() { once.Do(func() { s.release(memberID, sess) }) }, nil
	}
}

func (s *DashboardService) release(memberID uuid.UUID, sess *Session) {
	s.mu.Lock()
	e, ok := s.sessions[memberID]
	if !ok || e.session != sess {
		s.mu.Unlock()
		return
	}
	e.refs--
	e.lastUsed = s.opts.Now()
	if e.refs > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, memberID)
	s.mu.Unlock()

	sess.Close()
	s.logger.Info("session released", zap.String("member_id", memberID.String()))
}

// EvictIdle closes sessions nobody holds that have not been used for idle.
// It returns the number of sessions closed.
func (s *DashboardService) EvictIdle(idle time.Duration) int {
	cutoff := s.opts.Now().Add(-idle)

	s.mu.Lock()
	var evicted []*Session
	for memberID, e := range s.sessions {
		if e.refs == 0 && e.lastUsed.Before(cutoff) {
			evicted = append(evicted, e.session)
			delete(s.sessions, memberID)
		}
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.Close()
	}
	if len(evicted) > 0 {
		s.logger.Info("idle sessions evicted", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// RunEviction calls EvictIdle every interval until ctx is done
func (s *DashboardService) RunEviction(ctx context.Context, idle, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.EvictIdle(idle)
		}
	}
}

// Len returns the number of open sessions
func (s *DashboardService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Drop closes and forgets the member's session
func (s *DashboardService) Drop(memberID uuid.UUID) {
	s.mu.Lock()
	e, ok := s.sessions[memberID]
	delete(s.sessions, memberID)
	s.mu.Unlock()

	if ok {
		e.session.Close()
	}
}

// Close stops every session
func (s *DashboardService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*entry)
	s.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
	}
}

// lookup returns a loaded session and marks it used
func (s *DashboardService) lookup(memberID uuid.UUID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[memberID]
	if !ok {
		return nil, false
	}
	e.lastUsed = s.opts.Now()
	return e.session, true
}

func (s *DashboardService) fetch(ctx context.Context, memberID uuid.UUID) ([]*domain.PackagePosition, *domain.EarningsAggregate, error) {
	positions, err := s.PositionRepo.ListActive(ctx, memberID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list active positions: %w", err)
	}

	aggregate, err := s.EarningsRepo.Get(ctx, memberID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load earnings: %w", err)
	}
	return positions, aggregate, nil
}

func (s *DashboardService) load(ctx context.Context, memberID uuid.UUID) (*Session, error) {
	positions, aggregate, err := s.fetch(ctx, memberID)
	if err != nil {
		return nil, err
	}

	store, err := earnings.NewStore(*aggregate, s.logger)
	if err != nil {
		return nil, err
	}

	tk := ticker.New(ticker.Config{FrameInterval: s.opts.FrameInterval, Now: s.opts.Now}, s.logger)
	set := portfolio.NewActiveSet(tk, s.logger)
	if err := set.Load(positions); err != nil {
		s.logger.Warn("session skipped invalid positions", zap.String("member_id", memberID.String()), zap.Error(err))
	}

	hist := history.NewHistoryService(memberID, s.LedgerRepo, s.BountyRepo, s.opts.PageSize)

	claims := claim.NewClaimService(memberID, set, store, hist, s.Backend, s.logger).WithClock(s.opts.Now)
	claims.Locks = s.Locks
	claims.Notifier = s.Notifier

	withdrawals := withdrawal.NewWithdrawalService(memberID, store, hist, s.Backend, s.logger).WithClock(s.opts.Now)
	withdrawals.Limiter = s.Limiter

	deposits := deposit.NewDepositService(memberID, s.Receipts, hist, s.Backend, s.logger).WithClock(s.opts.Now)
	deposits.Limiter = s.Limiter

	s.logger.Info("session loaded",
		zap.String("member_id", memberID.String()),
		zap.Int("positions", len(positions)),
		zap.String("combined_earnings", aggregate.CombinedEarnings.StringFixed(2)),
	)

	return &Session{
		MemberID:    memberID,
		Positions:   set,
		Earnings:    store,
		History:     hist,
		Claims:      claims,
		Withdrawals: withdrawals,
		Deposits:    deposits,
	}, nil
}

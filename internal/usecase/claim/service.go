package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/earnings"
	"github.com/redcloud442/aurora/internal/usecase/portfolio"
	"github.com/redcloud442/aurora/internal/usecase/projector"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LockTTL bounds how long a crashed instance can keep a position locked
const LockTTL = 15 * time.Second

// Recorder journals ledger entries so they are visible immediately
type Recorder interface {
	Record(entry *domain.LedgerEntry) error
}

// NoticeLevel is the severity of a user-visible notice
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short message shown to the member
type Notice struct {
	Level   NoticeLevel
	Title   string
	Message string
}

// Notifier delivers notices to the member's open views
type Notifier interface {
	Notify(memberID uuid.UUID, n Notice)
}

// Result describes a completed claim
type Result struct {
	Position *domain.PackagePosition
	Payout   decimal.Decimal
	Earnings domain.EarningsAggregate
	Entry    *domain.LedgerEntry
}

// ClaimService moves matured positions out of the active set and into earnings
type ClaimService struct {
	MemberID  uuid.UUID
	Positions *portfolio.ActiveSet
	Earnings  *earnings.Store
	History   Recorder
	Backend   domain.Backend
	Locks     domain.LockManager // optional
	Notifier  Notifier           // optional

	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewClaimService creates a new ClaimService instance
func NewClaimService(
	memberID uuid.UUID,
	positions *portfolio.ActiveSet,
	store *earnings.Store,
	history Recorder,
	backend domain.Backend,
	logger *zap.Logger,
) *ClaimService {
	return &ClaimService{
		MemberID:  memberID,
		Positions: positions,
		Earnings:  store,
		History:   history,
		Backend:   backend,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "claim"), zap.Stringer("member_id", memberID)),
		inFlight:  make(map[uuid.UUID]struct{}),
	}
}

// WithClock overrides the time source used for the ready check and ledger timestamps
func (s *ClaimService) WithClock(now func() time.Time) *ClaimService {
	s.now = now
	return s
}

// Claim collects a matured position
// Logic:
//  1. Guard the id against a concurrent or repeated claim
//  2. Check the position is ready
//  3. Confirm with the server of record (under the distributed lock when configured)
//  4. Remove the position from the active set, which cancels its ticker task
//  5. Credit principal + profit to package earnings
//  6. Journal a PACKAGE ledger entry
//
// A failure before step 4 leaves the position and the earnings untouched.
func (s *ClaimService) Claim(ctx context.Context, positionID uuid.UUID) (*Result, error) {
	if err := s.begin(positionID); err != nil {
		return nil, s.fail(err)
	}
	defer s.end(positionID)

	position, ok := s.Positions.Get(positionID)
	if !ok {
		return nil, s.fail(newError(KindNotFound, positionID, false, domain.ErrNotFound))
	}

	if !projector.Project(position, s.now()).ReadyToClaim {
		return nil, s.fail(newError(KindNotReady, positionID, false, domain.ErrNotReady))
	}

	if s.Locks != nil {
		unlock, err := s.Locks.Acquire(ctx, "claim:"+positionID.String(), LockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			return nil, s.fail(newError(KindConflict, positionID, false, domain.ErrClaimConflict))
		}
		if err != nil {
			return nil, s.fail(newError(KindNetwork, positionID, true, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)))
		}
		defer unlock()
	}

	confirmed, err := s.Backend.ConfirmClaim(ctx, s.MemberID, positionID)
	if err != nil {
		return nil, s.fail(newError(KindNetwork, positionID, true, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)))
	}
	if !confirmed {
		return nil, s.fail(newError(KindRejected, positionID, false, domain.ErrClaimRejected))
	}

	claimedAt := s.now()
	payout := position.Payout()
	entry := &domain.LedgerEntry{
		ID:               uuid.New(),
		MemberID:         s.MemberID,
		Type:             domain.TransactionTypePackage,
		Description:      position.PackageName + " Package Claimed",
		Amount:           payout,
		Date:             claimedAt,
		SourcePositionID: &positionID,
	}

	var aggregate domain.EarningsAggregate
	_, err = s.Positions.Remove(positionID, claimedAt)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// A refresh listed the positions after the server committed the claim,
		// so the snapshot it loaded already carries the payout and the entry.
		aggregate = s.Earnings.Snapshot()
		s.logger.Info("claim already reconciled by refresh", zap.Stringer("position_id", positionID))
	case err != nil:
		return nil, s.fail(newError(KindConflict, positionID, false, err))
	default:
		aggregate, err = s.Earnings.Apply(domain.DeltaFor(domain.EarningsSourcePackage, payout))
		if err != nil {
			return nil, s.fail(newError(KindInternal, positionID, false, err))
		}
		if err := s.History.Record(entry); err != nil {
			// the claim is committed server side; the next refresh lists it
			s.logger.Warn("failed to journal claim", zap.Stringer("position_id", positionID), zap.Error(err))
		}
	}

	s.logger.Info("package claimed",
		zap.Stringer("position_id", positionID),
		zap.String("payout", payout.StringFixed(2)),
	)
	s.notify(Notice{
		Level:   NoticeSuccess,
		Title:   "Package claimed",
		Message: fmt.Sprintf("%s added to your package earnings", payout.StringFixed(2)),
	})

	return &Result{
		Position: position,
		Payout:   payout,
		Earnings: aggregate,
		Entry:    entry,
	}, nil
}

// InFlight reports whether a claim for the id is being processed
func (s *ClaimService) InFlight(positionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[positionID]
	return ok
}

func (s *ClaimService) begin(id uuid.UUID) *Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[id]; busy {
		return newError(KindConflict, id, false, domain.ErrClaimConflict)
	}
	if s.Positions.IsClaimed(id) {
		return newError(KindConflict, id, false, domain.ErrClaimConflict)
	}
	s.inFlight[id] = struct{}{}
	return nil
}

func (s *ClaimService) end(id uuid.UUID) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

func (s *ClaimService) fail(err *Error) *Error {
	s.logger.Warn("claim failed",
		zap.Stringer("position_id", err.PositionID),
		zap.String("kind", string(err.Kind)),
		zap.Bool("retryable", err.Retryable),
		zap.Error(err.Err),
	)
	s.notify(Notice{
		Level:   NoticeError,
		Title:   "Claim failed",
		Message: noticeMessage(err.Kind),
	})
	return err
}

func (s *ClaimService) notify(n Notice) {
	if s.Notifier != nil {
		s.Notifier.Notify(s.MemberID, n)
	}
}

func noticeMessage(kind Kind) string {
	switch kind {
	case KindConflict:
		return "This package is already being claimed."
	case KindNotFound:
		return "This package is no longer active."
	case KindNotReady:
		return "This package has not matured yet."
	case KindRejected:
		return "The claim was not accepted. Please contact support."
	case KindNetwork:
		return "Could not reach the server. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

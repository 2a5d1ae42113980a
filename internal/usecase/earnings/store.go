package earnings

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redcloud442/aurora/internal/domain"
	"go.uber.org/zap"
)

// Store holds a member's running earnings totals.
// Writers are serialized; each accepted mutation is published with a single
// pointer swap so Snapshot never observes a partially applied delta.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[domain.EarningsAggregate]
	logger  *zap.Logger
}

// NewStore creates a Store seeded with the snapshot loaded from the server of record
func NewStore(initial domain.EarningsAggregate, logger *zap.Logger) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("earnings: initial snapshot: %w", err)
	}
	s := &Store{logger: logger.With(zap.String("component", "earnings"))}
	s.current.Store(&initial)
	return s, nil
}

// Snapshot returns the aggregate as of the last applied mutation
func (s *Store) Snapshot() domain.EarningsAggregate {
	return *s.current.Load()
}

// Apply is the only mutation: it adds the delta to the package and referral
// buckets and recomputes the combined total in the same step.
func (s *Store) Apply(delta domain.EarningsDelta) (domain.EarningsAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	next, err := prev.Apply(delta)
	if err != nil {
		return *prev, err
	}
	s.current.Store(&next)

	s.logger.Debug("earnings updated",
		zap.String("member_id", next.MemberID.String()),
		zap.String("package_delta", delta.Package.String()),
		zap.String("referral_delta", delta.Referral.String()),
		zap.String("combined", next.CombinedEarnings.String()),
	)
	return next, nil
}

// Reset overwrites the local totals wholesale with an authoritative snapshot
func (s *Store) Reset(authoritative domain.EarningsAggregate) error {
	if err := authoritative.Validate(); err != nil {
		return fmt.Errorf("earnings: reconcile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(&authoritative)
	return nil
}

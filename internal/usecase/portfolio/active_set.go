package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/ticker"
	"go.uber.org/zap"
)

// ActiveSet holds a member's unclaimed positions and keeps the ticker in step with it
type ActiveSet struct {
	mu        sync.Mutex
	positions map[uuid.UUID]*domain.PackagePosition
	claimed   map[uuid.UUID]time.Time // removal is permanent for an id

	Ticker *ticker.Ticker
	logger *zap.Logger
}

// NewActiveSet creates an empty ActiveSet driving the given ticker
func NewActiveSet(tk *ticker.Ticker, logger *zap.Logger) *ActiveSet {
	return &ActiveSet{
		positions: make(map[uuid.UUID]*domain.PackagePosition),
		claimed:   make(map[uuid.UUID]time.Time),
		Ticker:    tk,
		logger:    logger.With(zap.String("component", "active_set")),
	}
}

// Load replaces the whole collection with a fresh list from the server of record
// Invalid positions never enter the set; they are reported in the returned error
// while the valid ones are still loaded. Ids already claimed locally are skipped.
// The ticker is replaced under the set lock so a concurrent Remove cannot be undone.
func (s *ActiveSet) Load(positions []*domain.PackagePosition) error {
	var rejected []error
	next := make(map[uuid.UUID]*domain.PackagePosition, len(positions))

	s.mu.Lock()
	for _, p := range positions {
		if err := p.Validate(); err != nil {
			rejected = append(rejected, fmt.Errorf("position %s: %w", p.ID, err))
			continue
		}
		if _, done := s.claimed[p.ID]; done {
			continue
		}
		next[p.ID] = p
	}
	s.positions = next
	s.Ticker.Replace(s.sortedLocked())
	s.mu.Unlock()

	if len(rejected) > 0 {
		s.logger.Warn("rejected invalid positions", zap.Int("count", len(rejected)))
	}
	return errors.Join(rejected...)
}

// Get retrieves an active position by its ID
func (s *ActiveSet) Get(id uuid.UUID) (*domain.PackagePosition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	return p, ok
}

// IsClaimed reports whether the id has already been removed by a claim
func (s *ActiveSet) IsClaimed(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, done := s.claimed[id]
	return done
}

// List returns the active positions ordered by start time
func (s *ActiveSet) List() []*domain.PackagePosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Remove takes a position out of the set exactly once and stops its ticker task
// A second removal of the same id fails with ErrClaimConflict.
func (s *ActiveSet) Remove(id uuid.UUID, at time.Time) (*domain.PackagePosition, error) {
	s.mu.Lock()
	if _, done := s.claimed[id]; done {
		s.mu.Unlock()
		return nil, fmt.Errorf("position %s: %w", id, domain.ErrClaimConflict)
	}
	p, ok := s.positions[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("position %s: %w", id, domain.ErrNotFound)
	}
	delete(s.positions, id)
	s.claimed[id] = at
	s.mu.Unlock()

	s.Ticker.Cancel(id)
	return p, nil
}

// Close stops every ticker task
func (s *ActiveSet) Close() {
	s.Ticker.Stop()
}

func (s *ActiveSet) sortedLocked() []*domain.PackagePosition {
	out := make([]*domain.PackagePosition, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

package history

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
)

// HistoryService serves a member's transaction history and bounty tables
// from discrete page caches backed by the list source
type HistoryService struct {
	Ledger *Ledger

	transactions map[domain.HistoryTab]*Pager[*domain.LedgerEntry]
	bounties     map[domain.BountyLevel]*Pager[*domain.ReferralBounty]
}

// NewHistoryService creates a HistoryService instance for one member
func NewHistoryService(
	memberID uuid.UUID,
	ledgerRepo domain.LedgerRepository,
	bountyRepo domain.BountyRepository,
	pageSize int,
) *HistoryService {
	s := &HistoryService{
		Ledger:       NewLedger(),
		transactions: make(map[domain.HistoryTab]*Pager[*domain.LedgerEntry]),
		bounties:     make(map[domain.BountyLevel]*Pager[*domain.ReferralBounty]),
	}

	for _, tab := range []domain.HistoryTab{domain.HistoryTabEarnings, domain.HistoryTabWithdrawal, domain.HistoryTabDeposit} {
		tab := tab
		s.transactions[tab] = NewPager(pageSize, func(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, int, error) {
			total, err := ledgerRepo.Count(ctx, memberID, tab)
			if err != nil {
				return nil, 0, err
			}
			rows, err := ledgerRepo.List(ctx, memberID, tab, limit, offset)
			if err != nil {
				return nil, 0, err
			}
			return rows, total, nil
		})
	}

	for _, level := range []domain.BountyLevel{domain.BountyLevelAlly, domain.BountyLevelLegion} {
		level := level
		s.bounties[level] = NewPager(pageSize, func(ctx context.Context, limit, offset int) ([]*domain.ReferralBounty, int, error) {
			total, err := bountyRepo.Count(ctx, memberID, level)
			if err != nil {
				return nil, 0, err
			}
			rows, err := bountyRepo.List(ctx, memberID, level, limit, offset)
			if err != nil {
				return nil, 0, err
			}
			return rows, total, nil
		})
	}

	return s
}

// Transactions returns one page of the history tab
func (s *HistoryService) Transactions(ctx context.Context, tab domain.HistoryTab, page int) (Page[*domain.LedgerEntry], error) {
	pager, ok := s.transactions[tab]
	if !ok {
		return Page[*domain.LedgerEntry]{}, errors.New("invalid history tab: " + string(tab))
	}
	return pager.Get(ctx, page)
}

// Bounties returns one page of the ally or legion bounty table
func (s *HistoryService) Bounties(ctx context.Context, level domain.BountyLevel, page int) (Page[*domain.ReferralBounty], error) {
	pager, ok := s.bounties[level]
	if !ok {
		return Page[*domain.ReferralBounty]{}, errors.New("invalid bounty level: " + string(level))
	}
	return pager.Get(ctx, page)
}

// Record journals a local entry and drops the cached pages of every tab that lists it
func (s *HistoryService) Record(entry *domain.LedgerEntry) error {
	if err := s.Ledger.Record(entry); err != nil {
		return err
	}
	for tab, pager := range s.transactions {
		if tab.Includes(entry.Type) {
			pager.Invalidate()
		}
	}
	return nil
}

// Invalidate drops every cached page, e.g. after a server refresh
func (s *HistoryService) Invalidate() {
	for _, pager := range s.transactions {
		pager.Invalidate()
	}
	for _, pager := range s.bounties {
		pager.Invalidate()
	}
}

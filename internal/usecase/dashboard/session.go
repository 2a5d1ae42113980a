package dashboard

import (
	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/claim"
	"github.com/redcloud442/aurora/internal/usecase/deposit"
	"github.com/redcloud442/aurora/internal/usecase/earnings"
	"github.com/redcloud442/aurora/internal/usecase/history"
	"github.com/redcloud442/aurora/internal/usecase/portfolio"
	"github.com/redcloud442/aurora/internal/usecase/projector"
	"github.com/redcloud442/aurora/internal/usecase/ticker"
	"github.com/redcloud442/aurora/internal/usecase/withdrawal"
)

// Session is one member's live dashboard state
type Session struct {
	MemberID    uuid.UUID
	Positions   *portfolio.ActiveSet
	Earnings    *earnings.Store
	History     *history.HistoryService
	Claims      *claim.ClaimService
	Withdrawals *withdrawal.WithdrawalService
	Deposits    *deposit.DepositService
}

// PackageView pairs an active position with its latest projection
type PackageView struct {
	Position   *domain.PackagePosition
	Projection projector.Projection
	State      ticker.State
}

// Packages returns the active positions with their live projections, ordered by start time.
// A position whose task has not ticked yet is projected on the spot.
func (s *Session) Packages() []PackageView {
	positions := s.Positions.List()
	live := s.Positions.Ticker.Snapshot()

	out := make([]PackageView, 0, len(positions))
	for _, p := range positions {
		if u, ok := live[p.ID]; ok {
			out = append(out, PackageView{Position: p, Projection: u.Projection, State: u.State})
			continue
		}
		proj := projector.Project(p, s.Positions.Ticker.Now())
		state := ticker.StateRunning
		if proj.ReadyToClaim {
			state = ticker.StateReady
		}
		out = append(out, PackageView{Position: p, Projection: proj, State: state})
	}
	return out
}

// Subscribe streams ticker updates for this session's positions
func (s *Session) Subscribe(obs ticker.Observer) func() {
	return s.Positions.Ticker.Subscribe(obs)
}

// Close stops every ticker task of the session
func (s *Session) Close() {
	s.Positions.Close()
}

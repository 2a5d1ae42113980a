package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DemoPackage defines a package position to be seeded, relative to the seed time
type DemoPackage struct {
	Name        string
	Principal   decimal.Decimal
	Profit      decimal.Decimal
	StartOffset time.Duration // added to the seed time
	Term        time.Duration
	ColorTag    string
}

// DemoPackages covers every dashboard state: one ready to claim, one mid-way, one just started
var DemoPackages = []DemoPackage{
	{
		Name:        "Starter",
		Principal:   decimal.NewFromInt(100),
		Profit:      decimal.NewFromInt(20),
		StartOffset: -2 * time.Hour,
		Term:        time.Hour,
		ColorTag:    "blue",
	},
	{
		Name:        "Standard",
		Principal:   decimal.NewFromInt(500),
		Profit:      decimal.NewFromInt(125),
		StartOffset: -12 * time.Hour,
		Term:        24 * time.Hour,
		ColorTag:    "green",
	},
	{
		Name:        "Premium",
		Principal:   decimal.NewFromInt(1000),
		Profit:      decimal.NewFromInt(300),
		StartOffset: 0,
		Term:        7 * 24 * time.Hour,
		ColorTag:    "gold",
	},
}

// DemoPositionID derives a stable position id so reseeding never duplicates a package
func DemoPositionID(memberID uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(memberID, []byte("demo-package:"+name))
}

// DemoSeeder handles seeding of a member's dashboard fixtures for local development
type DemoSeeder struct {
	positions      domain.PositionRepository
	positionWriter domain.PositionWriter
	earnings       domain.EarningsRepository
	earningsWriter domain.EarningsWriter
	now            func() time.Time
	logger         *zap.Logger
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(
	positions domain.PositionRepository,
	positionWriter domain.PositionWriter,
	earnings domain.EarningsRepository,
	earningsWriter domain.EarningsWriter,
	logger *zap.Logger,
) *DemoSeeder {
	return &DemoSeeder{
		positions:      positions,
		positionWriter: positionWriter,
		earnings:       earnings,
		earningsWriter: earningsWriter,
		now:            time.Now,
		logger:         logger.With(zap.String("component", "seeder")),
	}
}

// WithClock overrides the seed time source
func (s *DemoSeeder) WithClock(now func() time.Time) *DemoSeeder {
	s.now = now
	return s
}

// Seed ensures the member has an earnings row and every demo package.
// Rows that already exist are left as they are.
func (s *DemoSeeder) Seed(ctx context.Context, memberID uuid.UUID) error {
	if memberID == uuid.Nil {
		return errors.New("member id cannot be empty")
	}

	_, err := s.earnings.Get(ctx, memberID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		aggregate := domain.NewEarningsAggregate(memberID, decimal.Zero, decimal.Zero)
		if err := s.earningsWriter.Create(ctx, &aggregate); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	now := s.now()
	created := 0
	for _, demo := range DemoPackages {
		id := DemoPositionID(memberID, demo.Name)

		_, err := s.positions.GetByID(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		start := now.Add(demo.StartOffset)
		position, err := domain.NewPackagePosition(id, memberID, demo.Name,
			demo.Principal, demo.Profit, start, start.Add(demo.Term), demo.ColorTag)
		if err != nil {
			return err
		}

		if err := s.positionWriter.Create(ctx, position); err != nil {
			return err
		}
		created++
	}

	s.logger.Info("demo member seeded",
		zap.String("member_id", memberID.String()),
		zap.Int("packages_created", created),
	)
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/shopspring/decimal"
)

// positionRepository implements domain.PositionRepository
type positionRepository struct {
	db *DB
}

// NewPositionRepository creates a new package position repository
func NewPositionRepository(db *DB) domain.PositionRepository {
	return &positionRepository{db: db}
}

const positionColumns = `id, member_id, package_name, principal::text, profit::text, start_time, maturity_time, color_tag`

// ListActive retrieves the member's unclaimed package positions
func (r *positionRepository) ListActive(ctx context.Context, memberID uuid.UUID) ([]*domain.PackagePosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM package_positions
		WHERE member_id = $1 AND claimed_at IS NULL
		ORDER BY start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active positions: %w", err)
	}
	defer rows.Close()

	var positions []*domain.PackagePosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// GetByID retrieves a package position by its ID
func (r *positionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PackagePosition, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM package_positions
		WHERE id = $1
	`

	p, err := scanPosition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("position %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosition(row scanner) (*domain.PackagePosition, error) {
	var p domain.PackagePosition
	var principalStr, profitStr string
	var colorTag sql.NullString

	err := row.Scan(
		&p.ID,
		&p.MemberID,
		&p.PackageName,
		&principalStr,
		&profitStr,
		&p.StartTime,
		&p.MaturityTime,
		&colorTag,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	// Parse principal and profit (NUMERIC)
	if p.Principal, err = decimal.NewFromString(principalStr); err != nil {
		return nil, fmt.Errorf("failed to parse principal: %w", err)
	}
	if p.Profit, err = decimal.NewFromString(profitStr); err != nil {
		return nil, fmt.Errorf("failed to parse profit: %w", err)
	}
	p.ColorTag = colorTag.String

	return &p, nil
}

// NewPositionWriter creates a writer over the package position table
func NewPositionWriter(db *DB) domain.PositionWriter {
	return &positionRepository{db: db}
}

// Create inserts a new package position
func (r *positionRepository) Create(ctx context.Context, p *domain.PackagePosition) error {
	query := `
		INSERT INTO package_positions (id, member_id, package_name, principal, profit, start_time, maturity_time, color_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.MemberID,
		p.PackageName,
		p.Principal.String(),
		p.Profit.String(),
		p.StartTime,
		p.MaturityTime,
		p.ColorTag,
	)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}

	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/shopspring/decimal"
)

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *DB) domain.LedgerRepository {
	return &ledgerRepository{db: db}
}

// List retrieves a paginated list of ledger entries under a history tab, newest first
func (r *ledgerRepository) List(ctx context.Context, memberID uuid.UUID, tab domain.HistoryTab, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, member_id, type, description, details, amount::text, attachment, date, source_position_id
		FROM ledger_entries
		WHERE member_id = $1 AND type = ANY($2)
		ORDER BY date DESC, id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, memberID, pq.Array(tabTypes(tab)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var amountStr string
		var details, attachment sql.NullString
		var sourceID uuid.NullUUID

		if err := rows.Scan(
			&e.ID,
			&e.MemberID,
			&e.Type,
			&e.Description,
			&details,
			&amountStr,
			&attachment,
			&e.Date,
			&sourceID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		// Parse amount (NUMERIC)
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		e.Amount = amount
		e.Details = details.String
		e.Attachment = attachment.String
		if sourceID.Valid {
			id := sourceID.UUID
			e.SourcePositionID = &id
		}

		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

// Count returns the total number of ledger entries under a history tab
func (r *ledgerRepository) Count(ctx context.Context, memberID uuid.UUID, tab domain.HistoryTab) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM ledger_entries
		WHERE member_id = $1 AND type = ANY($2)
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, memberID, pq.Array(tabTypes(tab))).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

func tabTypes(tab domain.HistoryTab) []string {
	types := tab.Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

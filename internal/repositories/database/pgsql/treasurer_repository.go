package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
)

// PgxTreasurerRepository persists settlement rows. The primary key on
// from_ledger_id is the whole concurrency story: racing workers both insert,
// the database lets exactly one through, the loser gets a typed
// ErrAlreadySettled. No distributed lock needed.
type PgxTreasurerRepository struct {
	BaseRepository
}

// NewTreasurerRepository creates a new repository for treasurer settlements.
func NewTreasurerRepository(pool *pgxpool.Pool) portsrepo.TreasurerRepositoryFacade {
	return &PgxTreasurerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TreasurerRepositoryFacade = (*PgxTreasurerRepository)(nil)

// Settle inserts a treasurer row; unique violation surfaces ErrAlreadySettled.
func (r *PgxTreasurerRepository) Settle(ctx context.Context, entry domain.TreasurerEntry) error {
	payload, err := domain.MarshalSettlement(entry.Settlement)
	if err != nil {
		return err
	}

	_, err = r.Pool.Exec(ctx, `
		INSERT INTO treasurer (from_ledger_id, to_ledger_id, entry, created_at)
		VALUES ($1, $2, $3, $4);
	`, entry.FromLedgerID, entry.ToLedgerID, payload, entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrAlreadySettled
		}
		return apperrors.NewAppError(500, "failed to insert settlement", err)
	}
	return nil
}

// FindUnsettled retrieves settleable ledger entries after the cursor that
// have no treasurer row, in ascending id order.
func (r *PgxTreasurerRepository) FindUnsettled(ctx context.Context, afterID int64, limit int) ([]domain.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT le.id, le.entry, le.created_at
		FROM ledger_entries le
		LEFT JOIN treasurer t ON t.from_ledger_id = le.id
		WHERE t.from_ledger_id IS NULL
		  AND le.id > $1
		  AND le.entry->>'kind' = $2
		ORDER BY le.id ASC
		LIMIT $3;
	`, afterID, string(domain.EventTicketCompleted), limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unsettled ledger entries", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// FindSettlement retrieves the treasurer row for an originating ledger entry.
func (r *PgxTreasurerRepository) FindSettlement(ctx context.Context, fromLedgerID int64) (*domain.TreasurerEntry, error) {
	var (
		entry     domain.TreasurerEntry
		payload   []byte
		createdAt time.Time
	)
	err := r.Pool.QueryRow(ctx, `
		SELECT from_ledger_id, to_ledger_id, entry, created_at
		FROM treasurer
		WHERE from_ledger_id = $1;
	`, fromLedgerID).Scan(&entry.FromLedgerID, &entry.ToLedgerID, &payload, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find settlement", err)
	}

	entry.Settlement, err = domain.UnmarshalSettlement(payload)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt = createdAt
	return &entry, nil
}

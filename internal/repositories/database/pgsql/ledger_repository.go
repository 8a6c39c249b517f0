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

// PgxLedgerRepository persists the append-only ledger. The id column is a
// bigserial, so ordering and uniqueness come from the database's atomic
// sequence allocation rather than application-level locking.
type PgxLedgerRepository struct {
	BaseRepository
}

// NewLedgerRepository creates a new repository for ledger entries.
func NewLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// appendLedgerEntry inserts an event inside an existing transaction. The
// ticket repository shares this so ticket close and ledger append commit
// together.
func appendLedgerEntry(ctx context.Context, tx pgx.Tx, event domain.LedgerEvent, now time.Time) (int64, error) {
	payload, err := domain.MarshalLedgerEvent(event)
	if err != nil {
		return 0, err
	}
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO ledger_entries (entry, created_at) VALUES ($1, $2) RETURNING id;`,
		payload, now,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to append ledger entry", err)
	}
	return id, nil
}

// Append inserts a new entry and returns its assigned sequence id.
func (r *PgxLedgerRepository) Append(ctx context.Context, event domain.LedgerEvent) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	id, err := appendLedgerEntry(ctx, tx, event, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return id, nil
}

// ReadSince retrieves entries with id > afterID in ascending id order.
func (r *PgxLedgerRepository) ReadSince(ctx context.Context, afterID int64, limit int) ([]domain.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, entry, created_at
		FROM ledger_entries
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2;
	`, afterID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to read ledger entries", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// FindTreasuryAnchorID returns the id of the TREASURY_CREATED entry.
func (r *PgxLedgerRepository) FindTreasuryAnchorID(ctx context.Context) (int64, error) {
	var id int64
	err := r.Pool.QueryRow(ctx, `
		SELECT id
		FROM ledger_entries
		WHERE entry->>'kind' = $1
		ORDER BY id ASC
		LIMIT 1;
	`, string(domain.EventTreasuryCreated)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, apperrors.NewAppError(500, "failed to find treasury anchor", err)
	}
	return id, nil
}

// FindFleetAnchorID returns the id of the FLEET_CREATED entry for a fleet.
func (r *PgxLedgerRepository) FindFleetAnchorID(ctx context.Context, fleetID domain.FleetID) (int64, error) {
	var id int64
	err := r.Pool.QueryRow(ctx, `
		SELECT id
		FROM ledger_entries
		WHERE entry->>'kind' = $1
		  AND (entry->'payload'->>'fleet_id')::bigint = $2
		ORDER BY id ASC
		LIMIT 1;
	`, string(domain.EventFleetCreated), int64(fleetID)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, apperrors.NewAppError(500, "failed to find fleet anchor", err)
	}
	return id, nil
}

// scanLedgerEntries maps rows of (id, entry, created_at) through the strict
// deserialization boundary. A malformed payload fails the whole read; it is
// surfaced, never skipped.
func scanLedgerEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var (
			id        int64
			payload   []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &payload, &createdAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger entry", err)
		}
		event, err := domain.UnmarshalLedgerEvent(payload)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.LedgerEntry{ID: id, Event: event, CreatedAt: createdAt})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate ledger entries", err)
	}
	return entries, nil
}

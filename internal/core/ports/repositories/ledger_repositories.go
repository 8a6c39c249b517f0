package repositories

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

// LedgerReader defines read operations over the append-only ledger.
type LedgerReader interface {
	// ReadSince retrieves up to limit entries with id > afterID in ascending
	// id order. Restartable from any cursor; id is the sole ordering key.
	ReadSince(ctx context.Context, afterID int64, limit int) ([]domain.LedgerEntry, error)

	// FindTreasuryAnchorID returns the id of the TREASURY_CREATED entry, the
	// settlement target for completed expenses.
	FindTreasuryAnchorID(ctx context.Context) (int64, error)

	// FindFleetAnchorID returns the id of the FLEET_CREATED entry for the
	// given fleet, the settlement target for its sale proceeds.
	FindFleetAnchorID(ctx context.Context, fleetID domain.FleetID) (int64, error)
}

// LedgerWriter defines the single write operation the ledger supports.
type LedgerWriter interface {
	// Append inserts a new entry and returns its assigned sequence id.
	// Entries are never mutated or deleted after insertion.
	Append(ctx context.Context, event domain.LedgerEvent) (int64, error)
}

// LedgerRepositoryFacade combines the ledger repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

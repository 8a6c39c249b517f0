package repositories

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
)

// TreasurerReader defines read operations for settlement reconciliation.
type TreasurerReader interface {
	// FindUnsettled retrieves up to limit settleable ledger entries with
	// id > afterID that have no treasurer row yet, in ascending id order.
	// Drives the catch-up sweep after restart or crash recovery.
	FindUnsettled(ctx context.Context, afterID int64, limit int) ([]domain.LedgerEntry, error)

	// FindSettlement retrieves the treasurer row for an originating entry.
	FindSettlement(ctx context.Context, fromLedgerID int64) (*domain.TreasurerEntry, error)
}

// TreasurerWriter defines the single write operation for settlements.
type TreasurerWriter interface {
	// Settle inserts a treasurer row. A primary-key violation on
	// from_ledger_id surfaces as apperrors.ErrAlreadySettled: under
	// concurrent sweeps exactly one worker wins and the rest observe the
	// typed error, which callers treat as success.
	Settle(ctx context.Context, entry domain.TreasurerEntry) error
}

// TreasurerRepositoryFacade combines the treasurer repository interfaces.
type TreasurerRepositoryFacade interface {
	TreasurerReader
	TreasurerWriter
}

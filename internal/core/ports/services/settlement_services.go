package services

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/dto"
)

// SettlementSvcFacade drives treasurer reconciliation: every settleable
// ledger entry ends up matched to exactly one settlement target, with no
// duplicates and no lost entries, even under restarts and racing workers.
type SettlementSvcFacade interface {
	// SweepOnce reads unsettled entries after the cursor, routes each to its
	// settlement target and settles it. ErrAlreadySettled from a racing
	// worker counts as success; any other error stops the sweep and is
	// surfaced with the progress made so far.
	SweepOnce(ctx context.Context, afterID int64) (*dto.SweepResponse, error)
}

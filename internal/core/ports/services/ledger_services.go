package services

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/dto"
)

// LedgerReaderSvc exposes the append-only ledger to read-only consumers
// (dashboard, auditing). There is no service-level write: appends happen
// only through ticket and treasury operations.
type LedgerReaderSvc interface {
	// ListEntries reads entries after the cursor in ascending id order.
	ListEntries(ctx context.Context, params dto.ListLedgerParams) (*dto.ListLedgerResponse, error)
}

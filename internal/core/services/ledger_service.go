package services

import (
	"context"

	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

const defaultLedgerListLimit = 100

// LedgerService exposes read-only, cursor-paged access to the ledger.
type LedgerService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryFacade
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// ListEntries reads entries after the cursor in ascending id order. NextID
// is the cursor to resume from; it equals the request cursor when the page
// is empty.
func (s *LedgerService) ListEntries(ctx context.Context, params dto.ListLedgerParams) (*dto.ListLedgerResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLedgerListLimit
	}

	entries, err := s.ledgerRepo.ReadSince(ctx, params.AfterID, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListLedgerResponse{
		Entries: make([]dto.LedgerEntryResponse, 0, len(entries)),
		NextID:  params.AfterID,
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, dto.ToLedgerEntryResponse(entry))
		if entry.ID > resp.NextID {
			resp.NextID = entry.ID
		}
	}
	return resp, nil
}

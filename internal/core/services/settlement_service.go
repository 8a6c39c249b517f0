package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

// sweepPageSize bounds how many unsettled entries one sweep pass loads.
const sweepPageSize = 200

// SettlementService reconciles completed tickets: every settleable ledger
// entry gets matched to exactly one settlement target. Exactly-once comes
// from the treasurer table's primary key, not from coordination between
// workers; a lost insert race is reported as ErrAlreadySettled and counted
// as progress.
type SettlementService struct {
	BaseService
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	treasurerRepo portsrepo.TreasurerRepositoryFacade

	// anchor ids are immutable once created, so they are cached forever
	mu             sync.Mutex
	treasuryAnchor int64
	fleetAnchors   map[domain.FleetID]int64
}

// NewSettlementService creates a new settlement service.
func NewSettlementService(ledgerRepo portsrepo.LedgerRepositoryFacade, treasurerRepo portsrepo.TreasurerRepositoryFacade) *SettlementService {
	return &SettlementService{
		ledgerRepo:    ledgerRepo,
		treasurerRepo: treasurerRepo,
		fleetAnchors:  make(map[domain.FleetID]int64),
	}
}

// SweepOnce reads unsettled entries after the cursor, routes each to its
// settlement target and settles it. The sweep is restartable from any
// cursor: entries already settled are simply not returned by the query, and
// a crash mid-sweep loses nothing.
func (s *SettlementService) SweepOnce(ctx context.Context, afterID int64) (*dto.SweepResponse, error) {
	resp := &dto.SweepResponse{MaxLedgerIDSeen: afterID}

	entries, err := s.treasurerRepo.FindUnsettled(ctx, afterID, sweepPageSize)
	if err != nil {
		return resp, err
	}

	for _, entry := range entries {
		if entry.ID > resp.MaxLedgerIDSeen {
			resp.MaxLedgerIDSeen = entry.ID
		}

		err := s.settleOne(ctx, entry)
		switch {
		case errors.Is(err, apperrors.ErrAlreadySettled):
			// A racing worker got there first; that is still settled.
			resp.AlreadySettled++
		case err != nil:
			s.LogError(ctx, err, "settlement sweep stopped", "ledger_id", entry.ID)
			return resp, err
		default:
			resp.Settled++
		}
	}

	s.LogInfo(ctx, "Settlement sweep completed",
		"settled", resp.Settled,
		"already_settled", resp.AlreadySettled,
		"max_ledger_id", resp.MaxLedgerIDSeen,
	)
	return resp, nil
}

// settleOne routes a single completed-ticket entry. Positive totals are sale
// proceeds credited to the fleet's account; everything else is an expense
// charged against the treasury.
func (s *SettlementService) settleOne(ctx context.Context, entry domain.LedgerEntry) error {
	event, ok := entry.Event.(domain.TicketCompleted)
	if !ok {
		return fmt.Errorf("%w: ledger entry %d is not settleable (kind %s)",
			apperrors.ErrMalformedEntry, entry.ID, entry.Event.Kind())
	}

	var (
		settlement domain.Settlement
		toLedgerID int64
		err        error
	)
	if event.Total.IsPositive() {
		toLedgerID, err = s.fleetAnchorID(ctx, event.FleetID)
		if err != nil {
			return err
		}
		settlement = domain.SaleProceedsRouted{FleetID: event.FleetID, Credits: event.Total}
	} else {
		toLedgerID, err = s.treasuryAnchorID(ctx)
		if err != nil {
			return err
		}
		settlement = domain.ExpenseCovered{FleetID: event.FleetID, Credits: event.Total.Neg()}
	}

	return s.treasurerRepo.Settle(ctx, domain.TreasurerEntry{
		FromLedgerID: entry.ID,
		ToLedgerID:   toLedgerID,
		Settlement:   settlement,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *SettlementService) treasuryAnchorID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.treasuryAnchor != 0 {
		return s.treasuryAnchor, nil
	}
	id, err := s.ledgerRepo.FindTreasuryAnchorID(ctx)
	if err != nil {
		return 0, err
	}
	s.treasuryAnchor = id
	return id, nil
}

func (s *SettlementService) fleetAnchorID(ctx context.Context, fleetID domain.FleetID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.fleetAnchors[fleetID]; ok {
		return id, nil
	}
	id, err := s.ledgerRepo.FindFleetAnchorID(ctx, fleetID)
	if err != nil {
		return 0, err
	}
	s.fleetAnchors[fleetID] = id
	return id, nil
}

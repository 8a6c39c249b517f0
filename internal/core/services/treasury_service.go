package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stautomata/fleet_treasury/internal/apperrors"
	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portsrepo "github.com/stautomata/fleet_treasury/internal/core/ports/repositories"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

// ledgerPageSize is the replay batch size when rebuilding the projection.
const ledgerPageSize = 500

// TreasuryService owns the money position. Every fund movement is expressed
// as a ledger append plus a projection apply, serialized behind one mutex so
// two workers can never spend the same credits twice within this process.
// Cross-process safety for ticket closing lives in the repository layer.
type TreasuryService struct {
	BaseService
	mu              sync.Mutex
	ledgerRepo      portsrepo.LedgerRepositoryFacade
	ticketRepo      portsrepo.TicketRepositoryFacade
	projection      *TreasuryProjection
	startingCredits domain.Credits
}

// NewTreasuryService creates the treasury service. Call Bootstrap before
// serving requests: it replays the ledger into the projection, seeding a
// fresh ledger with the starting credits.
func NewTreasuryService(ledgerRepo portsrepo.LedgerRepositoryFacade, ticketRepo portsrepo.TicketRepositoryFacade, startingCredits domain.Credits) *TreasuryService {
	return &TreasuryService{
		ledgerRepo:      ledgerRepo,
		ticketRepo:      ticketRepo,
		projection:      NewTreasuryProjection(),
		startingCredits: startingCredits,
	}
}

// Bootstrap replays the full ledger into the projection. An empty ledger is
// seeded with a TreasuryCreated entry holding the configured starting credits.
func (s *TreasuryService) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rebuildLocked(ctx); err != nil {
		return err
	}
	if s.projection.LastAppliedID() == 0 {
		if _, err := s.appendLocked(ctx, domain.TreasuryCreated{Credits: s.startingCredits}); err != nil {
			return err
		}
		s.LogInfo(ctx, "Seeded treasury", "starting_credits", int64(s.startingCredits))
	}
	return nil
}

// rebuildLocked replays the ledger from id 0 into a fresh projection and
// swaps it in. Callers must hold the mutex.
func (s *TreasuryService) rebuildLocked(ctx context.Context) error {
	projection := NewTreasuryProjection()
	for {
		entries, err := s.ledgerRepo.ReadSince(ctx, projection.LastAppliedID(), ledgerPageSize)
		if err != nil {
			return fmt.Errorf("failed to read ledger for replay: %w", err)
		}
		for _, entry := range entries {
			if err := projection.Apply(entry); err != nil {
				return fmt.Errorf("failed to replay ledger entry %d: %w", entry.ID, err)
			}
		}
		if len(entries) < ledgerPageSize {
			break
		}
	}
	s.projection = projection
	return nil
}

// appendLocked validates an event against the projection, persists it, and
// folds it in. If the persist fails after a successful in-memory apply the
// projection has run ahead of storage, so it is rebuilt from the ledger.
// Callers must hold the mutex.
func (s *TreasuryService) appendLocked(ctx context.Context, event domain.LedgerEvent) (int64, error) {
	if err := s.projection.Apply(domain.LedgerEntry{Event: event}); err != nil {
		return 0, err
	}
	id, err := s.ledgerRepo.Append(ctx, event)
	if err != nil {
		if rebuildErr := s.rebuildLocked(ctx); rebuildErr != nil {
			s.LogError(ctx, rebuildErr, "failed to resync projection after append failure")
		}
		return 0, err
	}
	s.projection.lastAppliedID = id
	return id, nil
}

// applyPersistedLocked folds an already-persisted ledger entry into the
// projection. A failure here means projection and ledger disagree; the
// projection is rebuilt. Callers must hold the mutex.
func (s *TreasuryService) applyPersistedLocked(ctx context.Context, entry domain.LedgerEntry) {
	if err := s.projection.Apply(entry); err != nil {
		s.LogError(ctx, err, "projection rejected persisted ledger entry, rebuilding", "ledger_id", entry.ID)
		if rebuildErr := s.rebuildLocked(ctx); rebuildErr != nil {
			s.LogError(ctx, rebuildErr, "failed to rebuild projection")
		}
	}
}

// GetFleetBudget retrieves the projected budget for one fleet.
func (s *TreasuryService) GetFleetBudget(ctx context.Context, fleetID domain.FleetID) (*domain.FleetBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	budget, ok := s.projection.FleetBudget(fleetID)
	if !ok {
		return nil, fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}
	return &budget, nil
}

// ListFleetBudgets retrieves all projected fleet budgets.
func (s *TreasuryService) ListFleetBudgets(ctx context.Context) (map[domain.FleetID]domain.FleetBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.projection.FleetBudgets(), nil
}

// CurrentAgentCredits is the treasury fund plus all fleet capital.
func (s *TreasuryService) CurrentAgentCredits(ctx context.Context) (domain.Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.projection.AgentCredits(), nil
}

// CurrentTreasuryFund is the unallocated money held centrally.
func (s *TreasuryService) CurrentTreasuryFund(ctx context.Context) (domain.Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.projection.TreasuryFund(), nil
}

// CreateFleet opens a budget for a new fleet. The budget starts empty;
// TopUpFleet moves actual money in.
func (s *TreasuryService) CreateFleet(ctx context.Context, fleetID domain.FleetID, totalCapital domain.Credits) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.appendLocked(ctx, domain.FleetCreated{FleetID: fleetID, TotalCapital: totalCapital})
	return err
}

// TopUpFleet transfers funds from the treasury until the fleet reaches its
// total capital, bounded by what the treasury holds.
func (s *TreasuryService) TopUpFleet(ctx context.Context, fleetID domain.FleetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	budget, ok := s.projection.FleetBudget(fleetID)
	if !ok {
		return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}
	diff := budget.TotalCapital - budget.CurrentCapital
	if !diff.IsPositive() {
		return nil
	}
	transfer := s.projection.TreasuryFund().Min(diff)
	if !transfer.IsPositive() {
		return nil
	}
	_, err := s.appendLocked(ctx, domain.TransferFundsTreasuryToFleet{FleetID: fleetID, Credits: transfer})
	return err
}

// ReturnExcessFunds transfers capital above the fleet's total back to the
// treasury, if any.
func (s *TreasuryService) ReturnExcessFunds(ctx context.Context, fleetID domain.FleetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.returnExcessLocked(ctx, fleetID)
}

func (s *TreasuryService) returnExcessLocked(ctx context.Context, fleetID domain.FleetID) error {
	budget, ok := s.projection.FleetBudget(fleetID)
	if !ok {
		return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}
	excess := budget.CurrentCapital - budget.TotalCapital
	if !excess.IsPositive() {
		return nil
	}
	_, err := s.appendLocked(ctx, domain.TransferFundsFromFleetToTreasury{FleetID: fleetID, Credits: excess})
	return err
}

// SetFleetTotalCapital adjusts the fleet's capital target. Lowering the
// target below current holdings releases the excess back to the treasury.
func (s *TreasuryService) SetFleetTotalCapital(ctx context.Context, fleetID domain.FleetID, newTotal domain.Credits) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projection.FleetBudget(fleetID); !ok {
		return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}
	if _, err := s.appendLocked(ctx, domain.SetNewTotalCapitalForFleet{FleetID: fleetID, NewTotalCapital: newTotal}); err != nil {
		return err
	}
	return s.returnExcessLocked(ctx, fleetID)
}

// SetOperatingReserve adjusts the fleet's operating floor.
func (s *TreasuryService) SetOperatingReserve(ctx context.Context, fleetID domain.FleetID, newReserve domain.Credits) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projection.FleetBudget(fleetID); !ok {
		return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}
	_, err := s.appendLocked(ctx, domain.SetNewOperatingReserveForFleet{FleetID: fleetID, NewOperatingReserve: newReserve})
	return err
}

// LogExpense records an outflow outside any ticket against a fleet.
func (s *TreasuryService) LogExpense(ctx context.Context, fleetID domain.FleetID, credits domain.Credits, maybeTicketID *domain.TicketID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projection.FleetBudget(fleetID); !ok {
		return fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}
	_, err := s.appendLocked(ctx, domain.ExpenseLogged{FleetID: fleetID, MaybeTicketID: maybeTicketID, Credits: credits})
	return err
}

// CreatePurchaseTicket issues a purchase ticket. The requested quantity is
// capped at what the fleet can afford above its reserve floor, so a ticket
// never promises money the fleet does not hold.
func (s *TreasuryService) CreatePurchaseTicket(ctx context.Context, req dto.CreatePurchaseTicketRequest) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fleetID := domain.FleetID(req.FleetID)
	budget, ok := s.projection.FleetBudget(fleetID)
	if !ok {
		return nil, fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}

	pricePerUnit := domain.Credits(req.ExpectedPricePerUnit)
	affordableUnits := int64(budget.CurrentCapital-fleetReserve) / int64(pricePerUnit)
	quantity := req.Quantity
	if affordableUnits < quantity {
		quantity = affordableUnits
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: fleet %d cannot afford any units at %d per unit, current capital %d",
			apperrors.ErrValidation, fleetID, pricePerUnit, budget.CurrentCapital)
	}
	total := pricePerUnit.MulUnits(quantity)

	ticket := s.newTicket(fleetID, req.ShipSymbol, domain.PurchaseTradeGoodsDetails{
		WaypointSymbol:             domain.WaypointSymbol(req.WaypointSymbol),
		TradeGood:                  domain.TradeGoodSymbol(req.TradeGood),
		ExpectedPricePerUnit:       pricePerUnit,
		Quantity:                   quantity,
		ExpectedTotalPurchasePrice: total,
	}, total)
	return s.issueTicketLocked(ctx, ticket)
}

// CreateSellTicket issues a sell ticket. Sells reserve nothing.
func (s *TreasuryService) CreateSellTicket(ctx context.Context, req dto.CreateSellTicketRequest) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fleetID := domain.FleetID(req.FleetID)
	if _, ok := s.projection.FleetBudget(fleetID); !ok {
		return nil, fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}

	pricePerUnit := domain.Credits(req.ExpectedPricePerUnit)
	ticket := s.newTicket(fleetID, req.ShipSymbol, domain.SellTradeGoodsDetails{
		WaypointSymbol:              domain.WaypointSymbol(req.WaypointSymbol),
		TradeGood:                   domain.TradeGoodSymbol(req.TradeGood),
		ExpectedPricePerUnit:        pricePerUnit,
		Quantity:                    req.Quantity,
		ExpectedTotalSellPrice:      pricePerUnit.MulUnits(req.Quantity),
		MaybeMatchingPurchaseTicket: toTicketIDPtr(req.MatchingPurchaseTicketID),
	}, 0)
	return s.issueTicketLocked(ctx, ticket)
}

// CreateShipPurchaseTicket issues a ship purchase ticket, reserving the full
// expected purchase price.
func (s *TreasuryService) CreateShipPurchaseTicket(ctx context.Context, req dto.CreateShipPurchaseTicketRequest) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fleetID := domain.FleetID(req.FleetID)
	budget, ok := s.projection.FleetBudget(fleetID)
	if !ok {
		return nil, fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}
	price := domain.Credits(req.ExpectedPurchasePrice)
	if budget.CurrentCapital < price {
		return nil, fmt.Errorf("%w: insufficient funds, current capital %d, ship price %d",
			apperrors.ErrValidation, budget.CurrentCapital, price)
	}

	ticket := s.newTicket(fleetID, req.ShipSymbol, domain.PurchaseShipDetails{
		ShipType:               domain.ShipType(req.ShipType),
		ExpectedPurchasePrice:  price,
		ShipyardWaypointSymbol: domain.WaypointSymbol(req.ShipyardWaypointSymbol),
	}, price)
	return s.issueTicketLocked(ctx, ticket)
}

// CreateSupplyConstructionTicket issues a construction-material delivery
// ticket. The delivery itself moves no money; the outlay was the purchase
// that sourced the materials.
func (s *TreasuryService) CreateSupplyConstructionTicket(ctx context.Context, req dto.CreateSupplyConstructionTicketRequest) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fleetID := domain.FleetID(req.FleetID)
	if _, ok := s.projection.FleetBudget(fleetID); !ok {
		return nil, fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}

	ticket := s.newTicket(fleetID, req.ShipSymbol, domain.SupplyConstructionSiteDetails{
		WaypointSymbol:              domain.WaypointSymbol(req.WaypointSymbol),
		TradeGood:                   domain.TradeGoodSymbol(req.TradeGood),
		Quantity:                    req.Quantity,
		MaybeMatchingPurchaseTicket: toTicketIDPtr(req.MatchingPurchaseTicketID),
	}, 0)
	return s.issueTicketLocked(ctx, ticket)
}

// CreateRefuelTicket issues a refueling ticket, reserving the expected cost.
func (s *TreasuryService) CreateRefuelTicket(ctx context.Context, req dto.CreateRefuelTicketRequest) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fleetID := domain.FleetID(req.FleetID)
	budget, ok := s.projection.FleetBudget(fleetID)
	if !ok {
		return nil, fmt.Errorf("%w: fleet %d", apperrors.ErrNotFound, fleetID)
	}
	pricePerUnit := domain.Credits(req.ExpectedPricePerUnit)
	total := pricePerUnit.MulUnits(req.NumFuelBarrels)
	if budget.CurrentCapital < total {
		return nil, fmt.Errorf("%w: insufficient funds, current capital %d, refuel cost %d",
			apperrors.ErrValidation, budget.CurrentCapital, total)
	}

	ticket := s.newTicket(fleetID, req.ShipSymbol, domain.RefuelShipDetails{
		ExpectedPricePerUnit:       pricePerUnit,
		NumFuelBarrels:             req.NumFuelBarrels,
		ExpectedTotalPurchasePrice: total,
	}, total)
	return s.issueTicketLocked(ctx, ticket)
}

// CompleteTicket closes the ticket and appends its TicketCompleted ledger
// entry atomically, then folds the outcome into the projection. Profit
// pushing a fleet above its capital target flows straight back to the
// treasury.
func (s *TreasuryService) CompleteTicket(ctx context.Context, ticketID domain.TicketID, actualUnits int64, actualPricePerUnit domain.Credits) (*dto.CloseTicketResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.ticketRepo.FindTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsOpen() {
		return nil, apperrors.ErrTicketAlreadyClosed
	}

	total := actualPricePerUnit.MulUnits(actualUnits) * domain.Credits(ticket.Details.Signum())
	completedAt := time.Now().UTC()
	event := domain.TicketCompleted{
		FleetID:            ticket.FleetID,
		Ticket:             *ticket,
		ActualUnits:        actualUnits,
		ActualPricePerUnit: actualPricePerUnit,
		Total:              total,
	}

	// The guarded update in the repository is what makes a double close
	// impossible; losing the race surfaces ErrTicketAlreadyClosed here.
	ledgerID, err := s.ticketRepo.CloseTicket(ctx, ticketID, completedAt, event)
	if err != nil {
		return nil, err
	}
	s.applyPersistedLocked(ctx, domain.LedgerEntry{ID: ledgerID, Event: event, CreatedAt: completedAt})

	if err := s.returnExcessLocked(ctx, ticket.FleetID); err != nil {
		s.LogError(ctx, err, "failed to return excess funds after ticket close", "fleet_id", int64(ticket.FleetID))
	}

	s.LogInfo(ctx, "Closed ticket",
		"ticket_id", string(ticketID),
		"ledger_id", ledgerID,
		"total", int64(total),
	)
	return &dto.CloseTicketResponse{
		TicketID:      string(ticketID),
		LedgerEntryID: ledgerID,
		CompletedAt:   completedAt,
		Total:         int64(total),
	}, nil
}

// issueTicketLocked persists a new ticket with its TicketCreated ledger event
// and folds the reservation into the projection. Callers must hold the mutex.
func (s *TreasuryService) issueTicketLocked(ctx context.Context, ticket domain.Ticket) (*domain.Ticket, error) {
	ledgerID, err := s.ticketRepo.CreateTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	s.applyPersistedLocked(ctx, domain.LedgerEntry{
		ID:        ledgerID,
		Event:     domain.TicketCreated{FleetID: ticket.FleetID, Ticket: ticket},
		CreatedAt: ticket.CreatedAt,
	})
	s.LogInfo(ctx, "Issued ticket",
		"ticket_id", string(ticket.TicketID),
		"kind", string(ticket.Details.Kind()),
		"allocated_credits", int64(ticket.AllocatedCredits),
	)
	return &ticket, nil
}

func (s *TreasuryService) newTicket(fleetID domain.FleetID, shipSymbol string, details domain.TicketDetails, allocated domain.Credits) domain.Ticket {
	now := time.Now().UTC()
	return domain.Ticket{
		TicketID:         domain.NewTicketID(),
		FleetID:          fleetID,
		ShipSymbol:       domain.ShipSymbol(shipSymbol),
		Details:          details,
		AllocatedCredits: allocated,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func toTicketIDPtr(id *string) *domain.TicketID {
	if id == nil {
		return nil
	}
	ticketID := domain.TicketID(*id)
	return &ticketID
}

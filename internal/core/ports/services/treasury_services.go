package services

import (
	"context"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
	"github.com/stautomata/fleet_treasury/internal/dto"
)

// TreasuryReaderSvc defines read operations over the treasury projection.
type TreasuryReaderSvc interface {
	// GetFleetBudget retrieves the projected budget for one fleet.
	GetFleetBudget(ctx context.Context, fleetID domain.FleetID) (*domain.FleetBudget, error)

	// ListFleetBudgets retrieves all projected fleet budgets.
	ListFleetBudgets(ctx context.Context) (map[domain.FleetID]domain.FleetBudget, error)

	// CurrentAgentCredits is the treasury fund plus all fleet capital.
	CurrentAgentCredits(ctx context.Context) (domain.Credits, error)

	// CurrentTreasuryFund is the unallocated money held centrally.
	CurrentTreasuryFund(ctx context.Context) (domain.Credits, error)
}

// FleetFundingSvc defines the fund-movement operations between treasury and fleets.
type FleetFundingSvc interface {
	// CreateFleet opens a budget for a new fleet.
	CreateFleet(ctx context.Context, fleetID domain.FleetID, totalCapital domain.Credits) error

	// TopUpFleet transfers funds from the treasury until the fleet reaches
	// its total capital, bounded by what the treasury holds.
	TopUpFleet(ctx context.Context, fleetID domain.FleetID) error

	// ReturnExcessFunds transfers capital above the fleet's total back to the
	// treasury, if any.
	ReturnExcessFunds(ctx context.Context, fleetID domain.FleetID) error

	// SetFleetTotalCapital adjusts the fleet's capital target.
	SetFleetTotalCapital(ctx context.Context, fleetID domain.FleetID, newTotal domain.Credits) error

	// SetOperatingReserve adjusts the fleet's operating floor.
	SetOperatingReserve(ctx context.Context, fleetID domain.FleetID, newReserve domain.Credits) error

	// LogExpense records an outflow outside any ticket against a fleet.
	LogExpense(ctx context.Context, fleetID domain.FleetID, credits domain.Credits, maybeTicketID *domain.TicketID) error
}

// TicketIssuerSvc defines the ticket-creation and completion operations that
// move money through the ledger.
type TicketIssuerSvc interface {
	// CreatePurchaseTicket issues a purchase ticket, capping the quantity at
	// what the fleet can afford and reserving the allocated credits.
	CreatePurchaseTicket(ctx context.Context, req dto.CreatePurchaseTicketRequest) (*domain.Ticket, error)

	// CreateSellTicket issues a sell ticket.
	CreateSellTicket(ctx context.Context, req dto.CreateSellTicketRequest) (*domain.Ticket, error)

	// CreateShipPurchaseTicket issues a ship purchase ticket.
	CreateShipPurchaseTicket(ctx context.Context, req dto.CreateShipPurchaseTicketRequest) (*domain.Ticket, error)

	// CreateSupplyConstructionTicket issues a construction-material delivery ticket.
	CreateSupplyConstructionTicket(ctx context.Context, req dto.CreateSupplyConstructionTicketRequest) (*domain.Ticket, error)

	// CreateRefuelTicket issues a refueling ticket.
	CreateRefuelTicket(ctx context.Context, req dto.CreateRefuelTicketRequest) (*domain.Ticket, error)

	// CompleteTicket closes the ticket and appends its TicketCompleted ledger
	// entry atomically, then applies the outcome to the projection. The
	// second call for the same ticket fails with ErrTicketAlreadyClosed.
	CompleteTicket(ctx context.Context, ticketID domain.TicketID, actualUnits int64, actualPricePerUnit domain.Credits) (*dto.CloseTicketResponse, error)
}

// TreasurySvcFacade combines all treasury-related service interfaces.
type TreasurySvcFacade interface {
	TreasuryReaderSvc
	FleetFundingSvc
	TicketIssuerSvc
}
